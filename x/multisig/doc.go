/*
Package multisig implements a delegated authority custody engine.

A multisig is a registry entry holding an ordered list of distinct owners, an
approval threshold and an owner set version counter. Every multisig has a
delegated authority: a keyless condition derived from the multisig ID and a
nonce assigned at creation. Executors accept the authority as an actor when
the authority condition is presented with the invocation.

An owner proposes an action (an executor identifier, a participant list and
an opaque payload). Proposing counts as the proposer's approval. Once the
threshold of approvals is reached, the proposal can be executed exactly once.
Execution flags every participant matching the authority address as a signer
and hands the action to the executor.

The owner set and the threshold can only be changed by the multisig itself:
the governance executor applies SetOwnersMsg and ChangeThresholdMsg payloads
only when invoked with the authority of the modified multisig. Replacing the
owner set bumps the version counter and makes every outstanding proposal
permanently stale.

Records are stored in fixed capacity cells. Capacity is planned before
creation for the largest state a record can reach, see MultisigCapacity and
ProposalCapacity.
*/
package multisig
