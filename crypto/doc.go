/*
Package crypto provides the owner key material: ed25519 private and public
keys, their conversion into custody conditions and addresses, and
deterministic derivation of keys from a seed.

Keys are only ever used to prove that a request comes from an owner. The
delegated authority of a multisig never has a key and is not represented in
this package.
*/
package crypto
