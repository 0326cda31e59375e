/*
Package orm provides the record store used by the custody engine.

Break state space into prefixed sections called buckets. Every record in a
RecordBucket is stored in a fixed capacity cell that is allocated when the
record is created:

  uint32 capacity | uint32 length | payload | zero padding

All later writes must fit into the capacity reserved at creation. Capacity
never grows, a write that does not fit fails with ErrCapacityExceeded and
leaves the stored record unchanged.

Indexes reference records by their key and a Sequence generates ordered
keys.
*/
package orm
