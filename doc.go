// Package pope implements the Partitioned Ordered Persistence Engine: a
// durable append layer that accepts asynchronous write requests tagged with
// a (shard, partition) and guarantees that completion callbacks fire in
// submission order per partition, while permitting unrestricted parallelism
// across partitions.
//
// Within a partition, submission order, sequence order, queue order, and
// callback-release order are all identical; no ordering is guaranteed
// across partitions. See Engine for the public entry point.
package pope
