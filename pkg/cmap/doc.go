// Package cmap provides a concurrent map implementation for memkv.
//
// This package implements a string-keyed sharded map optimized for a
// high-throughput keyspace:
//
//   - Sharding: configurable power-of-two shard count for parallelism
//   - Fine-grained locking: per-shard RWMutex for minimal contention
//   - Atomic read-modify-write: Update runs a callback under the shard lock
//   - Iteration: safe iteration while holding read locks
//
// Usage:
//
//	m := cmap.New[Entry]()
//	m.Set("key", entry)
//	val, ok := m.Get("key")
//
// Thread Safety:
//
// All operations are thread-safe. Read operations (Get, Has) use RLock,
// write operations (Set, Delete, Update, DeleteIf) use Lock.
package cmap
