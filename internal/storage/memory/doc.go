// Package memory provides the in-memory keyspace for memkv.
//
// It implements a map from key to value-with-optional-expiry on top of a
// sharded concurrent map. Expiry is lazy: a read evaluates liveness fresh
// against the clock and treats a dead entry as absent without evicting it.
// All mutation flows through Insert, whose condition evaluation, TTL
// computation and write happen as one critical section under the key's
// shard lock, which is what makes NX/XX races resolve to a single winner.
//
// An optional Sweeper reclaims dead entries periodically; without it an
// expired entry survives physically until the next write to its key.
package memory
