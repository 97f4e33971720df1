// Package metric provides Prometheus metrics for memkv.
//
// It exposes metrics in Prometheus format for monitoring connection
// counts, command rates and latencies, and keyspace size.
package metric
