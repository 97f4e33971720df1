// Package kvserver provides the TCP front end of memkv.
//
// It owns the command grammar over decoded wire values, the dispatch of
// commands against the shared keyspace, and the per-connection serve loop
// with read/write/idle deadlines and per-IP rate limiting.
//
// Failures are split into two tiers. Transport-tier failures (malformed
// protocol input, I/O errors) terminate only their own connection.
// Application-tier failures (unknown command, bad arity, bad SET flag
// grammar) are ordinary replies carried by an Invalid command; the
// connection keeps serving.
package kvserver
