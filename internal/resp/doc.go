// Package resp implements the wire value model and codec for the memkv
// protocol, a subset of the Redis RESP family.
//
// A Value is one of a closed set of variants (nil, simple string, bulk
// string, array, integer, error), each with exactly one canonical byte
// serialization. Reader decodes one Value per call from a buffered stream;
// Value.Append is the inverse direction. For well-formed input the two are
// exact inverses.
package resp
