// Package connection provides the client-side socket for talking to a
// memkv server over its wire protocol.
package connection
