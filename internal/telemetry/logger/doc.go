// Package logger provides structured logging for memkv.
//
// It wraps the standard library log/slog to provide structured JSON or
// text logging with a dynamically adjustable level, so the level can be
// changed at runtime (e.g. on configuration reload) without recreating
// handlers.
package logger
