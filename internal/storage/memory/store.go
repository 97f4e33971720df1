package memory

import (
	"time"

	"github.com/yndnr/memkv-go/internal/resp"
	"github.com/yndnr/memkv-go/pkg/cmap"
)

// InsertionMode is SET's conditional gate.
type InsertionMode uint8

const (
	// InsertNormal always writes.
	InsertNormal InsertionMode = iota
	// InsertIfExists writes only when a live entry is present (XX).
	InsertIfExists
	// InsertIfNotExists writes only when no live entry is present (NX).
	InsertIfNotExists
)

// ExpireKind selects how an Expiration's value is interpreted.
type ExpireKind uint8

const (
	// ExpireNone clears any existing TTL (a plain SET).
	ExpireNone ExpireKind = iota
	// ExpireRelativeSeconds sets expiry to now + value seconds (EX).
	ExpireRelativeSeconds
	// ExpireRelativeMillis sets expiry to now + value milliseconds (PX).
	ExpireRelativeMillis
	// ExpireAbsoluteSeconds sets expiry to value as a unix timestamp (EXAT).
	ExpireAbsoluteSeconds
	// ExpireAbsoluteMillis sets expiry to value as unix milliseconds (PXAT).
	ExpireAbsoluteMillis
	// ExpireKeepTTL preserves the previous live entry's expiry (KEEPTTL).
	ExpireKeepTTL
)

// Expiration is SET's TTL directive.
type Expiration struct {
	Kind  ExpireKind
	Value int64
}

// Entry is one stored value with an optional absolute expiry in unix
// milliseconds. ExpiresAt == 0 means the entry never expires.
type Entry struct {
	Value     resp.Value
	ExpiresAt int64
}

// live reports whether the entry is visible at the given time.
func (e Entry) live(now int64) bool {
	return e.ExpiresAt == 0 || e.ExpiresAt > now
}

// Outcome is the result of an Insert.
//
// A failed NX/XX condition is a normal, client-visible negative result,
// not an error: Written is false and nothing was mutated.
type Outcome struct {
	// Written reports whether the entry was replaced.
	Written bool
	// Previous holds the prior live value when one existed. An expired
	// prior value is reported as if no previous value existed.
	Previous    resp.Value
	HadPrevious bool
}

// Store is the shared keyspace. It is safe for concurrent use by any
// number of connections; every operation touches a single key and is
// atomic under that key's shard lock.
type Store struct {
	entries *cmap.Map[Entry]
	now     func() time.Time
	shards  int
}

// Option configures the Store.
type Option func(*Store)

// WithShards sets the shard count of the underlying map.
func WithShards(n int) Option {
	return func(s *Store) {
		s.shards = n
	}
}

// WithClock overrides the time source. Tests use this to exercise TTL
// behavior without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:    time.Now,
		shards: cmap.DefaultShardCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.entries = cmap.NewWithShards[Entry](s.shards)
	return s
}

// Get returns the value for key iff a live entry exists. A dead entry is
// treated as absent and left in place.
func (s *Store) Get(key string) (resp.Value, bool) {
	e, ok := s.entries.Get(key)
	if !ok || !e.live(s.now().UnixMilli()) {
		return resp.Value{}, false
	}
	return e.Value, true
}

// Has reports whether a live entry exists for key.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Insert conditionally replaces the entry for key.
//
// The lookup, TTL computation, condition evaluation and write run as one
// critical section, so concurrent NX/XX callers on the same key observe a
// consistent order.
func (s *Store) Insert(key string, value resp.Value, mode InsertionMode, exp Expiration) Outcome {
	now := s.now().UnixMilli()

	var out Outcome
	s.entries.Update(key, func(prev Entry, exists bool) (Entry, bool) {
		prevLive := exists && prev.live(now)

		var expiresAt int64
		switch exp.Kind {
		case ExpireRelativeSeconds:
			expiresAt = now + exp.Value*1000
		case ExpireRelativeMillis:
			expiresAt = now + exp.Value
		case ExpireAbsoluteSeconds:
			expiresAt = exp.Value * 1000
		case ExpireAbsoluteMillis:
			expiresAt = exp.Value
		case ExpireKeepTTL:
			if prevLive {
				expiresAt = prev.ExpiresAt
			}
		}

		switch mode {
		case InsertIfExists:
			if !prevLive {
				return Entry{}, false
			}
		case InsertIfNotExists:
			if prevLive {
				return Entry{}, false
			}
		}

		out.Written = true
		if prevLive {
			out.Previous = prev.Value
			out.HadPrevious = true
		}
		return Entry{Value: value, ExpiresAt: expiresAt}, true
	})
	return out
}

// Len returns the number of physical entries, dead ones included.
func (s *Store) Len() int {
	return s.entries.Len()
}

// Sweep removes every dead entry and reports how many were dropped.
func (s *Store) Sweep() int {
	now := s.now().UnixMilli()
	return s.entries.DeleteIf(func(_ string, e Entry) bool {
		return !e.live(now)
	})
}
