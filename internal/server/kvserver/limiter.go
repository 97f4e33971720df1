package kvserver

import (
	"sync"

	"golang.org/x/time/rate"
)

// ipLimiters holds one token-bucket limiter per client IP.
type ipLimiters struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

func newIPLimiters(perSecond int) *ipLimiters {
	return &ipLimiters{
		m:     make(map[string]*rate.Limiter),
		limit: rate.Limit(perSecond),
		burst: perSecond,
	}
}

// allow reports whether a command from the given IP may proceed.
func (l *ipLimiters) allow(ip string) bool {
	l.mu.Lock()
	lim, ok := l.m[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.m[ip] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
