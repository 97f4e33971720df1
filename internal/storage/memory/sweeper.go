package memory

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultSweepInterval is how often the sweeper reclaims dead entries.
const DefaultSweepInterval = time.Minute

// Sweeper periodically removes dead entries from a Store.
//
// Reads never depend on it: liveness is re-evaluated on every Get. The
// sweep exists purely to reclaim memory held by write-once keys whose
// TTL elapsed and which would otherwise never be touched again.
type Sweeper struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger
	onSweep  func(removed int)

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepLogger sets the logger.
func WithSweepLogger(logger *slog.Logger) SweeperOption {
	return func(sw *Sweeper) {
		sw.logger = logger
	}
}

// WithOnSweep registers a callback invoked after each sweep with the
// number of entries removed. Used to feed metrics.
func WithOnSweep(fn func(removed int)) SweeperOption {
	return func(sw *Sweeper) {
		sw.onSweep = fn
	}
}

// NewSweeper creates a sweeper for store. An interval of 0 or less falls
// back to DefaultSweepInterval; callers that want the passive policy
// simply never start a sweeper.
func NewSweeper(store *Store, interval time.Duration, opts ...SweeperOption) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	sw := &Sweeper{
		store:    store,
		interval: interval,
		logger:   slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(sw)
	}
	return sw
}

// Start begins sweeping in a background goroutine.
func (sw *Sweeper) Start() {
	sw.wg.Add(1)
	go func() {
		defer sw.wg.Done()
		ticker := time.NewTicker(sw.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sw.sweep()
			case <-sw.done:
				return
			}
		}
	}()
}

// Stop halts the sweeper and waits for the in-flight sweep, if any.
func (sw *Sweeper) Stop() {
	sw.stopOnce.Do(func() {
		close(sw.done)
	})
	sw.wg.Wait()
}

func (sw *Sweeper) sweep() {
	start := time.Now()
	removed := sw.store.Sweep()
	if removed > 0 {
		sw.logger.Debug("swept expired entries",
			"removed", removed,
			"elapsed", time.Since(start))
	}
	if sw.onSweep != nil {
		sw.onSweep(removed)
	}
}
