// Package throttle provides a fixed-window request guard keyed by
// (prefix, identifier), with a background sweep that reclaims expired windows.
//
// Windows are fixed: a caller may issue MaxRequests at the end of one window
// and MaxRequests again at the start of the next.
package throttle

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/JaimeStill/assent/pkg/lifecycle"
)

// Limit bounds how many checks an identifier may pass within one window.
// Prefix namespaces counters so different limits never share a count.
type Limit struct {
	Prefix      string
	Window      time.Duration
	MaxRequests int
}

// Result reports the outcome of a single Check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetIn    time.Duration
	RetryAfter time.Duration
}

// ResetInSeconds returns the time left in the current window, rounded up.
func (r Result) ResetInSeconds() int {
	return ceilSeconds(r.ResetIn)
}

// RetryAfterSeconds returns the delay before a denied caller should retry,
// rounded up to whole seconds. Zero when the check was allowed.
func (r Result) RetryAfterSeconds() int {
	if r.Allowed {
		return 0
	}
	return max(ceilSeconds(r.RetryAfter), 1)
}

type window struct {
	mu      sync.Mutex
	start   time.Time
	length  time.Duration
	count   int
	removed bool
}

func (w *window) expired(now time.Time) bool {
	return !w.start.IsZero() && !now.Before(w.start.Add(w.length))
}

// Guard counts checks per key in fixed windows. It is safe for concurrent use;
// each Check performs its read-check-increment under the key's own lock.
type Guard struct {
	mu       sync.RWMutex
	windows  map[string]*window
	now      func() time.Time
	interval time.Duration
	metrics  *Metrics
	logger   *slog.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock replaces the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// WithMetrics records check outcomes and sweep results on m.
func WithMetrics(m *Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

// New creates a Guard that sweeps expired windows every interval once started.
func New(interval time.Duration, logger *slog.Logger, opts ...Option) *Guard {
	g := &Guard{
		windows:  make(map[string]*window),
		now:      time.Now,
		interval: interval,
		logger:   logger.With("system", "throttle"),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check counts one request for identifier against limit.
//
// The first check for a key, or the first after its window has elapsed, opens
// a new window at the current time. Checks are allowed until the count reaches
// MaxRequests; later checks in the same window are denied with RetryAfter set
// to the time left in the window.
func (g *Guard) Check(limit Limit, identifier string) Result {
	key := limit.Prefix + ":" + identifier

	for {
		w := g.acquire(key)

		w.mu.Lock()
		if w.removed {
			w.mu.Unlock()
			g.forget(key, w)
			continue
		}

		result := g.count(w, limit)
		w.mu.Unlock()

		if g.metrics != nil {
			g.metrics.RecordCheck(limit.Prefix, result.Allowed)
		}
		return result
	}
}

// Sweep removes every window that has already elapsed and returns how many
// were reclaimed. Windows locked by an in-flight Check are skipped.
func (g *Guard) Sweep() int {
	now := g.now()

	g.mu.RLock()
	var expired []string
	for key, w := range g.windows {
		if !w.mu.TryLock() {
			continue
		}
		if w.expired(now) {
			w.removed = true
			expired = append(expired, key)
		}
		w.mu.Unlock()
	}
	g.mu.RUnlock()

	if len(expired) == 0 {
		return 0
	}

	g.mu.Lock()
	for _, key := range expired {
		if w, ok := g.windows[key]; ok && w.removed {
			delete(g.windows, key)
		}
	}
	remaining := len(g.windows)
	g.mu.Unlock()

	if g.metrics != nil {
		g.metrics.RecordSweep(len(expired), remaining)
	}
	return len(expired)
}

// Len returns the number of tracked windows.
func (g *Guard) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.windows)
}

// Start runs the sweep loop in the background until the coordinator shuts down.
func (g *Guard) Start(lc *lifecycle.Coordinator) error {
	g.logger.Info("starting throttle sweep", "interval", g.interval)

	go g.Run(lc.Context())

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		g.Close()
		g.logger.Info("throttle sweep stopped")
	})

	return nil
}

// Run sweeps expired windows every interval until ctx is cancelled or Close is called.
func (g *Guard) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-g.stop:
			return
		case <-ticker.C:
			if n := g.Sweep(); n > 0 {
				g.logger.Debug("throttle windows reclaimed", "count", n)
			}
		}
	}
}

// Close stops a running sweep loop. It is safe to call more than once.
func (g *Guard) Close() {
	g.stopOnce.Do(func() {
		close(g.stop)
	})
}

func (g *Guard) acquire(key string) *window {
	g.mu.RLock()
	w, ok := g.windows[key]
	g.mu.RUnlock()
	if ok {
		return w
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if w, ok := g.windows[key]; ok {
		return w
	}
	w = &window{}
	g.windows[key] = w
	return w
}

func (g *Guard) forget(key string, w *window) {
	g.mu.Lock()
	if g.windows[key] == w {
		delete(g.windows, key)
	}
	g.mu.Unlock()
}

func (g *Guard) count(w *window, limit Limit) Result {
	now := g.now()

	if w.start.IsZero() || w.expired(now) {
		w.start = now
		w.length = limit.Window
		w.count = 0
	}

	resetIn := w.start.Add(w.length).Sub(now)

	if w.count >= limit.MaxRequests {
		return Result{
			Allowed:    false,
			Limit:      limit.MaxRequests,
			Remaining:  0,
			ResetIn:    resetIn,
			RetryAfter: resetIn,
		}
	}

	w.count++
	return Result{
		Allowed:   true,
		Limit:     limit.MaxRequests,
		Remaining: limit.MaxRequests - w.count,
		ResetIn:   resetIn,
	}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
