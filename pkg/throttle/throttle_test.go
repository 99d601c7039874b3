package throttle_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/assent/pkg/throttle"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGuard(clock *fakeClock, opts ...throttle.Option) *throttle.Guard {
	opts = append(opts, throttle.WithClock(clock.Now))
	return throttle.New(time.Minute, discardLogger(), opts...)
}

var reasoning = throttle.Limit{Prefix: "reasoning", Window: 60 * time.Second, MaxRequests: 10}

func TestCheckAllowsUpToMax(t *testing.T) {
	clock := newFakeClock()
	g := newGuard(clock)

	for i := range 10 {
		r := g.Check(reasoning, "user-1")
		if !r.Allowed {
			t.Fatalf("check %d denied, want allowed", i+1)
		}
		if want := 10 - (i + 1); r.Remaining != want {
			t.Errorf("check %d remaining = %d, want %d", i+1, r.Remaining, want)
		}
		clock.Advance(time.Second)
	}

	r := g.Check(reasoning, "user-1")
	if r.Allowed {
		t.Fatal("11th check allowed, want denied")
	}
	if s := r.RetryAfterSeconds(); s < 1 || s > 60 {
		t.Errorf("RetryAfterSeconds = %d, want between 1 and 60", s)
	}
	if r.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", r.Remaining)
	}
}

func TestCheckResetsAfterWindow(t *testing.T) {
	clock := newFakeClock()
	g := newGuard(clock)

	for range 10 {
		g.Check(reasoning, "user-1")
	}
	if r := g.Check(reasoning, "user-1"); r.Allowed {
		t.Fatal("check within exhausted window allowed")
	}

	clock.Advance(60 * time.Second)

	r := g.Check(reasoning, "user-1")
	if !r.Allowed {
		t.Fatal("check after window elapsed denied")
	}
	if r.Remaining != 9 {
		t.Errorf("Remaining = %d, want 9 after reset", r.Remaining)
	}
	if r.ResetInSeconds() != 60 {
		t.Errorf("ResetInSeconds = %d, want 60", r.ResetInSeconds())
	}
}

func TestRetryAfterRoundsUp(t *testing.T) {
	clock := newFakeClock()
	g := newGuard(clock)
	limit := throttle.Limit{Prefix: "api", Window: time.Minute, MaxRequests: 1}

	g.Check(limit, "user-1")
	clock.Advance(30*time.Second + 500*time.Millisecond)

	r := g.Check(limit, "user-1")
	if r.Allowed {
		t.Fatal("second check allowed, want denied")
	}
	if r.RetryAfter != 29*time.Second+500*time.Millisecond {
		t.Errorf("RetryAfter = %v, want 29.5s", r.RetryAfter)
	}
	if r.RetryAfterSeconds() != 30 {
		t.Errorf("RetryAfterSeconds = %d, want 30", r.RetryAfterSeconds())
	}
}

func TestFixedWindowAllowsBoundaryBurst(t *testing.T) {
	clock := newFakeClock()
	g := newGuard(clock)

	g.Check(reasoning, "user-1")
	clock.Advance(59 * time.Second)
	for range 9 {
		g.Check(reasoning, "user-1")
	}

	clock.Advance(time.Second)

	allowed := 0
	for range 10 {
		if g.Check(reasoning, "user-1").Allowed {
			allowed++
		}
	}
	if allowed != 10 {
		t.Errorf("allowed %d checks after boundary, want 10", allowed)
	}
}

func TestKeysAreIsolated(t *testing.T) {
	clock := newFakeClock()
	g := newGuard(clock)
	api := throttle.Limit{Prefix: "api", Window: time.Minute, MaxRequests: 1}
	reason := throttle.Limit{Prefix: "reasoning", Window: time.Minute, MaxRequests: 1}

	if !g.Check(api, "user-1").Allowed {
		t.Fatal("api check denied")
	}
	if !g.Check(reason, "user-1").Allowed {
		t.Error("reasoning check shares api count")
	}
	if !g.Check(api, "user-2").Allowed {
		t.Error("user-2 shares user-1 count")
	}
	if g.Check(api, "user-1").Allowed {
		t.Error("user-1 api check allowed past max")
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	clock := newFakeClock()
	g := newGuard(clock)
	short := throttle.Limit{Prefix: "short", Window: 10 * time.Second, MaxRequests: 5}
	long := throttle.Limit{Prefix: "long", Window: time.Hour, MaxRequests: 5}

	g.Check(short, "a")
	g.Check(short, "b")
	g.Check(long, "a")

	clock.Advance(10 * time.Second)

	if n := g.Sweep(); n != 2 {
		t.Errorf("Sweep removed %d, want 2", n)
	}
	if g.Len() != 1 {
		t.Errorf("Len = %d, want 1", g.Len())
	}

	r := g.Check(long, "a")
	if r.Remaining != 3 {
		t.Errorf("long window remaining = %d, want 3 (count preserved)", r.Remaining)
	}
}

func TestConcurrentChecksAreAtomic(t *testing.T) {
	clock := newFakeClock()
	g := newGuard(clock)
	limit := throttle.Limit{Prefix: "api", Window: time.Minute, MaxRequests: 20}

	var allowed atomic.Int32
	var wg sync.WaitGroup

	for range 100 {
		wg.Go(func() {
			if g.Check(limit, "shared").Allowed {
				allowed.Add(1)
			}
		})
	}
	for range 10 {
		wg.Go(func() {
			g.Sweep()
		})
	}
	wg.Wait()

	if got := allowed.Load(); got != 20 {
		t.Errorf("allowed = %d, want 20", got)
	}
}

func TestRunSweepsInBackground(t *testing.T) {
	clock := newFakeClock()
	g := throttle.New(5*time.Millisecond, discardLogger(), throttle.WithClock(clock.Now))
	limit := throttle.Limit{Prefix: "api", Window: time.Second, MaxRequests: 1}

	g.Check(limit, "a")
	clock.Advance(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		g.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for g.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("background sweep did not reclaim expired window")
		case <-time.After(5 * time.Millisecond):
		}
	}

	g.Close()
	g.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestMetrics(t *testing.T) {
	clock := newFakeClock()
	reg := prometheus.NewRegistry()
	g := newGuard(clock, throttle.WithMetrics(throttle.NewMetrics(reg)))
	limit := throttle.Limit{Prefix: "api", Window: time.Minute, MaxRequests: 2}

	for range 3 {
		g.Check(limit, "user-1")
	}

	expected := `
# HELP assent_throttle_checks_total Total number of throttle checks by key prefix and result
# TYPE assent_throttle_checks_total counter
assent_throttle_checks_total{prefix="api",result="allowed"} 2
assent_throttle_checks_total{prefix="api",result="blocked"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "assent_throttle_checks_total"); err != nil {
		t.Error(err)
	}
}

func TestIdentity(t *testing.T) {
	ctx := context.Background()
	if got := throttle.Identity(ctx); got != throttle.Anonymous {
		t.Errorf("Identity = %q, want %q", got, throttle.Anonymous)
	}

	ctx = throttle.WithIdentity(ctx, "clinic-42")
	if got := throttle.Identity(ctx); got != "clinic-42" {
		t.Errorf("Identity = %q, want clinic-42", got)
	}
}
