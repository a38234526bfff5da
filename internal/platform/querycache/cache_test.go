package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache() (*Cache, *clock) {
	clk := &clock{now: time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)}
	c := New(30*time.Second, zerolog.Nop())
	c.SetClock(clk.Now)
	return c, clk
}

func counter(n *int32, value string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		atomic.AddInt32(n, 1)
		return value, nil
	}
}

func TestFetch_CachesUntilStale(t *testing.T) {
	c, clk := newTestCache()
	var loads int32
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v, err := Fetch(ctx, c, "k", 0, counter(&loads, "v"))
		if err != nil || v != "v" {
			t.Fatalf("Fetch = %q, %v", v, err)
		}
	}
	if loads != 1 {
		t.Errorf("expected 1 load, got %d", loads)
	}

	clk.Advance(31 * time.Second)
	Fetch(ctx, c, "k", 0, counter(&loads, "v"))
	if loads != 2 {
		t.Errorf("expected reload after stale time, got %d loads", loads)
	}
}

func TestFetch_NeverStale(t *testing.T) {
	c, clk := newTestCache()
	var loads int32
	Fetch(context.Background(), c, "states", Never, counter(&loads, "v"))
	clk.Advance(24 * time.Hour)
	Fetch(context.Background(), c, "states", Never, counter(&loads, "v"))
	if loads != 1 {
		t.Errorf("expected 1 load, got %d", loads)
	}
}

func TestFetch_ErrorNotCached(t *testing.T) {
	c, _ := newTestCache()
	boom := errors.New("boom")
	_, err := Fetch(context.Background(), c, "k", 0, func(context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	v, err := Fetch(context.Background(), c, "k", 0, func(context.Context) (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("expected retry to load 7, got %d, %v", v, err)
	}
}

func TestFetch_CollapsesConcurrentLoads(t *testing.T) {
	c, _ := newTestCache()
	var loads int32
	release := make(chan struct{})
	load := func(context.Context) (string, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Fetch(context.Background(), c, "k", 0, load)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&loads); n != 1 {
		t.Errorf("expected a single load, got %d", n)
	}
}

func TestInvalidate_ByPrefix(t *testing.T) {
	c, _ := newTestCache()
	var day, month int32
	ctx := context.Background()
	Fetch(ctx, c, Key("appointmentsByDay", "t1", "2024-06-10"), 0, counter(&day, "d"))
	Fetch(ctx, c, Key("calendarMonth", "t1", "2024-06"), 0, counter(&month, "m"))

	keys := c.Invalidate(Key("appointmentsByDay", "t1"))
	if len(keys) != 1 {
		t.Fatalf("expected 1 invalidated key, got %v", keys)
	}

	Fetch(ctx, c, Key("appointmentsByDay", "t1", "2024-06-10"), 0, counter(&day, "d"))
	Fetch(ctx, c, Key("calendarMonth", "t1", "2024-06"), 0, counter(&month, "m"))
	if day != 2 || month != 1 {
		t.Errorf("expected day reload only, got day=%d month=%d", day, month)
	}
}

func TestRefetch_ReloadsEagerly(t *testing.T) {
	c, _ := newTestCache()
	var a, b int32
	ctx := context.Background()
	Fetch(ctx, c, "dashboardSummary/t1", 0, counter(&a, "s"))
	Fetch(ctx, c, "dashboardMegaStats/t1", 0, counter(&b, "m"))

	if err := c.Refetch(ctx, "dashboardSummary", "dashboardMegaStats", "unknown"); err != nil {
		t.Fatalf("Refetch: %v", err)
	}
	if a != 2 || b != 2 {
		t.Errorf("expected both reloaded, got a=%d b=%d", a, b)
	}

	// Freshly refetched values are served from cache.
	Fetch(ctx, c, "dashboardSummary/t1", 0, counter(&a, "s"))
	if a != 2 {
		t.Errorf("expected cached value after refetch, got %d loads", a)
	}
}

func TestRefetch_ReportsError(t *testing.T) {
	c, _ := newTestCache()
	calls := 0
	Fetch(context.Background(), c, "k", 0, func(context.Context) (string, error) {
		calls++
		if calls > 1 {
			return "", errors.New("down")
		}
		return "v", nil
	})
	if err := c.Refetch(context.Background(), "k"); err == nil {
		t.Error("expected refetch error")
	}
}

func TestInvalidate_DropsInFlightResult(t *testing.T) {
	c, _ := newTestCache()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		Fetch(context.Background(), c, "k", 0, func(context.Context) (string, error) {
			close(started)
			<-release
			return "old", nil
		})
		close(done)
	}()
	<-started
	c.Invalidate("k")
	close(release)
	<-done

	v, _ := Fetch(context.Background(), c, "k", 0, func(context.Context) (string, error) { return "new", nil })
	if v != "new" {
		t.Errorf("expected stale in-flight result to be discarded, got %q", v)
	}
}

func TestFetch_CancelledCallerDoesNotFailOthers(t *testing.T) {
	c, _ := newTestCache()
	var loads int32
	started := make(chan struct{})
	release := make(chan struct{})
	slow := func(context.Context) (string, error) {
		if atomic.AddInt32(&loads, 1) == 1 {
			close(started)
		}
		<-release
		return "v", nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := Fetch(ctxA, c, "k", 0, slow)
		errA <- err
	}()
	<-started

	type result struct {
		v   string
		err error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := Fetch(context.Background(), c, "k", 0, slow)
		resB <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller: expected context.Canceled, got %v", err)
	}

	close(release)
	got := <-resB
	if got.err != nil || got.v != "v" {
		t.Fatalf("live caller got %q, %v", got.v, got.err)
	}
	if n := atomic.LoadInt32(&loads); n != 1 {
		t.Errorf("expected a single shared load, got %d", n)
	}
}

func TestFetch_LoadFinishesAfterCallerLeaves(t *testing.T) {
	c, _ := newTestCache()
	var loads int32
	release := make(chan struct{})
	finished := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Fetch(ctx, c, "k", 0, func(lctx context.Context) (string, error) {
		defer close(finished)
		atomic.AddInt32(&loads, 1)
		<-release
		if lctx.Err() != nil {
			return "", lctx.Err()
		}
		return "v", nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(release)
	<-finished
	// The result is stored once the shared load returns.
	time.Sleep(50 * time.Millisecond)
	v, err := Fetch(context.Background(), c, "k", 0, counter(&loads, "other"))
	if err != nil || v != "v" {
		t.Errorf("expected stored value, got %q, %v", v, err)
	}
	if n := atomic.LoadInt32(&loads); n != 1 {
		t.Errorf("expected no second load, got %d", n)
	}
}

func TestInvalidate_StopsAtSegment(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	var n int32
	for _, k := range []string{"dashboardSummary/t1", "dashboardSummary/t10", "patients/t1/", "patients/t1/maria", "patients/t10/"} {
		Fetch(ctx, c, k, 0, counter(&n, "v"))
	}

	if keys := c.Invalidate("dashboardSummary/t1"); len(keys) != 1 || keys[0] != "dashboardSummary/t1" {
		t.Errorf("unexpected summary keys %v", keys)
	}
	if keys := c.Invalidate(Key("patients", "t1")); len(keys) != 2 {
		t.Errorf("expected both t1 patient keys, got %v", keys)
	}

	c.Remove("dashboardSummary/t1")
	if c.Len() != 4 {
		t.Errorf("Remove crossed a tenant boundary, %d keys left", c.Len())
	}
}
