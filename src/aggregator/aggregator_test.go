package aggregator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"investment-dashboard/src/helpers"
	"investment-dashboard/src/logger"
	"investment-dashboard/src/models"
)

func newTestAggregator(retries int) *Aggregator {
	cfg := &models.MConfig{LogLevel: "ERROR", Aggregator: models.MAggregatorConfig{Retries: retries, RetryBackoffMs: 1}}
	return NewAggregator(cfg, logger.NewLogger(cfg, "test"))
}

func ok(v string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return v, nil }
}

func fail(status int) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		return "", helpers.NewTransportError("/x", status, "boom", nil)
	}
}

func TestFetchAll_OneRejected(t *testing.T) {
	a := newTestAggregator(0)
	out := a.FetchAll(context.Background(), []Request{
		Call("a", ok("A")),
		Call("b", fail(500)),
		Call("c", ok("C")),
	})

	if len(out) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(out))
	}
	rejected := 0
	for _, o := range out {
		if !o.Fulfilled() {
			rejected++
		}
	}
	if rejected != 1 {
		t.Fatalf("expected exactly 1 rejected, got %d", rejected)
	}
	if out["b"].Reason != "HTTP 500: boom" {
		t.Fatalf("unexpected reason %q", out["b"].Reason)
	}
	if v, ok := Value[string](out, "c"); !ok || v != "C" {
		t.Fatalf("expected C, got %q %v", v, ok)
	}
	if _, ok := Value[string](out, "b"); ok {
		t.Fatalf("rejected outcome must not yield a value")
	}
}

func TestFetchAll_WaitsForSlowSources(t *testing.T) {
	a := newTestAggregator(0)
	slow := func(context.Context) (string, error) {
		time.Sleep(40 * time.Millisecond)
		return "slow", nil
	}

	out := a.FetchAll(context.Background(), []Request{Call("fast", fail(503)), Call("slow", slow)})
	if v, ok := Value[string](out, "slow"); !ok || v != "slow" {
		t.Fatalf("slow source must settle before return")
	}
}

func TestFetchAll_RunsConcurrently(t *testing.T) {
	a := newTestAggregator(0)
	var inFlight, peak int32
	fn := func(context.Context) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return "x", nil
	}

	a.FetchAll(context.Background(), []Request{Call("a", fn), Call("b", fn), Call("c", fn)})
	if atomic.LoadInt32(&peak) < 2 {
		t.Fatalf("expected concurrent execution, peak=%d", peak)
	}
}

func TestFetchAll_PanicBecomesRejection(t *testing.T) {
	a := newTestAggregator(0)
	boom := func(context.Context) (string, error) { panic("bad decoder") }

	out := a.FetchAll(context.Background(), []Request{Call("a", ok("A")), Call("b", boom)})
	if out["b"].Fulfilled() {
		t.Fatalf("expected rejected outcome for panicking source")
	}
	if !out["a"].Fulfilled() {
		t.Fatalf("healthy source must still be fulfilled")
	}
}

func TestFetchAll_DuplicateNamesKeepFirst(t *testing.T) {
	a := newTestAggregator(0)
	out := a.FetchAll(context.Background(), []Request{Call("a", ok("first")), Call("a", ok("second"))})
	if len(out) != 1 {
		t.Fatalf("expected a single entry, got %d", len(out))
	}
	if v, _ := Value[string](out, "a"); v != "first" {
		t.Fatalf("expected first request to win, got %q", v)
	}
}

func TestFetchAll_EmptyRequests(t *testing.T) {
	a := newTestAggregator(0)
	out := a.FetchAll(context.Background(), nil)
	if len(out) != 0 {
		t.Fatalf("expected empty mapping")
	}
}

func TestFetchAll_RetriesOnlyRetryable(t *testing.T) {
	a := newTestAggregator(2)

	var serverCalls, clientCalls int32
	flaky := func(context.Context) (string, error) {
		if atomic.AddInt32(&serverCalls, 1) < 3 {
			return "", helpers.NewTransportError("/x", 502, "bad gateway", nil)
		}
		return "recovered", nil
	}
	notFound := func(context.Context) (string, error) {
		atomic.AddInt32(&clientCalls, 1)
		return "", helpers.NewTransportError("/y", 404, "missing", nil)
	}

	out := a.FetchAll(context.Background(), []Request{Call("flaky", flaky), Call("missing", notFound)})
	if v, ok := Value[string](out, "flaky"); !ok || v != "recovered" {
		t.Fatalf("expected flaky source to recover, got %+v", out["flaky"])
	}
	if serverCalls != 3 {
		t.Fatalf("expected 3 attempts, got %d", serverCalls)
	}
	if clientCalls != 1 {
		t.Fatalf("404 must not be retried, got %d attempts", clientCalls)
	}
}

func TestFetchAll_CancelledContextRejects(t *testing.T) {
	a := newTestAggregator(3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	waiter := func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", helpers.NewTransportError("/z", 0, "request failed", ctx.Err())
	}
	out := a.FetchAll(ctx, []Request{Call("z", waiter)})
	if out["z"].Fulfilled() {
		t.Fatalf("expected rejection")
	}
	if !errors.Is(out["z"].Err, context.Canceled) {
		t.Fatalf("expected context.Canceled cause, got %v", out["z"].Err)
	}
}
