package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"investment-dashboard/src/helpers"
	"investment-dashboard/src/logger"
	"investment-dashboard/src/models"
)

// Request is one named backend call issued by FetchAll.
type Request struct {
	Name  string
	Fetch func(ctx context.Context) (any, error)
}

// Call adapts a typed endpoint operation into a Request.
func Call[T any](name string, fn func(ctx context.Context) (T, error)) Request {
	return Request{
		Name: name,
		Fetch: func(ctx context.Context) (any, error) {
			return fn(ctx)
		},
	}
}

// -----------------------------------------------------------------------------

// Aggregator fans a set of requests out concurrently and waits for all of
// them to settle. A failing request never drops or blocks the others.
type Aggregator struct {
	Retries int
	Backoff time.Duration
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAggregator(cfg *models.MConfig, log *logger.Logger) *Aggregator {
	return &Aggregator{
		Retries: cfg.Aggregator.Retries,
		Backoff: time.Duration(cfg.Aggregator.RetryBackoffMs) * time.Millisecond,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// FetchAll returns exactly one outcome per distinct request name. Repeated
// names are executed once; the first request with a name wins.
func (a *Aggregator) FetchAll(ctx context.Context, requests []Request) map[string]models.MFetchOutcome {
	results := make(map[string]models.MFetchOutcome, len(requests))
	var mu sync.Mutex
	var wg sync.WaitGroup

	seen := make(map[string]struct{}, len(requests))
	for _, req := range requests {
		if _, dup := seen[req.Name]; dup {
			a.Logger.Warning("Duplicate request name %q ignored", req.Name)
			continue
		}
		seen[req.Name] = struct{}{}

		wg.Add(1)
		go func(r Request) {
			defer wg.Done()
			outcome := a.settle(ctx, r)

			mu.Lock()
			results[r.Name] = outcome
			mu.Unlock()
		}(req)
	}
	wg.Wait()

	failed := 0
	for _, o := range results {
		if !o.Fulfilled() {
			failed++
		}
	}
	if failed > 0 {
		a.Logger.Info("Fetched %d/%d sources successfully", len(results)-failed, len(results))
	}
	return results
}

// -----------------------------------------------------------------------------

// settle runs one request under the retry policy and converts any failure,
// including a panic, into a rejected outcome.
func (a *Aggregator) settle(ctx context.Context, r Request) (outcome models.MFetchOutcome) {
	outcome.Name = r.Name

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("source %s panicked: %v", r.Name, rec)
			a.Logger.Error("%v", err)
			outcome = models.MFetchOutcome{Name: r.Name, Err: err, Reason: err.Error()}
		}
	}()

	value, err := helpers.RetryWithBackoff(ctx, a.Retries, a.Backoff, r.Fetch)
	if err != nil {
		a.Logger.Info("Source %s failed: %v", r.Name, err)
		outcome.Err = err
		outcome.Reason = helpers.Reason(err)
		return outcome
	}

	outcome.Value = value
	return outcome
}

// -----------------------------------------------------------------------------

// Value extracts a typed value from a fulfilled outcome.
func Value[T any](outcomes map[string]models.MFetchOutcome, name string) (T, bool) {
	var zero T
	o, ok := outcomes[name]
	if !ok || !o.Fulfilled() {
		return zero, false
	}
	v, ok := o.Value.(T)
	return v, ok
}
