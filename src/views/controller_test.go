package views

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"investment-dashboard/src/aggregator"
	"investment-dashboard/src/helpers"
	"investment-dashboard/src/logger"
	"investment-dashboard/src/models"
	"investment-dashboard/src/storage"
)

func testDeps() (*aggregator.Aggregator, *logger.Logger) {
	cfg := &models.MConfig{LogLevel: "ERROR"}
	log := logger.NewLogger(cfg, "test")
	return aggregator.NewAggregator(cfg, log), log
}

func okSource(name string, rows ...string) Source {
	return SourceSpec[[]string]{
		Name: name,
		Fetch: func(context.Context, models.MQuery) ([]string, error) {
			return rows, nil
		},
		Empty:     func(v []string) bool { return len(v) == 0 },
		EmptyText: "nothing here",
	}.Build()
}

func failSource(name string, status int, sample []string) Source {
	spec := SourceSpec[[]string]{
		Name: name,
		Fetch: func(context.Context, models.MQuery) ([]string, error) {
			return nil, helpers.NewTransportError("/"+name, status, "boom", nil)
		},
	}
	if sample != nil {
		spec.Sample = &sample
	}
	return spec.Build()
}

func newController(t *testing.T, policy Policy, sources ...Source) *Controller {
	t.Helper()
	agg, log := testDeps()
	def := Definition{Name: "test", Sources: sources, Filters: []string{"county", "min_score", "status", "limit", "offset"}}
	return NewController(def, agg, storage.NewMemoryDB(), policy, log)
}

// -----------------------------------------------------------------------------

func TestController_StartsIdle(t *testing.T) {
	c := newController(t, Policy{}, okSource("a", "x"))
	if s := c.State(); s.Status != models.ViewIdle || s.Generation != 0 {
		t.Fatalf("expected idle generation 0, got %s/%d", s.Status, s.Generation)
	}
}

func TestController_AllFulfilledIsReady(t *testing.T) {
	c := newController(t, Policy{}, okSource("a", "x"), okSource("b", "y"))

	state, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if state.Status != models.ViewReady {
		t.Fatalf("expected ready, got %s", state.Status)
	}
	if state.Notice != "" {
		t.Fatalf("expected no notice, got %q", state.Notice)
	}
	if got := state.Sections["a"].Data; !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("unexpected data %v", got)
	}
}

func TestController_OneRejectedIsDegraded(t *testing.T) {
	c := newController(t, Policy{}, okSource("analytics", "x"), failSource("health", 503, nil))

	state, _ := c.Refresh(context.Background())
	if state.Status != models.ViewDegraded {
		t.Fatalf("expected degraded, got %s", state.Status)
	}
	if state.Sections["analytics"].Origin != models.OriginLive {
		t.Fatalf("live section lost: %+v", state.Sections["analytics"])
	}
	health := state.Sections["health"]
	if health.Origin != models.OriginNone || health.HasData() {
		t.Fatalf("failed section should have no data: %+v", health)
	}
	if !strings.Contains(state.Notice, "HTTP 503") {
		t.Fatalf("notice should name the failure, got %q", state.Notice)
	}
}

func TestController_AllRejectedWithoutFallbackIsError(t *testing.T) {
	c := newController(t, Policy{Sample: true, Cached: true}, failSource("a", 500, nil), failSource("b", 0, nil))

	state, _ := c.Refresh(context.Background())
	if state.Status != models.ViewError {
		t.Fatalf("expected error, got %s", state.Status)
	}
	if !strings.HasPrefix(state.Notice, "Failed to load test") {
		t.Fatalf("unexpected notice %q", state.Notice)
	}
}

func TestController_AllRejectedWithSampleIsDegraded(t *testing.T) {
	c := newController(t, Policy{Sample: true}, failSource("a", 500, []string{"sample"}))

	state, _ := c.Refresh(context.Background())
	if state.Status != models.ViewDegraded {
		t.Fatalf("expected degraded, got %s", state.Status)
	}
	section := state.Sections["a"]
	if section.Origin != models.OriginFallback {
		t.Fatalf("expected fallback origin, got %s", section.Origin)
	}
	if !strings.Contains(state.Notice, "showing sample data") {
		t.Fatalf("notice should disclose sample data, got %q", state.Notice)
	}
}

func TestController_SampleDisabledByPolicy(t *testing.T) {
	c := newController(t, Policy{Sample: false}, failSource("a", 500, []string{"sample"}))

	state, _ := c.Refresh(context.Background())
	if state.Status != models.ViewError {
		t.Fatalf("expected error with sample disabled, got %s", state.Status)
	}
}

func TestController_SampleNeverOverwritesLive(t *testing.T) {
	sample := []string{"sample"}
	src := SourceSpec[[]string]{
		Name:   "a",
		Fetch:  func(context.Context, models.MQuery) ([]string, error) { return []string{"live"}, nil },
		Sample: &sample,
	}.Build()
	c := newController(t, Policy{Sample: true}, src)

	state, _ := c.Refresh(context.Background())
	section := state.Sections["a"]
	if section.Origin != models.OriginLive || !reflect.DeepEqual(section.Data, []string{"live"}) {
		t.Fatalf("expected live data, got %+v", section)
	}
}

func TestController_CachedPreferredOverSample(t *testing.T) {
	var failing atomic.Bool
	sample := []string{"sample"}
	src := SourceSpec[[]string]{
		Name:      "a",
		UsesQuery: true,
		Fetch: func(context.Context, models.MQuery) ([]string, error) {
			if failing.Load() {
				return nil, helpers.NewTransportError("/a", 502, "bad gateway", nil)
			}
			return []string{"earlier"}, nil
		},
		Sample: &sample,
	}.Build()
	c := newController(t, Policy{Sample: true, Cached: true}, src)
	ctx := context.Background()

	if _, err := c.Refresh(ctx); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	failing.Store(true)
	state, _ := c.Refresh(ctx)
	section := state.Sections["a"]
	if section.Origin != models.OriginCached {
		t.Fatalf("expected cached origin, got %s", section.Origin)
	}
	if !reflect.DeepEqual(section.Data, []string{"earlier"}) {
		t.Fatalf("expected cached payload, got %v", section.Data)
	}
	if section.CapturedAt.IsZero() {
		t.Fatalf("cached section must carry its capture time")
	}
	if state.Status != models.ViewDegraded || !strings.Contains(state.Notice, "cached data") {
		t.Fatalf("expected degraded with cached notice, got %s %q", state.Status, state.Notice)
	}

	// Another query has no snapshot; sample data is used.
	state, _ = c.ApplyFilter(ctx, models.MFilterState{County: "Cobb"})
	if got := state.Sections["a"].Origin; got != models.OriginFallback {
		t.Fatalf("expected fallback for uncached query, got %s", got)
	}
}

func TestController_EmptyLiveResultIsReady(t *testing.T) {
	c := newController(t, Policy{Sample: true}, okSource("a"))

	state, _ := c.Refresh(context.Background())
	if state.Status != models.ViewReady {
		t.Fatalf("expected ready, got %s", state.Status)
	}
	section := state.Sections["a"]
	if !section.Empty || section.EmptyText != "nothing here" {
		t.Fatalf("expected empty state message, got %+v", section)
	}
}

// -----------------------------------------------------------------------------
// Generations
// -----------------------------------------------------------------------------

func TestController_StaleGenerationDiscarded(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	src := SourceSpec[string]{
		Name: "a",
		Fetch: func(context.Context, models.MQuery) (string, error) {
			if calls.Add(1) == 1 {
				close(started)
				<-release
				return "old", nil
			}
			return "new", nil
		},
	}.Build()
	c := newController(t, Policy{}, src)
	ctx := context.Background()

	type result struct {
		state models.MViewState
		err   error
	}
	first := make(chan result, 1)
	go func() {
		s, err := c.Refresh(ctx)
		first <- result{s, err}
	}()

	<-started
	second, err := c.Refresh(ctx)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if second.Generation != 2 || second.Sections["a"].Data != "new" {
		t.Fatalf("unexpected second state %+v", second)
	}

	close(release)
	r := <-first
	if !errors.Is(r.err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", r.err)
	}

	state := c.State()
	if state.Generation != 2 || state.Sections["a"].Data != "new" {
		t.Fatalf("stale generation overwrote state: %+v", state)
	}
}

func TestController_SupersededGenerationCancelled(t *testing.T) {
	var calls atomic.Int32
	cancelled := make(chan struct{})
	started := make(chan struct{})

	src := SourceSpec[string]{
		Name: "a",
		Fetch: func(ctx context.Context, _ models.MQuery) (string, error) {
			if calls.Add(1) == 1 {
				close(started)
				<-ctx.Done()
				close(cancelled)
				return "", ctx.Err()
			}
			return "fresh", nil
		},
	}.Build()
	c := newController(t, Policy{}, src)

	done := make(chan error, 1)
	go func() {
		_, err := c.Refresh(context.Background())
		done <- err
	}()

	<-started
	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatalf("superseded generation was not cancelled")
	}
	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
}

func TestController_CallerCancellationKeepsSharedState(t *testing.T) {
	src := SourceSpec[[]string]{
		Name: "a",
		Fetch: func(ctx context.Context, _ models.MQuery) ([]string, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return []string{"x"}, nil
		},
	}.Build()
	c := newController(t, Policy{}, src)

	if state, err := c.Refresh(context.Background()); err != nil || state.Status != models.ViewReady {
		t.Fatalf("expected ready, got %s (%v)", state.Status, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state, err := c.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if state.Status != models.ViewReady {
		t.Fatalf("a dropped caller must not fail the view, got %s (%s)", state.Status, state.Notice)
	}
	shared := c.State()
	if shared.Status != models.ViewReady || !reflect.DeepEqual(shared.Sections["a"].Data, []string{"x"}) {
		t.Fatalf("shared state lost live data: %s %+v", shared.Status, shared.Sections["a"])
	}
}

func TestController_PublishDropsOlderGenerations(t *testing.T) {
	c := newController(t, Policy{}, okSource("a", "x"))

	var seen []uint64
	listeners := []func(models.MViewState){func(s models.MViewState) { seen = append(seen, s.Generation) }}

	c.publish(listeners, models.MViewState{Generation: 2, Status: models.ViewLoading})
	c.publish(listeners, models.MViewState{Generation: 1, Status: models.ViewReady})
	c.publish(listeners, models.MViewState{Generation: 2, Status: models.ViewReady})

	if !reflect.DeepEqual(seen, []uint64{2, 2}) {
		t.Fatalf("expected only generation 2 frames, got %v", seen)
	}
}

func TestController_ListenerSeesLoadingThenResult(t *testing.T) {
	c := newController(t, Policy{}, okSource("a", "x"))

	var mu sync.Mutex
	var seen []models.ViewStatus
	c.OnChange(func(s models.MViewState) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})

	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []models.ViewStatus{models.ViewLoading, models.ViewReady}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
}

// -----------------------------------------------------------------------------
// Filters
// -----------------------------------------------------------------------------

func TestController_ValidationErrorLeavesDataUnchanged(t *testing.T) {
	var calls atomic.Int32
	src := SourceSpec[[]string]{
		Name: "a",
		Fetch: func(context.Context, models.MQuery) ([]string, error) {
			calls.Add(1)
			return []string{"row"}, nil
		},
	}.Build()
	c := newController(t, Policy{}, src)
	ctx := context.Background()

	before, err := c.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	bad := 150
	after, err := c.ApplyFilter(ctx, models.MFilterState{MinScore: &bad})
	var ve *helpers.ValidationError
	if !errors.As(err, &ve) || ve.Field != "min_score" {
		t.Fatalf("expected min_score ValidationError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("invalid filter must not issue a request, got %d calls", calls.Load())
	}
	if after.FilterError == nil || after.FilterError.Field != "min_score" {
		t.Fatalf("expected inline filter error, got %+v", after.FilterError)
	}
	if after.Status != before.Status || after.Generation != before.Generation {
		t.Fatalf("state changed: %s/%d -> %s/%d", before.Status, before.Generation, after.Status, after.Generation)
	}
	if !reflect.DeepEqual(after.Sections, before.Sections) || !reflect.DeepEqual(after.Filter, before.Filter) {
		t.Fatalf("data or filter changed on invalid input")
	}

	// A valid filter clears the inline error.
	good := 80
	state, err := c.ApplyFilter(ctx, models.MFilterState{MinScore: &good})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if state.FilterError != nil {
		t.Fatalf("filter error should be cleared, got %+v", state.FilterError)
	}
	if got := state.Query.Params()["min_score"]; got != "80" {
		t.Fatalf("expected min_score=80 in query, got %q", got)
	}
}

func TestController_RawFilterParseError(t *testing.T) {
	c := newController(t, Policy{}, okSource("a", "x"))

	state, err := c.ApplyRawFilter(context.Background(), models.MRawFilter{Limit: "ten"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if state.FilterError == nil || state.FilterError.Field != "limit" {
		t.Fatalf("expected limit field error, got %+v", state.FilterError)
	}
	if state.Status != models.ViewIdle {
		t.Fatalf("status should stay idle, got %s", state.Status)
	}
}

func TestController_UnsupportedFilterField(t *testing.T) {
	agg, log := testDeps()
	def := Definition{Name: "narrow", Sources: []Source{okSource("a", "x")}, Filters: []string{"min_score"}}
	c := NewController(def, agg, nil, Policy{}, log)

	_, err := c.ApplyFilter(context.Background(), models.MFilterState{County: "Fulton"})
	var ve *helpers.ValidationError
	if !errors.As(err, &ve) || ve.Field != "county" {
		t.Fatalf("expected county ValidationError, got %v", err)
	}
}

func TestController_ClearFilterRestoresDefault(t *testing.T) {
	agg, log := testDeps()
	def := Definition{
		Name:          "ops",
		Sources:       []Source{okSource("a", "x")},
		Filters:       []string{"min_score", "limit"},
		DefaultFilter: models.MFilterState{MinScore: models.ScoreOf(70), Limit: 25},
	}
	c := NewController(def, agg, nil, Policy{}, log)
	ctx := context.Background()

	if _, err := c.ApplyFilter(ctx, models.MFilterState{MinScore: models.ScoreOf(90)}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	state, err := c.ClearFilter(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := state.Query.Key(); got != "limit=25&min_score=70" {
		t.Fatalf("expected default query, got %q", got)
	}
}

func TestController_LimitCappedPerView(t *testing.T) {
	var sent atomic.Int32
	src := SourceSpec[[]string]{
		Name:      "a",
		UsesQuery: true,
		Fetch: func(context.Context, models.MQuery) ([]string, error) {
			sent.Add(1)
			return []string{"x"}, nil
		},
	}.Build()
	agg, log := testDeps()
	def := Definition{Name: "capped", Sources: []Source{src}, Filters: []string{"min_score", "limit"}, MaxLimit: 100}
	c := NewController(def, agg, storage.NewMemoryDB(), Policy{}, log)

	state, err := c.ApplyRawFilter(context.Background(), models.MRawFilter{Limit: "100"})
	if err != nil || state.Status != models.ViewReady || sent.Load() != 1 {
		t.Fatalf("limit 100 should load: %s %v (sent %d)", state.Status, err, sent.Load())
	}

	state, err = c.ApplyRawFilter(context.Background(), models.MRawFilter{Limit: "101"})
	var ve *helpers.ValidationError
	if !errors.As(err, &ve) || ve.Field != "limit" {
		t.Fatalf("expected limit validation error, got %v", err)
	}
	if sent.Load() != 1 {
		t.Fatalf("rejected limit must not reach the backend")
	}
	if state.FilterError == nil || state.FilterError.Field != "limit" || state.Status != models.ViewReady {
		t.Fatalf("expected inline limit error on ready view, got %s %+v", state.Status, state.FilterError)
	}
}
