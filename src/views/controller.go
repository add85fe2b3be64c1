package views

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"investment-dashboard/src/aggregator"
	"investment-dashboard/src/helpers"
	"investment-dashboard/src/interfaces"
	"investment-dashboard/src/logger"
	"investment-dashboard/src/models"
	"investment-dashboard/src/query"
)

// ErrSuperseded is returned by a load whose generation was overtaken by a
// newer refresh or filter change. Its results were discarded.
var ErrSuperseded = errors.New("view generation superseded")

// Policy selects which substitutes may stand in for a failed source.
type Policy struct {
	Cached bool
	Sample bool
}

// -----------------------------------------------------------------------------

// Controller owns the state of a single view. Every load runs under a new
// generation; only the latest generation may commit.
type Controller struct {
	Definition Definition
	Aggregator *aggregator.Aggregator
	Store      interfaces.ISnapshotStore
	Policy     Policy
	Logger     *logger.Logger

	mu         sync.Mutex
	state      models.MViewState
	generation uint64
	cancel     context.CancelFunc
	listeners  []func(models.MViewState)

	// notifyMu keeps listener calls in generation order.
	notifyMu sync.Mutex
	notified uint64

	now func() time.Time
}

// -----------------------------------------------------------------------------

// NewController returns a controller in the Idle state. store may be nil.
func NewController(def Definition, agg *aggregator.Aggregator, store interfaces.ISnapshotStore, policy Policy, log *logger.Logger) *Controller {
	c := &Controller{
		Definition: def,
		Aggregator: agg,
		Store:      store,
		Policy:     policy,
		Logger:     log,
		now:        time.Now,
	}
	c.state = models.MViewState{
		View:     def.Name,
		Status:   models.ViewIdle,
		Filter:   def.DefaultFilter,
		Sections: map[string]models.MSection{},
	}
	if q, err := query.Build(def.DefaultFilter); err == nil {
		c.state.Query = q
	} else {
		log.Error("Default filter of view %s is invalid: %v", def.Name, err)
	}
	return c
}

// -----------------------------------------------------------------------------

// OnChange registers fn to receive every state transition.
func (c *Controller) OnChange(fn func(models.MViewState)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// State returns a copy of the current state.
func (c *Controller) State() models.MViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneState(c.state)
}

// Close cancels any in-flight load.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------
// Operations
// -----------------------------------------------------------------------------

// Refresh reloads the view with its current filter.
func (c *Controller) Refresh(ctx context.Context) (models.MViewState, error) {
	c.mu.Lock()
	filter, q := c.state.Filter, c.state.Query
	c.mu.Unlock()
	return c.load(ctx, filter, q)
}

// ApplyFilter validates f and reloads with it. An invalid filter leaves data
// and status untouched, records an inline field error, and sends nothing.
func (c *Controller) ApplyFilter(ctx context.Context, f models.MFilterState) (models.MViewState, error) {
	q, err := c.validate(f)
	if err != nil {
		return c.rejectFilter(err), err
	}
	return c.load(ctx, f, q)
}

// ApplyRawFilter is ApplyFilter for untyped user input.
func (c *Controller) ApplyRawFilter(ctx context.Context, raw models.MRawFilter) (models.MViewState, error) {
	f, err := query.ParseFilter(raw)
	if err != nil {
		return c.rejectFilter(err), err
	}
	return c.ApplyFilter(ctx, f)
}

// ClearFilter restores the default filter and reloads.
func (c *Controller) ClearFilter(ctx context.Context) (models.MViewState, error) {
	return c.ApplyFilter(ctx, c.Definition.DefaultFilter)
}

// -----------------------------------------------------------------------------

func (c *Controller) validate(f models.MFilterState) (models.MQuery, error) {
	q, err := query.Build(f)
	if err != nil {
		return models.MQuery{}, err
	}
	for field := range q.Params() {
		if !c.Definition.accepts(field) {
			return models.MQuery{}, helpers.NewValidationError(field, "not supported by the %s view", c.Definition.Name)
		}
	}
	if ceiling := c.Definition.MaxLimit; ceiling > 0 && q.Limit != nil && *q.Limit > ceiling {
		return models.MQuery{}, helpers.NewValidationError("limit", "must be between 1 and %d, got %d", ceiling, *q.Limit)
	}
	return q, nil
}

func (c *Controller) rejectFilter(err error) models.MViewState {
	fieldErr := &models.MFieldError{Field: "filter", Message: err.Error()}
	var ve *helpers.ValidationError
	if errors.As(err, &ve) {
		fieldErr = &models.MFieldError{Field: ve.Field, Message: ve.Message}
	}

	c.mu.Lock()
	c.state.FilterError = fieldErr
	snapshot := cloneState(c.state)
	listeners := c.listeners
	c.mu.Unlock()

	c.Logger.Debug("View %s rejected filter: %v", c.Definition.Name, err)
	c.publish(listeners, snapshot)
	return snapshot
}

// -----------------------------------------------------------------------------
// Generation lifecycle
// -----------------------------------------------------------------------------

// load runs detached from the caller's cancellation: a dropped request must
// not turn a shared view into Error. Only a newer generation or Close cancels it.
func (c *Controller) load(ctx context.Context, filter models.MFilterState, q models.MQuery) (models.MViewState, error) {
	ctx = context.WithoutCancel(ctx)
	genCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	c.cancel = cancel

	c.state.Status = models.ViewLoading
	c.state.Generation = gen
	c.state.Filter = filter
	c.state.Query = q
	c.state.FilterError = nil
	loading := cloneState(c.state)
	listeners := c.listeners
	c.mu.Unlock()

	c.publish(listeners, loading)

	requests := make([]aggregator.Request, 0, len(c.Definition.Sources))
	for _, src := range c.Definition.Sources {
		fetch := src.fetch
		requests = append(requests, aggregator.Request{
			Name:  src.Name,
			Fetch: func(ctx context.Context) (any, error) { return fetch(ctx, q) },
		})
	}
	outcomes := c.Aggregator.FetchAll(genCtx, requests)
	sections, status, notice := c.resolve(genCtx, q, outcomes)

	c.mu.Lock()
	if gen != c.generation {
		current := cloneState(c.state)
		c.mu.Unlock()
		cancel()
		c.Logger.Debug("View %s discarded generation %d (latest %d)", c.Definition.Name, gen, current.Generation)
		return current, ErrSuperseded
	}
	c.cancel = nil
	c.state.Status = status
	c.state.Sections = sections
	c.state.Notice = notice
	c.state.UpdatedAt = c.now().UTC()
	committed := cloneState(c.state)
	listeners = c.listeners
	c.mu.Unlock()
	cancel()

	c.saveSnapshots(ctx, q, outcomes)
	c.publish(listeners, committed)

	c.Logger.Info("View %s generation %d: %s", c.Definition.Name, gen, status)
	return committed, nil
}

// -----------------------------------------------------------------------------

// resolve turns settled outcomes into sections, substituting cached then
// sample data for failed sources only.
func (c *Controller) resolve(ctx context.Context, q models.MQuery, outcomes map[string]models.MFetchOutcome) (map[string]models.MSection, models.ViewStatus, string) {
	sections := make(map[string]models.MSection, len(c.Definition.Sources))
	var notes []string
	failed := 0

	for _, src := range c.Definition.Sources {
		outcome, ok := outcomes[src.Name]
		if ok && outcome.Fulfilled() {
			section := models.MSection{
				Source: src.Name,
				Origin: models.OriginLive,
				Data:   src.present(outcome.Value),
			}
			if src.empty(outcome.Value) {
				section.Empty = true
				section.EmptyText = src.EmptyText
			}
			sections[src.Name] = section
			continue
		}

		failed++
		reason := outcome.Reason
		if !ok {
			reason = "no outcome"
		}
		section := c.substitute(ctx, src, q)
		section.Error = reason
		sections[src.Name] = section

		switch section.Origin {
		case models.OriginCached:
			notes = append(notes, fmt.Sprintf("%s: %s (showing cached data from %s)", src.Name, reason, section.CapturedAt.Format(time.RFC3339)))
		case models.OriginFallback:
			notes = append(notes, fmt.Sprintf("%s: %s (showing sample data)", src.Name, reason))
		default:
			notes = append(notes, fmt.Sprintf("%s: %s", src.Name, reason))
		}
	}

	if failed == 0 {
		return sections, models.ViewReady, ""
	}

	for _, s := range sections {
		if s.HasData() {
			return sections, models.ViewDegraded, strings.Join(notes, "; ")
		}
	}
	return sections, models.ViewError, fmt.Sprintf("Failed to load %s: %s", c.title(), strings.Join(notes, "; "))
}

func (c *Controller) substitute(ctx context.Context, src Source, q models.MQuery) models.MSection {
	section := models.MSection{Source: src.Name, Origin: models.OriginNone}

	if c.Policy.Cached && c.Store != nil {
		payload, capturedAt, found, err := c.Store.LoadSnapshot(ctx, c.snapshotKey(src, q))
		switch {
		case err != nil:
			c.Logger.Warning("Snapshot lookup for %s/%s failed: %v", c.Definition.Name, src.Name, err)
		case found:
			v, err := src.decode(payload)
			if err != nil {
				c.Logger.Warning("Snapshot for %s/%s is unreadable: %v", c.Definition.Name, src.Name, err)
				break
			}
			section.Origin = models.OriginCached
			section.Data = src.present(v)
			section.CapturedAt = capturedAt
			if src.empty(v) {
				section.Empty = true
				section.EmptyText = src.EmptyText
			}
			return section
		}
	}

	if c.Policy.Sample && src.hasSample {
		section.Origin = models.OriginFallback
		section.Data = src.present(src.sample)
	}
	return section
}

func (c *Controller) saveSnapshots(ctx context.Context, q models.MQuery, outcomes map[string]models.MFetchOutcome) {
	if c.Store == nil {
		return
	}
	at := c.now().UTC()
	for _, src := range c.Definition.Sources {
		outcome, ok := outcomes[src.Name]
		if !ok || !outcome.Fulfilled() {
			continue
		}
		payload, err := json.Marshal(outcome.Value)
		if err != nil {
			c.Logger.Warning("Cannot encode snapshot %s/%s: %v", c.Definition.Name, src.Name, err)
			continue
		}
		if err := c.Store.SaveSnapshot(ctx, c.snapshotKey(src, q), payload, at); err != nil {
			c.Logger.Warning("Snapshot save failed: %v", err)
		}
	}
}

// snapshotKey is view/source, plus the normalized query when it matters.
func (c *Controller) snapshotKey(src Source, q models.MQuery) string {
	key := c.Definition.Name + "/" + src.Name
	if src.UsesQuery {
		key += "?" + q.Key()
	}
	return key
}

func (c *Controller) title() string {
	if c.Definition.Title != "" {
		return c.Definition.Title
	}
	return c.Definition.Name
}

// -----------------------------------------------------------------------------

// publish drops a state older than one already delivered, so a commit that
// lost the race to a newer loading frame never reaches listeners.
func (c *Controller) publish(listeners []func(models.MViewState), state models.MViewState) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if state.Generation < c.notified {
		return
	}
	c.notified = state.Generation
	for _, fn := range listeners {
		fn(state)
	}
}

func cloneState(s models.MViewState) models.MViewState {
	out := s
	out.Sections = make(map[string]models.MSection, len(s.Sections))
	for k, v := range s.Sections {
		out.Sections[k] = v
	}
	if s.FilterError != nil {
		fe := *s.FilterError
		out.FilterError = &fe
	}
	return out
}
