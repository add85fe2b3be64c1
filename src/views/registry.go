package views

import (
	"context"
	"sync"

	"investment-dashboard/src/aggregator"
	"investment-dashboard/src/interfaces"
	"investment-dashboard/src/logger"
	"investment-dashboard/src/models"
)

// Registry holds one controller per view.
type Registry struct {
	order       []string
	controllers map[string]*Controller
}

// NewRegistry builds a controller for each definition. Later definitions
// with an already registered name are ignored.
func NewRegistry(defs []Definition, agg *aggregator.Aggregator, store interfaces.ISnapshotStore, policy Policy, log *logger.Logger) *Registry {
	r := &Registry{controllers: make(map[string]*Controller, len(defs))}
	for _, def := range defs {
		if _, dup := r.controllers[def.Name]; dup {
			log.Warning("View %s defined twice, keeping the first", def.Name)
			continue
		}
		r.order = append(r.order, def.Name)
		r.controllers[def.Name] = NewController(def, agg, store, policy, log.Named("View:"+def.Name))
	}
	return r
}

// PolicyFromConfig reads the fallback switches from the views section.
func PolicyFromConfig(cfg *models.MConfig) Policy {
	return Policy{Cached: cfg.Views.CachedFallback, Sample: cfg.Views.SampleFallback}
}

// -----------------------------------------------------------------------------

func (r *Registry) Get(name string) (*Controller, bool) {
	c, ok := r.controllers[name]
	return c, ok
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// States returns the current state of every view in order.
func (r *Registry) States() []models.MViewState {
	out := make([]models.MViewState, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.controllers[name].State())
	}
	return out
}

// OnChange subscribes fn to every controller.
func (r *Registry) OnChange(fn func(models.MViewState)) {
	for _, name := range r.order {
		r.controllers[name].OnChange(fn)
	}
}

// RefreshAll loads every view concurrently.
func (r *Registry) RefreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, name := range r.order {
		wg.Add(1)
		go func(c *Controller) {
			defer wg.Done()
			_, _ = c.Refresh(ctx)
		}(r.controllers[name])
	}
	wg.Wait()
}

// Close cancels in-flight loads of every view.
func (r *Registry) Close() {
	for _, c := range r.controllers {
		c.Close()
	}
}
