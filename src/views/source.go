package views

import (
	"context"
	"encoding/json"

	"investment-dashboard/src/models"
)

// SourceSpec describes one backend source of a view in terms of its
// concrete payload type T.
type SourceSpec[T any] struct {
	Name  string
	Fetch func(ctx context.Context, q models.MQuery) (T, error)

	// UsesQuery is set when the filter query changes what Fetch returns.
	UsesQuery bool

	// Sample is illustrative data shown when the source fails and no
	// cached payload exists. Nil means the source has no fallback.
	Sample *T

	// Empty reports a successful but empty result.
	Empty     func(T) bool
	EmptyText string

	// Present converts the payload into what the view renders. Identity when nil.
	Present func(T) any
}

// Source is the type-erased form of a SourceSpec held by a controller.
type Source struct {
	Name      string
	UsesQuery bool
	EmptyText string

	fetch     func(ctx context.Context, q models.MQuery) (any, error)
	decode    func(data []byte) (any, error)
	present   func(v any) any
	empty     func(v any) bool
	sample    any
	hasSample bool
}

// Build erases the payload type.
func (s SourceSpec[T]) Build() Source {
	src := Source{
		Name:      s.Name,
		UsesQuery: s.UsesQuery,
		EmptyText: s.EmptyText,
		fetch: func(ctx context.Context, q models.MQuery) (any, error) {
			return s.Fetch(ctx, q)
		},
		decode: func(data []byte) (any, error) {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
		present: func(v any) any {
			t, ok := v.(T)
			if !ok {
				return v
			}
			if s.Present == nil {
				return t
			}
			return s.Present(t)
		},
		empty: func(v any) bool {
			t, ok := v.(T)
			if !ok || s.Empty == nil {
				return false
			}
			return s.Empty(t)
		},
	}
	if s.Sample != nil {
		src.sample = *s.Sample
		src.hasSample = true
	}
	return src
}

// HasSample reports whether illustrative fallback data is configured.
func (s Source) HasSample() bool {
	return s.hasSample
}

// -----------------------------------------------------------------------------

// Definition is the static description of a view.
type Definition struct {
	Name    string
	Title   string
	Sources []Source

	// Filters lists the filter fields the view accepts; empty means none.
	Filters []string

	// DefaultFilter is the filter a view starts with and returns to on clear.
	DefaultFilter models.MFilterState

	// MaxLimit tightens query.MaxLimit for backends with a lower page cap.
	MaxLimit int
}

func (d Definition) accepts(field string) bool {
	for _, f := range d.Filters {
		if f == field {
			return true
		}
	}
	return false
}
