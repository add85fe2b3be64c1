package models

import "time"

// ViewStatus is the lifecycle state of a view.
type ViewStatus string

const (
	ViewIdle     ViewStatus = "idle"
	ViewLoading  ViewStatus = "loading"
	ViewReady    ViewStatus = "ready"
	ViewDegraded ViewStatus = "degraded"
	ViewError    ViewStatus = "error"
)

// DataOrigin tells where the data of a section came from.
type DataOrigin string

const (
	OriginLive     DataOrigin = "live"
	OriginCached   DataOrigin = "cached"
	OriginFallback DataOrigin = "fallback"
	OriginNone     DataOrigin = "none"
)

// -----------------------------------------------------------------------------

// MSection is the rendered state of one source within a view.
type MSection struct {
	Source     string     `json:"source"`
	Origin     DataOrigin `json:"origin"`
	Data       any        `json:"data,omitempty"`
	Empty      bool       `json:"empty"`
	EmptyText  string     `json:"empty_text,omitempty"`
	Error      string     `json:"error,omitempty"`
	CapturedAt time.Time  `json:"captured_at,omitzero"`
}

// HasData reports whether the section can be rendered.
func (s MSection) HasData() bool {
	return s.Origin != OriginNone && s.Data != nil
}

// MViewState is the view-ready state owned by one controller.
type MViewState struct {
	View        string              `json:"view"`
	Status      ViewStatus          `json:"status"`
	Generation  uint64              `json:"generation"`
	Filter      MFilterState        `json:"filter"`
	Query       MQuery              `json:"query"`
	Sections    map[string]MSection `json:"sections"`
	Notice      string              `json:"notice,omitempty"`
	FilterError *MFieldError        `json:"filter_error,omitempty"`
	UpdatedAt   time.Time           `json:"updated_at,omitzero"`
}

// MFieldError is an inline validation message for a filter control.
type MFieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// -----------------------------------------------------------------------------

// MSubscribeCommand is sent by websocket clients to narrow pushed views.
type MSubscribeCommand struct {
	Command string   `json:"command"`
	Views   []string `json:"views"`
}

// MViewMessage is one websocket push: "initial" on connect or subscribe,
// "update" on every controller transition.
type MViewMessage struct {
	Type  string     `json:"type"`
	State MViewState `json:"state"`
}
