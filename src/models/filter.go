package models

import (
	"sort"
	"strconv"
)

// DefaultLimit is the page size the backend applies when limit is omitted.
const DefaultLimit = 25

// MaxOpportunitiesLimit is the backend's page cap for /api/opportunities.
const MaxOpportunitiesLimit = 100

// MFilterState is the user-facing filter of a view.
// Empty strings and AllValue mean "not set"; nil pointers mean "not set";
// a zero Limit or Offset means "not set".
type MFilterState struct {
	County   string `json:"county,omitempty"`
	MinScore *int   `json:"min_score,omitempty"`
	Status   string `json:"status,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// MRawFilter is a filter as typed by a user (form fields, CLI flags).
type MRawFilter struct {
	County   string `json:"county" form:"county"`
	MinScore string `json:"min_score" form:"min_score"`
	Status   string `json:"status" form:"status"`
	Limit    string `json:"limit" form:"limit"`
	Offset   string `json:"offset" form:"offset"`
}

// -----------------------------------------------------------------------------

// MQuery is a normalized query: only fields that were set are present.
type MQuery struct {
	County   string `json:"county,omitempty"`
	MinScore *int   `json:"min_score,omitempty"`
	Status   string `json:"status,omitempty"`
	Limit    *int   `json:"limit,omitempty"`
	Offset   *int   `json:"offset,omitempty"`
}

// IsEmpty reports whether no field is set.
func (q MQuery) IsEmpty() bool {
	return len(q.Params()) == 0
}

// Params renders the query as transport parameters.
func (q MQuery) Params() map[string]string {
	params := make(map[string]string)
	if q.County != "" {
		params["county"] = q.County
	}
	if q.MinScore != nil {
		params["min_score"] = strconv.Itoa(*q.MinScore)
	}
	if q.Status != "" {
		params["status"] = q.Status
	}
	if q.Limit != nil {
		params["limit"] = strconv.Itoa(*q.Limit)
	}
	if q.Offset != nil {
		params["offset"] = strconv.Itoa(*q.Offset)
	}
	return params
}

// Key is a stable textual form used to key cached snapshots.
func (q MQuery) Key() string {
	params := q.Params()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key := ""
	for i, k := range keys {
		if i > 0 {
			key += "&"
		}
		key += k + "=" + params[k]
	}
	return key
}
