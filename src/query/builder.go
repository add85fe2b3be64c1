// Package query turns user-facing filter state into the normalized query
// sent to the backend. Unset values never reach the wire.
package query

import (
	"strconv"
	"strings"

	"investment-dashboard/src/helpers"
	"investment-dashboard/src/models"
)

const (
	MinScore = 0
	MaxScore = 100
	MaxLimit = 500
)

// Build validates f and returns the query holding only the fields that are set.
func Build(f models.MFilterState) (models.MQuery, error) {
	var q models.MQuery

	county, err := normalizeCounty(f.County)
	if err != nil {
		return models.MQuery{}, err
	}
	q.County = county

	if f.MinScore != nil {
		score := *f.MinScore
		if score < MinScore || score > MaxScore {
			return models.MQuery{}, helpers.NewValidationError("min_score", "must be between %d and %d, got %d", MinScore, MaxScore, score)
		}
		q.MinScore = &score
	}

	status, err := normalizeStatus(f.Status)
	if err != nil {
		return models.MQuery{}, err
	}
	q.Status = status

	if f.Limit != 0 {
		if f.Limit < 1 || f.Limit > MaxLimit {
			return models.MQuery{}, helpers.NewValidationError("limit", "must be between 1 and %d, got %d", MaxLimit, f.Limit)
		}
		limit := f.Limit
		q.Limit = &limit
	}

	if f.Offset != 0 {
		if f.Offset < 0 {
			return models.MQuery{}, helpers.NewValidationError("offset", "must not be negative, got %d", f.Offset)
		}
		offset := f.Offset
		q.Offset = &offset
	}

	return q, nil
}

// -----------------------------------------------------------------------------

// ParseFilter coerces raw text input into a filter state. Only malformed
// numbers fail here; range checks happen in Build.
func ParseFilter(raw models.MRawFilter) (models.MFilterState, error) {
	f := models.MFilterState{
		County: strings.TrimSpace(raw.County),
		Status: strings.TrimSpace(raw.Status),
	}

	if s := strings.TrimSpace(raw.MinScore); s != "" {
		score, err := strconv.Atoi(s)
		if err != nil {
			return models.MFilterState{}, helpers.NewValidationError("min_score", "must be an integer, got %q", s)
		}
		f.MinScore = &score
	}

	limit, err := parseOptionalInt("limit", raw.Limit)
	if err != nil {
		return models.MFilterState{}, err
	}
	f.Limit = limit

	offset, err := parseOptionalInt("offset", raw.Offset)
	if err != nil {
		return models.MFilterState{}, err
	}
	f.Offset = offset

	return f, nil
}

// -----------------------------------------------------------------------------

func parseOptionalInt(field, raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, helpers.NewValidationError(field, "must be an integer, got %q", s)
	}
	return n, nil
}

func isUnset(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, models.AllValue)
}

// normalizeCounty maps any casing of a known county to its canonical name.
func normalizeCounty(v string) (string, error) {
	if isUnset(v) {
		return "", nil
	}
	v = strings.TrimSpace(v)
	for _, c := range models.Counties {
		if strings.EqualFold(c, v) {
			return c, nil
		}
	}
	return "", helpers.NewValidationError("county", "unknown county %q (expected one of %s)", v, strings.Join(models.Counties, ", "))
}

func normalizeStatus(v string) (string, error) {
	if isUnset(v) {
		return "", nil
	}
	v = strings.ToLower(strings.TrimSpace(v))
	for _, s := range models.Statuses {
		if s == v {
			return s, nil
		}
	}
	return "", helpers.NewValidationError("status", "unknown status %q (expected one of %s)", v, strings.Join(models.Statuses, ", "))
}
