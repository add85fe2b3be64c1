// Package scoring maps investment scores to the categories every page uses
// for colors and grouping. It is the only place those thresholds live.
package scoring

// Category is a discrete score band.
type Category string

const (
	Excellent Category = "excellent"
	Good      Category = "good"
	Fair      Category = "fair"
	Default   Category = "default"
)

// Categories in display order, best first.
var Categories = []Category{Excellent, Good, Fair, Default}

const (
	excellentFloor = 90
	goodFloor      = 80
	fairFloor      = 70
)

// Classify maps a score to its category; a nil score (not yet analyzed) is Default.
func Classify(score *int) Category {
	if score == nil {
		return Default
	}
	switch s := *score; {
	case s >= excellentFloor:
		return Excellent
	case s >= goodFloor:
		return Good
	case s >= fairFloor:
		return Fair
	default:
		return Default
	}
}

// Color is the badge color name used by the browser pages.
func (c Category) Color() string {
	switch c {
	case Excellent:
		return "success"
	case Good:
		return "info"
	case Fair:
		return "warning"
	default:
		return "default"
	}
}

// Label is the human-readable category name.
func (c Category) Label() string {
	switch c {
	case Excellent:
		return "Excellent"
	case Good:
		return "Good"
	case Fair:
		return "Fair"
	default:
		return "Unrated"
	}
}

// GroupByCategory buckets items by the category of their score, preserving
// input order within each bucket.
func GroupByCategory[T any](items []T, score func(T) *int) map[Category][]T {
	groups := make(map[Category][]T, len(Categories))
	for _, item := range items {
		c := Classify(score(item))
		groups[c] = append(groups[c], item)
	}
	return groups
}
