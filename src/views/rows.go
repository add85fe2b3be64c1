package views

import (
	"investment-dashboard/src/models"
	"investment-dashboard/src/scoring"
)

// Rows carry the score category next to each record so every consumer
// renders the same badge.

type PropertyRow struct {
	models.MProperty
	Category scoring.Category `json:"category"`
	Color    string           `json:"color"`
}

type OpportunityRow struct {
	models.MOpportunity
	Category scoring.Category `json:"category"`
	Color    string           `json:"color"`
}

// PropertyPage is the rendered properties section.
type PropertyPage struct {
	Rows   []PropertyRow `json:"rows"`
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Limit  int           `json:"limit"`
}

// OpportunityBoard is the rendered opportunities section.
type OpportunityBoard struct {
	Rows     []OpportunityRow         `json:"rows"`
	Total    int                      `json:"total"`
	Criteria map[string]int64         `json:"criteria,omitempty"`
	Counts   map[scoring.Category]int `json:"counts"`
}

// -----------------------------------------------------------------------------

func presentProperties(list models.MPropertyList) any {
	page := PropertyPage{
		Rows:   make([]PropertyRow, 0, len(list.Properties)),
		Total:  list.Total,
		Offset: list.Offset,
		Limit:  list.Limit,
	}
	for _, p := range list.Properties {
		cat := scoring.Classify(p.InvestmentScore)
		page.Rows = append(page.Rows, PropertyRow{MProperty: p, Category: cat, Color: cat.Color()})
	}
	if page.Total == 0 {
		page.Total = len(page.Rows)
	}
	return page
}

func presentOpportunities(list models.MOpportunityList) any {
	board := OpportunityBoard{
		Rows:     make([]OpportunityRow, 0, len(list.Opportunities)),
		Total:    list.Total,
		Criteria: list.Criteria,
		Counts:   make(map[scoring.Category]int),
	}
	groups := scoring.GroupByCategory(list.Opportunities, func(o models.MOpportunity) *int { return o.InvestmentScore })
	for cat, items := range groups {
		board.Counts[cat] = len(items)
	}
	for _, o := range list.Opportunities {
		cat := scoring.Classify(o.InvestmentScore)
		board.Rows = append(board.Rows, OpportunityRow{MOpportunity: o, Category: cat, Color: cat.Color()})
	}
	if board.Total == 0 {
		board.Total = len(board.Rows)
	}
	return board
}
