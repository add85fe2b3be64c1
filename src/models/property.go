package models

import "github.com/shopspring/decimal"

// -----------------------------------------------------------------------------
// Enumerations shared by filters and records
// -----------------------------------------------------------------------------

// Counties served by the discovery service.
var Counties = []string{"Fulton", "DeKalb", "Clayton", "Cobb", "Atlanta"}

const (
	StatusDiscovered = "discovered"
	StatusAnalyzing  = "analyzing"
	StatusAnalyzed   = "analyzed"
	StatusRejected   = "rejected"
)

// Statuses lists every property status in pipeline order.
var Statuses = []string{StatusDiscovered, StatusAnalyzing, StatusAnalyzed, StatusRejected}

// AllValue is the filter sentinel meaning "no restriction".
const AllValue = "all"

// -----------------------------------------------------------------------------

// MProperty is a read-only snapshot reported by the discovery/valuation services.
type MProperty struct {
	ID              string          `json:"id"`
	Address         string          `json:"address"`
	City            string          `json:"city,omitempty"`
	County          string          `json:"county"`
	Price           decimal.Decimal `json:"price"`
	InvestmentScore *int            `json:"investment_score,omitempty"` // nil: not yet analyzed
	Status          string          `json:"status,omitempty"`
	DiscoveryDate   string          `json:"discovery_date,omitempty"`
}

// -----------------------------------------------------------------------------

// MOpportunity is a property enriched with valuation metrics.
type MOpportunity struct {
	MProperty
	CapRate         float64         `json:"cap_rate"`
	MonthlyCashFlow decimal.Decimal `json:"monthly_cash_flow"`
	EstimatedValue  decimal.Decimal `json:"estimated_value"`
	ROI             float64         `json:"roi"`
}

// -----------------------------------------------------------------------------

// MPropertyList is the /api/properties envelope.
type MPropertyList struct {
	Properties []MProperty `json:"properties"`
	Total      int         `json:"total"`
	Offset     int         `json:"offset"`
	Limit      int         `json:"limit"`
}

// MOpportunityList is the /api/opportunities envelope.
type MOpportunityList struct {
	Opportunities []MOpportunity   `json:"opportunities"`
	Total         int              `json:"total"`
	Criteria      map[string]int64 `json:"criteria,omitempty"`
}

// MAlert is a high-priority opportunity alert.
type MAlert struct {
	ID           string `json:"id"`
	PropertyID   string `json:"property_id"`
	AlertType    string `json:"alert_type"`
	Priority     string `json:"priority"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	TriggerScore *int   `json:"trigger_score,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// MAlertList is the /api/opportunities/alerts envelope.
type MAlertList struct {
	Alerts []MAlert `json:"alerts"`
}

// -----------------------------------------------------------------------------

// ScoreOf returns a pointer to score, for literals and fixtures.
func ScoreOf(score int) *int {
	return &score
}

// Currency amounts go over the wire as JSON numbers, matching the backend.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
