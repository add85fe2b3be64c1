package models

import "encoding/json"

const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// MDiscoveryRequest starts a discovery run across counties.
type MDiscoveryRequest struct {
	Counties      []string `json:"counties"`
	PropertyTypes []string `json:"property_types,omitempty"`
	MaxPrice      *float64 `json:"max_price,omitempty"`
	MinCapRate    *float64 `json:"min_cap_rate,omitempty"`
}

// MDiscoveryJob is the acknowledgement of a started discovery run.
type MDiscoveryJob struct {
	JobID             string   `json:"job_id"`
	Status            string   `json:"status"`
	Counties          []string `json:"counties,omitempty"`
	EstimatedDuration string   `json:"estimated_duration,omitempty"`
	Message           string   `json:"message,omitempty"`
}

// MAnalysisRequest queues a valuation analysis.
type MAnalysisRequest struct {
	PropertyID            string `json:"property_id"`
	Priority              string `json:"priority,omitempty"`
	IncludeMarketAnalysis bool   `json:"include_market_analysis"`
	IncludeRiskAssessment bool   `json:"include_risk_assessment"`
}

// MAnalysisJob is the acknowledgement of a queued analysis.
type MAnalysisJob struct {
	JobID             string `json:"job_id"`
	PropertyID        string `json:"property_id,omitempty"`
	Status            string `json:"status"`
	Priority          string `json:"priority,omitempty"`
	EstimatedDuration string `json:"estimated_duration,omitempty"`
}

// MJobDocument carries job status/results documents whose shape is owned by
// the backend; the gateway relays them verbatim.
type MJobDocument = json.RawMessage
