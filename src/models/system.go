package models

import "encoding/json"

// MHealthStatus is returned by /health and the per-engine health endpoints.
type MHealthStatus struct {
	Status     string                     `json:"status"`
	Timestamp  string                     `json:"timestamp,omitempty"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]json.RawMessage `json:"components,omitempty"`
	Error      string                     `json:"error,omitempty"`
}

// MSystemMetrics is the /api/system/metrics payload.
type MSystemMetrics struct {
	Timestamp                   string  `json:"timestamp,omitempty"`
	TotalProperties             int     `json:"total_properties"`
	PropertiesDiscoveredToday   int     `json:"properties_discovered_today"`
	PropertiesInQueue           int     `json:"properties_in_queue"`
	ActiveAgents                int     `json:"active_agents"`
	AnalysesCompletedToday      int     `json:"analyses_completed_today"`
	AnalysesInProgress          int     `json:"analyses_in_progress"`
	AnalysesFailedToday         int     `json:"analyses_failed_today"`
	AverageAnalysisTime         float64 `json:"average_analysis_time"`
	HighPriorityOpportunities   int     `json:"high_priority_opportunities"`
	MediumPriorityOpportunities int     `json:"medium_priority_opportunities"`
	DiscoveryEngineHealth       bool    `json:"discovery_engine_health"`
	ValuationEngineHealth       bool    `json:"valuation_engine_health"`
	DatabaseHealth              bool    `json:"database_health"`
	APIResponseTime             float64 `json:"api_response_time"`
}

// MSyncJob is returned by POST /api/system/sync.
type MSyncJob struct {
	SyncJobID string `json:"sync_job_id"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}
