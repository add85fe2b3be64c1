package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MCountyMetric is one row of /api/analytics/counties.
type MCountyMetric struct {
	County     string          `json:"county"`
	Properties int             `json:"properties"`
	AvgScore   float64         `json:"avg_score"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// MCountyList accepts both a bare array and a {"counties": [...]} envelope.
type MCountyList []MCountyMetric

func (l *MCountyList) UnmarshalJSON(data []byte) error {
	var rows []MCountyMetric
	if err := json.Unmarshal(data, &rows); err == nil {
		*l = rows
		return nil
	}
	var envelope struct {
		Counties []MCountyMetric `json:"counties"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	*l = envelope.Counties
	return nil
}

// -----------------------------------------------------------------------------

type MPeriodCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type MBucketCount struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// MPerformanceSnapshot is the /api/analytics/performance payload.
type MPerformanceSnapshot struct {
	DiscoveryRate     []MPeriodCount `json:"discovery_rate"`
	ScoreDistribution []MBucketCount `json:"score_distribution"`
	AvgAnalysisTime   float64        `json:"avg_analysis_time"`
	TotalAnalyzed     int            `json:"total_analyzed"`
}

// -----------------------------------------------------------------------------

// MDashboardAnalytics is the /api/analytics/dashboard payload.
type MDashboardAnalytics struct {
	TotalProperties        int               `json:"total_properties"`
	AnalyzedProperties     int               `json:"analyzed_properties"`
	HighScoreOpportunities int               `json:"high_score_opportunities"`
	AverageScore           float64           `json:"average_score"`
	TotalValue             decimal.Decimal   `json:"total_value"`
	RecentActivity         []json.RawMessage `json:"recent_activity,omitempty"`
}
