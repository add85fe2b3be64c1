package views

import (
	"context"

	"investment-dashboard/src/client"
	"investment-dashboard/src/models"

	"github.com/shopspring/decimal"
)

// View names.
const (
	Dashboard     = "dashboard"
	Properties    = "properties"
	Opportunities = "opportunities"
	Analytics     = "analytics"
	System        = "system"
)

// Catalog returns the definitions of every view, in navigation order.
func Catalog(api *client.EndpointClient, cfg *models.MConfig) []Definition {
	return []Definition{
		dashboardView(api),
		propertiesView(api),
		opportunitiesView(api, cfg),
		analyticsView(api),
		systemView(api),
	}
}

// -----------------------------------------------------------------------------

func dashboardView(api *client.EndpointClient) Definition {
	return Definition{
		Name:  Dashboard,
		Title: "dashboard data",
		Sources: []Source{
			SourceSpec[models.MDashboardAnalytics]{
				Name: "analytics",
				Fetch: func(ctx context.Context, _ models.MQuery) (models.MDashboardAnalytics, error) {
					return api.DashboardAnalytics(ctx)
				},
			}.Build(),
			SourceSpec[models.MHealthStatus]{
				Name: "health",
				Fetch: func(ctx context.Context, _ models.MQuery) (models.MHealthStatus, error) {
					return api.Health(ctx)
				},
			}.Build(),
		},
	}
}

func propertiesView(api *client.EndpointClient) Definition {
	sample := sampleProperties()
	return Definition{
		Name:    Properties,
		Title:   "properties",
		Filters: []string{"county", "min_score", "status", "limit", "offset"},
		Sources: []Source{
			SourceSpec[models.MPropertyList]{
				Name:      "properties",
				UsesQuery: true,
				Fetch:     api.Properties,
				Sample:    &sample,
				Empty:     func(l models.MPropertyList) bool { return len(l.Properties) == 0 },
				EmptyText: "No properties found. Start a discovery job to find properties.",
				Present:   presentProperties,
			}.Build(),
		},
	}
}

func opportunitiesView(api *client.EndpointClient, cfg *models.MConfig) Definition {
	sample := sampleOpportunities()

	def := models.MFilterState{Limit: models.DefaultLimit}
	score := 70
	if cfg != nil {
		if cfg.Views.OpportunitiesLimit > 0 {
			def.Limit = cfg.Views.OpportunitiesLimit
		}
		if cfg.Views.OpportunitiesScore > 0 {
			score = cfg.Views.OpportunitiesScore
		}
	}
	def.MinScore = &score

	return Definition{
		Name:          Opportunities,
		Title:         "opportunities",
		Filters:       []string{"min_score", "limit"},
		DefaultFilter: def,
		MaxLimit:      models.MaxOpportunitiesLimit,
		Sources: []Source{
			SourceSpec[models.MOpportunityList]{
				Name:      "opportunities",
				UsesQuery: true,
				Fetch:     api.Opportunities,
				Sample:    &sample,
				Empty:     func(l models.MOpportunityList) bool { return len(l.Opportunities) == 0 },
				EmptyText: "No investment opportunities found",
				Present:   presentOpportunities,
			}.Build(),
			SourceSpec[models.MAlertList]{
				Name: "alerts",
				Fetch: func(ctx context.Context, _ models.MQuery) (models.MAlertList, error) {
					return api.OpportunityAlerts(ctx)
				},
				Empty:     func(l models.MAlertList) bool { return len(l.Alerts) == 0 },
				EmptyText: "No active alerts",
			}.Build(),
		},
	}
}

func analyticsView(api *client.EndpointClient) Definition {
	counties := sampleCounties()
	performance := samplePerformance()
	return Definition{
		Name:  Analytics,
		Title: "analytics",
		Sources: []Source{
			SourceSpec[models.MCountyList]{
				Name: "counties",
				Fetch: func(ctx context.Context, _ models.MQuery) (models.MCountyList, error) {
					return api.CountyAnalytics(ctx)
				},
				Sample:    &counties,
				Empty:     func(l models.MCountyList) bool { return len(l) == 0 },
				EmptyText: "No county data yet",
			}.Build(),
			SourceSpec[models.MPerformanceSnapshot]{
				Name: "performance",
				Fetch: func(ctx context.Context, _ models.MQuery) (models.MPerformanceSnapshot, error) {
					return api.PerformanceMetrics(ctx)
				},
				Sample: &performance,
				Empty: func(p models.MPerformanceSnapshot) bool {
					return p.TotalAnalyzed == 0 && len(p.DiscoveryRate) == 0 && len(p.ScoreDistribution) == 0
				},
				EmptyText: "No analyses completed yet",
			}.Build(),
		},
	}
}

func systemView(api *client.EndpointClient) Definition {
	return Definition{
		Name:  System,
		Title: "system status",
		Sources: []Source{
			SourceSpec[models.MSystemMetrics]{
				Name: "metrics",
				Fetch: func(ctx context.Context, _ models.MQuery) (models.MSystemMetrics, error) {
					return api.SystemMetrics(ctx)
				},
			}.Build(),
			SourceSpec[models.MHealthStatus]{
				Name: "discovery",
				Fetch: func(ctx context.Context, _ models.MQuery) (models.MHealthStatus, error) {
					return api.DiscoveryHealth(ctx)
				},
			}.Build(),
			SourceSpec[models.MHealthStatus]{
				Name: "valuation",
				Fetch: func(ctx context.Context, _ models.MQuery) (models.MHealthStatus, error) {
					return api.ValuationHealth(ctx)
				},
			}.Build(),
		},
	}
}

// -----------------------------------------------------------------------------
// Sample data
// -----------------------------------------------------------------------------

func sampleProperties() models.MPropertyList {
	rows := []models.MProperty{
		{ID: "1", Address: "123 Main St", City: "Atlanta", County: "Fulton", Price: decimal.NewFromInt(450000), InvestmentScore: models.ScoreOf(85), Status: models.StatusDiscovered, DiscoveryDate: "2025-11-10"},
		{ID: "2", Address: "456 Oak Ave", City: "Decatur", County: "DeKalb", Price: decimal.NewFromInt(425000), InvestmentScore: models.ScoreOf(78), Status: models.StatusAnalyzed, DiscoveryDate: "2025-11-11"},
		{ID: "3", Address: "789 Pine Rd", City: "Jonesboro", County: "Clayton", Price: decimal.NewFromInt(380000), InvestmentScore: models.ScoreOf(72), Status: models.StatusDiscovered, DiscoveryDate: "2025-11-12"},
	}
	return models.MPropertyList{Properties: rows, Total: len(rows), Limit: models.DefaultLimit}
}

func sampleOpportunities() models.MOpportunityList {
	opp := func(id, address, county string, price int64, score int, capRate float64, cashFlow, value int64, roi float64) models.MOpportunity {
		return models.MOpportunity{
			MProperty: models.MProperty{
				ID:              id,
				Address:         address,
				County:          county,
				Price:           decimal.NewFromInt(price),
				InvestmentScore: models.ScoreOf(score),
			},
			CapRate:         capRate,
			MonthlyCashFlow: decimal.NewFromInt(cashFlow),
			EstimatedValue:  decimal.NewFromInt(value),
			ROI:             roi,
		}
	}
	rows := []models.MOpportunity{
		opp("1", "123 Main St, Atlanta", "Fulton", 450000, 92, 9.5, 2500, 520000, 15.6),
		opp("2", "456 Oak Ave, Decatur", "DeKalb", 425000, 87, 8.8, 2200, 480000, 12.9),
		opp("3", "789 Pine Rd, Marietta", "Cobb", 395000, 83, 8.2, 1950, 445000, 12.7),
	}
	return models.MOpportunityList{Opportunities: rows, Total: len(rows)}
}

func sampleCounties() models.MCountyList {
	return models.MCountyList{
		{County: "Fulton", Properties: 45, AvgScore: 82, TotalValue: decimal.NewFromInt(21000000)},
		{County: "DeKalb", Properties: 38, AvgScore: 78, TotalValue: decimal.NewFromInt(16500000)},
		{County: "Clayton", Properties: 32, AvgScore: 74, TotalValue: decimal.NewFromInt(12200000)},
		{County: "Cobb", Properties: 28, AvgScore: 76, TotalValue: decimal.NewFromInt(13800000)},
		{County: "Atlanta", Properties: 25, AvgScore: 85, TotalValue: decimal.NewFromInt(14500000)},
	}
}

func samplePerformance() models.MPerformanceSnapshot {
	return models.MPerformanceSnapshot{
		DiscoveryRate: []models.MPeriodCount{
			{Month: "Jul", Count: 45},
			{Month: "Aug", Count: 62},
			{Month: "Sep", Count: 58},
			{Month: "Oct", Count: 71},
			{Month: "Nov", Count: 68},
		},
		ScoreDistribution: []models.MBucketCount{
			{Range: "90-100", Count: 12},
			{Range: "80-89", Count: 34},
			{Range: "70-79", Count: 56},
			{Range: "60-69", Count: 42},
			{Range: "<60", Count: 24},
		},
		AvgAnalysisTime: 18.5,
		TotalAnalyzed:   168,
	}
}
