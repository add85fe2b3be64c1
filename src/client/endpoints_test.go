package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"investment-dashboard/src/helpers"
	"investment-dashboard/src/logger"
	"investment-dashboard/src/models"
	"investment-dashboard/src/network"
)

type recorded struct {
	method string
	path   string
	query  string
}

type backend struct {
	mu       sync.Mutex
	calls    []recorded
	bodies   map[string]string
	statuses map[string]int
}

func newBackend(t *testing.T) (*backend, *EndpointClient) {
	t.Helper()
	b := &backend{bodies: map[string]string{}, statuses: map[string]int{}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls = append(b.calls, recorded{method: r.Method, path: r.URL.EscapedPath(), query: r.URL.RawQuery})
		body, ok := b.bodies[r.URL.Path]
		status := b.statuses[r.URL.Path]
		b.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
		}
		if !ok {
			body = `{}`
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	cfg := &models.MConfig{LogLevel: "ERROR", Backend: models.MBackendConfig{BaseURL: server.URL, RequestTimeout: 5}}
	nm, err := network.NewAsyncNetworkManager(cfg, logger.NewLogger(cfg, "test"))
	if err != nil {
		t.Fatalf("network: %v", err)
	}
	return b, NewEndpointClient(nm)
}

func (b *backend) last() recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[len(b.calls)-1]
}

func TestOperations_HitDocumentedPaths(t *testing.T) {
	b, c := newBackend(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		call   func() error
		method string
		path   string
		query  string
	}{
		{"health", func() error { _, err := c.Health(ctx); return err }, "GET", "/health", ""},
		{"discovery health", func() error { _, err := c.DiscoveryHealth(ctx); return err }, "GET", "/health/discovery", ""},
		{"valuation health", func() error { _, err := c.ValuationHealth(ctx); return err }, "GET", "/health/valuation", ""},
		{"start discovery", func() error {
			_, err := c.StartDiscovery(ctx, models.MDiscoveryRequest{Counties: []string{"Fulton"}})
			return err
		}, "POST", "/api/discovery/start", ""},
		{"discovery status", func() error { _, err := c.DiscoveryStatus(ctx, "job-1"); return err }, "GET", "/api/discovery/status/job-1", ""},
		{"discovery results", func() error { _, err := c.DiscoveryResults(ctx, "job-1"); return err }, "GET", "/api/discovery/results/job-1", ""},
		{"properties", func() error {
			_, err := c.Properties(ctx, models.MQuery{County: "Fulton", MinScore: models.ScoreOf(80)})
			return err
		}, "GET", "/api/properties", "county=Fulton&min_score=80"},
		{"property details", func() error { _, err := c.PropertyDetails(ctx, "p 1"); return err }, "GET", "/api/properties/p%201", ""},
		{"queue analysis", func() error { _, err := c.QueueAnalysis(ctx, "p1", "high"); return err }, "POST", "/api/properties/p1/analyze", "priority=high"},
		{"queue analysis default priority", func() error { _, err := c.QueueAnalysis(ctx, "p1", ""); return err }, "POST", "/api/properties/p1/analyze", ""},
		{"analyze", func() error {
			_, err := c.AnalyzeProperty(ctx, models.MAnalysisRequest{PropertyID: "p1"})
			return err
		}, "POST", "/api/valuation/analyze", ""},
		{"analysis status", func() error { _, err := c.AnalysisStatus(ctx, "v1"); return err }, "GET", "/api/valuation/status/v1", ""},
		{"analysis results", func() error { _, err := c.AnalysisResults(ctx, "v1"); return err }, "GET", "/api/valuation/results/v1", ""},
		{"opportunities", func() error {
			_, err := c.Opportunities(ctx, models.MQuery{County: "Cobb", MinScore: models.ScoreOf(70), Limit: models.ScoreOf(25)})
			return err
		}, "GET", "/api/opportunities", "limit=25&min_score=70"},
		{"alerts", func() error { _, err := c.OpportunityAlerts(ctx); return err }, "GET", "/api/opportunities/alerts", ""},
		{"dashboard", func() error { _, err := c.DashboardAnalytics(ctx); return err }, "GET", "/api/analytics/dashboard", ""},
		{"performance", func() error { _, err := c.PerformanceMetrics(ctx); return err }, "GET", "/api/analytics/performance", ""},
		{"counties", func() error { _, err := c.CountyAnalytics(ctx); return err }, "GET", "/api/analytics/counties", ""},
		{"sync", func() error { _, err := c.TriggerSync(ctx); return err }, "POST", "/api/system/sync", ""},
		{"system metrics", func() error { _, err := c.SystemMetrics(ctx); return err }, "GET", "/api/system/metrics", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := b.last()
			if got.method != tc.method || got.path != tc.path || got.query != tc.query {
				t.Fatalf("expected %s %s?%s, got %s %s?%s", tc.method, tc.path, tc.query, got.method, got.path, got.query)
			}
		})
	}
}

func TestListEnvelopes_AbsentFieldIsEmpty(t *testing.T) {
	_, c := newBackend(t)
	ctx := context.Background()

	props, err := c.Properties(ctx, models.MQuery{})
	if err != nil {
		t.Fatalf("properties: %v", err)
	}
	if props.Properties == nil || len(props.Properties) != 0 {
		t.Fatalf("expected empty non-nil properties, got %#v", props.Properties)
	}

	opps, err := c.Opportunities(ctx, models.MQuery{})
	if err != nil {
		t.Fatalf("opportunities: %v", err)
	}
	if opps.Opportunities == nil || len(opps.Opportunities) != 0 {
		t.Fatalf("expected empty non-nil opportunities")
	}

	alerts, err := c.OpportunityAlerts(ctx)
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if alerts.Alerts == nil {
		t.Fatalf("expected empty non-nil alerts")
	}
}

func TestCountyAnalytics_AcceptsArrayAndEnvelope(t *testing.T) {
	b, c := newBackend(t)
	ctx := context.Background()

	b.bodies["/api/analytics/counties"] = `[{"county":"Fulton","properties":45,"avg_score":82,"total_value":21000000}]`
	rows, err := c.CountyAnalytics(ctx)
	if err != nil {
		t.Fatalf("array form: %v", err)
	}
	if len(rows) != 1 || rows[0].County != "Fulton" || rows[0].Properties != 45 {
		t.Fatalf("unexpected rows %+v", rows)
	}

	b.bodies["/api/analytics/counties"] = `{"counties":[{"county":"Cobb","properties":28}]}`
	rows, err = c.CountyAnalytics(ctx)
	if err != nil {
		t.Fatalf("envelope form: %v", err)
	}
	if len(rows) != 1 || rows[0].County != "Cobb" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestOpportunities_DecodesScoresAndMetrics(t *testing.T) {
	b, c := newBackend(t)
	b.bodies["/api/opportunities"] = `{"opportunities":[{"id":"1","address":"123 Main St","county":"Fulton","price":450000,"investment_score":92,"cap_rate":9.5,"monthly_cash_flow":2500,"estimated_value":520000,"roi":15.6}],"total":1}`

	list, err := c.Opportunities(context.Background(), models.MQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Opportunities) != 1 {
		t.Fatalf("expected one opportunity")
	}
	o := list.Opportunities[0]
	if o.InvestmentScore == nil || *o.InvestmentScore != 92 {
		t.Fatalf("expected score 92, got %v", o.InvestmentScore)
	}
	if o.CapRate != 9.5 || o.Price.IntPart() != 450000 || o.MonthlyCashFlow.IntPart() != 2500 {
		t.Fatalf("unexpected metrics %+v", o)
	}
}

func TestFailures_AreTransportErrors(t *testing.T) {
	b, c := newBackend(t)
	b.statuses["/api/analytics/performance"] = http.StatusInternalServerError
	b.bodies["/api/analytics/performance"] = `{"detail":"engine offline"}`

	_, err := c.PerformanceMetrics(context.Background())
	var te *helpers.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T", err)
	}
	if te.Status != 500 || te.Message != "engine offline" {
		t.Fatalf("unexpected error %+v", te)
	}
}

func TestMalformedBody_IsNotRetryable(t *testing.T) {
	b, c := newBackend(t)
	b.bodies["/api/system/metrics"] = `not json`

	_, err := c.SystemMetrics(context.Background())
	var te *helpers.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T", err)
	}
	if te.Retryable() {
		t.Fatalf("malformed body must not be retried")
	}
}
