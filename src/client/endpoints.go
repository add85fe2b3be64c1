package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"investment-dashboard/src/helpers"
	"investment-dashboard/src/interfaces"
	"investment-dashboard/src/models"
)

// EndpointClient exposes one typed operation per backend capability.
// It never retries; every failure is a *helpers.TransportError.
type EndpointClient struct {
	Network interfaces.INetworkManager
}

// -----------------------------------------------------------------------------

func NewEndpointClient(network interfaces.INetworkManager) *EndpointClient {
	return &EndpointClient{Network: network}
}

// -----------------------------------------------------------------------------

func decode[T any](path string, data []byte) (T, error) {
	var out T
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, helpers.NewTransportError(path, http.StatusOK, "malformed response", err)
	}
	return out, nil
}

func get[T any](ctx context.Context, c *EndpointClient, path string, params map[string]string) (T, error) {
	data, err := c.Network.Get(ctx, path, params)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](path, data)
}

func post[T any](ctx context.Context, c *EndpointClient, path string, params map[string]string, body interface{}) (T, error) {
	data, err := c.Network.Post(ctx, path, params, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](path, data)
}

// -----------------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------------

func (c *EndpointClient) Health(ctx context.Context) (models.MHealthStatus, error) {
	return get[models.MHealthStatus](ctx, c, "/health", nil)
}

func (c *EndpointClient) DiscoveryHealth(ctx context.Context) (models.MHealthStatus, error) {
	return get[models.MHealthStatus](ctx, c, "/health/discovery", nil)
}

func (c *EndpointClient) ValuationHealth(ctx context.Context) (models.MHealthStatus, error) {
	return get[models.MHealthStatus](ctx, c, "/health/valuation", nil)
}

// -----------------------------------------------------------------------------
// Discovery
// -----------------------------------------------------------------------------

func (c *EndpointClient) StartDiscovery(ctx context.Context, req models.MDiscoveryRequest) (models.MDiscoveryJob, error) {
	return post[models.MDiscoveryJob](ctx, c, "/api/discovery/start", nil, req)
}

func (c *EndpointClient) DiscoveryStatus(ctx context.Context, jobID string) (models.MJobDocument, error) {
	return get[models.MJobDocument](ctx, c, jobPath("/api/discovery/status/", jobID), nil)
}

func (c *EndpointClient) DiscoveryResults(ctx context.Context, jobID string) (models.MJobDocument, error) {
	return get[models.MJobDocument](ctx, c, jobPath("/api/discovery/results/", jobID), nil)
}

// -----------------------------------------------------------------------------
// Properties
// -----------------------------------------------------------------------------

// Properties lists properties; an absent "properties" field decodes as empty.
func (c *EndpointClient) Properties(ctx context.Context, q models.MQuery) (models.MPropertyList, error) {
	list, err := get[models.MPropertyList](ctx, c, "/api/properties", q.Params())
	if err != nil {
		return list, err
	}
	if list.Properties == nil {
		list.Properties = []models.MProperty{}
	}
	return list, nil
}

func (c *EndpointClient) PropertyDetails(ctx context.Context, propertyID string) (models.MJobDocument, error) {
	return get[models.MJobDocument](ctx, c, "/api/properties/"+url.PathEscape(propertyID), nil)
}

// QueueAnalysis queues a property for valuation; an empty priority is omitted.
func (c *EndpointClient) QueueAnalysis(ctx context.Context, propertyID, priority string) (models.MAnalysisJob, error) {
	path := fmt.Sprintf("/api/properties/%s/analyze", url.PathEscape(propertyID))
	return post[models.MAnalysisJob](ctx, c, path, map[string]string{"priority": priority}, nil)
}

// -----------------------------------------------------------------------------
// Valuation
// -----------------------------------------------------------------------------

func (c *EndpointClient) AnalyzeProperty(ctx context.Context, req models.MAnalysisRequest) (models.MAnalysisJob, error) {
	return post[models.MAnalysisJob](ctx, c, "/api/valuation/analyze", nil, req)
}

func (c *EndpointClient) AnalysisStatus(ctx context.Context, jobID string) (models.MJobDocument, error) {
	return get[models.MJobDocument](ctx, c, jobPath("/api/valuation/status/", jobID), nil)
}

func (c *EndpointClient) AnalysisResults(ctx context.Context, jobID string) (models.MJobDocument, error) {
	return get[models.MJobDocument](ctx, c, jobPath("/api/valuation/results/", jobID), nil)
}

// -----------------------------------------------------------------------------
// Opportunities
// -----------------------------------------------------------------------------

// Opportunities lists opportunities; only min_score and limit are forwarded.
func (c *EndpointClient) Opportunities(ctx context.Context, q models.MQuery) (models.MOpportunityList, error) {
	params := q.Params()
	for k := range params {
		if k != "min_score" && k != "limit" {
			delete(params, k)
		}
	}

	list, err := get[models.MOpportunityList](ctx, c, "/api/opportunities", params)
	if err != nil {
		return list, err
	}
	if list.Opportunities == nil {
		list.Opportunities = []models.MOpportunity{}
	}
	return list, nil
}

func (c *EndpointClient) OpportunityAlerts(ctx context.Context) (models.MAlertList, error) {
	list, err := get[models.MAlertList](ctx, c, "/api/opportunities/alerts", nil)
	if err != nil {
		return list, err
	}
	if list.Alerts == nil {
		list.Alerts = []models.MAlert{}
	}
	return list, nil
}

// -----------------------------------------------------------------------------
// Analytics
// -----------------------------------------------------------------------------

func (c *EndpointClient) DashboardAnalytics(ctx context.Context) (models.MDashboardAnalytics, error) {
	return get[models.MDashboardAnalytics](ctx, c, "/api/analytics/dashboard", nil)
}

func (c *EndpointClient) PerformanceMetrics(ctx context.Context) (models.MPerformanceSnapshot, error) {
	return get[models.MPerformanceSnapshot](ctx, c, "/api/analytics/performance", nil)
}

func (c *EndpointClient) CountyAnalytics(ctx context.Context) (models.MCountyList, error) {
	list, err := get[models.MCountyList](ctx, c, "/api/analytics/counties", nil)
	if err != nil {
		return list, err
	}
	if list == nil {
		list = models.MCountyList{}
	}
	return list, nil
}

// -----------------------------------------------------------------------------
// System
// -----------------------------------------------------------------------------

func (c *EndpointClient) TriggerSync(ctx context.Context) (models.MSyncJob, error) {
	return post[models.MSyncJob](ctx, c, "/api/system/sync", nil, nil)
}

func (c *EndpointClient) SystemMetrics(ctx context.Context) (models.MSystemMetrics, error) {
	return get[models.MSystemMetrics](ctx, c, "/api/system/metrics", nil)
}

// -----------------------------------------------------------------------------

func jobPath(prefix, jobID string) string {
	return prefix + url.PathEscape(jobID)
}
