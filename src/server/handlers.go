package server

import (
	"errors"
	"net/http"
	"strings"

	"investment-dashboard/src/helpers"
	"investment-dashboard/src/models"
	"investment-dashboard/src/views"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Error mapping
// -----------------------------------------------------------------------------

func (s *DashboardServer) respondError(c *gin.Context, err error) {
	var ve *helpers.ValidationError
	var te *helpers.TransportError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, models.MFieldError{Field: ve.Field, Message: ve.Message})
	case errors.As(err, &te):
		status := http.StatusBadGateway
		if te.Status == http.StatusNotFound {
			status = http.StatusNotFound
		} else if te.Status == 0 {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{"error": helpers.Reason(err), "upstream_status": te.Status})
	default:
		s.Logger.Error("Request %s failed: %v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *DashboardServer) controller(c *gin.Context) (*views.Controller, bool) {
	name := c.Param("view")
	ctrl, ok := s.Views.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown view: " + name})
		return nil, false
	}
	return ctrl, true
}

// -----------------------------------------------------------------------------
// Gateway
// -----------------------------------------------------------------------------

func (s *DashboardServer) getHealth(c *gin.Context) {
	summary := make(map[string]models.ViewStatus)
	for _, state := range s.Views.States() {
		summary[state.View] = state.Status
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": s.connections.Load(),
		"views":       summary,
	})
}

// -----------------------------------------------------------------------------
// Views
// -----------------------------------------------------------------------------

func (s *DashboardServer) listViews(c *gin.Context) {
	c.JSON(http.StatusOK, s.Views.States())
}

func (s *DashboardServer) getView(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

func (s *DashboardServer) refreshView(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	state, err := ctrl.Refresh(c.Request.Context())
	if err != nil && !errors.Is(err, views.ErrSuperseded) {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *DashboardServer) applyFilter(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}

	var raw models.MRawFilter
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	state, err := ctrl.ApplyRawFilter(c.Request.Context(), raw)
	if err != nil && !errors.Is(err, views.ErrSuperseded) {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *DashboardServer) clearFilter(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	state, err := ctrl.ClearFilter(c.Request.Context())
	if err != nil && !errors.Is(err, views.ErrSuperseded) {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// -----------------------------------------------------------------------------
// Backend pass-through
// -----------------------------------------------------------------------------

func (s *DashboardServer) getProperty(c *gin.Context) {
	doc, err := s.API.PropertyDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

var priorities = []string{models.PriorityLow, models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent}

func (s *DashboardServer) queueAnalysis(c *gin.Context) {
	priority := strings.ToLower(c.DefaultQuery("priority", models.PriorityNormal))
	valid := false
	for _, p := range priorities {
		if p == priority {
			valid = true
			break
		}
	}
	if !valid {
		s.respondError(c, helpers.NewValidationError("priority", "must be one of %s", strings.Join(priorities, ", ")))
		return
	}

	job, err := s.API.QueueAnalysis(c.Request.Context(), c.Param("id"), priority)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *DashboardServer) startDiscovery(c *gin.Context) {
	var req models.MDiscoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if len(req.Counties) == 0 {
		req.Counties = append([]string(nil), models.Counties...)
	}

	job, err := s.API.StartDiscovery(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *DashboardServer) discoveryStatus(c *gin.Context) {
	doc, err := s.API.DiscoveryStatus(c.Request.Context(), c.Param("job"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *DashboardServer) discoveryResults(c *gin.Context) {
	doc, err := s.API.DiscoveryResults(c.Request.Context(), c.Param("job"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *DashboardServer) analyzeProperty(c *gin.Context) {
	var req models.MAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if strings.TrimSpace(req.PropertyID) == "" {
		s.respondError(c, helpers.NewValidationError("property_id", "is required"))
		return
	}

	job, err := s.API.AnalyzeProperty(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *DashboardServer) analysisStatus(c *gin.Context) {
	doc, err := s.API.AnalysisStatus(c.Request.Context(), c.Param("job"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *DashboardServer) analysisResults(c *gin.Context) {
	doc, err := s.API.AnalysisResults(c.Request.Context(), c.Param("job"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *DashboardServer) triggerSync(c *gin.Context) {
	job, err := s.API.TriggerSync(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
