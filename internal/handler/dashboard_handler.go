package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/volve-hq/attendance-api/internal/service"
	appErrors "github.com/volve-hq/attendance-api/pkg/errors"
	"github.com/volve-hq/attendance-api/pkg/response"
)

// DashboardHandler wires HTTP endpoints to the aggregation engine.
type DashboardHandler struct {
	service *service.DashboardService
	metrics *service.MetricsService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService, metrics *service.MetricsService) *DashboardHandler {
	return &DashboardHandler{service: svc, metrics: metrics}
}

// Summary godoc
// @Summary Get monthly summary
// @Description Returns the employee's attendance aggregates for one month (default: current); also evaluates the daily check-in reminder
// @Tags Dashboard
// @Produce json
// @Param month query string false "Month as YYYY-MM (default current month)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.service.UserSummary(c.Request.Context(), claims.UserID, c.Query("month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// CompanySummary godoc
// @Summary Get company snapshot
// @Description Returns today's company-wide counts (admin only)
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/dashboard-summary [get]
func (h *DashboardHandler) CompanySummary(c *gin.Context) {
	snapshot, cached, err := h.service.CompanySnapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordCacheLookup(cached)
	response.JSON(c, http.StatusOK, snapshot, nil, map[string]interface{}{"cached": cached})
}
