package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/volve-hq/attendance-api/internal/models"
	"github.com/volve-hq/attendance-api/internal/service"
	appErrors "github.com/volve-hq/attendance-api/pkg/errors"
	"github.com/volve-hq/attendance-api/pkg/export"
	"github.com/volve-hq/attendance-api/pkg/response"
)

// AttendanceHandler wires HTTP endpoints to the attendance ledger.
type AttendanceHandler struct {
	service *service.AttendanceService
	metrics *service.MetricsService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(svc *service.AttendanceService, metrics *service.MetricsService) *AttendanceHandler {
	return &AttendanceHandler{
		service: svc,
		metrics: metrics,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

// Today godoc
// @Summary Get today's attendance
// @Description Returns the employee's ledger row for today, or null when absent
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /attendance/today [get]
func (h *AttendanceHandler) Today(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	record, err := h.service.Today(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// CheckIn godoc
// @Summary Check in for today
// @Description Creates today's ledger row; lateness is classified by the server clock
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.CheckInRequest true "Check-in payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance/check-in [post]
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid check-in payload"))
		return
	}

	record, err := h.service.CheckIn(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordCheckIn(string(record.Status))
	response.Created(c, record)
}

// CheckOut godoc
// @Summary Check out for today
// @Description Completes today's ledger row and derives worked hours
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.CheckOutRequest true "Check-out payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance/check-out [post]
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid check-out payload"))
		return
	}

	record, err := h.service.CheckOut(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// History godoc
// @Summary Get attendance history
// @Description Returns the employee's records newest first
// @Tags Attendance
// @Produce json
// @Param limit query int false "Maximum records (default 30)"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /attendance/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	rows, err := h.service.History(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	if rows == nil {
		rows = []models.AttendanceRecord{}
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// ExportHistory godoc
// @Summary Export attendance history
// @Description Downloads the employee's history as CSV or PDF
// @Tags Attendance
// @Produce octet-stream
// @Param format query string false "csv or pdf (default csv)"
// @Param limit query int false "Maximum records (default 30)"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /attendance/history/export [get]
func (h *AttendanceHandler) ExportHistory(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "pdf" {
		response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "format must be csv or pdf"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	rows, err := h.service.History(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	dataset := historyDataset(rows)
	filename := fmt.Sprintf("attendance-history.%s", format)

	var payload []byte
	var contentType string
	switch format {
	case "pdf":
		payload, err = h.pdf.Render(dataset, "Attendance History")
		contentType = "application/pdf"
	default:
		payload, err = h.csv.Render(dataset)
		contentType = "text/csv"
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to render export"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// ListAll godoc
// @Summary List company attendance
// @Description Returns the company-wide attendance feed (admin only)
// @Tags Admin
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 50)"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/attendance [get]
func (h *AttendanceHandler) ListAll(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	rows, pagination, err := h.service.ListAll(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	if rows == nil {
		rows = []models.AttendanceRecord{}
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

func historyDataset(rows []models.AttendanceRecord) export.Dataset {
	headers := []string{"Date", "Check In", "Check Out", "Status", "Hours"}
	dataset := export.Dataset{Headers: headers, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":      row.Date.Format("2006-01-02"),
			"Check In":  derefString(row.CheckIn),
			"Check Out": derefString(row.CheckOut),
			"Status":    string(row.Status),
			"Hours":     formatHours(row.TotalHours),
		})
	}
	return dataset
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatHours(h *float64) string {
	if h == nil {
		return ""
	}
	return strconv.FormatFloat(*h, 'f', 2, 64)
}
