package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/volve-hq/attendance-api/internal/service"
	appErrors "github.com/volve-hq/attendance-api/pkg/errors"
	"github.com/volve-hq/attendance-api/pkg/response"
)

// LeaveHandler wires HTTP endpoints to the leave workflow.
type LeaveHandler struct {
	service *service.LeaveService
}

// NewLeaveHandler creates a new handler.
func NewLeaveHandler(svc *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{service: svc}
}

// Submit godoc
// @Summary Submit leave request
// @Description Creates a pending leave request for the employee
// @Tags Leaves
// @Accept json
// @Produce json
// @Param payload body service.SubmitLeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /leaves [post]
func (h *LeaveHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid leave payload"))
		return
	}

	leave, err := h.service.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// ListOwn godoc
// @Summary List own leave requests
// @Description Returns the employee's leave requests, newest first
// @Tags Leaves
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /leaves [get]
func (h *LeaveHandler) ListOwn(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	rows, err := h.service.ListOwn(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// ListAll godoc
// @Summary List all leave requests
// @Description Returns every leave request for admin review
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/leaves [get]
func (h *LeaveHandler) ListAll(c *gin.Context) {
	rows, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Decide godoc
// @Summary Decide a leave request
// @Description Approves or rejects a pending leave request (admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Leave request id"
// @Param payload body map[string]bool true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/leaves/{id}/approve [post]
func (h *LeaveHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid leave id"))
		return
	}

	var payload struct {
		Approve *bool `json:"approve" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "approve flag required"))
		return
	}

	leave, err := h.service.Decide(c.Request.Context(), id, claims.UserID, *payload.Approve)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}
