package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushq/college-fees-api/internal/dto"
	"github.com/campushq/college-fees-api/internal/models"
	appErrors "github.com/campushq/college-fees-api/pkg/errors"
	"github.com/campushq/college-fees-api/pkg/response"
)

type assignmentService interface {
	Assign(ctx context.Context, studentID string, req dto.AssignFeeRequest, actor *models.JWTClaims) (*models.AssignmentResult, error)
	BulkAssign(ctx context.Context, req dto.BulkAssignRequest, actor *models.JWTClaims) (*models.BulkAssignResult, error)
	EnqueueBulkAssign(ctx context.Context, req dto.BulkAssignRequest, actor *models.JWTClaims) (string, error)
}

type chargeService interface {
	AddCharge(ctx context.Context, studentID string, req dto.AddChargeRequest, actor *models.JWTClaims) (*models.LedgerSummary, error)
	RemoveCharge(ctx context.Context, studentID, chargeID, academicYear string, actor *models.JWTClaims) (*models.LedgerSummary, error)
	RemoveChargeAt(ctx context.Context, studentID string, index int, academicYear string, actor *models.JWTClaims) (*models.LedgerSummary, error)
}

type breakdownService interface {
	Breakdown(ctx context.Context, studentID, academicYear string, actor *models.JWTClaims) (*models.FeeBreakdown, error)
}

// FeeHandler exposes ledger assignment and charge endpoints.
type FeeHandler struct {
	assignments assignmentService
	charges     chargeService
	payments    breakdownService
}

// NewFeeHandler builds a new handler.
func NewFeeHandler(assignments assignmentService, charges chargeService, payments breakdownService) *FeeHandler {
	return &FeeHandler{assignments: assignments, charges: charges, payments: payments}
}

// Assign godoc
// @Summary Assign a fee ledger to a student
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.AssignFeeRequest false "Assignment options"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/fees/assign [post]
func (h *FeeHandler) Assign(c *gin.Context) {
	var req dto.AssignFeeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
			return
		}
	}
	result, err := h.assignments.Assign(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Action == models.AssignmentCreated {
		status = http.StatusCreated
	}
	response.JSON(c, status, result, nil)
}

// BulkAssign godoc
// @Summary Assign fee ledgers for a section or all students
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body dto.BulkAssignRequest true "Bulk target"
// @Success 200 {object} response.Envelope
// @Router /fees/assignments/bulk [post]
func (h *FeeHandler) BulkAssign(c *gin.Context) {
	var req dto.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk payload"))
		return
	}

	if req.Async {
		jobID, err := h.assignments.EnqueueBulkAssign(c.Request.Context(), req, claimsFromContext(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusAccepted, gin.H{"job_id": jobID}, nil)
		return
	}

	result, err := h.assignments.BulkAssign(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AddCharge godoc
// @Summary Add an additional charge to a student's ledger
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.AddChargeRequest true "Charge payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/fees/charges [post]
func (h *FeeHandler) AddCharge(c *gin.Context) {
	var req dto.AddChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid charge payload"))
		return
	}
	summary, err := h.charges.AddCharge(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// RemoveCharge godoc
// @Summary Remove a charge by its ID
// @Tags Fees
// @Produce json
// @Param id path string true "Student ID"
// @Param chargeId path string true "Charge ID"
// @Param academic_year query string false "Academic year"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/fees/charges/{chargeId} [delete]
func (h *FeeHandler) RemoveCharge(c *gin.Context) {
	summary, err := h.charges.RemoveCharge(c.Request.Context(), c.Param("id"), c.Param("chargeId"), c.Query("academic_year"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// RemoveChargeAt godoc
// @Summary Remove a charge by list position
// @Tags Fees
// @Produce json
// @Param id path string true "Student ID"
// @Param index path int true "Charge index"
// @Param academic_year query string false "Academic year"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/fees/charges/index/{index} [delete]
func (h *FeeHandler) RemoveChargeAt(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "index must be an integer"))
		return
	}
	summary, err := h.charges.RemoveChargeAt(c.Request.Context(), c.Param("id"), index, c.Query("academic_year"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Breakdown godoc
// @Summary Get a student's fee breakdown
// @Tags Fees
// @Produce json
// @Param id path string true "Student ID"
// @Param academic_year query string false "Academic year"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/fees [get]
func (h *FeeHandler) Breakdown(c *gin.Context) {
	breakdown, err := h.payments.Breakdown(c.Request.Context(), c.Param("id"), c.Query("academic_year"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, breakdown, nil)
}
