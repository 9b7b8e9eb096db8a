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

type paymentService interface {
	Record(ctx context.Context, ledgerID string, req dto.RecordReceiptRequest, actor *models.JWTClaims) (*models.FeeReceipt, error)
	Edit(ctx context.Context, receiptID string, req dto.UpdateReceiptRequest, actor *models.JWTClaims) (*models.FeeReceipt, error)
	Delete(ctx context.Context, receiptID string, actor *models.JWTClaims) error
	SetState(ctx context.Context, receiptID string, req dto.SetReceiptStateRequest, actor *models.JWTClaims) (*models.FeeReceipt, error)
	ListReceipts(ctx context.Context, filter models.ReceiptFilter, actor *models.JWTClaims) ([]models.FeeReceipt, *models.Pagination, error)
	Defaulters(ctx context.Context, academicYear string, actor *models.JWTClaims) ([]models.Defaulter, error)
	ExportDefaulters(ctx context.Context, academicYear, format string, actor *models.JWTClaims) ([]byte, string, error)
}

// ReceiptHandler exposes the receipt workflow endpoints.
type ReceiptHandler struct {
	service paymentService
}

// NewReceiptHandler builds a new handler.
func NewReceiptHandler(service paymentService) *ReceiptHandler {
	return &ReceiptHandler{service: service}
}

// Record godoc
// @Summary Record a payment receipt against a ledger
// @Tags Receipts
// @Accept json
// @Produce json
// @Param id path string true "Ledger ID"
// @Param payload body dto.RecordReceiptRequest true "Receipt payload"
// @Success 201 {object} response.Envelope
// @Router /fees/ledgers/{id}/receipts [post]
func (h *ReceiptHandler) Record(c *gin.Context) {
	var req dto.RecordReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid receipt payload"))
		return
	}
	receipt, err := h.service.Record(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, receipt)
}

// Edit godoc
// @Summary Edit a receipt's payment details
// @Tags Receipts
// @Accept json
// @Produce json
// @Param id path string true "Receipt ID"
// @Param payload body dto.UpdateReceiptRequest true "Receipt payload"
// @Success 200 {object} response.Envelope
// @Router /fees/receipts/{id} [put]
func (h *ReceiptHandler) Edit(c *gin.Context) {
	var req dto.UpdateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid receipt payload"))
		return
	}
	receipt, err := h.service.Edit(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}

// Delete godoc
// @Summary Delete a receipt
// @Tags Receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 204
// @Router /fees/receipts/{id} [delete]
func (h *ReceiptHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetState godoc
// @Summary Move a receipt through the approval workflow
// @Tags Receipts
// @Accept json
// @Produce json
// @Param id path string true "Receipt ID"
// @Param payload body dto.SetReceiptStateRequest true "Target state"
// @Success 200 {object} response.Envelope
// @Router /fees/receipts/{id}/state [post]
func (h *ReceiptHandler) SetState(c *gin.Context) {
	var req dto.SetReceiptStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid state payload"))
		return
	}
	receipt, err := h.service.SetState(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}

// List godoc
// @Summary List receipts
// @Tags Receipts
// @Produce json
// @Param student_id query string false "Student ID"
// @Param ledger_id query string false "Ledger ID"
// @Param state query string false "Approval state"
// @Success 200 {object} response.Envelope
// @Router /fees/receipts [get]
func (h *ReceiptHandler) List(c *gin.Context) {
	filter := models.ReceiptFilter{
		StudentID: c.Query("student_id"),
		LedgerID:  c.Query("ledger_id"),
		State:     models.ApprovalState(c.Query("state")),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, pagination, err := h.service.ListReceipts(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Defaulters godoc
// @Summary List students with outstanding balances
// @Tags Receipts
// @Produce json
// @Param academic_year query string false "Academic year"
// @Param format query string false "Export format (csv or pdf)"
// @Success 200 {object} response.Envelope
// @Router /fees/defaulters [get]
func (h *ReceiptHandler) Defaulters(c *gin.Context) {
	year := c.Query("academic_year")

	if format := c.Query("format"); format != "" {
		payload, contentType, err := h.service.ExportDefaulters(c.Request.Context(), year, format, claimsFromContext(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename=defaulters."+format)
		c.Data(http.StatusOK, contentType, payload)
		return
	}

	defaulters, err := h.service.Defaulters(c.Request.Context(), year, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, defaulters, nil)
}
