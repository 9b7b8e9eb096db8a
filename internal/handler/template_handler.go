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

type templateService interface {
	List(ctx context.Context, filter models.TemplateFilter) ([]models.FeeTemplate, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.FeeTemplate, error)
	Create(ctx context.Context, req dto.CreateTemplateRequest, actor *models.JWTClaims) (*models.FeeTemplate, error)
	Update(ctx context.Context, id string, req dto.UpdateTemplateRequest) (*models.FeeTemplate, error)
	Delete(ctx context.Context, id string) error
}

// TemplateHandler exposes the fee template catalog endpoints.
type TemplateHandler struct {
	service templateService
}

// NewTemplateHandler builds a new handler.
func NewTemplateHandler(service templateService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

// List godoc
// @Summary List fee templates
// @Tags FeeTemplates
// @Produce json
// @Param academic_year query string false "Academic year"
// @Param batch_year query string false "Batch year"
// @Param seat_type query string false "Seat type"
// @Success 200 {object} response.Envelope
// @Router /fees/templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	filter := models.TemplateFilter{
		AcademicYear: c.Query("academic_year"),
		BatchYear:    c.Query("batch_year"),
		SeatType:     models.SeatType(c.Query("seat_type")),
		SortBy:       c.Query("sort_by"),
		SortOrder:    c.Query("sort_order"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get a fee template
// @Tags FeeTemplates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /fees/templates/{id} [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	template, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}

// Create godoc
// @Summary Create a fee template
// @Tags FeeTemplates
// @Accept json
// @Produce json
// @Param payload body dto.CreateTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /fees/templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	var req dto.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}
	template, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, template)
}

// Update godoc
// @Summary Update a fee template
// @Tags FeeTemplates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.UpdateTemplateRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Router /fees/templates/{id} [put]
func (h *TemplateHandler) Update(c *gin.Context) {
	var req dto.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}
	template, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}

// Delete godoc
// @Summary Delete a fee template
// @Tags FeeTemplates
// @Produce json
// @Param id path string true "Template ID"
// @Success 204
// @Router /fees/templates/{id} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
