package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushq/college-fees-api/internal/models"
	"github.com/campushq/college-fees-api/pkg/response"
)

type sectionService interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.Section, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Section, error)
}

// SectionHandler exposes section endpoints.
type SectionHandler struct {
	service sectionService
}

// NewSectionHandler builds a new handler.
func NewSectionHandler(service sectionService) *SectionHandler {
	return &SectionHandler{service: service}
}

// List godoc
// @Summary List sections
// @Tags Sections
// @Produce json
// @Param class_teacher_id query string false "Class teacher user ID"
// @Param search query string false "Section name search"
// @Success 200 {object} response.Envelope
// @Router /sections [get]
func (h *SectionHandler) List(c *gin.Context) {
	filter := models.SectionFilter{
		ClassTeacherID: c.Query("class_teacher_id"),
		Search:         c.Query("search"),
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
// @Summary Get a section
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	section, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}
