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

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.StudentDetail, error)
	SetFeeProfile(ctx context.Context, id string, sectionID, joiningYear, currentYear *string, seat *models.SeatType, quota *models.QuotaType) (*models.Student, error)
}

// StudentHandler exposes student roster endpoints.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler builds a new handler.
func NewStudentHandler(service studentService) *StudentHandler {
	return &StudentHandler{service: service}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Name or roll number search"
// @Param section_id query string false "Section ID"
// @Param academic_year query string false "Current academic year"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		Search:       c.Query("search"),
		SectionID:    c.Query("section_id"),
		AcademicYear: c.Query("academic_year"),
		SeatType:     models.SeatType(c.Query("seat_type")),
		SortBy:       c.Query("sort_by"),
		SortOrder:    c.Query("sort_order"),
	}
	if active := c.Query("active"); active != "" {
		parsed, err := strconv.ParseBool(active)
		if err == nil {
			filter.Active = &parsed
		}
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
// @Summary Get a student with section context
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// SetFeeProfile godoc
// @Summary Update the fields that drive fee template resolution
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.UpdateFeeProfileRequest true "Fee profile fields"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/fee-profile [put]
func (h *StudentHandler) SetFeeProfile(c *gin.Context) {
	var req dto.UpdateFeeProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fee profile payload"))
		return
	}
	student, err := h.service.SetFeeProfile(c.Request.Context(), c.Param("id"),
		req.SectionID, req.JoiningAcademicYear, req.CurrentAcademicYear, req.SeatType, req.QuotaType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}
