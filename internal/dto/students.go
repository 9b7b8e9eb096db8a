package dto

import "github.com/campushq/college-fees-api/internal/models"

// UpdateFeeProfileRequest carries partial updates to the fields that drive
// template resolution for a student. Nil fields are left unchanged.
type UpdateFeeProfileRequest struct {
	SectionID           *string           `json:"section_id,omitempty"`
	JoiningAcademicYear *string           `json:"joining_academic_year,omitempty"`
	CurrentAcademicYear *string           `json:"current_academic_year,omitempty"`
	SeatType            *models.SeatType  `json:"seat_type,omitempty"`
	QuotaType           *models.QuotaType `json:"quota_type,omitempty"`
}
