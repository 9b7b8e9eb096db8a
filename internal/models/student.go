package models

import "time"

// Student represents a learner registered in the institution. The academic
// year and seat/quota fields drive fee template resolution and stay nil until
// an administrator sets them.
type Student struct {
	ID                  string     `db:"id" json:"id"`
	FullName            string     `db:"full_name" json:"full_name"`
	RollNumber          string     `db:"roll_number" json:"roll_number"`
	SectionID           *string    `db:"section_id" json:"section_id,omitempty"`
	JoiningAcademicYear *string    `db:"joining_academic_year" json:"joining_academic_year,omitempty"`
	CurrentAcademicYear *string    `db:"current_academic_year" json:"current_academic_year,omitempty"`
	SeatType            *SeatType  `db:"seat_type" json:"seat_type,omitempty"`
	QuotaType           *QuotaType `db:"quota_type" json:"quota_type,omitempty"`
	Active              bool       `db:"active" json:"active"`
	Deleted             bool       `db:"deleted" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search       string
	SectionID    string
	AcademicYear string
	SeatType     SeatType
	Active       *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// StudentDetail contains student information with section context. The class
// teacher reference feeds the receipt workflow predicates.
type StudentDetail struct {
	Student
	SectionName    *string `db:"section_name" json:"section_name,omitempty"`
	ClassTeacherID *string `db:"class_teacher_id" json:"class_teacher_id,omitempty"`
}
