package models

import "time"

// Section groups students under a designated class teacher. The class
// teacher is the faculty member with full receipt rights for the section's
// students.
type Section struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	ClassTeacherID *string   `db:"class_teacher_id" json:"class_teacher_id,omitempty"`
	Deleted        bool      `db:"deleted" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// SectionFilter captures filtering criteria for listing sections.
type SectionFilter struct {
	ClassTeacherID string
	Search         string
	Page           int
	PageSize       int
}
