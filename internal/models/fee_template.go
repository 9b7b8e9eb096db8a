package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SeatType is the admission seat category that selects a fee template.
type SeatType string

const (
	SeatGovernment SeatType = "GOVERNMENT"
	SeatManagement SeatType = "MANAGEMENT"
)

// Valid reports whether the seat type is a known value.
func (s SeatType) Valid() bool {
	return s == SeatGovernment || s == SeatManagement
}

// QuotaType further narrows government-seat admissions. Management seats
// conventionally carry no quota.
type QuotaType string

const (
	QuotaMerit    QuotaType = "MERIT"
	QuotaCategory QuotaType = "CATEGORY"
)

// Valid reports whether the quota type is a known value.
func (q QuotaType) Valid() bool {
	return q == QuotaMerit || q == QuotaCategory
}

// FeeTemplate defines the base fee for one (academic year, batch year, seat,
// quota) combination. Templates are immutable from the ledger's point of
// view: editing one only affects future resolutions, never ledgers already
// derived from it.
type FeeTemplate struct {
	ID           string          `db:"id" json:"id"`
	AcademicYear string          `db:"academic_year" json:"academic_year"`
	BatchYear    string          `db:"batch_year" json:"batch_year"`
	SeatType     SeatType        `db:"seat_type" json:"seat_type"`
	QuotaType    *QuotaType      `db:"quota_type" json:"quota_type,omitempty"`
	BaseFees     decimal.Decimal `db:"base_fees" json:"base_fees"`
	Description  *string         `db:"description" json:"description,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	Deleted      bool            `db:"deleted" json:"-"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// TemplateKey is the four-part resolution key for the template catalog.
type TemplateKey struct {
	AcademicYear string
	BatchYear    string
	SeatType     SeatType
	QuotaType    *QuotaType
}

// String renders the key for diagnostics, e.g. in TemplateNotFound errors.
func (k TemplateKey) String() string {
	quota := "NONE"
	if k.QuotaType != nil {
		quota = string(*k.QuotaType)
	}
	return fmt.Sprintf("batch %s, year %s, %s/%s", k.BatchYear, k.AcademicYear, k.SeatType, quota)
}

// TemplateFilter captures filtering criteria for listing templates.
type TemplateFilter struct {
	AcademicYear string
	BatchYear    string
	SeatType     SeatType
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
