package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/campushq/college-fees-api/internal/models"
)

// CreateTemplateRequest is the payload for defining a fee template.
type CreateTemplateRequest struct {
	AcademicYear string            `json:"academic_year" validate:"required"`
	BatchYear    string            `json:"batch_year" validate:"required"`
	SeatType     models.SeatType   `json:"seat_type" validate:"required"`
	QuotaType    *models.QuotaType `json:"quota_type,omitempty"`
	BaseFees     decimal.Decimal   `json:"base_fees" validate:"required"`
	Description  *string           `json:"description,omitempty"`
}

// UpdateTemplateRequest is the payload for editing a fee template. Edits only
// affect future resolutions.
type UpdateTemplateRequest struct {
	AcademicYear string            `json:"academic_year" validate:"required"`
	BatchYear    string            `json:"batch_year" validate:"required"`
	SeatType     models.SeatType   `json:"seat_type" validate:"required"`
	QuotaType    *models.QuotaType `json:"quota_type,omitempty"`
	BaseFees     decimal.Decimal   `json:"base_fees" validate:"required"`
	Description  *string           `json:"description,omitempty"`
}

// AssignFeeRequest is the payload for assigning a resolved fee ledger to one
// student. Academic year falls back to the configured current year.
type AssignFeeRequest struct {
	AcademicYear string `json:"academic_year,omitempty"`
}

// BulkAssignRequest targets a section or every active student.
type BulkAssignRequest struct {
	SectionID    string `json:"section_id,omitempty"`
	AllStudents  bool   `json:"all_students,omitempty"`
	AcademicYear string `json:"academic_year,omitempty"`
	Async        bool   `json:"async,omitempty"`
}

// AddChargeRequest is the payload for appending an additional charge to a
// student's ledger. Amount may be negative for corrections.
type AddChargeRequest struct {
	Name         string          `json:"name" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	Remarks      string          `json:"remarks,omitempty"`
	AcademicYear string          `json:"academic_year,omitempty"`
}

// RecordReceiptRequest is the payload for recording a payment receipt.
type RecordReceiptRequest struct {
	ReceiptNumber      string          `json:"receipt_number" validate:"required"`
	ReceiptPhone       string          `json:"receipt_phone,omitempty"`
	AmountPaid         decimal.Decimal `json:"amount_paid" validate:"required"`
	PaymentDate        time.Time       `json:"payment_date" validate:"required"`
	PaymentMode        string          `json:"payment_mode" validate:"required"`
	Remarks            *string         `json:"remarks,omitempty"`
	ApproveImmediately bool            `json:"approve_immediately,omitempty"`
}

// UpdateReceiptRequest is the payload for editing a receipt's payment details.
// Approval state is never edited through this path.
type UpdateReceiptRequest struct {
	ReceiptNumber string          `json:"receipt_number" validate:"required"`
	ReceiptPhone  string          `json:"receipt_phone,omitempty"`
	AmountPaid    decimal.Decimal `json:"amount_paid" validate:"required"`
	PaymentDate   time.Time       `json:"payment_date" validate:"required"`
	PaymentMode   string          `json:"payment_mode" validate:"required"`
	Remarks       *string         `json:"remarks,omitempty"`
}

// SetReceiptStateRequest moves a receipt through the approval workflow.
type SetReceiptStateRequest struct {
	State models.ApprovalState `json:"state" validate:"required"`
}
