package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApprovalState is the review state of a fee receipt. Only APPROVED receipts
// count towards a ledger's amount paid. No state is terminal: approved and
// rejected receipts can both be reverted to pending by an admin, since all
// dependent quantities (balance) are derived, never stored.
type ApprovalState string

const (
	ReceiptPending  ApprovalState = "PENDING"
	ReceiptApproved ApprovalState = "APPROVED"
	ReceiptRejected ApprovalState = "REJECTED"
)

// Valid reports whether the state is a known value.
func (s ApprovalState) Valid() bool {
	return s == ReceiptPending || s == ReceiptApproved || s == ReceiptRejected
}

// FeeReceipt records one payment against a fee ledger. Receipts are
// append-mostly: they may be edited or soft-deleted under workflow rules, and
// approval does not freeze them, it only narrows who may touch them.
type FeeReceipt struct {
	ID            string          `db:"id" json:"id"`
	LedgerID      string          `db:"ledger_id" json:"ledger_id"`
	StudentID     string          `db:"student_id" json:"student_id"`
	ReceiptNumber string          `db:"receipt_number" json:"receipt_number"`
	ReceiptPhone  string          `db:"receipt_phone" json:"receipt_phone"`
	AmountPaid    decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	PaymentDate   time.Time       `db:"payment_date" json:"payment_date"`
	PaymentMode   string          `db:"payment_mode" json:"payment_mode"`
	EnteredBy     string          `db:"entered_by" json:"entered_by"`
	EnteredByRole UserRole        `db:"entered_by_role" json:"entered_by_role"`
	ApprovalState ApprovalState   `db:"approval_state" json:"approval_state"`
	ApprovedBy    *string         `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt    *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	Remarks       *string         `db:"remarks" json:"remarks,omitempty"`
	Deleted       bool            `db:"deleted" json:"-"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// ReceiptFilter captures filtering criteria for listing receipts.
type ReceiptFilter struct {
	StudentID string
	LedgerID  string
	State     ApprovalState
	Page      int
	PageSize  int
}

// FeeBreakdown is the read-only aggregate view over a ledger and its
// receipts. It is recomputed on every call and never cached server-side.
type FeeBreakdown struct {
	HasFee            bool            `json:"has_fee"`
	LedgerID          string          `json:"ledger_id,omitempty"`
	StudentID         string          `json:"student_id,omitempty"`
	AcademicYear      string          `json:"academic_year,omitempty"`
	BaseFees          decimal.Decimal `json:"base_fees"`
	AdditionalCharges ChargeList      `json:"additional_charges"`
	AdditionalTotal   decimal.Decimal `json:"additional_total"`
	TotalFees         decimal.Decimal `json:"total_fees"`
	AmountPaid        decimal.Decimal `json:"amount_paid"`
	Balance           decimal.Decimal `json:"balance"`
	Template          *FeeTemplate    `json:"template,omitempty"`
}

// LedgerSummary pairs a ledger with its derived payment figures. Charge
// mutations return it so callers see the post-commit state.
type LedgerSummary struct {
	Ledger          *FeeLedger      `json:"ledger"`
	AdditionalTotal decimal.Decimal `json:"additional_total"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	Balance         decimal.Decimal `json:"balance"`
}

// Defaulter is one row of the outstanding-balance report.
type Defaulter struct {
	LedgerID     string          `db:"ledger_id" json:"ledger_id"`
	StudentID    string          `db:"student_id" json:"student_id"`
	StudentName  string          `db:"student_name" json:"student_name"`
	RollNumber   string          `db:"roll_number" json:"roll_number"`
	SectionName  *string         `db:"section_name" json:"section_name,omitempty"`
	AcademicYear string          `db:"academic_year" json:"academic_year"`
	TotalFees    decimal.Decimal `db:"total_fees" json:"total_fees"`
	AmountPaid   decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	Balance      decimal.Decimal `db:"balance" json:"balance"`
}
