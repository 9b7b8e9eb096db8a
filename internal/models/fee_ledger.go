package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ChargeEvent is one ad-hoc addition to a ledger's total (hostel fee,
// transport fee, a negative correction). Each event carries a stable ID so
// removal never depends on a positional index computed from stale state.
type ChargeEvent struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Amount  decimal.Decimal `json:"amount"`
	AddedBy string          `json:"added_by"`
	AddedAt time.Time       `json:"added_at"`
	Remarks string          `json:"remarks,omitempty"`
}

// ChargeList is the ordered additional-charge sequence, stored as a JSONB
// blob on the ledger row. Order is insertion order and is never re-sorted.
type ChargeList []ChargeEvent

// Value implements driver.Valuer for JSONB storage.
func (l ChargeList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB storage.
func (l *ChargeList) Scan(src interface{}) error {
	if src == nil {
		*l = ChargeList{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported charge list source type %T", src)
	}
	if len(raw) == 0 {
		*l = ChargeList{}
		return nil
	}
	return json.Unmarshal(raw, l)
}

// Sum returns the total of all charge amounts.
func (l ChargeList) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, c := range l {
		total = total.Add(c.Amount)
	}
	return total
}

// IndexOf returns the position of the charge with the given ID, or -1.
func (l ChargeList) IndexOf(chargeID string) int {
	for i, c := range l {
		if c.ID == chargeID {
			return i
		}
	}
	return -1
}

// FeeLedger is the per-student, per-academic-year fee record: an immutable
// base charge copied from the resolved template plus the ordered additional
// charges.
//
// Invariant: TotalFees == BaseFees + AdditionalCharges.Sum() at all times.
// Every mutation path recomputes the total inside the same transaction.
// Balance is never stored; it is derived from approved receipts on read.
type FeeLedger struct {
	ID                string          `db:"id" json:"id"`
	StudentID         string          `db:"student_id" json:"student_id"`
	SectionID         *string         `db:"section_id" json:"section_id,omitempty"`
	TemplateID        *string         `db:"template_id" json:"template_id,omitempty"`
	AcademicYear      string          `db:"academic_year" json:"academic_year"`
	BaseFees          decimal.Decimal `db:"base_fees" json:"base_fees"`
	AdditionalCharges ChargeList      `db:"additional_charges" json:"additional_charges"`
	TotalFees         decimal.Decimal `db:"total_fees" json:"total_fees"`
	AutoGenerated     bool            `db:"auto_generated" json:"auto_generated"`
	SetBy             *string         `db:"set_by" json:"set_by,omitempty"`
	Version           int             `db:"version" json:"-"`
	Deleted           bool            `db:"deleted" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// RecomputeTotal restores the total invariant from base fees and charges.
func (l *FeeLedger) RecomputeTotal() {
	l.TotalFees = l.BaseFees.Add(l.AdditionalCharges.Sum())
}

// AssignmentAction reports whether an assignment created or updated a ledger.
type AssignmentAction string

const (
	AssignmentCreated AssignmentAction = "created"
	AssignmentUpdated AssignmentAction = "updated"
)

// AssignmentResult is the outcome of resolving and assigning a fee ledger.
type AssignmentResult struct {
	Action AssignmentAction `json:"action"`
	Ledger *FeeLedger       `json:"ledger"`
}

// BulkAssignFailure records one student's failed assignment in a bulk run.
type BulkAssignFailure struct {
	StudentID string `json:"student_id"`
	Error     string `json:"error"`
}

// BulkAssignResult summarises a bulk assignment run. Failures are isolated:
// one student's error never rolls back another's committed assignment.
type BulkAssignResult struct {
	Processed int                 `json:"processed"`
	Created   int                 `json:"created"`
	Updated   int                 `json:"updated"`
	Skipped   int                 `json:"skipped"`
	Failures  []BulkAssignFailure `json:"failures,omitempty"`
}
