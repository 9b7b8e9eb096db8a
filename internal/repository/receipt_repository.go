package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/campushq/college-fees-api/internal/models"
)

// ReceiptRepository handles persistence of fee receipts.
type ReceiptRepository struct {
	db *sqlx.DB
}

// NewReceiptRepository constructs the repository.
func NewReceiptRepository(db *sqlx.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

const receiptColumns = `id, ledger_id, student_id, receipt_number, receipt_phone, amount_paid, payment_date, payment_mode, entered_by, entered_by_role, approval_state, approved_by, approved_at, remarks, deleted, created_at, updated_at`

// Create inserts a new receipt in PENDING state unless the caller set one.
func (r *ReceiptRepository) Create(ctx context.Context, receipt *models.FeeReceipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.NewString()
	}
	if receipt.ApprovalState == "" {
		receipt.ApprovalState = models.ReceiptPending
	}
	now := time.Now().UTC()
	receipt.CreatedAt = now
	receipt.UpdatedAt = now
	const query = `INSERT INTO fee_receipts (id, ledger_id, student_id, receipt_number, receipt_phone, amount_paid, payment_date, payment_mode, entered_by, entered_by_role, approval_state, approved_by, approved_at, remarks, deleted, created_at, updated_at)
        VALUES (:id, :ledger_id, :student_id, :receipt_number, :receipt_phone, :amount_paid, :payment_date, :payment_mode, :entered_by, :entered_by_role, :approval_state, :approved_by, :approved_at, :remarks, :deleted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, receipt); err != nil {
		return fmt.Errorf("create fee receipt: %w", err)
	}
	return nil
}

// FindByID returns a non-deleted receipt by ID.
func (r *ReceiptRepository) FindByID(ctx context.Context, id string) (*models.FeeReceipt, error) {
	query := fmt.Sprintf("SELECT %s FROM fee_receipts WHERE id = $1 AND deleted = FALSE", receiptColumns)
	var receipt models.FeeReceipt
	if err := r.db.GetContext(ctx, &receipt, query, id); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Update persists edits to a receipt's payment details.
func (r *ReceiptRepository) Update(ctx context.Context, receipt *models.FeeReceipt) error {
	receipt.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fee_receipts SET receipt_number = :receipt_number, receipt_phone = :receipt_phone,
        amount_paid = :amount_paid, payment_date = :payment_date, payment_mode = :payment_mode,
        remarks = :remarks, updated_at = :updated_at WHERE id = :id AND deleted = FALSE`
	if _, err := r.db.NamedExecContext(ctx, query, receipt); err != nil {
		return fmt.Errorf("update fee receipt: %w", err)
	}
	return nil
}

// SetState moves a receipt to the given approval state, stamping the reviewer
// on approval and clearing the stamp on reverts to pending.
func (r *ReceiptRepository) SetState(ctx context.Context, id string, state models.ApprovalState, reviewerID string) error {
	var approvedBy *string
	var approvedAt *time.Time
	if state == models.ReceiptApproved || state == models.ReceiptRejected {
		now := time.Now().UTC()
		approvedBy = &reviewerID
		approvedAt = &now
	}
	const query = `UPDATE fee_receipts SET approval_state = $2, approved_by = $3, approved_at = $4, updated_at = $5
        WHERE id = $1 AND deleted = FALSE`
	if _, err := r.db.ExecContext(ctx, query, id, state, approvedBy, approvedAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("set fee receipt state: %w", err)
	}
	return nil
}

// SoftDelete marks a receipt deleted. Deleted receipts drop out of every
// aggregate immediately.
func (r *ReceiptRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE fee_receipts SET deleted = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete fee receipt: %w", err)
	}
	return nil
}

// List returns receipts matching the filter, newest payment first.
func (r *ReceiptRepository) List(ctx context.Context, filter models.ReceiptFilter) ([]models.FeeReceipt, int, error) {
	conditions := []string{"deleted = FALSE"}
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.LedgerID != "" {
		conditions = append(conditions, fmt.Sprintf("ledger_id = $%d", len(args)+1))
		args = append(args, filter.LedgerID)
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("approval_state = $%d", len(args)+1))
		args = append(args, filter.State)
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf("SELECT %s FROM fee_receipts%s ORDER BY payment_date DESC, created_at DESC LIMIT %d OFFSET %d",
		receiptColumns, clause, size, (page-1)*size)
	var receipts []models.FeeReceipt
	if err := r.db.SelectContext(ctx, &receipts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fee receipts: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM fee_receipts"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count fee receipts: %w", err)
	}
	return receipts, total, nil
}

// SumApproved returns the total of approved, non-deleted receipt amounts for
// a ledger. This is the only payment aggregate the system trusts.
func (r *ReceiptRepository) SumApproved(ctx context.Context, ledgerID string) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(amount_paid), 0) FROM fee_receipts
        WHERE ledger_id = $1 AND approval_state = 'APPROVED' AND deleted = FALSE`
	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, ledgerID); err != nil {
		return decimal.Zero, fmt.Errorf("sum approved receipts: %w", err)
	}
	return total, nil
}

// HasApproved reports whether a ledger has at least one approved receipt.
// Drives the optional charge lock policy.
func (r *ReceiptRepository) HasApproved(ctx context.Context, ledgerID string) (bool, error) {
	const query = `SELECT 1 FROM fee_receipts
        WHERE ledger_id = $1 AND approval_state = 'APPROVED' AND deleted = FALSE LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, ledgerID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check approved receipts: %w", err)
	}
	return true, nil
}

// ExistsReceiptNumber checks whether a non-deleted receipt already carries
// the number, optionally excluding one receipt during edits.
func (r *ReceiptRepository) ExistsReceiptNumber(ctx context.Context, receiptNumber, excludeID string) (bool, error) {
	query := `SELECT 1 FROM fee_receipts WHERE receipt_number = $1 AND deleted = FALSE`
	args := []interface{}{receiptNumber}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	query += " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check receipt number: %w", err)
	}
	return true, nil
}

// Defaulters returns active ledgers for the academic year whose approved
// payments fall short of the total, largest balance first.
func (r *ReceiptRepository) Defaulters(ctx context.Context, academicYear string) ([]models.Defaulter, error) {
	const query = `SELECT l.id AS ledger_id, l.student_id, s.full_name AS student_name, s.roll_number,
            sec.name AS section_name, l.academic_year, l.total_fees,
            COALESCE(p.amount_paid, 0) AS amount_paid,
            l.total_fees - COALESCE(p.amount_paid, 0) AS balance
        FROM fee_ledgers l
        JOIN students s ON s.id = l.student_id AND s.deleted = FALSE
        LEFT JOIN sections sec ON sec.id = l.section_id AND sec.deleted = FALSE
        LEFT JOIN (
            SELECT ledger_id, SUM(amount_paid) AS amount_paid FROM fee_receipts
            WHERE approval_state = 'APPROVED' AND deleted = FALSE GROUP BY ledger_id
        ) p ON p.ledger_id = l.id
        WHERE l.academic_year = $1 AND l.deleted = FALSE
            AND l.total_fees - COALESCE(p.amount_paid, 0) > 0
        ORDER BY balance DESC, s.full_name ASC`
	var defaulters []models.Defaulter
	if err := r.db.SelectContext(ctx, &defaulters, query, academicYear); err != nil {
		return nil, fmt.Errorf("list fee defaulters: %w", err)
	}
	return defaulters, nil
}
