package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/college-fees-api/internal/models"
	appErrors "github.com/campushq/college-fees-api/pkg/errors"
)

// LedgerRepository handles persistence of student fee ledgers. Mutating
// operations run inside a caller-owned transaction so the read-modify-write
// cycle over the charge blob stays atomic.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs the repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const ledgerColumns = `id, student_id, section_id, template_id, academic_year, base_fees, additional_charges, total_fees, auto_generated, set_by, version, deleted, created_at, updated_at`

// WithTx runs fn inside a transaction, committing on nil and rolling back on
// error or panic.
func (r *LedgerRepository) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}
	return nil
}

// FindByID returns a ledger by its ID, deleted or not.
func (r *LedgerRepository) FindByID(ctx context.Context, id string) (*models.FeeLedger, error) {
	query := fmt.Sprintf("SELECT %s FROM fee_ledgers WHERE id = $1", ledgerColumns)
	var ledger models.FeeLedger
	if err := r.db.GetContext(ctx, &ledger, query, id); err != nil {
		return nil, err
	}
	return &ledger, nil
}

// FindActiveByStudentYear returns the single non-deleted ledger for a student
// and academic year.
func (r *LedgerRepository) FindActiveByStudentYear(ctx context.Context, studentID, academicYear string) (*models.FeeLedger, error) {
	query := fmt.Sprintf("SELECT %s FROM fee_ledgers WHERE student_id = $1 AND academic_year = $2 AND deleted = FALSE", ledgerColumns)
	var ledger models.FeeLedger
	if err := r.db.GetContext(ctx, &ledger, query, studentID, academicYear); err != nil {
		return nil, err
	}
	return &ledger, nil
}

// GetForUpdate loads the active ledger row under a row lock so concurrent
// charge mutations serialize. sql.ErrNoRows passes through when the student
// has no ledger for the year.
func (r *LedgerRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, studentID, academicYear string) (*models.FeeLedger, error) {
	query := fmt.Sprintf("SELECT %s FROM fee_ledgers WHERE student_id = $1 AND academic_year = $2 AND deleted = FALSE FOR UPDATE", ledgerColumns)
	var ledger models.FeeLedger
	if err := tx.GetContext(ctx, &ledger, query, studentID, academicYear); err != nil {
		return nil, err
	}
	return &ledger, nil
}

// Create inserts a new ledger inside the transaction.
func (r *LedgerRepository) Create(ctx context.Context, tx *sqlx.Tx, ledger *models.FeeLedger) error {
	if ledger.ID == "" {
		ledger.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	ledger.CreatedAt = now
	ledger.UpdatedAt = now
	ledger.Version = 1
	const query = `INSERT INTO fee_ledgers (id, student_id, section_id, template_id, academic_year, base_fees, additional_charges, total_fees, auto_generated, set_by, version, deleted, created_at, updated_at)
        VALUES (:id, :student_id, :section_id, :template_id, :academic_year, :base_fees, :additional_charges, :total_fees, :auto_generated, :set_by, :version, :deleted, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, ledger); err != nil {
		return fmt.Errorf("create fee ledger: %w", err)
	}
	return nil
}

// Update persists ledger mutations with an optimistic version guard. A zero
// row count means another writer advanced the version first.
func (r *LedgerRepository) Update(ctx context.Context, tx *sqlx.Tx, ledger *models.FeeLedger) error {
	ledger.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fee_ledgers SET section_id = $1, template_id = $2, base_fees = $3,
        additional_charges = $4, total_fees = $5, auto_generated = $6, set_by = $7,
        version = version + 1, updated_at = $8
        WHERE id = $9 AND version = $10`
	result, err := tx.ExecContext(ctx, query,
		ledger.SectionID, ledger.TemplateID, ledger.BaseFees,
		ledger.AdditionalCharges, ledger.TotalFees, ledger.AutoGenerated, ledger.SetBy,
		ledger.UpdatedAt, ledger.ID, ledger.Version)
	if err != nil {
		return fmt.Errorf("update fee ledger: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update fee ledger: %w", err)
	}
	if rows == 0 {
		return appErrors.ErrConcurrencyConflict
	}
	ledger.Version++
	return nil
}

// SoftDelete marks a ledger deleted inside the transaction.
func (r *LedgerRepository) SoftDelete(ctx context.Context, tx *sqlx.Tx, id string) error {
	const query = `UPDATE fee_ledgers SET deleted = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete fee ledger: %w", err)
	}
	return nil
}

// ListByAcademicYear returns all active ledgers for a year, paged.
func (r *LedgerRepository) ListByAcademicYear(ctx context.Context, academicYear string, page, pageSize int) ([]models.FeeLedger, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	query := fmt.Sprintf("SELECT %s FROM fee_ledgers WHERE academic_year = $1 AND deleted = FALSE ORDER BY created_at DESC LIMIT %d OFFSET %d",
		ledgerColumns, pageSize, (page-1)*pageSize)
	var ledgers []models.FeeLedger
	if err := r.db.SelectContext(ctx, &ledgers, query, academicYear); err != nil {
		return nil, 0, fmt.Errorf("list fee ledgers: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM fee_ledgers WHERE academic_year = $1 AND deleted = FALSE", academicYear); err != nil {
		return nil, 0, fmt.Errorf("count fee ledgers: %w", err)
	}
	return ledgers, total, nil
}
