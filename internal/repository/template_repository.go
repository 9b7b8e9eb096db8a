package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/college-fees-api/internal/models"
)

// TemplateRepository handles persistence of fee templates.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs the repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateColumns = `id, academic_year, batch_year, seat_type, quota_type, base_fees, description, created_by, deleted, created_at, updated_at`

// List returns templates filtered by the provided criteria.
func (r *TemplateRepository) List(ctx context.Context, filter models.TemplateFilter) ([]models.FeeTemplate, int, error) {
	conditions := []string{"deleted = FALSE"}
	var args []interface{}

	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.BatchYear != "" {
		conditions = append(conditions, fmt.Sprintf("batch_year = $%d", len(args)+1))
		args = append(args, filter.BatchYear)
	}
	if filter.SeatType != "" {
		conditions = append(conditions, fmt.Sprintf("seat_type = $%d", len(args)+1))
		args = append(args, filter.SeatType)
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"academic_year": "academic_year",
		"batch_year":    "batch_year",
		"base_fees":     "base_fees",
		"created_at":    "created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "academic_year"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM fee_templates%s ORDER BY %s %s LIMIT %d OFFSET %d",
		templateColumns, clause, orderBy, order, size, offset)

	var templates []models.FeeTemplate
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fee templates: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM fee_templates" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fee templates: %w", err)
	}
	return templates, total, nil
}

// FindByID returns a template by its ID.
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*models.FeeTemplate, error) {
	query := fmt.Sprintf("SELECT %s FROM fee_templates WHERE id = $1", templateColumns)
	var template models.FeeTemplate
	if err := r.db.GetContext(ctx, &template, query, id); err != nil {
		return nil, err
	}
	return &template, nil
}

// FindActiveByKey returns every non-deleted template matching the resolution
// key. The catalog's unique-key invariant means more than one row is a data
// integrity violation; callers must treat it as fatal rather than pick one.
func (r *TemplateRepository) FindActiveByKey(ctx context.Context, key models.TemplateKey) ([]models.FeeTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_templates
        WHERE academic_year = $1 AND batch_year = $2 AND seat_type = $3
        AND quota_type IS NOT DISTINCT FROM $4 AND deleted = FALSE`, templateColumns)
	var templates []models.FeeTemplate
	if err := r.db.SelectContext(ctx, &templates, query, key.AcademicYear, key.BatchYear, key.SeatType, key.QuotaType); err != nil {
		return nil, fmt.Errorf("find fee template by key: %w", err)
	}
	return templates, nil
}

// ExistsActiveKey checks whether a non-deleted template occupies the key.
func (r *TemplateRepository) ExistsActiveKey(ctx context.Context, key models.TemplateKey, excludeID string) (bool, error) {
	query := `SELECT 1 FROM fee_templates
        WHERE academic_year = $1 AND batch_year = $2 AND seat_type = $3
        AND quota_type IS NOT DISTINCT FROM $4 AND deleted = FALSE`
	args := []interface{}{key.AcademicYear, key.BatchYear, key.SeatType, key.QuotaType}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check fee template key: %w", err)
	}
	return true, nil
}

// Create persists a new fee template.
func (r *TemplateRepository) Create(ctx context.Context, template *models.FeeTemplate) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now
	const query = `INSERT INTO fee_templates (id, academic_year, batch_year, seat_type, quota_type, base_fees, description, created_by, deleted, created_at, updated_at)
        VALUES (:id, :academic_year, :batch_year, :seat_type, :quota_type, :base_fees, :description, :created_by, :deleted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("create fee template: %w", err)
	}
	return nil
}

// Update persists edits to an existing template.
func (r *TemplateRepository) Update(ctx context.Context, template *models.FeeTemplate) error {
	template.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fee_templates SET academic_year = :academic_year, batch_year = :batch_year,
        seat_type = :seat_type, quota_type = :quota_type, base_fees = :base_fees,
        description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("update fee template: %w", err)
	}
	return nil
}

// SoftDelete marks a template deleted so it stops matching resolutions. A
// deleted template never blocks re-creating an identical key.
func (r *TemplateRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE fee_templates SET deleted = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete fee template: %w", err)
	}
	return nil
}
