package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campushq/college-fees-api/internal/models"
)

// StudentRepository provides database access for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new instance of StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, full_name, roll_number, section_id, joining_academic_year, current_academic_year, seat_type, quota_type, active, deleted, created_at, updated_at`

// FindByID returns a non-deleted student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1 AND deleted = FALSE", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindDetailByID returns a student together with the section name and class
// teacher reference used by the receipt workflow.
func (r *StudentRepository) FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.full_name, s.roll_number, s.section_id, s.joining_academic_year,
            s.current_academic_year, s.seat_type, s.quota_type, s.active, s.deleted, s.created_at, s.updated_at,
            sec.name AS section_name, sec.class_teacher_id
        FROM students s
        LEFT JOIN sections sec ON sec.id = s.section_id AND sec.deleted = FALSE
        WHERE s.id = $1 AND s.deleted = FALSE`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns students matching the filter with total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"deleted = FALSE"}
	var args []interface{}

	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("current_academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.SeatType != "" {
		conditions = append(conditions, fmt.Sprintf("seat_type = $%d", len(args)+1))
		args = append(args, filter.SeatType)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(roll_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"full_name":   true,
		"roll_number": true,
		"created_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "full_name"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s FROM students%s ORDER BY %s %s LIMIT %d OFFSET %d",
		studentColumns, clause, sortBy, sortOrder, pageSize, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListIDsBySection returns active student IDs for a section, used by bulk
// assignment.
func (r *StudentRepository) ListIDsBySection(ctx context.Context, sectionID string) ([]string, error) {
	const query = `SELECT id FROM students WHERE section_id = $1 AND active = TRUE AND deleted = FALSE ORDER BY roll_number ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section student ids: %w", err)
	}
	return ids, nil
}

// ListActiveIDs returns every active student ID, used by an all-students bulk
// run.
func (r *StudentRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT id FROM students WHERE active = TRUE AND deleted = FALSE ORDER BY roll_number ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list active student ids: %w", err)
	}
	return ids, nil
}

// UpdateFeeProfile sets the resolution key fields on a student record.
func (r *StudentRepository) UpdateFeeProfile(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET section_id = :section_id, joining_academic_year = :joining_academic_year,
        current_academic_year = :current_academic_year, seat_type = :seat_type, quota_type = :quota_type,
        updated_at = :updated_at WHERE id = :id AND deleted = FALSE`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student fee profile: %w", err)
	}
	return nil
}
