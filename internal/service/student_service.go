package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/campushq/college-fees-api/internal/models"
	appErrors "github.com/campushq/college-fees-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	UpdateFeeProfile(ctx context.Context, student *models.Student) error
}

// StudentService exposes student directory reads and fee profile updates.
type StudentService struct {
	repo   studentRepository
	logger *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, logger: logger}
}

// List returns students matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student with section context.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get student")
	}
	return detail, nil
}

// SetFeeProfile updates the student fields that drive template resolution.
func (s *StudentService) SetFeeProfile(ctx context.Context, id string, sectionID, joiningYear, currentYear *string, seat *models.SeatType, quota *models.QuotaType) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get student")
	}

	if seat != nil && !seat.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "seat_type must be GOVERNMENT or MANAGEMENT")
	}
	if quota != nil && !quota.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "quota_type must be MERIT or CATEGORY")
	}

	if sectionID != nil {
		student.SectionID = sectionID
	}
	if joiningYear != nil {
		student.JoiningAcademicYear = joiningYear
	}
	if currentYear != nil {
		student.CurrentAcademicYear = currentYear
	}
	if seat != nil {
		student.SeatType = seat
	}
	if quota != nil {
		student.QuotaType = quota
	}

	if err := s.repo.UpdateFeeProfile(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student fee profile")
	}
	return student, nil
}
