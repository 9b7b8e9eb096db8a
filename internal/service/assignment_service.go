package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campushq/college-fees-api/internal/dto"
	"github.com/campushq/college-fees-api/internal/models"
	appErrors "github.com/campushq/college-fees-api/pkg/errors"
	"github.com/campushq/college-fees-api/pkg/jobs"
)

type assignmentStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListIDsBySection(ctx context.Context, sectionID string) ([]string, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
}

type assignmentLedgerRepository interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, studentID, academicYear string) (*models.FeeLedger, error)
	Create(ctx context.Context, tx *sqlx.Tx, ledger *models.FeeLedger) error
	Update(ctx context.Context, tx *sqlx.Tx, ledger *models.FeeLedger) error
}

type templateResolver interface {
	Resolve(ctx context.Context, key models.TemplateKey) (*models.FeeTemplate, error)
}

type assignmentEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type assignmentMetrics interface {
	RecordFeeAssignment(result string)
}

// JobTypeBulkAssign tags queued bulk assignment payloads.
const JobTypeBulkAssign = "fees.bulk_assign"

// BulkAssignJobPayload is the queued form of a bulk assignment run.
type BulkAssignJobPayload struct {
	SectionID    string `json:"section_id,omitempty"`
	AllStudents  bool   `json:"all_students,omitempty"`
	AcademicYear string `json:"academic_year"`
	RequestedBy  string `json:"requested_by"`
}

// AssignmentServiceConfig carries the resolution policy knobs.
type AssignmentServiceConfig struct {
	CurrentAcademicYear string
}

// AssignmentService resolves templates into per-student fee ledgers.
// Assignment is idempotent: re-running it refreshes the base fee from the
// current template and always preserves accumulated additional charges.
type AssignmentService struct {
	students  assignmentStudentReader
	ledgers   assignmentLedgerRepository
	templates templateResolver
	workflow  *ReceiptWorkflow
	queue     assignmentEnqueuer
	metrics   assignmentMetrics
	logger    *zap.Logger
	cfg       AssignmentServiceConfig
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(students assignmentStudentReader, ledgers assignmentLedgerRepository, templates templateResolver, workflow *ReceiptWorkflow, queue assignmentEnqueuer, metrics assignmentMetrics, logger *zap.Logger, cfg AssignmentServiceConfig) *AssignmentService {
	if workflow == nil {
		workflow = NewReceiptWorkflow()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		students:  students,
		ledgers:   ledgers,
		templates: templates,
		workflow:  workflow,
		queue:     queue,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Assign resolves and assigns a fee ledger for one student.
func (s *AssignmentService) Assign(ctx context.Context, studentID string, req dto.AssignFeeRequest, actor *models.JWTClaims) (*models.AssignmentResult, error) {
	if !s.workflow.CanSetFeeStructure(ActorFromClaims(actor)) {
		s.recordAssignment("forbidden")
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may assign fee structures")
	}

	result, _, err := s.assignOne(ctx, studentID, req.AcademicYear, actorUserID(actor))
	if err != nil {
		s.recordAssignment("error")
		return nil, err
	}
	s.recordAssignment(string(result.Action))
	return result, nil
}

// BulkAssign runs assignment for a section or every active student. Failures
// are isolated per student: each assignment commits or rolls back on its own,
// and one student's missing template never aborts the run.
func (s *AssignmentService) BulkAssign(ctx context.Context, req dto.BulkAssignRequest, actor *models.JWTClaims) (*models.BulkAssignResult, error) {
	if !s.workflow.CanSetFeeStructure(ActorFromClaims(actor)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may assign fee structures")
	}
	ids, err := s.targetStudents(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.runBulk(ctx, ids, req.AcademicYear, actorUserID(actor)), nil
}

// EnqueueBulkAssign queues the run for background execution.
func (s *AssignmentService) EnqueueBulkAssign(ctx context.Context, req dto.BulkAssignRequest, actor *models.JWTClaims) (string, error) {
	if !s.workflow.CanSetFeeStructure(ActorFromClaims(actor)) {
		return "", appErrors.Clone(appErrors.ErrForbidden, "only administrators may assign fee structures")
	}
	if s.queue == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "background assignment is not enabled")
	}
	if req.SectionID == "" && !req.AllStudents {
		return "", appErrors.Clone(appErrors.ErrValidation, "either section_id or all_students is required")
	}

	jobID := uuid.NewString()
	err := s.queue.Enqueue(jobs.Job{
		ID:   jobID,
		Type: JobTypeBulkAssign,
		Payload: BulkAssignJobPayload{
			SectionID:    req.SectionID,
			AllStudents:  req.AllStudents,
			AcademicYear: req.AcademicYear,
			RequestedBy:  actorUserID(actor),
		},
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue bulk assignment")
	}
	return jobID, nil
}

// HandleBulkAssignJob is the queue handler for queued runs.
func (s *AssignmentService) HandleBulkAssignJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(BulkAssignJobPayload)
	if !ok {
		s.logger.Error("unexpected bulk assignment payload", zap.String("job_id", job.ID))
		return nil
	}
	ids, err := s.targetStudents(ctx, dto.BulkAssignRequest{
		SectionID:   payload.SectionID,
		AllStudents: payload.AllStudents,
	})
	if err != nil {
		return err
	}
	result := s.runBulk(ctx, ids, payload.AcademicYear, payload.RequestedBy)
	s.logger.Info("bulk fee assignment completed",
		zap.String("job_id", job.ID),
		zap.Int("processed", result.Processed),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failures", len(result.Failures)))
	return nil
}

func (s *AssignmentService) targetStudents(ctx context.Context, req dto.BulkAssignRequest) ([]string, error) {
	switch {
	case req.SectionID != "":
		ids, err := s.students.ListIDsBySection(ctx, req.SectionID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list section students")
		}
		return ids, nil
	case req.AllStudents:
		ids, err := s.students.ListActiveIDs(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
		}
		return ids, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "either section_id or all_students is required")
	}
}

func (s *AssignmentService) runBulk(ctx context.Context, studentIDs []string, academicYear, setBy string) *models.BulkAssignResult {
	result := &models.BulkAssignResult{}
	for _, id := range studentIDs {
		result.Processed++
		assigned, changed, err := s.assignOne(ctx, id, academicYear, setBy)
		if err != nil {
			s.recordAssignment("error")
			result.Failures = append(result.Failures, models.BulkAssignFailure{
				StudentID: id,
				Error:     appErrors.FromError(err).Message,
			})
			continue
		}
		if !changed {
			s.recordAssignment("skipped")
			result.Skipped++
			continue
		}
		s.recordAssignment(string(assigned.Action))
		switch assigned.Action {
		case models.AssignmentCreated:
			result.Created++
		case models.AssignmentUpdated:
			result.Updated++
		}
	}
	return result
}

// assignOne resolves the template before opening the transaction, so a
// TemplateNotFound leaves any existing ledger untouched.
func (s *AssignmentService) assignOne(ctx context.Context, studentID, academicYear, setBy string) (*models.AssignmentResult, bool, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	key, err := s.resolutionKey(student, academicYear)
	if err != nil {
		return nil, false, err
	}

	template, err := s.templates.Resolve(ctx, key)
	if err != nil {
		return nil, false, err
	}

	var result *models.AssignmentResult
	var changed bool
	err = s.ledgers.WithTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.ledgers.GetForUpdate(ctx, tx, student.ID, key.AcademicYear)
		if err != nil && err != sql.ErrNoRows {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee ledger")
		}

		if existing == nil || err == sql.ErrNoRows {
			ledger := &models.FeeLedger{
				StudentID:     student.ID,
				SectionID:     student.SectionID,
				TemplateID:    &template.ID,
				AcademicYear:  key.AcademicYear,
				BaseFees:      template.BaseFees,
				AutoGenerated: true,
				SetBy:         strPtrOrNil(setBy),
			}
			ledger.RecomputeTotal()
			if err := s.ledgers.Create(ctx, tx, ledger); err != nil {
				return err
			}
			result = &models.AssignmentResult{Action: models.AssignmentCreated, Ledger: ledger}
			changed = true
			return nil
		}

		sameTemplate := existing.TemplateID != nil && *existing.TemplateID == template.ID
		if sameTemplate && existing.BaseFees.Equal(template.BaseFees) && equalStrPtr(existing.SectionID, student.SectionID) {
			result = &models.AssignmentResult{Action: models.AssignmentUpdated, Ledger: existing}
			return nil
		}

		existing.TemplateID = &template.ID
		existing.SectionID = student.SectionID
		existing.BaseFees = template.BaseFees
		existing.AutoGenerated = true
		existing.SetBy = strPtrOrNil(setBy)
		existing.RecomputeTotal()
		if err := s.ledgers.Update(ctx, tx, existing); err != nil {
			return err
		}
		result = &models.AssignmentResult{Action: models.AssignmentUpdated, Ledger: existing}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, changed, nil
}

func (s *AssignmentService) resolutionKey(student *models.Student, academicYear string) (models.TemplateKey, error) {
	year := academicYear
	if year == "" && student.CurrentAcademicYear != nil {
		year = *student.CurrentAcademicYear
	}
	if year == "" {
		year = s.cfg.CurrentAcademicYear
	}
	if year == "" {
		return models.TemplateKey{}, appErrors.Clone(appErrors.ErrValidation, "academic_year is not set for the student or the system")
	}
	if student.JoiningAcademicYear == nil || *student.JoiningAcademicYear == "" {
		return models.TemplateKey{}, appErrors.Clone(appErrors.ErrValidation, "student has no joining academic year set")
	}
	if student.SeatType == nil || !student.SeatType.Valid() {
		return models.TemplateKey{}, appErrors.Clone(appErrors.ErrValidation, "student has no valid seat type set")
	}
	return models.TemplateKey{
		AcademicYear: year,
		BatchYear:    *student.JoiningAcademicYear,
		SeatType:     *student.SeatType,
		QuotaType:    student.QuotaType,
	}, nil
}

func (s *AssignmentService) recordAssignment(result string) {
	if s.metrics != nil {
		s.metrics.RecordFeeAssignment(result)
	}
}

func strPtrOrNil(value string) *string {
	if value == "" {
		return nil
	}
	result := value
	return &result
}

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
