package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/campushq/college-fees-api/internal/dto"
	"github.com/campushq/college-fees-api/internal/models"
	appErrors "github.com/campushq/college-fees-api/pkg/errors"
)

type chargeStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type chargeReceiptReader interface {
	HasApproved(ctx context.Context, ledgerID string) (bool, error)
	SumApproved(ctx context.Context, ledgerID string) (decimal.Decimal, error)
}

// ChargeServiceConfig carries the charge mutation policy knobs.
type ChargeServiceConfig struct {
	CurrentAcademicYear     string
	LockChargesAfterPayment bool
}

// ChargeService manages additional charges on student fee ledgers. Every
// mutation runs under a row lock and recomputes the ledger total in the same
// transaction, so the total invariant holds at every commit point.
type ChargeService struct {
	students  chargeStudentReader
	ledgers   assignmentLedgerRepository
	receipts  chargeReceiptReader
	workflow  *ReceiptWorkflow
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ChargeServiceConfig
}

// NewChargeService constructs a ChargeService.
func NewChargeService(students chargeStudentReader, ledgers assignmentLedgerRepository, receipts chargeReceiptReader, workflow *ReceiptWorkflow, validate *validator.Validate, logger *zap.Logger, cfg ChargeServiceConfig) *ChargeService {
	if workflow == nil {
		workflow = NewReceiptWorkflow()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChargeService{
		students:  students,
		ledgers:   ledgers,
		receipts:  receipts,
		workflow:  workflow,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// AddCharge appends a charge event to the student's ledger for the year and
// returns the post-commit ledger with its derived payment figures. Negative
// amounts are allowed as corrections; the ledger total may go where it goes,
// only the invariant matters.
func (s *ChargeService) AddCharge(ctx context.Context, studentID string, req dto.AddChargeRequest, actor *models.JWTClaims) (*models.LedgerSummary, error) {
	if !s.workflow.CanSetFeeStructure(ActorFromClaims(actor)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may modify fee charges")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid charge payload")
	}
	if req.Amount.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must not be zero")
	}

	year, err := s.academicYear(ctx, studentID, req.AcademicYear)
	if err != nil {
		return nil, err
	}

	var updated *models.FeeLedger
	err = s.ledgers.WithTx(ctx, func(tx *sqlx.Tx) error {
		ledger, err := s.lockLedger(ctx, tx, studentID, year)
		if err != nil {
			return err
		}
		if err := s.ensureUnlocked(ctx, ledger); err != nil {
			return err
		}

		ledger.AdditionalCharges = append(ledger.AdditionalCharges, models.ChargeEvent{
			ID:      uuid.NewString(),
			Name:    req.Name,
			Amount:  req.Amount,
			AddedBy: actorUserID(actor),
			AddedAt: time.Now().UTC(),
			Remarks: req.Remarks,
		})
		ledger.RecomputeTotal()
		if err := s.ledgers.Update(ctx, tx, ledger); err != nil {
			return err
		}
		updated = ledger
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, updated)
}

// RemoveCharge removes a charge event by its stable ID. A stale ID simply no
// longer matches and yields ChargeNotFound; it can never remove a different
// charge.
func (s *ChargeService) RemoveCharge(ctx context.Context, studentID, chargeID, academicYear string, actor *models.JWTClaims) (*models.LedgerSummary, error) {
	return s.removeCharge(ctx, studentID, academicYear, actor, func(ledger *models.FeeLedger) (int, error) {
		idx := ledger.AdditionalCharges.IndexOf(chargeID)
		if idx < 0 {
			return 0, appErrors.ErrChargeNotFound
		}
		return idx, nil
	})
}

// RemoveChargeAt removes a charge by position. Kept for callers that predate
// charge IDs; position is validated against the current list, not the one the
// caller last saw.
func (s *ChargeService) RemoveChargeAt(ctx context.Context, studentID string, index int, academicYear string, actor *models.JWTClaims) (*models.LedgerSummary, error) {
	return s.removeCharge(ctx, studentID, academicYear, actor, func(ledger *models.FeeLedger) (int, error) {
		if index < 0 || index >= len(ledger.AdditionalCharges) {
			return 0, appErrors.ErrIndexOutOfRange
		}
		return index, nil
	})
}

func (s *ChargeService) removeCharge(ctx context.Context, studentID, academicYear string, actor *models.JWTClaims, locate func(*models.FeeLedger) (int, error)) (*models.LedgerSummary, error) {
	if !s.workflow.CanSetFeeStructure(ActorFromClaims(actor)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may modify fee charges")
	}

	year, err := s.academicYear(ctx, studentID, academicYear)
	if err != nil {
		return nil, err
	}

	var updated *models.FeeLedger
	err = s.ledgers.WithTx(ctx, func(tx *sqlx.Tx) error {
		ledger, err := s.lockLedger(ctx, tx, studentID, year)
		if err != nil {
			return err
		}
		if err := s.ensureUnlocked(ctx, ledger); err != nil {
			return err
		}

		idx, err := locate(ledger)
		if err != nil {
			return err
		}
		ledger.AdditionalCharges = append(ledger.AdditionalCharges[:idx], ledger.AdditionalCharges[idx+1:]...)
		ledger.RecomputeTotal()
		if err := s.ledgers.Update(ctx, tx, ledger); err != nil {
			return err
		}
		updated = ledger
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, updated)
}

func (s *ChargeService) summarize(ctx context.Context, ledger *models.FeeLedger) (*models.LedgerSummary, error) {
	paid, err := s.receipts.SumApproved(ctx, ledger.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum payments")
	}
	return &models.LedgerSummary{
		Ledger:          ledger,
		AdditionalTotal: ledger.AdditionalCharges.Sum(),
		AmountPaid:      paid,
		Balance:         ledger.TotalFees.Sub(paid),
	}, nil
}

func (s *ChargeService) lockLedger(ctx context.Context, tx *sqlx.Tx, studentID, year string) (*models.FeeLedger, error) {
	ledger, err := s.ledgers.GetForUpdate(ctx, tx, studentID, year)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrLedgerNotFound, "student has no fee ledger for this academic year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee ledger")
	}
	return ledger, nil
}

func (s *ChargeService) ensureUnlocked(ctx context.Context, ledger *models.FeeLedger) error {
	if !s.cfg.LockChargesAfterPayment {
		return nil
	}
	locked, err := s.receipts.HasApproved(ctx, ledger.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check ledger payments")
	}
	if locked {
		return appErrors.ErrLedgerLocked
	}
	return nil
}

func (s *ChargeService) academicYear(ctx context.Context, studentID, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.CurrentAcademicYear != nil && *student.CurrentAcademicYear != "" {
		return *student.CurrentAcademicYear, nil
	}
	if s.cfg.CurrentAcademicYear != "" {
		return s.cfg.CurrentAcademicYear, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "academic_year is not set for the student or the system")
}
