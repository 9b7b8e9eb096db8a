package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/campushq/college-fees-api/internal/dto"
	"github.com/campushq/college-fees-api/internal/models"
	appErrors "github.com/campushq/college-fees-api/pkg/errors"
	"github.com/campushq/college-fees-api/pkg/export"
)

type paymentReceiptRepository interface {
	Create(ctx context.Context, receipt *models.FeeReceipt) error
	FindByID(ctx context.Context, id string) (*models.FeeReceipt, error)
	Update(ctx context.Context, receipt *models.FeeReceipt) error
	SetState(ctx context.Context, id string, state models.ApprovalState, reviewerID string) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.ReceiptFilter) ([]models.FeeReceipt, int, error)
	SumApproved(ctx context.Context, ledgerID string) (decimal.Decimal, error)
	ExistsReceiptNumber(ctx context.Context, receiptNumber, excludeID string) (bool, error)
	Defaulters(ctx context.Context, academicYear string) ([]models.Defaulter, error)
}

type paymentLedgerReader interface {
	FindByID(ctx context.Context, id string) (*models.FeeLedger, error)
	FindActiveByStudentYear(ctx context.Context, studentID, academicYear string) (*models.FeeLedger, error)
}

type paymentStudentReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type paymentTemplateReader interface {
	FindByID(ctx context.Context, id string) (*models.FeeTemplate, error)
}

type paymentMetrics interface {
	RecordReceiptTransition(from, to string)
}

// PaymentServiceConfig carries payment policy knobs.
type PaymentServiceConfig struct {
	CurrentAcademicYear string
}

// PaymentService records fee receipts, drives the approval workflow and
// derives payment aggregates. Balance is never stored: every breakdown sums
// approved receipts at read time, so approving, rejecting or reverting a
// receipt adjusts the balance with no further bookkeeping.
type PaymentService struct {
	receipts  paymentReceiptRepository
	ledgers   paymentLedgerReader
	students  paymentStudentReader
	templates paymentTemplateReader
	workflow  *ReceiptWorkflow
	metrics   paymentMetrics
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
	cfg       PaymentServiceConfig
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(receipts paymentReceiptRepository, ledgers paymentLedgerReader, students paymentStudentReader, templates paymentTemplateReader, workflow *ReceiptWorkflow, metrics paymentMetrics, validate *validator.Validate, logger *zap.Logger, cfg PaymentServiceConfig) *PaymentService {
	if workflow == nil {
		workflow = NewReceiptWorkflow()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		receipts:  receipts,
		ledgers:   ledgers,
		students:  students,
		templates: templates,
		workflow:  workflow,
		metrics:   metrics,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Record creates a receipt against a ledger. Receipts start pending unless an
// actor with approval rights asks for immediate approval.
func (s *PaymentService) Record(ctx context.Context, ledgerID string, req dto.RecordReceiptRequest, actor *models.JWTClaims) (*models.FeeReceipt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid receipt payload")
	}
	if !req.AmountPaid.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount_paid must be positive")
	}

	ledger, rc, err := s.ledgerContext(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	who := ActorFromClaims(actor)
	if !s.workflow.CanRecordReceipt(who, rc) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to record receipts for this student")
	}
	if req.ApproveImmediately && !s.workflow.CanSetReceiptState(who, rc, models.ReceiptPending, models.ReceiptApproved) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to approve receipts for this student")
	}

	exists, err := s.receipts.ExistsReceiptNumber(ctx, req.ReceiptNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check receipt number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "receipt number already in use")
	}

	receipt := &models.FeeReceipt{
		LedgerID:      ledger.ID,
		StudentID:     ledger.StudentID,
		ReceiptNumber: req.ReceiptNumber,
		ReceiptPhone:  req.ReceiptPhone,
		AmountPaid:    req.AmountPaid,
		PaymentDate:   req.PaymentDate,
		PaymentMode:   req.PaymentMode,
		EnteredBy:     who.UserID,
		EnteredByRole: who.Role,
		ApprovalState: models.ReceiptPending,
		Remarks:       req.Remarks,
	}
	if err := s.receipts.Create(ctx, receipt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record receipt")
	}

	if req.ApproveImmediately {
		if err := s.receipts.SetState(ctx, receipt.ID, models.ReceiptApproved, who.UserID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve receipt")
		}
		s.recordTransition(models.ReceiptPending, models.ReceiptApproved)
		refreshed, err := s.receipts.FindByID(ctx, receipt.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload receipt")
		}
		return refreshed, nil
	}

	return receipt, nil
}

// Edit updates a receipt's payment details. Approval state is untouched; if
// the receipt was approved it stays approved with the new amount, and the
// derived balance follows.
func (s *PaymentService) Edit(ctx context.Context, receiptID string, req dto.UpdateReceiptRequest, actor *models.JWTClaims) (*models.FeeReceipt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid receipt payload")
	}
	if !req.AmountPaid.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount_paid must be positive")
	}

	receipt, rc, err := s.receiptContext(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if !s.workflow.CanEditReceipt(ActorFromClaims(actor), rc) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to edit this receipt")
	}

	if req.ReceiptNumber != receipt.ReceiptNumber {
		exists, err := s.receipts.ExistsReceiptNumber(ctx, req.ReceiptNumber, receipt.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check receipt number")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "receipt number already in use")
		}
	}

	receipt.ReceiptNumber = req.ReceiptNumber
	receipt.ReceiptPhone = req.ReceiptPhone
	receipt.AmountPaid = req.AmountPaid
	receipt.PaymentDate = req.PaymentDate
	receipt.PaymentMode = req.PaymentMode
	receipt.Remarks = req.Remarks
	if err := s.receipts.Update(ctx, receipt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update receipt")
	}
	return receipt, nil
}

// Delete soft-deletes a receipt. An approved receipt's amount leaves the paid
// total the moment the delete commits.
func (s *PaymentService) Delete(ctx context.Context, receiptID string, actor *models.JWTClaims) error {
	receipt, rc, err := s.receiptContext(ctx, receiptID)
	if err != nil {
		return err
	}
	if !s.workflow.CanDeleteReceipt(ActorFromClaims(actor), rc) {
		return appErrors.Clone(appErrors.ErrForbidden, "not allowed to delete this receipt")
	}
	if err := s.receipts.SoftDelete(ctx, receipt.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete receipt")
	}
	return nil
}

// SetState drives the approval workflow.
func (s *PaymentService) SetState(ctx context.Context, receiptID string, req dto.SetReceiptStateRequest, actor *models.JWTClaims) (*models.FeeReceipt, error) {
	if !req.State.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "state must be PENDING, APPROVED or REJECTED")
	}

	receipt, rc, err := s.receiptContext(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	from := receipt.ApprovalState
	if !ValidTransition(from, req.State) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cannot move a %s receipt to %s", from, req.State))
	}

	who := ActorFromClaims(actor)
	if !s.workflow.CanSetReceiptState(who, rc, from, req.State) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to change this receipt's state")
	}

	if err := s.receipts.SetState(ctx, receipt.ID, req.State, who.UserID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to change receipt state")
	}
	s.recordTransition(from, req.State)

	refreshed, err := s.receipts.FindByID(ctx, receipt.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload receipt")
	}
	return refreshed, nil
}

// ListReceipts returns receipts for a student's ledger, visibility-checked.
func (s *PaymentService) ListReceipts(ctx context.Context, filter models.ReceiptFilter, actor *models.JWTClaims) ([]models.FeeReceipt, *models.Pagination, error) {
	if filter.StudentID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}
	_, rc, err := s.studentContext(ctx, filter.StudentID)
	if err != nil {
		return nil, nil, err
	}
	if !s.workflow.CanViewStudentFees(ActorFromClaims(actor), rc) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this student's receipts")
	}

	items, total, err := s.receipts.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list receipts")
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

// Breakdown derives the full fee view for a student and year. A student with
// no ledger gets HasFee=false and zeroes rather than an error, so client
// dashboards render uniformly.
func (s *PaymentService) Breakdown(ctx context.Context, studentID, academicYear string, actor *models.JWTClaims) (*models.FeeBreakdown, error) {
	detail, rc, err := s.studentContext(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !s.workflow.CanViewStudentFees(ActorFromClaims(actor), rc) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this student's fees")
	}

	// Year fallback: requested, then the student's own current year, then the
	// configured system year.
	year := academicYear
	if year == "" && detail.CurrentAcademicYear != nil {
		year = *detail.CurrentAcademicYear
	}
	if year == "" {
		year = s.cfg.CurrentAcademicYear
	}
	if year == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic_year is required")
	}

	ledger, err := s.ledgers.FindActiveByStudentYear(ctx, studentID, year)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.FeeBreakdown{
				HasFee:            false,
				StudentID:         studentID,
				AcademicYear:      year,
				AdditionalCharges: models.ChargeList{},
			}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee ledger")
	}

	paid, err := s.receipts.SumApproved(ctx, ledger.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum payments")
	}

	breakdown := &models.FeeBreakdown{
		HasFee:            true,
		LedgerID:          ledger.ID,
		StudentID:         ledger.StudentID,
		AcademicYear:      ledger.AcademicYear,
		BaseFees:          ledger.BaseFees,
		AdditionalCharges: ledger.AdditionalCharges,
		AdditionalTotal:   ledger.AdditionalCharges.Sum(),
		TotalFees:         ledger.TotalFees,
		AmountPaid:        paid,
		Balance:           ledger.TotalFees.Sub(paid),
	}
	if ledger.TemplateID != nil {
		template, err := s.templates.FindByID(ctx, *ledger.TemplateID)
		if err == nil {
			breakdown.Template = template
		} else if err != sql.ErrNoRows {
			s.logger.Warn("failed to load template for breakdown",
				zap.String("template_id", *ledger.TemplateID), zap.Error(err))
		}
	}
	return breakdown, nil
}

// Defaulters lists students with outstanding balances for the year.
func (s *PaymentService) Defaulters(ctx context.Context, academicYear string, actor *models.JWTClaims) ([]models.Defaulter, error) {
	if ActorFromClaims(actor).Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may list defaulters")
	}
	year := academicYear
	if year == "" {
		year = s.cfg.CurrentAcademicYear
	}
	if year == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic_year is required")
	}
	defaulters, err := s.receipts.Defaulters(ctx, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list defaulters")
	}
	return defaulters, nil
}

// ExportDefaulters renders the defaulter report as csv or pdf.
func (s *PaymentService) ExportDefaulters(ctx context.Context, academicYear, format string, actor *models.JWTClaims) ([]byte, string, error) {
	defaulters, err := s.Defaulters(ctx, academicYear, actor)
	if err != nil {
		return nil, "", err
	}

	columns := []export.Column{
		{Header: "Roll Number"},
		{Header: "Student"},
		{Header: "Section"},
		{Header: "Academic Year"},
		{Header: "Total Fees", Numeric: true},
		{Header: "Paid", Numeric: true},
		{Header: "Balance", Numeric: true},
	}
	rows := make([][]string, 0, len(defaulters))
	for _, d := range defaulters {
		section := ""
		if d.SectionName != nil {
			section = *d.SectionName
		}
		rows = append(rows, []string{
			d.RollNumber,
			d.StudentName,
			section,
			d.AcademicYear,
			d.TotalFees.StringFixed(2),
			d.AmountPaid.StringFixed(2),
			d.Balance.StringFixed(2),
		})
	}
	dataset := export.Dataset{Columns: columns, Rows: rows}

	switch format {
	case "csv", "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Fee Defaulters")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *PaymentService) ledgerContext(ctx context.Context, ledgerID string) (*models.FeeLedger, ReceiptContext, error) {
	ledger, err := s.ledgers.FindByID(ctx, ledgerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ReceiptContext{}, appErrors.Clone(appErrors.ErrLedgerNotFound, "fee ledger not found")
		}
		return nil, ReceiptContext{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee ledger")
	}
	if ledger.Deleted {
		return nil, ReceiptContext{}, appErrors.Clone(appErrors.ErrLedgerNotFound, "fee ledger not found")
	}
	_, rc, err := s.studentContext(ctx, ledger.StudentID)
	if err != nil {
		return nil, ReceiptContext{}, err
	}
	return ledger, rc, nil
}

func (s *PaymentService) receiptContext(ctx context.Context, receiptID string) (*models.FeeReceipt, ReceiptContext, error) {
	receipt, err := s.receipts.FindByID(ctx, receiptID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ReceiptContext{}, appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
		}
		return nil, ReceiptContext{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receipt")
	}
	_, rc, err := s.studentContext(ctx, receipt.StudentID)
	if err != nil {
		return nil, ReceiptContext{}, err
	}
	return receipt, rc, nil
}

func (s *PaymentService) studentContext(ctx context.Context, studentID string) (*models.StudentDetail, ReceiptContext, error) {
	detail, err := s.students.FindDetailByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ReceiptContext{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, ReceiptContext{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return detail, ReceiptContext{StudentID: detail.ID, ClassTeacherID: detail.ClassTeacherID}, nil
}

func (s *PaymentService) recordTransition(from, to models.ApprovalState) {
	if s.metrics != nil {
		s.metrics.RecordReceiptTransition(string(from), string(to))
	}
}
