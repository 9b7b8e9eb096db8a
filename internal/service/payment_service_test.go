package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/college-fees-api/internal/dto"
	"github.com/campushq/college-fees-api/internal/models"
	appErrors "github.com/campushq/college-fees-api/pkg/errors"
)

type receiptRepoStub struct {
	receipts map[string]*models.FeeReceipt
	nextID   int
}

func newReceiptRepoStub() *receiptRepoStub {
	return &receiptRepoStub{receipts: map[string]*models.FeeReceipt{}}
}

func (s *receiptRepoStub) Create(ctx context.Context, receipt *models.FeeReceipt) error {
	s.nextID++
	receipt.ID = "receipt-" + string(rune('0'+s.nextID))
	if receipt.ApprovalState == "" {
		receipt.ApprovalState = models.ReceiptPending
	}
	stored := *receipt
	s.receipts[receipt.ID] = &stored
	return nil
}

func (s *receiptRepoStub) FindByID(ctx context.Context, id string) (*models.FeeReceipt, error) {
	if receipt, ok := s.receipts[id]; ok && !receipt.Deleted {
		copied := *receipt
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *receiptRepoStub) Update(ctx context.Context, receipt *models.FeeReceipt) error {
	stored := *receipt
	s.receipts[receipt.ID] = &stored
	return nil
}

func (s *receiptRepoStub) SetState(ctx context.Context, id string, state models.ApprovalState, reviewerID string) error {
	receipt := s.receipts[id]
	receipt.ApprovalState = state
	if state == models.ReceiptApproved || state == models.ReceiptRejected {
		now := time.Now().UTC()
		receipt.ApprovedBy = &reviewerID
		receipt.ApprovedAt = &now
	} else {
		receipt.ApprovedBy = nil
		receipt.ApprovedAt = nil
	}
	return nil
}

func (s *receiptRepoStub) SoftDelete(ctx context.Context, id string) error {
	s.receipts[id].Deleted = true
	return nil
}

func (s *receiptRepoStub) List(ctx context.Context, filter models.ReceiptFilter) ([]models.FeeReceipt, int, error) {
	var result []models.FeeReceipt
	for _, receipt := range s.receipts {
		if receipt.Deleted {
			continue
		}
		if filter.StudentID != "" && receipt.StudentID != filter.StudentID {
			continue
		}
		result = append(result, *receipt)
	}
	return result, len(result), nil
}

func (s *receiptRepoStub) SumApproved(ctx context.Context, ledgerID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, receipt := range s.receipts {
		if receipt.LedgerID == ledgerID && receipt.ApprovalState == models.ReceiptApproved && !receipt.Deleted {
			total = total.Add(receipt.AmountPaid)
		}
	}
	return total, nil
}

func (s *receiptRepoStub) ExistsReceiptNumber(ctx context.Context, receiptNumber, excludeID string) (bool, error) {
	for _, receipt := range s.receipts {
		if receipt.ReceiptNumber == receiptNumber && receipt.ID != excludeID && !receipt.Deleted {
			return true, nil
		}
	}
	return false, nil
}

func (s *receiptRepoStub) Defaulters(ctx context.Context, academicYear string) ([]models.Defaulter, error) {
	return []models.Defaulter{{
		LedgerID: "ledger-s1", StudentID: "s1", StudentName: "Asha Rao",
		RollNumber: "21CS001", AcademicYear: academicYear,
		TotalFees:  decimal.NewFromInt(33000),
		AmountPaid: decimal.NewFromInt(20000),
		Balance:    decimal.NewFromInt(13000),
	}}, nil
}

type paymentLedgerStub struct {
	ledgers map[string]*models.FeeLedger
}

func (s *paymentLedgerStub) FindByID(ctx context.Context, id string) (*models.FeeLedger, error) {
	for _, ledger := range s.ledgers {
		if ledger.ID == id {
			return ledger, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *paymentLedgerStub) FindActiveByStudentYear(ctx context.Context, studentID, year string) (*models.FeeLedger, error) {
	if ledger, ok := s.ledgers[ledgerKey(studentID, year)]; ok {
		return ledger, nil
	}
	return nil, sql.ErrNoRows
}

type detailReaderStub struct {
	details map[string]*models.StudentDetail
}

func (s *detailReaderStub) FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if detail, ok := s.details[id]; ok {
		return detail, nil
	}
	return nil, sql.ErrNoRows
}

type templateReaderStub struct{}

func (templateReaderStub) FindByID(ctx context.Context, id string) (*models.FeeTemplate, error) {
	return &models.FeeTemplate{ID: id, BaseFees: decimal.NewFromInt(25000)}, nil
}

func strP(s string) *string { return &s }

func newPaymentFixture() (*PaymentService, *receiptRepoStub, *paymentLedgerStub) {
	receipts := newReceiptRepoStub()
	templateID := "tpl-gov"
	ledgers := &paymentLedgerStub{ledgers: map[string]*models.FeeLedger{
		ledgerKey("s1", "2024-25"): {
			ID: "ledger-s1", StudentID: "s1", AcademicYear: "2024-25",
			TemplateID: &templateID,
			BaseFees:   decimal.NewFromInt(25000),
			AdditionalCharges: models.ChargeList{{
				ID: "chg-1", Name: "Hostel", Amount: decimal.NewFromInt(8000),
				AddedBy: "admin-1", AddedAt: time.Now().UTC(),
			}},
			TotalFees: decimal.NewFromInt(33000),
		},
	}}
	students := &detailReaderStub{details: map[string]*models.StudentDetail{
		"s1": {
			Student:        models.Student{ID: "s1", FullName: "Asha Rao", RollNumber: "21CS001", SectionID: strP("sec-1")},
			SectionName:    strP("CS-A"),
			ClassTeacherID: strP("t1"),
		},
	}}
	svc := NewPaymentService(receipts, ledgers, students, templateReaderStub{}, NewReceiptWorkflow(), nil, validator.New(), nil, PaymentServiceConfig{CurrentAcademicYear: "2024-25"})
	return svc, receipts, ledgers
}

func classTeacherClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "t1", Role: models.RoleFaculty}
}

func recordPayload(number string, amount int64) dto.RecordReceiptRequest {
	return dto.RecordReceiptRequest{
		ReceiptNumber: number,
		AmountPaid:    decimal.NewFromInt(amount),
		PaymentDate:   time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		PaymentMode:   "CASH",
	}
}

func TestRecordReceiptStartsPending(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	receipt, err := svc.Record(context.Background(), "ledger-s1", recordPayload("RCPT-001", 20000), adminClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptPending, receipt.ApprovalState)
	assert.Equal(t, "s1", receipt.StudentID)
	assert.Equal(t, models.RoleAdmin, receipt.EnteredByRole)
}

func TestRecordReceiptApproveImmediately(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	payload := recordPayload("RCPT-001", 20000)
	payload.ApproveImmediately = true
	receipt, err := svc.Record(context.Background(), "ledger-s1", payload, classTeacherClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptApproved, receipt.ApprovalState)
	require.NotNil(t, receipt.ApprovedBy)
	assert.Equal(t, "t1", *receipt.ApprovedBy)
}

func TestRecordReceiptStudentCannotSelfApprove(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	payload := recordPayload("RCPT-001", 20000)
	payload.ApproveImmediately = true
	_, err := svc.Record(context.Background(), "ledger-s1", payload, &models.JWTClaims{
		UserID: "u1", Role: models.RoleStudent, LinkedStudentID: "s1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRecordReceiptParentForbidden(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	_, err := svc.Record(context.Background(), "ledger-s1", recordPayload("RCPT-001", 20000), &models.JWTClaims{
		UserID: "p1", Role: models.RoleParent, LinkedStudentID: "s1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRecordReceiptDuplicateNumber(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	_, err := svc.Record(context.Background(), "ledger-s1", recordPayload("RCPT-001", 20000), adminClaims())
	require.NoError(t, err)
	_, err = svc.Record(context.Background(), "ledger-s1", recordPayload("RCPT-001", 5000), adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBreakdownDerivesBalanceFromApprovedReceipts(t *testing.T) {
	svc, _, _ := newPaymentFixture()
	student := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent, LinkedStudentID: "s1"}

	payload := recordPayload("RCPT-001", 20000)
	payload.ApproveImmediately = true
	receipt, err := svc.Record(context.Background(), "ledger-s1", payload, adminClaims())
	require.NoError(t, err)

	breakdown, err := svc.Breakdown(context.Background(), "s1", "", student)
	require.NoError(t, err)
	assert.True(t, breakdown.HasFee)
	assert.True(t, breakdown.BaseFees.Equal(decimal.NewFromInt(25000)))
	assert.True(t, breakdown.AdditionalTotal.Equal(decimal.NewFromInt(8000)))
	assert.True(t, breakdown.TotalFees.Equal(decimal.NewFromInt(33000)))
	assert.True(t, breakdown.AmountPaid.Equal(decimal.NewFromInt(20000)))
	assert.True(t, breakdown.Balance.Equal(decimal.NewFromInt(13000)))

	// reverting the receipt to pending restores the full balance
	_, err = svc.SetState(context.Background(), receipt.ID, dto.SetReceiptStateRequest{State: models.ReceiptPending}, adminClaims())
	require.NoError(t, err)

	breakdown, err = svc.Breakdown(context.Background(), "s1", "", student)
	require.NoError(t, err)
	assert.True(t, breakdown.AmountPaid.IsZero())
	assert.True(t, breakdown.Balance.Equal(decimal.NewFromInt(33000)))
}

func TestBreakdownWithoutLedger(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	breakdown, err := svc.Breakdown(context.Background(), "s1", "2025-26", adminClaims())
	require.NoError(t, err)
	assert.False(t, breakdown.HasFee)
	assert.True(t, breakdown.TotalFees.IsZero())
	assert.True(t, breakdown.Balance.IsZero())
}

func TestBreakdownDefaultsToStudentAcademicYear(t *testing.T) {
	// The system has rolled over to 2025-26 but the student has not been
	// promoted yet; with no explicit year the student's own year wins.
	receipts := newReceiptRepoStub()
	ledgers := &paymentLedgerStub{ledgers: map[string]*models.FeeLedger{
		ledgerKey("s1", "2024-25"): {
			ID: "ledger-s1", StudentID: "s1", AcademicYear: "2024-25",
			BaseFees: decimal.NewFromInt(25000),
			AdditionalCharges: models.ChargeList{{
				ID: "chg-1", Name: "Hostel", Amount: decimal.NewFromInt(8000),
				AddedBy: "admin-1", AddedAt: time.Now().UTC(),
			}},
			TotalFees: decimal.NewFromInt(33000),
		},
	}}
	students := &detailReaderStub{details: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{
			ID: "s1", FullName: "Asha Rao", RollNumber: "21CS001",
			CurrentAcademicYear: strP("2024-25"),
		}},
	}}
	svc := NewPaymentService(receipts, ledgers, students, templateReaderStub{}, NewReceiptWorkflow(), nil, validator.New(), nil, PaymentServiceConfig{CurrentAcademicYear: "2025-26"})

	breakdown, err := svc.Breakdown(context.Background(), "s1", "", adminClaims())
	require.NoError(t, err)
	assert.True(t, breakdown.HasFee)
	assert.Equal(t, "2024-25", breakdown.AcademicYear)
	assert.True(t, breakdown.TotalFees.Equal(decimal.NewFromInt(33000)))

	// an explicit year still overrides the student's year
	breakdown, err = svc.Breakdown(context.Background(), "s1", "2025-26", adminClaims())
	require.NoError(t, err)
	assert.False(t, breakdown.HasFee)
}

func TestBreakdownVisibilityDenied(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	_, err := svc.Breakdown(context.Background(), "s1", "", &models.JWTClaims{
		UserID: "u2", Role: models.RoleStudent, LinkedStudentID: "s2",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSetStateRejectsIllegalTransition(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	payload := recordPayload("RCPT-001", 20000)
	payload.ApproveImmediately = true
	receipt, err := svc.Record(context.Background(), "ledger-s1", payload, adminClaims())
	require.NoError(t, err)

	_, err = svc.SetState(context.Background(), receipt.ID, dto.SetReceiptStateRequest{State: models.ReceiptRejected}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSetStateClassTeacherApprovesOnly(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	receipt, err := svc.Record(context.Background(), "ledger-s1", recordPayload("RCPT-001", 20000), adminClaims())
	require.NoError(t, err)

	// class teacher cannot reject
	_, err = svc.SetState(context.Background(), receipt.ID, dto.SetReceiptStateRequest{State: models.ReceiptRejected}, classTeacherClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	approved, err := svc.SetState(context.Background(), receipt.ID, dto.SetReceiptStateRequest{State: models.ReceiptApproved}, classTeacherClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptApproved, approved.ApprovalState)

	// and cannot revert once approved
	_, err = svc.SetState(context.Background(), approved.ID, dto.SetReceiptStateRequest{State: models.ReceiptPending}, classTeacherClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestEditApprovedReceiptAdjustsDerivedBalance(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	payload := recordPayload("RCPT-001", 20000)
	payload.ApproveImmediately = true
	receipt, err := svc.Record(context.Background(), "ledger-s1", payload, adminClaims())
	require.NoError(t, err)

	_, err = svc.Edit(context.Background(), receipt.ID, dto.UpdateReceiptRequest{
		ReceiptNumber: "RCPT-001",
		AmountPaid:    decimal.NewFromInt(15000),
		PaymentDate:   receipt.PaymentDate,
		PaymentMode:   "CASH",
	}, classTeacherClaims())
	require.NoError(t, err)

	breakdown, err := svc.Breakdown(context.Background(), "s1", "", adminClaims())
	require.NoError(t, err)
	assert.True(t, breakdown.AmountPaid.Equal(decimal.NewFromInt(15000)))
	assert.True(t, breakdown.Balance.Equal(decimal.NewFromInt(18000)))
}

func TestDeleteApprovedReceiptRemovesFromTotals(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	payload := recordPayload("RCPT-001", 20000)
	payload.ApproveImmediately = true
	receipt, err := svc.Record(context.Background(), "ledger-s1", payload, adminClaims())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), receipt.ID, classTeacherClaims()))

	breakdown, err := svc.Breakdown(context.Background(), "s1", "", adminClaims())
	require.NoError(t, err)
	assert.True(t, breakdown.AmountPaid.IsZero())
	assert.True(t, breakdown.Balance.Equal(decimal.NewFromInt(33000)))
}

func TestDeleteReceiptStudentForbidden(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	receipt, err := svc.Record(context.Background(), "ledger-s1", recordPayload("RCPT-001", 20000), adminClaims())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), receipt.ID, &models.JWTClaims{
		UserID: "u1", Role: models.RoleStudent, LinkedStudentID: "s1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportDefaultersCSV(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	payload, contentType, err := svc.ExportDefaulters(context.Background(), "2024-25", "csv", adminClaims())
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "Asha Rao")
	assert.Contains(t, string(payload), "13000.00")
}

func TestDefaultersAdminOnly(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	_, err := svc.Defaulters(context.Background(), "2024-25", classTeacherClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
