package service

import (
	"context"
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

type approvedReaderStub struct {
	approved map[string]bool
	paid     map[string]decimal.Decimal
}

func (s *approvedReaderStub) HasApproved(ctx context.Context, ledgerID string) (bool, error) {
	return s.approved[ledgerID], nil
}

func (s *approvedReaderStub) SumApproved(ctx context.Context, ledgerID string) (decimal.Decimal, error) {
	if total, ok := s.paid[ledgerID]; ok {
		return total, nil
	}
	return decimal.Zero, nil
}

func newChargeFixture(cfg ChargeServiceConfig) (*ChargeService, *ledgerRepoStub, *approvedReaderStub) {
	students := &studentReaderStub{students: map[string]*models.Student{
		"s1": {
			ID: "s1", FullName: "Asha Rao",
			CurrentAcademicYear: yearPtr("2024-25"),
			Active:              true,
		},
	}}
	ledgers := newLedgerRepoStub()
	ledgers.ledgers[ledgerKey("s1", "2024-25")] = &models.FeeLedger{
		ID: "ledger-s1", StudentID: "s1", AcademicYear: "2024-25",
		BaseFees:  decimal.NewFromInt(25000),
		TotalFees: decimal.NewFromInt(25000),
		Version:   1,
	}
	receipts := &approvedReaderStub{approved: map[string]bool{}, paid: map[string]decimal.Decimal{}}
	if cfg.CurrentAcademicYear == "" {
		cfg.CurrentAcademicYear = "2024-25"
	}
	svc := NewChargeService(students, ledgers, receipts, NewReceiptWorkflow(), validator.New(), nil, cfg)
	return svc, ledgers, receipts
}

func TestAddChargeRecomputesTotal(t *testing.T) {
	svc, _, _ := newChargeFixture(ChargeServiceConfig{})

	summary, err := svc.AddCharge(context.Background(), "s1", dto.AddChargeRequest{
		Name: "Hostel Fee", Amount: decimal.NewFromInt(8000),
	}, adminClaims())
	require.NoError(t, err)
	require.Len(t, summary.Ledger.AdditionalCharges, 1)
	assert.NotEmpty(t, summary.Ledger.AdditionalCharges[0].ID)
	assert.Equal(t, "admin-1", summary.Ledger.AdditionalCharges[0].AddedBy)
	assert.True(t, summary.Ledger.TotalFees.Equal(decimal.NewFromInt(33000)))
	assert.True(t, summary.AdditionalTotal.Equal(decimal.NewFromInt(8000)))
	assert.True(t, summary.Balance.Equal(decimal.NewFromInt(33000)))
}

func TestChargeMutationReportsDerivedBalance(t *testing.T) {
	svc, _, receipts := newChargeFixture(ChargeServiceConfig{})
	receipts.paid["ledger-s1"] = decimal.NewFromInt(20000)

	summary, err := svc.AddCharge(context.Background(), "s1", dto.AddChargeRequest{
		Name: "Hostel Fee", Amount: decimal.NewFromInt(8000),
	}, adminClaims())
	require.NoError(t, err)
	assert.True(t, summary.AmountPaid.Equal(decimal.NewFromInt(20000)))
	assert.True(t, summary.Balance.Equal(decimal.NewFromInt(13000)))
}

func TestAddChargeAllowsNegativeCorrection(t *testing.T) {
	svc, _, _ := newChargeFixture(ChargeServiceConfig{})

	summary, err := svc.AddCharge(context.Background(), "s1", dto.AddChargeRequest{
		Name: "Scholarship Adjustment", Amount: decimal.NewFromInt(-5000),
	}, adminClaims())
	require.NoError(t, err)
	assert.True(t, summary.Ledger.TotalFees.Equal(decimal.NewFromInt(20000)))
}

func TestAddChargeRejectsZeroAmount(t *testing.T) {
	svc, _, _ := newChargeFixture(ChargeServiceConfig{})

	_, err := svc.AddCharge(context.Background(), "s1", dto.AddChargeRequest{
		Name: "Nothing", Amount: decimal.Zero,
	}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRemoveChargeByIDKeepsOthers(t *testing.T) {
	svc, ledgers, _ := newChargeFixture(ChargeServiceConfig{})
	ledger := ledgers.ledgers[ledgerKey("s1", "2024-25")]
	ledger.AdditionalCharges = models.ChargeList{
		{ID: "chg-a", Name: "Hostel", Amount: decimal.NewFromInt(8000), AddedAt: time.Now().UTC()},
		{ID: "chg-b", Name: "Transport", Amount: decimal.NewFromInt(3000), AddedAt: time.Now().UTC()},
	}
	ledger.RecomputeTotal()

	updated, err := svc.RemoveCharge(context.Background(), "s1", "chg-a", "", adminClaims())
	require.NoError(t, err)
	require.Len(t, updated.Ledger.AdditionalCharges, 1)
	assert.Equal(t, "chg-b", updated.Ledger.AdditionalCharges[0].ID)
	assert.True(t, updated.Ledger.TotalFees.Equal(decimal.NewFromInt(28000)))
}

func TestRemoveChargeStaleIDFails(t *testing.T) {
	svc, ledgers, _ := newChargeFixture(ChargeServiceConfig{})
	ledger := ledgers.ledgers[ledgerKey("s1", "2024-25")]
	ledger.AdditionalCharges = models.ChargeList{
		{ID: "chg-b", Name: "Transport", Amount: decimal.NewFromInt(3000), AddedAt: time.Now().UTC()},
	}
	ledger.RecomputeTotal()

	_, err := svc.RemoveCharge(context.Background(), "s1", "chg-a", "", adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrChargeNotFound.Code, appErrors.FromError(err).Code)
	// nothing removed
	assert.Len(t, ledger.AdditionalCharges, 1)
}

func TestRemoveChargeAtValidatesIndex(t *testing.T) {
	svc, ledgers, _ := newChargeFixture(ChargeServiceConfig{})
	ledger := ledgers.ledgers[ledgerKey("s1", "2024-25")]
	ledger.AdditionalCharges = models.ChargeList{
		{ID: "chg-a", Name: "Hostel", Amount: decimal.NewFromInt(8000), AddedAt: time.Now().UTC()},
	}
	ledger.RecomputeTotal()

	_, err := svc.RemoveChargeAt(context.Background(), "s1", 5, "", adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIndexOutOfRange.Code, appErrors.FromError(err).Code)

	updated, err := svc.RemoveChargeAt(context.Background(), "s1", 0, "", adminClaims())
	require.NoError(t, err)
	assert.Empty(t, updated.Ledger.AdditionalCharges)
	assert.True(t, updated.Ledger.TotalFees.Equal(decimal.NewFromInt(25000)))
}

func TestChargeLockPolicyBlocksMutations(t *testing.T) {
	svc, ledgers, receipts := newChargeFixture(ChargeServiceConfig{LockChargesAfterPayment: true})
	receipts.approved["ledger-s1"] = true
	ledger := ledgers.ledgers[ledgerKey("s1", "2024-25")]
	ledger.AdditionalCharges = models.ChargeList{
		{ID: "chg-a", Name: "Hostel", Amount: decimal.NewFromInt(8000), AddedAt: time.Now().UTC()},
	}
	ledger.RecomputeTotal()

	_, err := svc.AddCharge(context.Background(), "s1", dto.AddChargeRequest{
		Name: "Late Fee", Amount: decimal.NewFromInt(500),
	}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLedgerLocked.Code, appErrors.FromError(err).Code)

	_, err = svc.RemoveCharge(context.Background(), "s1", "chg-a", "", adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLedgerLocked.Code, appErrors.FromError(err).Code)
}

func TestChargeMutationsRequireAdmin(t *testing.T) {
	svc, _, _ := newChargeFixture(ChargeServiceConfig{})

	_, err := svc.AddCharge(context.Background(), "s1", dto.AddChargeRequest{
		Name: "Hostel", Amount: decimal.NewFromInt(8000),
	}, &models.JWTClaims{UserID: "t1", Role: models.RoleFaculty})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestChargeMissingLedgerFails(t *testing.T) {
	svc, _, _ := newChargeFixture(ChargeServiceConfig{})

	_, err := svc.AddCharge(context.Background(), "s1", dto.AddChargeRequest{
		Name: "Hostel", Amount: decimal.NewFromInt(8000), AcademicYear: "2025-26",
	}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLedgerNotFound.Code, appErrors.FromError(err).Code)
}
