package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/college-fees-api/internal/dto"
	"github.com/campushq/college-fees-api/internal/middleware"
	"github.com/campushq/college-fees-api/internal/models"
	appErrors "github.com/campushq/college-fees-api/pkg/errors"
)

type assignmentServiceMock struct {
	assignResp *models.AssignmentResult
	assignErr  error
	bulkResp   *models.BulkAssignResult
	jobID      string
	enqueued   int
}

func (m *assignmentServiceMock) Assign(ctx context.Context, studentID string, req dto.AssignFeeRequest, actor *models.JWTClaims) (*models.AssignmentResult, error) {
	if m.assignErr != nil {
		return nil, m.assignErr
	}
	return m.assignResp, nil
}

func (m *assignmentServiceMock) BulkAssign(ctx context.Context, req dto.BulkAssignRequest, actor *models.JWTClaims) (*models.BulkAssignResult, error) {
	return m.bulkResp, nil
}

func (m *assignmentServiceMock) EnqueueBulkAssign(ctx context.Context, req dto.BulkAssignRequest, actor *models.JWTClaims) (string, error) {
	m.enqueued++
	return m.jobID, nil
}

type chargeServiceMock struct {
	summary *models.LedgerSummary
	err     error
}

func (m *chargeServiceMock) AddCharge(ctx context.Context, studentID string, req dto.AddChargeRequest, actor *models.JWTClaims) (*models.LedgerSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func (m *chargeServiceMock) RemoveCharge(ctx context.Context, studentID, chargeID, academicYear string, actor *models.JWTClaims) (*models.LedgerSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func (m *chargeServiceMock) RemoveChargeAt(ctx context.Context, studentID string, index int, academicYear string, actor *models.JWTClaims) (*models.LedgerSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

type breakdownServiceMock struct {
	breakdown *models.FeeBreakdown
	err       error
}

func (m *breakdownServiceMock) Breakdown(ctx context.Context, studentID, academicYear string, actor *models.JWTClaims) (*models.FeeBreakdown, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.breakdown, nil
}

func adminContext(w *httptest.ResponseRecorder) (*gin.Context, *models.JWTClaims) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	claims := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	c.Set(middleware.ContextUserKey, claims)
	return c, claims
}

func TestFeeHandlerAssignReturnsCreatedOnNewLedger(t *testing.T) {
	assignments := &assignmentServiceMock{assignResp: &models.AssignmentResult{
		Action: models.AssignmentCreated,
		Ledger: &models.FeeLedger{ID: "ledger-1", StudentID: "s1", BaseFees: decimal.NewFromInt(25000)},
	}}
	handler := NewFeeHandler(assignments, &chargeServiceMock{}, &breakdownServiceMock{})

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/students/s1/fees/assign", bytes.NewReader(nil))
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.Assign(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestFeeHandlerAssignPropagatesServiceError(t *testing.T) {
	assignments := &assignmentServiceMock{assignErr: appErrors.Clone(appErrors.ErrTemplateNotFound, "no active template")}
	handler := NewFeeHandler(assignments, &chargeServiceMock{}, &breakdownServiceMock{})

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/students/s1/fees/assign", bytes.NewReader(nil))
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.Assign(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeeHandlerBulkAssignAsyncReturnsAccepted(t *testing.T) {
	assignments := &assignmentServiceMock{jobID: "job-42"}
	handler := NewFeeHandler(assignments, &chargeServiceMock{}, &breakdownServiceMock{})

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	body, _ := json.Marshal(dto.BulkAssignRequest{SectionID: "sec-1", Async: true})
	req, _ := http.NewRequest(http.MethodPost, "/fees/assignments/bulk", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.BulkAssign(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, assignments.enqueued)
	assert.Contains(t, w.Body.String(), "job-42")
}

func TestFeeHandlerBulkAssignInvalidBody(t *testing.T) {
	handler := NewFeeHandler(&assignmentServiceMock{}, &chargeServiceMock{}, &breakdownServiceMock{})

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/fees/assignments/bulk", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.BulkAssign(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeeHandlerAddChargeReturnsLedgerSummary(t *testing.T) {
	charges := &chargeServiceMock{summary: &models.LedgerSummary{
		Ledger: &models.FeeLedger{
			ID:        "ledger-1",
			BaseFees:  decimal.NewFromInt(25000),
			TotalFees: decimal.NewFromInt(33000),
		},
		AdditionalTotal: decimal.NewFromInt(8000),
		AmountPaid:      decimal.NewFromInt(20000),
		Balance:         decimal.NewFromInt(13000),
	}}
	handler := NewFeeHandler(&assignmentServiceMock{}, charges, &breakdownServiceMock{})

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	body, _ := json.Marshal(dto.AddChargeRequest{Name: "Hostel Fee", Amount: decimal.NewFromInt(8000)})
	req, _ := http.NewRequest(http.MethodPost, "/students/s1/fees/charges", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.AddCharge(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "33000")
	assert.Contains(t, w.Body.String(), "balance")
}

func TestFeeHandlerRemoveChargeAtRejectsNonNumericIndex(t *testing.T) {
	handler := NewFeeHandler(&assignmentServiceMock{}, &chargeServiceMock{}, &breakdownServiceMock{})

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/students/s1/fees/charges/index/abc", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "s1"}, {Key: "index", Value: "abc"}}

	handler.RemoveChargeAt(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeeHandlerBreakdown(t *testing.T) {
	payments := &breakdownServiceMock{breakdown: &models.FeeBreakdown{
		HasFee:     true,
		LedgerID:   "ledger-1",
		StudentID:  "s1",
		TotalFees:  decimal.NewFromInt(33000),
		AmountPaid: decimal.NewFromInt(20000),
		Balance:    decimal.NewFromInt(13000),
	}}
	handler := NewFeeHandler(&assignmentServiceMock{}, &chargeServiceMock{}, payments)

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students/s1/fees", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.Breakdown(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "13000")
}
