package http

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	stdhttp "net/http"
	"net/http/httptest"

	domain "lendsmart-backend/internal/domain/loan"
	"lendsmart-backend/internal/domain/user"
	"lendsmart-backend/internal/testutil/loanmock"
	"lendsmart-backend/internal/testutil/usermock"
	"lendsmart-backend/internal/usecase/application"
	"lendsmart-backend/internal/usecase/marketplace"
)

// -------- helpers --------

func newEchoWithValidator() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func mustJSON(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func verifiedBorrowerRepo() *usermock.Repo {
	return &usermock.Repo{
		GetByUserIDFn: func(ctx context.Context, id string) (*user.User, error) {
			return &user.User{
				UserID:    id,
				Role:      user.RoleBorrower,
				KYCStatus: user.KYCVerified,
				CreatedAt: time.Now().UTC().AddDate(-1, 0, 0),
			}, nil
		},
	}
}

func newLoanHandler(loans *loanmock.Repo, users *usermock.Repo) *LoanHandler {
	apps := application.NewUsecase(loans, users, nil, zerolog.Nop())
	return NewLoanHandler(apps, marketplace.NewUsecase(loans))
}

// -------- tests --------

func TestApplyLoan_Success(t *testing.T) {
	e := newEchoWithValidator()

	loans := &loanmock.Repo{
		GetPendingLoanByBorrowerIDFn: func(ctx context.Context, borrowerID string) (*domain.Loan, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	h := newLoanHandler(loans, verifiedBorrowerRepo())

	reqBody := map[string]any{
		"borrower_id": strings.Repeat("b", 32),
		"amount":      1000,
		"term_value":  12,
		"term_unit":   "months",
		"purpose":     "inventory restock",
	}
	req := httptest.NewRequest(stdhttp.MethodPost, "/loans", mustJSON(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ApplyLoan(c); err != nil {
		t.Fatalf("ApplyLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var got application.LoanDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got.BorrowerID != strings.Repeat("b", 32) || got.AmountRequested != 1000 {
		t.Fatalf("unexpected dto: %+v", got)
	}
	if got.Status != string(domain.StatusPending) {
		t.Fatalf("status = %s, want pending", got.Status)
	}
}

func TestApplyLoan_BindError(t *testing.T) {
	e := newEchoWithValidator()
	h := newLoanHandler(&loanmock.Repo{}, &usermock.Repo{})

	req := httptest.NewRequest(stdhttp.MethodPost, "/loans", strings.NewReader(`{"borrower_id":`)) // broken JSON
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ApplyLoan(c); err != nil {
		t.Fatalf("ApplyLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &er)
	if er.Error != "invalid body" {
		t.Fatalf("error = %q, want %q", er.Error, "invalid body")
	}
}

func TestApplyLoan_ValidationError(t *testing.T) {
	e := newEchoWithValidator()
	h := newLoanHandler(&loanmock.Repo{}, &usermock.Repo{}) // won't be called

	// invalid: borrower_id not hex32, amount too many decimals, bad term unit
	reqBody := map[string]any{
		"borrower_id": "NOT_HEX_32",
		"amount":      1000.001,
		"term_value":  12,
		"term_unit":   "decades",
	}
	req := httptest.NewRequest(stdhttp.MethodPost, "/loans", mustJSON(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ApplyLoan(c); err != nil {
		t.Fatalf("ApplyLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if er.Error != "validation failed" {
		t.Fatalf("error = %q, want %q", er.Error, "validation failed")
	}
	if !containsFieldMsg(er.Details, "BorrowerID", "32-char lowercase hex") {
		t.Fatalf("missing hex32 detail: %+v", er.Details)
	}
	if !containsFieldMsg(er.Details, "Amount", "at most 2 decimal places") {
		t.Fatalf("missing dec2 detail for amount: %+v", er.Details)
	}
	if !containsFieldMsg(er.Details, "TermUnit", "one of") {
		t.Fatalf("missing oneof detail for term unit: %+v", er.Details)
	}
}

func TestApplyLoan_PendingLoanConflict(t *testing.T) {
	e := newEchoWithValidator()

	loans := &loanmock.Repo{
		GetPendingLoanByBorrowerIDFn: func(ctx context.Context, borrowerID string) (*domain.Loan, error) {
			return &domain.Loan{
				LoanID:          strings.Repeat("c", 32),
				BorrowerID:      borrowerID,
				Status:          domain.StatusPending,
				StatusUpdatedAt: time.Now().UTC(),
			}, nil
		},
	}
	h := newLoanHandler(loans, verifiedBorrowerRepo())

	reqBody := map[string]any{
		"borrower_id": strings.Repeat("b", 32),
		"amount":      1000,
		"term_value":  12,
		"term_unit":   "months",
	}
	req := httptest.NewRequest(stdhttp.MethodPost, "/loans", mustJSON(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ApplyLoan(c); err != nil {
		t.Fatalf("ApplyLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestGetLoan_Success(t *testing.T) {
	e := echo.New()

	wantID := strings.Repeat("d", 32)
	loans := &loanmock.Repo{
		GetByLoanIDFn: func(ctx context.Context, loanID string) (*domain.Loan, error) {
			if loanID != wantID {
				return nil, gorm.ErrRecordNotFound
			}
			return &domain.Loan{
				LoanID:          loanID,
				BorrowerID:      strings.Repeat("b", 32),
				AmountRequested: 1000,
				Status:          domain.StatusPending,
				ApplicationDate: time.Now().UTC(),
			}, nil
		},
	}
	h := newLoanHandler(loans, &usermock.Repo{})

	req := httptest.NewRequest(stdhttp.MethodGet, "/loans/"+wantID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("loan_id")
	c.SetParamValues(wantID)

	if err := h.GetLoan(c); err != nil {
		t.Fatalf("GetLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var dto application.LoanDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if dto.LoanID != wantID {
		t.Fatalf("loan_id = %s, want %s", dto.LoanID, wantID)
	}
}

func TestGetLoan_NotFound(t *testing.T) {
	e := echo.New()
	loans := &loanmock.Repo{
		GetByLoanIDFn: func(ctx context.Context, loanID string) (*domain.Loan, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	h := newLoanHandler(loans, &usermock.Repo{})

	req := httptest.NewRequest(stdhttp.MethodGet, "/loans/xxx", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("loan_id")
	c.SetParamValues("xxx")

	if err := h.GetLoan(c); err != nil {
		t.Fatalf("GetLoan error: %v", err)
	}
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListOpenLoans(t *testing.T) {
	e := echo.New()
	loans := &loanmock.Repo{
		ListByStatusFn: func(ctx context.Context, status domain.Status, limit, offset int) ([]domain.Loan, error) {
			if status != domain.StatusPending {
				t.Fatalf("listed %s, want pending", status)
			}
			return []domain.Loan{{
				LoanID:          strings.Repeat("a", 32),
				AmountRequested: 1000,
				AmountFunded:    250,
				Status:          domain.StatusPending,
			}}, nil
		},
	}
	h := newLoanHandler(loans, &usermock.Repo{})

	req := httptest.NewRequest(stdhttp.MethodGet, "/loans?limit=10", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListOpenLoans(c); err != nil {
		t.Fatalf("ListOpenLoans error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out []marketplace.ListingDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(out) != 1 || out[0].Metrics.FundingProgressPct != 25 {
		t.Fatalf("unexpected listings: %+v", out)
	}
}
