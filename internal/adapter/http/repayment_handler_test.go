package http

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	stdhttp "net/http"
	"net/http/httptest"

	domain "lendsmart-backend/internal/domain/loan"
	"lendsmart-backend/internal/domain/schedule"
	"lendsmart-backend/internal/testutil/gatewaymock"
	"lendsmart-backend/internal/testutil/memuow"
	"lendsmart-backend/internal/usecase/repayment"
)

func repaymentFixture(t *testing.T) (*RepaymentHandler, *memuow.Store, *repayment.Usecase) {
	t.Helper()
	funded := time.Now().UTC().AddDate(0, -1, 0)
	sched, err := schedule.Build(1200, 12, 12, domain.TermMonths, funded)
	if err != nil {
		t.Fatalf("build schedule: %v", err)
	}
	s := memuow.New()
	s.SeedLoan(&domain.Loan{
		LoanID:          strings.Repeat("a", 32),
		BorrowerID:      strings.Repeat("b", 32),
		LenderID:        strings.Repeat("1", 32),
		AmountRequested: 1200,
		AmountFunded:    1200,
		RateAnnualPct:   12,
		TermValue:       12,
		TermUnit:        domain.TermMonths,
		Status:          domain.StatusActive,
		FundingDate:     &funded,
		Schedule:        sched,
	})
	uc := repayment.NewUsecase(s, &gatewaymock.Notifier{}, zerolog.Nop())
	return NewRepaymentHandler(uc), s, uc
}

func TestRecordRepayment_Success(t *testing.T) {
	e := newEchoWithValidator()
	h, s, uc := repaymentFixture(t)
	defer uc.Flush()

	seeded, _ := s.Loan(strings.Repeat("a", 32))
	reqBody := map[string]any{
		"installment_number": 1,
		"amount":             seeded.Schedule[0].AmountDue,
		"transaction_ref":    "tx-42",
	}
	req := httptest.NewRequest(stdhttp.MethodPost, "/loans/x/repayments", mustJSON(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("loan_id")
	c.SetParamValues(strings.Repeat("a", 32))

	if err := h.RecordRepayment(c); err != nil {
		t.Fatalf("RecordRepayment error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var dto repayment.LoanDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if dto.Schedule[0].Status != domain.InstallmentPaid {
		t.Fatalf("installment status = %s, want paid", dto.Schedule[0].Status)
	}
}

func TestRecordRepayment_DuplicateConflict(t *testing.T) {
	e := newEchoWithValidator()
	h, s, uc := repaymentFixture(t)
	defer uc.Flush()

	seeded, _ := s.Loan(strings.Repeat("a", 32))
	reqBody := map[string]any{"installment_number": 1, "amount": seeded.Schedule[0].AmountDue}

	for i, want := range []int{stdhttp.StatusOK, stdhttp.StatusConflict} {
		req := httptest.NewRequest(stdhttp.MethodPost, "/loans/x/repayments", mustJSON(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("loan_id")
		c.SetParamValues(strings.Repeat("a", 32))

		if err := h.RecordRepayment(c); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		if rec.Code != want {
			t.Fatalf("attempt %d: status = %d, want %d", i, rec.Code, want)
		}
	}
}

func TestRecordRepayment_BadPaymentDate(t *testing.T) {
	e := newEchoWithValidator()
	h, _, _ := repaymentFixture(t)

	reqBody := map[string]any{"installment_number": 1, "amount": 100, "payment_date": "yesterday"}
	req := httptest.NewRequest(stdhttp.MethodPost, "/loans/x/repayments", mustJSON(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("loan_id")
	c.SetParamValues(strings.Repeat("a", 32))

	if err := h.RecordRepayment(c); err != nil {
		t.Fatalf("RecordRepayment error: %v", err)
	}
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestRecordRepayment_ValidationError(t *testing.T) {
	e := newEchoWithValidator()
	h, _, _ := repaymentFixture(t)

	reqBody := map[string]any{"installment_number": 0, "amount": -5}
	req := httptest.NewRequest(stdhttp.MethodPost, "/loans/x/repayments", mustJSON(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("loan_id")
	c.SetParamValues(strings.Repeat("a", 32))

	if err := h.RecordRepayment(c); err != nil {
		t.Fatalf("RecordRepayment error: %v", err)
	}
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}
