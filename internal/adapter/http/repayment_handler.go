package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"lendsmart-backend/internal/usecase/repayment"
)

type RepaymentHandler struct{ uc *repayment.Usecase }

func NewRepaymentHandler(uc *repayment.Usecase) *RepaymentHandler {
	return &RepaymentHandler{uc: uc}
}

type recordRepaymentReq struct {
	InstallmentNumber int     `json:"installment_number" validate:"required,gte=1"`
	Amount            float64 `json:"amount"             validate:"required,gt=0,dec2"`
	// Optional RFC 3339 timestamp; defaults to now.
	PaymentDate    string `json:"payment_date"       validate:"omitempty"`
	TransactionRef string `json:"transaction_ref"`
}

func (h *RepaymentHandler) RecordRepayment(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	var req recordRepaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	var when *time.Time
	if req.PaymentDate != "" {
		t, err := time.Parse(time.RFC3339, req.PaymentDate)
		if err != nil {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "validation failed",
				Details: []FieldError{{Field: "PaymentDate", Message: "must be an RFC 3339 timestamp"}},
			})
		}
		when = &t
	}
	dto, err := h.uc.Record(c.Request().Context(), repayment.RecordInput{
		LoanID:            loanID,
		InstallmentNumber: req.InstallmentNumber,
		Amount:            req.Amount,
		PaymentDate:       when,
		TransactionRef:    req.TransactionRef,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
