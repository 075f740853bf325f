package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"lendsmart-backend/internal/usecase/application"
	"lendsmart-backend/internal/usecase/marketplace"
)

type LoanHandler struct {
	applications *application.Usecase
	listings     *marketplace.Usecase
}

func NewLoanHandler(applications *application.Usecase, listings *marketplace.Usecase) *LoanHandler {
	return &LoanHandler{applications: applications, listings: listings}
}

type applyLoanReq struct {
	BorrowerID    string  `json:"borrower_id"     validate:"required,hex32"`
	Amount        float64 `json:"amount"          validate:"required,gt=0,dec2"`
	RateAnnualPct float64 `json:"rate_annual_pct" validate:"omitempty,gte=0,lte=100"`
	TermValue     int     `json:"term_value"      validate:"required,gte=1"`
	TermUnit      string  `json:"term_unit"       validate:"required,oneof=days weeks months years"`
	Purpose       string  `json:"purpose"`
}

func (h *LoanHandler) ApplyLoan(c echo.Context) error {
	var req applyLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.applications.Apply(c.Request().Context(), application.ApplyInput{
		BorrowerID:    req.BorrowerID,
		Amount:        req.Amount,
		RateAnnualPct: req.RateAnnualPct,
		TermValue:     req.TermValue,
		TermUnit:      req.TermUnit,
		Purpose:       req.Purpose,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	dto, err := h.applications.Get(c.Request().Context(), loanID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) GetLoanMetrics(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	m, err := h.listings.MetricsFor(c.Request().Context(), loanID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *LoanHandler) ListOpenLoans(c echo.Context) error {
	limit, offset := pagination(c)
	out, err := h.listings.ListOpen(c.Request().Context(), limit, offset)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) ListBorrowerLoans(c echo.Context) error {
	borrowerID := c.Param("borrower_id")
	if borrowerID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing borrower_id path param"})
	}
	limit, offset := pagination(c)
	out, err := h.listings.ListByBorrower(c.Request().Context(), borrowerID, limit, offset)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func pagination(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
