package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"lendsmart-backend/internal/usecase/funding"
)

type FundingHandler struct{ uc *funding.Usecase }

func NewFundingHandler(uc *funding.Usecase) *FundingHandler { return &FundingHandler{uc: uc} }

type fundLoanReq struct {
	LenderID string  `json:"lender_id" validate:"required,hex32"`
	Amount   float64 `json:"amount"    validate:"required,gt=0,dec2"`
}

func (h *FundingHandler) FundLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	var req fundLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Fund(c.Request().Context(), funding.FundInput{
		LoanID:   loanID,
		LenderID: req.LenderID,
		Amount:   req.Amount,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
