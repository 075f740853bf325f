package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"lendsmart-backend/internal/domain/loan"
	"lendsmart-backend/internal/usecase/lifecycle"
)

type LifecycleHandler struct{ uc *lifecycle.Usecase }

func NewLifecycleHandler(uc *lifecycle.Usecase) *LifecycleHandler {
	return &LifecycleHandler{uc: uc}
}

type transitionReq struct {
	Status string `json:"status" validate:"required"`
}

func (h *LifecycleHandler) TransitionLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	var req transitionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Transition(c.Request().Context(), loanID, loan.Status(req.Status))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
