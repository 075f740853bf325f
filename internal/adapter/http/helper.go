package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"lendsmart-backend/internal/domain/fault"
)

// ---- helpers ----

// domainError maps the error taxonomy to transport codes. Unknown errors land
// on 502 with the collaborator kind, keeping internals out of responses.
func domainError(c echo.Context, err error) error {
	status := http.StatusBadGateway
	switch fault.KindOf(err) {
	case fault.KindValidation:
		status = http.StatusBadRequest
	case fault.KindNotFound:
		status = http.StatusNotFound
	case fault.KindStateConflict, fault.KindConcurrencyConflict:
		status = http.StatusConflict
	}
	return c.JSON(status, ErrorResponse{Error: err.Error()})
}

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
