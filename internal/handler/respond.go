package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"orchard-service/internal/store"
)

// writeError maps the store error taxonomy onto the HTTP envelopes the
// mobile client expects: field-level validation and missing-parent
// errors come back as 422, identifier collisions as 409, missing records
// as 404 and anything else as a generic 500 with the detail logged.
func writeError(c echo.Context, log *zap.Logger, err error, notFoundMsg, failMsg string) error {
	var fieldErrs store.FieldErrors
	var dupErr *store.DuplicateIDError
	var refErr *store.ReferenceError

	switch {
	case errors.As(err, &fieldErrs):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"success": false,
			"errors":  fieldErrs,
		})
	case errors.As(err, &refErr):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"success": false,
			"errors":  store.FieldErrors{refErr.Field: {refErr.Error()}},
		})
	case errors.As(err, &dupErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"success": false,
			"message": dupErr.Error(),
		})
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{
			"success": false,
			"message": notFoundMsg,
		})
	default:
		log.Error(failMsg, zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": failMsg,
		})
	}
}

func fmtCount(n int, suffix string) string {
	return strconv.Itoa(n) + " " + suffix
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"success": false,
		"message": message,
	})
}
