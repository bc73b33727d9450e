package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-task-portal/internal/validation"
)

// errBadBody is returned when the request body cannot be decoded.
var errBadBody = echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")

// bindAndValidate decodes the body into req and runs its rules.
// Validation failures come back as validation.Errors and are rendered by
// the HTTP error handler.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errBadBody
	}
	return c.Validate(req)
}

func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// NewHTTPErrorHandler renders every error as {"error": ...}.  Validation
// failures carry a details array; unknown errors are logged and answered
// with 500, hiding the cause when production is set.
func NewHTTPErrorHandler(log *logrus.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status = http.StatusInternalServerError
			body   echo.Map
			verrs  validation.Errors
			he     *echo.HTTPError
		)
		switch {
		case errors.As(err, &verrs):
			status = http.StatusBadRequest
			body = echo.Map{"error": "Validation failed", "details": verrs}
		case errors.As(err, &he):
			status = he.Code
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok {
				msg = s
			}
			if he.Code == http.StatusNotFound && errors.Is(err, echo.ErrNotFound) {
				msg = "API endpoint not found"
			}
			body = echo.Map{"error": msg}
			if he.Code >= 500 {
				log.WithError(err).Error("unhandled error")
			}
		default:
			log.WithError(err).WithField("path", c.Request().URL.Path).Error("unhandled error")
			msg := "Internal server error"
			if !production {
				msg = err.Error()
			}
			body = echo.Map{"error": msg}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.WithError(err).Error("write error response")
		}
	}
}
