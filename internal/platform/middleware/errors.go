package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ShubhamKarampure/HealthyTray/internal/platform/apperr"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler renders apperr kinds and echo HTTP errors as ErrorResponse.
// The underlying cause is only included when exposeDetails is set.
func ErrorHandler(logger zerolog.Logger, exposeDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, exposeDetails)
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).Str("request_id", rid).Str("path", c.Request().URL.Path).Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}

// StatusOf returns the status the response carries, or will carry once err
// reaches ErrorHandler.
func StatusOf(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	status, _ := resolveError(err, false)
	return status
}

func resolveError(err error, exposeDetails bool) (int, ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		resp := ErrorResponse{Error: msg}
		if exposeDetails && he.Internal != nil {
			resp.Details = he.Internal.Error()
		}
		return he.Code, resp
	}

	if ae, ok := apperr.As(err); ok {
		resp := ErrorResponse{Error: ae.Msg}
		if ae.Kind == apperr.KindStore && !exposeDetails {
			resp.Error = "internal server error"
		}
		if exposeDetails && ae.Err != nil {
			resp.Details = ae.Err.Error()
		}
		return ae.Kind.Status(), resp
	}

	resp := ErrorResponse{Error: "internal server error"}
	if exposeDetails {
		resp.Details = err.Error()
	}
	return http.StatusInternalServerError, resp
}
