package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// auditedPrefixes are the route groups whose mutations are recorded.
var auditedPrefixes = []string{"/patients", "/meals", "/auth/register"}

// Audit logs every state-changing request against patient, meal and
// account routes with the acting user, the route template and the outcome.
// It must run after JWTMiddleware so the caller is known.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isMutation(req.Method) || !isAuditablePath(req.URL.Path) {
				return next(c)
			}

			err := next(c)
			status := StatusOf(c, err)

			rid, _ := c.Get("request_id").(string)
			uid, _ := c.Get("user_id").(string)
			role, _ := c.Get("role").(string)

			logger.Info().
				Str("type", "audit").
				Str("request_id", rid).
				Str("user_id", uid).
				Str("role", role).
				Str("action", methodToAction(req.Method)).
				Str("route", c.Path()).
				Str("path", req.URL.Path).
				Strs("params", c.ParamValues()).
				Int("status", status).
				Bool("failed", err != nil).
				Msg("mutation")

			return err
		}
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func isAuditablePath(path string) bool {
	for _, p := range auditedPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
