package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func runJWT(t *testing.T, header string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/patients")

	issuer := NewTokenIssuer(testSecret, "", time.Hour)
	err := JWTMiddleware(issuer, AuthSkipper)(okHandler)(c)
	return c, err
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, err := runJWT(t, "")
	if err == nil {
		t.Fatal("expected error for missing header")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", httpErr.Code)
	}
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runJWT(t, tt.header)
			if err == nil {
				t.Fatal("expected error")
			}
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected echo.HTTPError, got %T", err)
			}
			if httpErr.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", httpErr.Code)
			}
		})
	}
}

func TestJWTMiddleware_ValidTokenBindsPrincipal(t *testing.T) {
	id := uuid.New()
	token, _, err := NewTokenIssuer(testSecret, "", time.Hour).Issue(id, RoleDelivery)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	c, err := runJWT(t, "bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, ok := PrincipalFromContext(c.Request().Context())
	if !ok {
		t.Fatal("expected principal in context")
	}
	if p.UserID != id || p.Role != RoleDelivery {
		t.Errorf("unexpected principal %+v", p)
	}
	if c.Get("role") != "Delivery" {
		t.Errorf("expected role on echo context, got %v", c.Get("role"))
	}
}

func TestJWTMiddleware_SkipsPublicPaths(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/auth/login")

	issuer := NewTokenIssuer(testSecret, "", time.Hour)
	if err := JWTMiddleware(issuer, AuthSkipper)(okHandler)(c); err != nil {
		t.Fatalf("expected public path to pass, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestIsPublicPath(t *testing.T) {
	if !IsPublicPath("/health") || !IsPublicPath("/auth/login") {
		t.Error("expected health and login to be public")
	}
	if IsPublicPath("/auth/register") || IsPublicPath("/patients") {
		t.Error("expected register and patients to be protected")
	}
}
