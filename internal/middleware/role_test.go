package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runRole(t *testing.T, role any, allowed ...string) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}
	h := RequireRole(allowed...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec.Code
}

func TestRequireRole(t *testing.T) {
	if code := runRole(t, "ADMIN", "ADMIN"); code != http.StatusOK {
		t.Fatalf("admin on admin route: status = %d, want 200", code)
	}
	if code := runRole(t, "MEMBER", "ADMIN"); code != http.StatusForbidden {
		t.Fatalf("member on admin route: status = %d, want 403", code)
	}
	if code := runRole(t, "MEMBER", "MEMBER", "INSTRUCTOR"); code != http.StatusOK {
		t.Fatalf("member on shared route: status = %d, want 200", code)
	}
	if code := runRole(t, nil, "MEMBER"); code != http.StatusForbidden {
		t.Fatalf("missing role: status = %d, want 403", code)
	}
	if code := runRole(t, 42, "MEMBER"); code != http.StatusForbidden {
		t.Fatalf("non-string role: status = %d, want 403", code)
	}
}

func TestCurrentUserID(t *testing.T) {
	e := echo.New()
	newCtx := func(v any) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		if v != nil {
			c.Set("user_id", v)
		}
		return c
	}
	if got := currentUserID(newCtx(nil)); got != "anon" {
		t.Fatalf("unauthenticated = %q, want anon", got)
	}
	if got := currentUserID(newCtx(float64(17))); got != "17" {
		t.Fatalf("float64 claim = %q, want 17", got)
	}
	if got := currentUserID(newCtx(uint64(9))); got != "9" {
		t.Fatalf("uint64 = %q, want 9", got)
	}
	if got := currentUserID(newCtx("")); got != "anon" {
		t.Fatalf("empty string = %q, want anon", got)
	}
}
