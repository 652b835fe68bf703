package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, sub uint64, role string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runJWT(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured echo.Context
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec, captured
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, next := runJWT(t, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if next != nil {
		t.Fatal("next handler should not run without a token")
	}
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok := signToken(t, "other-secret", 7, "MEMBER", time.Now().Add(time.Hour))
	rec, next := runJWT(t, "Bearer "+tok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if next != nil {
		t.Fatal("next handler should not run with a forged token")
	}
}

func TestJWTAuthExpired(t *testing.T) {
	tok := signToken(t, testSecret, 7, "MEMBER", time.Now().Add(-time.Minute))
	rec, _ := runJWT(t, "Bearer "+tok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthValid(t *testing.T) {
	tok := signToken(t, testSecret, 42, "INSTRUCTOR", time.Now().Add(time.Hour))
	rec, next := runJWT(t, "Bearer "+tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if next == nil {
		t.Fatal("next handler did not run")
	}
	if sub, ok := next.Get("user_id").(float64); !ok || uint64(sub) != 42 {
		t.Fatalf("user_id = %v, want 42", next.Get("user_id"))
	}
	if role, _ := next.Get("role").(string); role != "INSTRUCTOR" {
		t.Fatalf("role = %v, want INSTRUCTOR", next.Get("role"))
	}
}
