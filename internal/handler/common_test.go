package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestContext(t *testing.T) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestGetUserID(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  uint64
		ok    bool
	}{
		{"float64 claim", float64(42), 42, true},
		{"uint64", uint64(7), 7, true},
		{"int", 3, 3, true},
		{"int64", int64(9), 9, true},
		{"numeric string", "11", 11, true},
		{"garbage string", "abc", 0, false},
		{"missing", nil, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestContext(t)
			if tc.value != nil {
				c.Set("user_id", tc.value)
			}
			got, err := getUserID(c)
			if tc.ok && (err != nil || got != tc.want) {
				t.Fatalf("getUserID = (%d, %v), want (%d, nil)", got, err, tc.want)
			}
			if !tc.ok && err == nil {
				t.Fatalf("getUserID = (%d, nil), want error", got)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	e := echo.New()
	newCtx := func(raw string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(raw)
		return c
	}
	if id, err := pathID(newCtx("15"), "id"); err != nil || id != 15 {
		t.Fatalf("pathID(15) = (%d, %v)", id, err)
	}
	if _, err := pathID(newCtx("0"), "id"); err == nil {
		t.Fatal("pathID(0) should fail")
	}
	if _, err := pathID(newCtx("abc"), "id"); err == nil {
		t.Fatal("pathID(abc) should fail")
	}
	if _, err := pathID(newCtx("-3"), "id"); err == nil {
		t.Fatal("pathID(-3) should fail")
	}
}
