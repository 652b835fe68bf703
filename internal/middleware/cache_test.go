package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/config"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	hdr.Set("X-Total", "3")
	body := []byte(`{"classes":[]}`)

	bs, err := encodePayload(http.StatusOK, hdr, body)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, gotHdr, gotBody, ok := decodePayload(bs)
	if !ok {
		t.Fatal("decode failed")
	}
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if gotHdr.Get("Content-Type") != "application/json" || gotHdr.Get("X-Total") != "3" {
		t.Fatalf("headers not preserved: %v", gotHdr)
	}
	if string(gotBody) != string(body) {
		t.Fatalf("body = %q, want %q", gotBody, body)
	}
}

func TestDecodePayloadGarbage(t *testing.T) {
	if _, _, _, ok := decodePayload([]byte("short")); ok {
		t.Fatal("short payload should not decode")
	}
	if _, _, _, ok := decodePayload([]byte{0, 0, 0, 200, 0, 0, 0, 99, 'x'}); ok {
		t.Fatal("truncated header should not decode")
	}
}

func TestCacheKeyStrategies(t *testing.T) {
	e := echo.New()
	newCtx := func(target string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/classes")
		return c
	}
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

	a := cacheKeyFrom(cfg, newCtx("/v1/classes?page=1"))
	b := cacheKeyFrom(cfg, newCtx("/v1/classes?page=2"))
	if a == b {
		t.Fatal("different queries must produce different keys")
	}
	if !strings.HasPrefix(a, "cache:") {
		t.Fatalf("key %q missing prefix", a)
	}

	cfg.KeyStrategy = "route"
	a = cacheKeyFrom(cfg, newCtx("/v1/classes?page=1"))
	b = cacheKeyFrom(cfg, newCtx("/v1/classes?page=2"))
	if a != b {
		t.Fatal("route strategy must ignore the query string")
	}
}

func TestCaptureWriterOverflow(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 8}

	if _, err := cw.Write([]byte("12345678")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if cw.overflowed() {
		t.Fatal("body exactly at the limit must still be storable")
	}

	if _, err := cw.Write([]byte("overflow")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !cw.overflowed() {
		t.Fatal("body past the limit must be flagged as overflowed")
	}
	if got := rec.Body.String(); got != "12345678overflow" {
		t.Fatalf("client response clipped: %q", got)
	}
	if cw.buf.Len() > 8 {
		t.Fatalf("capture buffer grew past the limit: %d bytes", cw.buf.Len())
	}

	unlimited := &captureWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	_, _ = unlimited.Write([]byte("anything goes"))
	if unlimited.overflowed() {
		t.Fatal("zero limit means no cap")
	}
}

func TestNoopWithoutRedis(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/classes", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := NewRedisCache(config.CacheConfig{Enabled: true}, nil)
	h := mw(func(c echo.Context) error { return c.String(http.StatusOK, "fresh") })
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "fresh" {
		t.Fatalf("no-op cache altered the response: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "" {
		t.Fatal("no-op cache must not set X-Cache")
	}
}
