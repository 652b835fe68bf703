package handler

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/repository"
)

// The booking and cancellation transactions must acquire row locks
// in the same order (user row, then reservation with its class) or
// a cancel racing a booking for the same member and class can
// deadlock. These tests drive the cancel handlers over a recording
// driver and assert the order the locking statements hit the
// connection.

type queryLog struct{ queries []string }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return nil, errors.New("use the connector") }

type stubConnector struct{ conn *stubConn }

func (s *stubConnector) Connect(context.Context) (driver.Conn, error) { return s.conn, nil }
func (s *stubConnector) Driver() driver.Driver                        { return stubDriver{} }

type stubConn struct {
	log     *queryLog
	respond func(q string) (driver.Rows, error)
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

func (c *stubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return stubTx{}, nil
}

func (c *stubConn) QueryContext(_ context.Context, q string, _ []driver.NamedValue) (driver.Rows, error) {
	c.log.queries = append(c.log.queries, q)
	return c.respond(q)
}

func (c *stubConn) ExecContext(_ context.Context, q string, _ []driver.NamedValue) (driver.Result, error) {
	c.log.queries = append(c.log.queries, q)
	return stubResult{}, nil
}

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

type stubResult struct{}

func (stubResult) LastInsertId() (int64, error) { return 1, nil }
func (stubResult) RowsAffected() (int64, error) { return 1, nil }

type stubRows struct {
	cols []string
	vals [][]driver.Value
	i    int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.i >= len(r.vals) {
		return io.EOF
	}
	copy(dest, r.vals[r.i])
	r.i++
	return nil
}

// cancelResponder serves one member (id 7) holding one RESERVED
// reservation (id 42) for a class (id 5) starting well outside the
// cancellation cutoff.
func cancelResponder(startsAt time.Time) func(q string) (driver.Rows, error) {
	now := time.Now().UTC()
	return func(q string) (driver.Rows, error) {
		switch {
		case strings.Contains(q, "FROM users") && strings.Contains(q, "FOR UPDATE"):
			return &stubRows{
				cols: []string{"id", "email", "password_hash", "full_name", "role", "remaining_sessions", "sessions_expire_at", "is_active", "created_at", "updated_at"},
				vals: [][]driver.Value{{int64(7), "mina@example.com", "x", "Mina", "MEMBER", int64(3), nil, true, now, now}},
			}, nil
		case strings.Contains(q, "JOIN classes") && strings.Contains(q, "FOR UPDATE"):
			return &stubRows{
				cols: []string{"id", "user_id", "class_id", "status", "reserved_at", "cancelled_at", "starts_at"},
				vals: [][]driver.Value{{int64(42), int64(7), int64(5), "RESERVED", now, nil, startsAt}},
			}, nil
		case strings.Contains(q, "FROM reservations WHERE id = ?"):
			return &stubRows{
				cols: []string{"id", "user_id", "class_id", "status", "reserved_at", "cancelled_at"},
				vals: [][]driver.Value{{int64(42), int64(7), int64(5), "RESERVED", now, nil}},
			}, nil
		case strings.Contains(q, "SELECT amount"):
			return &stubRows{cols: []string{"amount"}, vals: [][]driver.Value{{int64(0)}}}, nil
		}
		return nil, fmt.Errorf("unexpected query: %s", q)
	}
}

func lockIndexes(queries []string) (userIdx, classIdx int) {
	userIdx, classIdx = -1, -1
	for i, q := range queries {
		if !strings.Contains(q, "FOR UPDATE") {
			continue
		}
		if userIdx == -1 && strings.Contains(q, "FROM users") {
			userIdx = i
		}
		if classIdx == -1 && strings.Contains(q, "JOIN classes") {
			classIdx = i
		}
	}
	return userIdx, classIdx
}

func newCancelContext(t *testing.T, path string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)
	c.SetParamNames("id")
	c.SetParamValues("42")
	return c, rec
}

func TestMemberCancelLocksUserRowFirst(t *testing.T) {
	log := &queryLog{}
	conn := &stubConn{log: log, respond: cancelResponder(time.Now().UTC().Add(2 * time.Hour))}
	db := sql.OpenDB(&stubConnector{conn: conn})
	defer db.Close()

	h := NewMemberHandler(repository.NewUserRepo(db), repository.NewClassRepo(db), repository.NewReservationRepo(db))
	c, rec := newCancelContext(t, "/v1/reservations/:id")
	c.Set("user_id", float64(7))

	if err := h.CancelReservation(c); err != nil {
		t.Fatalf("CancelReservation: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	userIdx, classIdx := lockIndexes(log.queries)
	if userIdx == -1 || classIdx == -1 {
		t.Fatalf("locking statements missing: %q", log.queries)
	}
	if userIdx > classIdx {
		t.Fatalf("user row must be locked before the class row: %q", log.queries)
	}
}

func TestAdminCancelLocksUserRowFirst(t *testing.T) {
	log := &queryLog{}
	conn := &stubConn{log: log, respond: cancelResponder(time.Now().UTC().Add(2 * time.Hour))}
	db := sql.OpenDB(&stubConnector{conn: conn})
	defer db.Close()

	h := NewAdminReservationHandler(repository.NewUserRepo(db), repository.NewClassRepo(db), repository.NewReservationRepo(db))
	c, rec := newCancelContext(t, "/v1/admin/reservations/:id")

	if err := h.CancelReservation(c); err != nil {
		t.Fatalf("CancelReservation: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	userIdx, classIdx := lockIndexes(log.queries)
	if userIdx == -1 || classIdx == -1 {
		t.Fatalf("locking statements missing: %q", log.queries)
	}
	if userIdx > classIdx {
		t.Fatalf("user row must be locked before the class row: %q", log.queries)
	}

	// The owner is learned from an unlocked read before any lock.
	peekIdx := -1
	for i, q := range log.queries {
		if strings.Contains(q, "FROM reservations WHERE id = ?") && !strings.Contains(q, "FOR UPDATE") {
			peekIdx = i
			break
		}
	}
	if peekIdx == -1 || peekIdx > userIdx {
		t.Fatalf("owner must be read without a lock before locking: %q", log.queries)
	}
}
