package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jirayus/yoga-studio-reservation/internal/model"
)

// ErrReservationNotFound indicates that a reservation was not
// located in the DB.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrAlreadyReserved indicates that the user already holds an
// active reservation for the class. Handlers translate this into
// HTTP 409 so a double-click or a second tab cannot create a
// duplicate booking.
var ErrAlreadyReserved = errors.New("already reserved")

// ReservationRepo provides persistence for reservations. A
// reservation joins a member to a scheduled class. Cancellation is
// a soft state change (status CANCELLED); rows are never deleted,
// so class history survives for reporting. All timestamp columns
// are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying sql.DB for callers that need to begin
// transactions spanning multiple repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new RESERVED row within the scope of an
// existing transaction and populates the generated ID and
// timestamps on the provided record. The caller must commit or
// roll back the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (user_id, class_id, status) VALUES (?, ?, 'RESERVED')`
	result, err := tx.ExecContext(ctx, q, res.UserID, res.ClassID)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	const sel = `SELECT id, user_id, class_id, status, reserved_at, cancelled_at FROM reservations WHERE id = ?`
	var cancelledAt sql.NullTime
	err = tx.QueryRowContext(ctx, sel, res.ID).Scan(
		&res.ID, &res.UserID, &res.ClassID, &res.Status, &res.ReservedAt, &cancelledAt)
	if err != nil {
		return err
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		res.CancelledAt = &t
	}
	return nil
}

// HasActiveTx reports whether the user already holds a RESERVED row
// for the class. It runs inside the booking transaction, after the
// user row lock, so two concurrent bookings by the same user cannot
// both observe "no reservation".
func (r *ReservationRepo) HasActiveTx(ctx context.Context, tx *sql.Tx, userID, classID uint64) (bool, error) {
	const q = `SELECT 1 FROM reservations WHERE user_id = ? AND class_id = ? AND status = 'RESERVED' LIMIT 1`
	var one int
	err := tx.QueryRowContext(ctx, q, userID, classID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetTx loads a reservation inside the given transaction without
// taking any row lock. The cancellation workflow uses it to learn
// the owning member before locking anything, so the user row lock
// can be taken first, in the same order the booking transaction
// acquires its locks.
func (r *ReservationRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
	const q = `SELECT id, user_id, class_id, status, reserved_at, cancelled_at FROM reservations WHERE id = ?`
	var res model.Reservation
	var cancelledAt sql.NullTime
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.UserID, &res.ClassID, &res.Status, &res.ReservedAt, &cancelledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrReservationNotFound
	}
	if err != nil {
		return model.Reservation{}, err
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		res.CancelledAt = &t
	}
	return res, nil
}

// GetForUpdateTx loads a reservation with a row lock together with
// the start time of its class. The join locks the class row too, so
// callers must already hold the owning user's row lock: the booking
// transaction locks user then class, and acquiring the class row
// before the user row would deadlock against it. It returns
// ErrReservationNotFound when no row exists. Ownership is NOT
// checked here; callers pass the returned record to their own
// authorization logic so the admin cancel path can reuse this
// method.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, time.Time, error) {
	const q = `SELECT r.id, r.user_id, r.class_id, r.status, r.reserved_at, r.cancelled_at, c.starts_at
               FROM reservations r
               JOIN classes c ON c.id = r.class_id
               WHERE r.id = ?
               FOR UPDATE`
	var res model.Reservation
	var cancelledAt sql.NullTime
	var startsAt time.Time
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.UserID, &res.ClassID, &res.Status, &res.ReservedAt, &cancelledAt, &startsAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, time.Time{}, ErrReservationNotFound
	}
	if err != nil {
		return model.Reservation{}, time.Time{}, err
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		res.CancelledAt = &t
	}
	return res, startsAt.UTC(), nil
}

// CancelTx flips a RESERVED row to CANCELLED inside the given
// transaction. Cancelling an already-cancelled reservation matches
// zero rows and returns ErrConflict.
func (r *ReservationRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE reservations SET status = 'CANCELLED', cancelled_at = UTC_TIMESTAMP()
               WHERE id = ? AND status = 'RESERVED'`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// ReservationDetail is a reservation joined with its class, shaped
// for API responses to members.
type ReservationDetail struct {
	ID          uint64  `json:"id"`
	ClassID     uint64  `json:"class_id"`
	Status      string  `json:"status"`
	ClassTitle  string  `json:"class_title"`
	Instructor  string  `json:"instructor"`
	StartsAt    string  `json:"starts_at"`
	EndsAt      string  `json:"ends_at"`
	RoomNumber  string  `json:"room_number"`
	ReservedAt  string  `json:"reserved_at"`
	CancelledAt *string `json:"cancelled_at,omitempty"`
}

const detailColumns = `r.id, r.class_id, r.status, c.title, c.instructor, c.starts_at, c.ends_at, c.room_number, r.reserved_at, r.cancelled_at`

func scanDetail(scan func(dest ...any) error) (ReservationDetail, error) {
	var d ReservationDetail
	var startsAt, endsAt, reservedAt time.Time
	var cancelledAt sql.NullTime
	err := scan(&d.ID, &d.ClassID, &d.Status, &d.ClassTitle, &d.Instructor,
		&startsAt, &endsAt, &d.RoomNumber, &reservedAt, &cancelledAt)
	if err != nil {
		return d, err
	}
	d.StartsAt = startsAt.UTC().Format(time.RFC3339)
	d.EndsAt = endsAt.UTC().Format(time.RFC3339)
	d.ReservedAt = reservedAt.UTC().Format(time.RFC3339)
	if cancelledAt.Valid {
		iso := cancelledAt.Time.UTC().Format(time.RFC3339)
		d.CancelledAt = &iso
	}
	return d, nil
}

// ListByUser returns all reservations for the given user, newest
// first, including cancelled history. When no reservations exist,
// an empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	const q = `SELECT ` + detailColumns + `
               FROM reservations r
               JOIN classes c ON c.id = r.class_id
               WHERE r.user_id = ?
               ORDER BY r.reserved_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ReservationDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// GetByIDForUser returns a single reservation for the given user.
// Ownership is enforced in the query, so a reservation belonging to
// someone else surfaces as sql.ErrNoRows.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, reservationID, userID uint64) (*ReservationDetail, error) {
	const q = `SELECT ` + detailColumns + `
               FROM reservations r
               JOIN classes c ON c.id = r.class_id
               WHERE r.id = ? AND r.user_id = ?`
	d, err := scanDetail(r.db.QueryRowContext(ctx, q, reservationID, userID).Scan)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ClassReservationDetail extends ReservationDetail with member
// identity for admin views of a class roster.
type ClassReservationDetail struct {
	ReservationDetail
	UserID      uint64 `json:"user_id"`
	MemberName  string `json:"member_name"`
	MemberEmail string `json:"member_email"`
}

// ListByClass returns every reservation for a class, active and
// cancelled, newest first, with member identity attached. Used by
// the admin roster endpoint.
func (r *ReservationRepo) ListByClass(ctx context.Context, classID uint64) ([]ClassReservationDetail, error) {
	const q = `SELECT ` + detailColumns + `, r.user_id, u.full_name, u.email
               FROM reservations r
               JOIN classes c ON c.id = r.class_id
               JOIN users u ON u.id = r.user_id
               WHERE r.class_id = ?
               ORDER BY r.reserved_at DESC`
	rows, err := r.db.QueryContext(ctx, q, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ClassReservationDetail, 0)
	for rows.Next() {
		var d ClassReservationDetail
		var startsAt, endsAt, reservedAt time.Time
		var cancelledAt sql.NullTime
		if err := rows.Scan(&d.ID, &d.ClassID, &d.Status, &d.ClassTitle, &d.Instructor,
			&startsAt, &endsAt, &d.RoomNumber, &reservedAt, &cancelledAt,
			&d.UserID, &d.MemberName, &d.MemberEmail); err != nil {
			return nil, err
		}
		d.StartsAt = startsAt.UTC().Format(time.RFC3339)
		d.EndsAt = endsAt.UTC().Format(time.RFC3339)
		d.ReservedAt = reservedAt.UTC().Format(time.RFC3339)
		if cancelledAt.Valid {
			iso := cancelledAt.Time.UTC().Format(time.RFC3339)
			d.CancelledAt = &iso
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// ParticipantsTx returns the display names of all active
// participants of a class, in booking order. It runs inside the
// booking transaction so the roster snapshot matches the amount
// that was just recomputed.
func (r *ReservationRepo) ParticipantsTx(ctx context.Context, tx *sql.Tx, classID uint64) ([]string, error) {
	const q = `SELECT u.full_name
               FROM reservations r
               JOIN users u ON u.id = r.user_id
               WHERE r.class_id = ? AND r.status = 'RESERVED'
               ORDER BY r.reserved_at ASC, r.id ASC`
	rows, err := tx.QueryContext(ctx, q, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
