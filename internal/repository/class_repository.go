// Package repository contains data access logic for the class
// catalog. A class is one concrete scheduled occurrence of a yoga
// session with its own time window and room metadata. All DATETIME
// columns are stored in UTC and scanned into time.Time via the
// parseTime DSN option.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jirayus/yoga-studio-reservation/internal/model"
)

// ErrClassNotFound indicates that a class was not located in the DB.
var ErrClassNotFound = errors.New("class not found")

// ErrClassClaimed indicates that an instructor tried to claim a
// class that already has an instructor assigned.
var ErrClassClaimed = errors.New("class already claimed")

// ClassRepo manages persistence for classes.
type ClassRepo struct {
	db *sql.DB
}

// NewClassRepo constructs a ClassRepo with the given DB handle.
func NewClassRepo(db *sql.DB) *ClassRepo { return &ClassRepo{db: db} }

// DB exposes the underlying sql.DB. It allows callers to begin
// transactions spanning multiple repositories.
func (r *ClassRepo) DB() *sql.DB { return r.db }

const classColumns = `id, title, instructor, starts_at, ends_at, room_number, passcode, zoom_link, capacity, amount, version, created_at, updated_at`

func scanClass(scan func(dest ...any) error) (model.Class, error) {
	var c model.Class
	err := scan(&c.ID, &c.Title, &c.Instructor, &c.StartsAt, &c.EndsAt,
		&c.RoomNumber, &c.Passcode, &c.ZoomLink, &c.Capacity, &c.Amount,
		&c.Version, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create inserts a new class and populates the generated ID plus
// DB-default fields (amount, version, timestamps) on the struct.
func (r *ClassRepo) Create(ctx context.Context, c *model.Class) error {
	const q = `INSERT INTO classes (title, instructor, starts_at, ends_at, room_number, passcode, zoom_link, capacity)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.Title, c.Instructor, c.StartsAt, c.EndsAt,
		c.RoomNumber, c.Passcode, c.ZoomLink, c.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	fresh, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}

// GetByID retrieves a class by its ID. It returns ErrClassNotFound
// if there is no matching row.
func (r *ClassRepo) GetByID(ctx context.Context, id uint64) (*model.Class, error) {
	const q = `SELECT ` + classColumns + ` FROM classes WHERE id = ?`
	c, err := scanClass(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetForUpdateTx loads a class with a row lock inside the given
// transaction. The booking workflow locks the class after the user
// row so the capacity check and the roster recount cannot race with
// a concurrent booking for the same class.
func (r *ClassRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Class, error) {
	const q = `SELECT ` + classColumns + ` FROM classes WHERE id = ? FOR UPDATE`
	c, err := scanClass(tx.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns the whole class catalog ordered by start time
// ascending. When no classes exist it returns an empty slice.
func (r *ClassRepo) List(ctx context.Context) ([]model.Class, error) {
	const q = `SELECT ` + classColumns + ` FROM classes ORDER BY starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Class, 0)
	for rows.Next() {
		c, err := scanClass(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListByInstructor returns all classes assigned to the given
// instructor name, ordered by start time ascending.
func (r *ClassRepo) ListByInstructor(ctx context.Context, instructor string) ([]model.Class, error) {
	const q = `SELECT ` + classColumns + ` FROM classes WHERE instructor = ? ORDER BY starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, instructor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Class, 0)
	for rows.Next() {
		c, err := scanClass(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// FindOverlapping finds classes scheduled in the same room whose
// time window overlaps [start, end), excluding the class with
// excludeID (pass 0 on create). A class overlaps when it starts
// before the proposed end and ends after the proposed start.
func (r *ClassRepo) FindOverlapping(ctx context.Context, room string, start, end time.Time, excludeID uint64) ([]model.Class, error) {
	const q = `SELECT ` + classColumns + ` FROM classes
               WHERE room_number = ? AND id <> ? AND NOT (ends_at <= ? OR starts_at >= ?)`
	rows, err := r.db.QueryContext(ctx, q, room, excludeID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var overlaps []model.Class
	for rows.Next() {
		c, err := scanClass(rows.Scan)
		if err != nil {
			return nil, err
		}
		overlaps = append(overlaps, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return overlaps, nil
}

// UpdateVersioned updates a class's mutable attributes conditional
// on the version the caller read. A stale version yields
// ErrVersionConflict; a missing row yields ErrClassNotFound. On
// success the version is incremented and the fresh row is written
// back into c.
func (r *ClassRepo) UpdateVersioned(ctx context.Context, c *model.Class, expectedVersion uint64) error {
	const q = `UPDATE classes
               SET title = ?, instructor = ?, starts_at = ?, ends_at = ?, room_number = ?,
                   passcode = ?, zoom_link = ?, capacity = ?, version = version + 1,
                   updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, q,
		c.Title, c.Instructor, c.StartsAt, c.EndsAt, c.RoomNumber,
		c.Passcode, c.ZoomLink, c.Capacity,
		c.ID, expectedVersion)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a missing row from a stale version.
		var one int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM classes WHERE id = ? LIMIT 1`, c.ID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrClassNotFound
		}
		if err != nil {
			return err
		}
		return ErrVersionConflict
	}
	fresh, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}

// ClaimInstructor assigns the class to the named instructor iff the
// class is still unassigned. The conditional UPDATE makes the claim
// first-wins: a concurrent second claimer matches zero rows and
// receives ErrClassClaimed instead of silently overwriting.
func (r *ClassRepo) ClaimInstructor(ctx context.Context, id uint64, instructor string) error {
	const q = `UPDATE classes SET instructor = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND instructor = ''`
	res, err := r.db.ExecContext(ctx, q, instructor, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM classes WHERE id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrClassNotFound
	}
	if err != nil {
		return err
	}
	return ErrClassClaimed
}

// ReleaseInstructor clears the assignment iff the class is currently
// assigned to the named instructor; releasing someone else's class
// yields ErrForbidden.
func (r *ClassRepo) ReleaseInstructor(ctx context.Context, id uint64, instructor string) error {
	const q = `UPDATE classes SET instructor = '', version = version + 1, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND instructor = ?`
	res, err := r.db.ExecContext(ctx, q, id, instructor)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM classes WHERE id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrClassNotFound
	}
	if err != nil {
		return err
	}
	return ErrForbidden
}

// RecomputeAmountTx rewrites classes.amount from the reservations
// table inside the given transaction and returns the new value.
// Every mutating transaction in the reservation workflow calls this
// instead of doing +1/-1 arithmetic, so the roster count cannot
// drift from the reservation rows.
func (r *ClassRepo) RecomputeAmountTx(ctx context.Context, tx *sql.Tx, classID uint64) (uint32, error) {
	const upd = `UPDATE classes
                 SET amount = (SELECT COUNT(*) FROM reservations WHERE class_id = ? AND status = 'RESERVED')
                 WHERE id = ?`
	if _, err := tx.ExecContext(ctx, upd, classID, classID); err != nil {
		return 0, err
	}
	var amount uint32
	if err := tx.QueryRowContext(ctx, `SELECT amount FROM classes WHERE id = ?`, classID).Scan(&amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// Delete removes a class. The deletion runs in a transaction: when
// active reservations still reference the class, it is aborted with
// ErrConflict so bookings can never point at a vanished class.
// Cancelled reservation history is detached, not deleted.
func (r *ClassRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM classes WHERE id = ? LIMIT 1 FOR UPDATE`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrClassNotFound
		}
		return err
	}
	var active int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE class_id = ? AND status = 'RESERVED'`, id).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		err = ErrConflict
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM classes WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}
