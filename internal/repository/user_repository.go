package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jirayus/yoga-studio-reservation/internal/model"
	"github.com/jirayus/yoga-studio-reservation/internal/utils"
)

// UserRepo manages persistence for the `users` table, including the
// session ledger columns (remaining_sessions, sessions_expire_at)
// that the booking workflow debits and credits.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = `id, email, password_hash, full_name, role, remaining_sessions, sessions_expire_at, is_active, created_at, updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var expireAt sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role,
		&u.RemainingSessions, &expireAt, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if expireAt.Valid {
		t := expireAt.Time
		u.SessionsExpireAt = &t
	}
	return u, err
}

// Create inserts a user and returns its ID. The password is hashed
// with bcrypt at the given cost before storage. A duplicate email
// yields ErrEmailExists (MySQL error 1062 on the unique index).
func (r *UserRepo) Create(ctx context.Context, email, password, fullName, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, full_name, role) VALUES (?,?,?,?)",
		email, hash, fullName, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetForUpdateTx loads a user row with a row lock inside the given
// transaction. The booking workflow takes this lock first so that
// concurrent bookings by the same user are serialized and the
// ledger check-then-debit cannot race.
func (r *UserRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.User, error) {
	var u model.User
	var expireAt sql.NullTime
	err := tx.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1 FOR UPDATE", id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role,
			&u.RemainingSessions, &expireAt, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if expireAt.Valid {
		t := expireAt.Time
		u.SessionsExpireAt = &t
	}
	return u, err
}

// DebitSessionTx consumes one session from the user's ledger. The
// guard on remaining_sessions keeps the balance non-negative even
// if a caller skipped the row lock; zero affected rows is reported
// as sql.ErrNoRows.
func (r *UserRepo) DebitSessionTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE users SET remaining_sessions = remaining_sessions - 1 WHERE id=? AND remaining_sessions > 0", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreditSessionTx returns one session to the user's ledger after a
// cancellation.
func (r *UserRepo) CreditSessionTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET remaining_sessions = remaining_sessions + 1 WHERE id=?", id)
	return err
}

// ApplyPackageTx credits an approved package onto the user's ledger:
// the session balance grows by the package size and the expiry is
// extended by the package duration, counted from the current expiry
// when the package is still valid or from now when it lapsed.
func (r *UserRepo) ApplyPackageTx(ctx context.Context, tx *sql.Tx, id uint64, sessions, durationDays uint32) error {
	const q = `UPDATE users
               SET remaining_sessions = remaining_sessions + ?,
                   sessions_expire_at = DATE_ADD(GREATEST(COALESCE(sessions_expire_at, UTC_TIMESTAMP()), UTC_TIMESTAMP()), INTERVAL ? DAY)
               WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, sessions, durationDays, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Ledger returns the current session balance and expiry for a user.
// Used by GET /v1/me so the storefront can show the remaining
// sessions without a second endpoint.
func (r *UserRepo) Ledger(ctx context.Context, id uint64) (uint32, *time.Time, error) {
	var remaining uint32
	var expireAt sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		"SELECT remaining_sessions, sessions_expire_at FROM users WHERE id=? LIMIT 1", id).
		Scan(&remaining, &expireAt)
	if err != nil {
		return 0, nil, err
	}
	if expireAt.Valid {
		t := expireAt.Time
		return remaining, &t, nil
	}
	return remaining, nil, nil
}
