package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jirayus/yoga-studio-reservation/internal/model"
)

// ErrOrderNotFound indicates that an order was not located in the DB.
var ErrOrderNotFound = errors.New("order not found")

// ErrOrderDecided indicates that an approve/reject was attempted on
// an order that is no longer PENDING. The decision is taken exactly
// once; handlers translate this into HTTP 409.
var ErrOrderDecided = errors.New("order already decided")

// OrderRepo manages persistence for package purchase orders.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo constructs an OrderRepo with the given DB handle.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying sql.DB so the approval handler can run
// the decide-and-credit sequence in one transaction.
func (r *OrderRepo) DB() *sql.DB { return r.db }

const orderColumns = `id, reference, user_id, package_id, status, approved_at, created_at, updated_at`

func scanOrder(scan func(dest ...any) error) (model.Order, error) {
	var o model.Order
	var approvedAt sql.NullTime
	err := scan(&o.ID, &o.Reference, &o.UserID, &o.PackageID, &o.Status,
		&approvedAt, &o.CreatedAt, &o.UpdatedAt)
	if approvedAt.Valid {
		t := approvedAt.Time
		o.ApprovedAt = &t
	}
	return o, err
}

// Create inserts a PENDING order and populates generated fields on
// the struct. The caller supplies the UUID reference.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	const q = `INSERT INTO orders (reference, user_id, package_id, status) VALUES (?, ?, ?, 'PENDING')`
	res, err := r.db.ExecContext(ctx, q, o.Reference, o.UserID, o.PackageID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	fresh, err := r.GetByID(ctx, o.ID)
	if err != nil {
		return err
	}
	*o = *fresh
	return nil
}

// GetByID retrieves an order by its ID. It returns ErrOrderNotFound
// if there is no matching row.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	o, err := scanOrder(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// GetForUpdateTx loads an order with a row lock inside the given
// transaction. The approval path holds this lock across the decide
// and ledger-credit steps so an order can never be approved twice.
func (r *OrderRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = ? FOR UPDATE`
	o, err := scanOrder(tx.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// DecideTx moves a PENDING order to APPROVED or REJECTED inside the
// given transaction. Deciding a non-PENDING order matches zero rows
// and returns ErrOrderDecided.
func (r *OrderRepo) DecideTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	const q = `UPDATE orders SET status = ?, approved_at = UTC_TIMESTAMP(), updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND status = 'PENDING'`
	res, err := tx.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderDecided
	}
	return nil
}

// OrderDetail is an order joined with its package, shaped for API
// responses.
type OrderDetail struct {
	ID           uint64  `json:"id"`
	Reference    string  `json:"reference"`
	UserID       uint64  `json:"user_id"`
	PackageID    uint64  `json:"package_id"`
	PackageName  string  `json:"package_name"`
	Sessions     uint32  `json:"sessions"`
	DurationDays uint32  `json:"duration_days"`
	PriceCents   uint32  `json:"price_cents"`
	Status       string  `json:"status"`
	ApprovedAt   *string `json:"approved_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

const orderDetailColumns = `o.id, o.reference, o.user_id, o.package_id, p.name, p.sessions, p.duration_days, p.price_cents, o.status, o.approved_at, o.created_at`

func scanOrderDetail(scan func(dest ...any) error) (OrderDetail, error) {
	var d OrderDetail
	var approvedAt sql.NullTime
	var createdAt time.Time
	err := scan(&d.ID, &d.Reference, &d.UserID, &d.PackageID, &d.PackageName,
		&d.Sessions, &d.DurationDays, &d.PriceCents, &d.Status, &approvedAt, &createdAt)
	if err != nil {
		return d, err
	}
	d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	if approvedAt.Valid {
		iso := approvedAt.Time.UTC().Format(time.RFC3339)
		d.ApprovedAt = &iso
	}
	return d, nil
}

// ListByUser returns a member's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]OrderDetail, error) {
	const q = `SELECT ` + orderDetailColumns + `
               FROM orders o
               JOIN packages p ON p.id = o.package_id
               WHERE o.user_id = ?
               ORDER BY o.created_at DESC`
	return r.queryDetails(ctx, q, userID)
}

// ListAll returns every order, newest first, optionally filtered by
// status. An empty status means no filter.
func (r *OrderRepo) ListAll(ctx context.Context, status string) ([]OrderDetail, error) {
	q := `SELECT ` + orderDetailColumns + `
          FROM orders o
          JOIN packages p ON p.id = o.package_id`
	args := []any{}
	if status != "" {
		q += ` WHERE o.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY o.created_at DESC`
	return r.queryDetails(ctx, q, args...)
}

func (r *OrderRepo) queryDetails(ctx context.Context, q string, args ...any) ([]OrderDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]OrderDetail, 0)
	for rows.Next() {
		d, err := scanOrderDetail(rows.Scan)
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
