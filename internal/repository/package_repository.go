package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jirayus/yoga-studio-reservation/internal/model"
)

// ErrPackageNotFound indicates that a session package was not
// located in the DB.
var ErrPackageNotFound = errors.New("package not found")

// PackageRepo manages persistence for purchasable session packages.
type PackageRepo struct {
	db *sql.DB
}

// NewPackageRepo constructs a PackageRepo with the given DB handle.
func NewPackageRepo(db *sql.DB) *PackageRepo { return &PackageRepo{db: db} }

const packageColumns = `id, name, sessions, duration_days, price_cents, is_active, created_at, updated_at`

func scanPackage(scan func(dest ...any) error) (model.Package, error) {
	var p model.Package
	err := scan(&p.ID, &p.Name, &p.Sessions, &p.DurationDays, &p.PriceCents,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create inserts a new package and populates the generated ID and
// DB-default fields on the struct.
func (r *PackageRepo) Create(ctx context.Context, p *model.Package) error {
	const q = `INSERT INTO packages (name, sessions, duration_days, price_cents, is_active)
               VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.Name, p.Sessions, p.DurationDays, p.PriceCents, p.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	fresh, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}

// GetByID retrieves a package by its ID. It returns
// ErrPackageNotFound if there is no matching row.
func (r *PackageRepo) GetByID(ctx context.Context, id uint64) (*model.Package, error) {
	const q = `SELECT ` + packageColumns + ` FROM packages WHERE id = ?`
	p, err := scanPackage(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns packages ordered by price ascending. With activeOnly
// set, retired packages are filtered out; the storefront uses that
// form while the admin list shows everything.
func (r *PackageRepo) List(ctx context.Context, activeOnly bool) ([]model.Package, error) {
	q := `SELECT ` + packageColumns + ` FROM packages`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY price_cents ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Package, 0)
	for rows.Next() {
		p, err := scanPackage(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update rewrites a package's attributes. Existing orders keep the
// sessions and duration they were approved with, so editing a
// package never rewrites history.
func (r *PackageRepo) Update(ctx context.Context, p *model.Package) error {
	const q = `UPDATE packages
               SET name = ?, sessions = ?, duration_days = ?, price_cents = ?, is_active = ?,
                   updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, p.Name, p.Sessions, p.DurationDays, p.PriceCents, p.IsActive, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM packages WHERE id = ? LIMIT 1`, p.ID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPackageNotFound
		}
		if err != nil {
			return err
		}
		// Values identical to the current row; treat as success.
	}
	fresh, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}

// Delete removes a package. Packages referenced by any order cannot
// be deleted (ErrConflict); retire them with is_active instead.
func (r *PackageRepo) Delete(ctx context.Context, id uint64) error {
	var orders int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE package_id = ?`, id).Scan(&orders); err != nil {
		return err
	}
	if orders > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM packages WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPackageNotFound
	}
	return nil
}
