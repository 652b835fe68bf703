package repository

import (
	"context"
	"strings"
	"time"
)

// ClassSearchQuery defines filters & pagination for searching the
// class catalog.
type ClassSearchQuery struct {
	Title      string
	Instructor string
	Room       string
	TimeFilter string // "upcoming" (default), "active", "any"
	Page       int
	PageSize   int
}

// PublicClassRow is one catalog search hit, including the derived
// spots_left field (null when the class is uncapped).
type PublicClassRow struct {
	ID         uint64  `json:"id"`
	Title      string  `json:"title"`
	Instructor string  `json:"instructor"`
	StartsAt   string  `json:"starts_at"`
	EndsAt     string  `json:"ends_at"`
	RoomNumber string  `json:"room_number"`
	Capacity   uint32  `json:"capacity"`
	Amount     uint32  `json:"amount"`
	SpotsLeft  *uint32 `json:"spots_left,omitempty"`
}

// SearchUpcoming searches the catalog with optional title,
// instructor and room filters. By default only classes that have
// not yet started are returned; "active" includes classes still in
// progress and "any" disables the time filter.
func (r *ClassRepo) SearchUpcoming(ctx context.Context, q ClassSearchQuery) ([]PublicClassRow, int64, error) {
	where := []string{}
	args := []any{}

	switch strings.ToLower(q.TimeFilter) {
	case "any":
	case "active":
		where = append(where, "c.ends_at >= UTC_TIMESTAMP()")
	default:
		where = append(where, "c.starts_at >= UTC_TIMESTAMP()")
	}

	if q.Title != "" {
		where = append(where, "LOWER(c.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Title)+"%")
	}
	if q.Instructor != "" {
		where = append(where, "LOWER(c.instructor) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Instructor)+"%")
	}
	if q.Room != "" {
		where = append(where, "c.room_number = ?")
		args = append(args, q.Room)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*) FROM classes c WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT c.id, c.title, c.instructor, c.starts_at, c.ends_at,
                       c.room_number, c.capacity, c.amount
                FROM classes c
                WHERE ` + cond + `
                ORDER BY c.starts_at ASC
                LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]PublicClassRow, 0, limit)
	for rows.Next() {
		var d PublicClassRow
		var startsAt, endsAt time.Time
		if err := rows.Scan(&d.ID, &d.Title, &d.Instructor, &startsAt, &endsAt,
			&d.RoomNumber, &d.Capacity, &d.Amount); err != nil {
			return nil, 0, err
		}
		d.StartsAt = startsAt.UTC().Format(time.RFC3339)
		d.EndsAt = endsAt.UTC().Format(time.RFC3339)
		if d.Capacity > 0 {
			left := uint32(0)
			if d.Capacity > d.Amount {
				left = d.Capacity - d.Amount
			}
			d.SpotsLeft = &left
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
