package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

type Repository interface {
	FindOpenPeriodByDate(ctx context.Context, date time.Time) (Period, error)
	Get(ctx context.Context, id int64) (Period, error)
	Create(ctx context.Context, period Period) (Period, error)
	Update(ctx context.Context, period Period) (Period, error)
	List(ctx context.Context) ([]Period, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const periodColumns = `id, name, start_date, end_date, status, locked_by, locked_at, created_at, updated_at`

func scanPeriod(row pgx.Row, missing error) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.LockedBy, &p.LockedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, missing
		}
		return Period{}, err
	}
	return p, nil
}

// FindOpenPeriodByDate returns the open period whose range contains the
// supplied date. Locked and archived periods are never candidates.
func (r *repository) FindOpenPeriodByDate(ctx context.Context, date time.Time) (Period, error) {
	row := r.db.QueryRow(ctx, `SELECT `+periodColumns+`
FROM accounting_periods WHERE status='OPEN' AND $1 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, date)
	return scanPeriod(row, shared.ErrNoOpenPeriod)
}

func (r *repository) Get(ctx context.Context, id int64) (Period, error) {
	row := r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE id=$1`, id)
	return scanPeriod(row, shared.ErrNoOpenPeriod)
}

func (r *repository) Create(ctx context.Context, period Period) (Period, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounting_periods (name, start_date, end_date, status)
VALUES ($1,$2,$3,$4) RETURNING id, created_at, updated_at`, period.Name, period.StartDate, period.EndDate, period.Status)
	if err := row.Scan(&period.ID, &period.CreatedAt, &period.UpdatedAt); err != nil {
		return Period{}, err
	}
	return period, nil
}

func (r *repository) Update(ctx context.Context, period Period) (Period, error) {
	row := r.db.QueryRow(ctx, `UPDATE accounting_periods
SET status=$2, locked_by=$3, locked_at=$4, updated_at=NOW() WHERE id=$1 RETURNING updated_at`,
		period.ID, period.Status, period.LockedBy, period.LockedAt)
	if err := row.Scan(&period.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrNoOpenPeriod
		}
		return Period{}, err
	}
	return period, nil
}

func (r *repository) List(ctx context.Context) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM accounting_periods ORDER BY start_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.LockedBy, &p.LockedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
