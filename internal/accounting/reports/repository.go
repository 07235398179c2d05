// Package reports reads posted ledger data. It never writes.
package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Range bounds a report query by entry date. A zero From means "from
// the beginning of the ledger".
type Range struct {
	From time.Time
	To   time.Time
}

type Repository interface {
	SumPostedLines(ctx context.Context, accountID int64, period Range) (debit, credit string, err error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// SumPostedLines totals both sides over posted entries inside the
// range. Draft and void entries never count.
func (r *repository) SumPostedLines(ctx context.Context, accountID int64, period Range) (string, string, error) {
	query := `SELECT COALESCE(SUM(l.debit),0)::text, COALESCE(SUM(l.credit),0)::text
FROM journal_entry_lines l
JOIN journal_entries e ON e.id = l.journal_entry_id
WHERE l.chart_of_account_id = $1 AND e.status = 'POSTED' AND e.date <= $2`
	args := []any{accountID, period.To}
	if !period.From.IsZero() {
		query += ` AND e.date >= $3`
		args = append(args, period.From)
	}
	var debit, credit string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&debit, &credit); err != nil {
		return "", "", err
	}
	return debit, credit, nil
}
