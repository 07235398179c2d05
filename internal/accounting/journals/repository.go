package journals

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/accounting/money"
	"github.com/meridian-erp/meridian-erp/internal/accounting/periods"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// ListFilter narrows the read path. Nil fields are ignored.
type ListFilter struct {
	Status   *JournalStatus
	PeriodID *int64
	From     *time.Time
	To       *time.Time
}

// Repository encapsulates DB operations for journal entries.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]JournalEntry, error)
	Get(ctx context.Context, id int64) (JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available inside one posting
// transaction. Period reads are duplicated here because the lock must be
// held by this transaction.
type TxRepository interface {
	GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error)
	GetNextOpenPeriodAfter(ctx context.Context, date time.Time) (periods.Period, error)
	NextSequence(ctx context.Context, prefix, monthKey string) (int64, error)
	InsertEntry(ctx context.Context, entry *JournalEntry) error
	InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error
	DeleteLines(ctx context.Context, entryID int64) error
	UpdateEntryHeader(ctx context.Context, entry *JournalEntry) error
	LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error
	GetEntryWithLines(ctx context.Context, id int64) (JournalEntry, error)
	UpdateStatus(ctx context.Context, id int64, status JournalStatus) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, reference_number, date, description, currency, status, period_id, source_module, source_id, posted_by, posted_at, created_at, updated_at`

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE 1=1`
	args := []any{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += ` AND status=$` + strconv.Itoa(len(args))
	}
	if filter.PeriodID != nil {
		args = append(args, *filter.PeriodID)
		query += ` AND period_id=$` + strconv.Itoa(len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += ` AND date >= $` + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += ` AND date <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY reference_number DESC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (JournalEntry, error) {
	var result JournalEntry
	err := r.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntryWithLines(ctx, id)
		if err != nil {
			return err
		}
		result = entry
		return nil
	})
	return result, err
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error) {
	var p periods.Period
	err := r.tx.QueryRow(ctx, `SELECT id, name, start_date, end_date, status, locked_by, locked_at, created_at, updated_at
FROM accounting_periods WHERE id=$1 FOR UPDATE`, periodID).
		Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.LockedBy, &p.LockedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.ErrNoOpenPeriod
		}
		return periods.Period{}, err
	}
	return p, nil
}

func (r *txRepository) GetNextOpenPeriodAfter(ctx context.Context, date time.Time) (periods.Period, error) {
	var p periods.Period
	err := r.tx.QueryRow(ctx, `SELECT id, name, start_date, end_date, status, locked_by, locked_at, created_at, updated_at
FROM accounting_periods WHERE status='OPEN' AND start_date >= $1 ORDER BY start_date ASC LIMIT 1`, date).
		Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.LockedBy, &p.LockedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.ErrNoOpenPeriod
		}
		return periods.Period{}, err
	}
	return p, nil
}

// NextSequence advances the per-(prefix, month) counter. The upsert takes
// a row lock held until commit, serializing concurrent posts within the
// same month.
func (r *txRepository) NextSequence(ctx context.Context, prefix, monthKey string) (int64, error) {
	var next int64
	err := r.tx.QueryRow(ctx, `INSERT INTO journal_sequences (prefix, month_key, last_value)
VALUES ($1,$2,1)
ON CONFLICT (prefix, month_key) DO UPDATE SET last_value = journal_sequences.last_value + 1
RETURNING last_value`, prefix, monthKey).Scan(&next)
	if err != nil {
		return 0, err
	}
	return next, nil
}

// InsertEntry persists the header. Drafts carry no reference number and
// no period; both are filled when the entry is posted.
func (r *txRepository) InsertEntry(ctx context.Context, entry *JournalEntry) error {
	var postedAt any
	if entry.Status == JournalStatusPosted {
		entry.PostedAt = time.Now()
		postedAt = entry.PostedAt
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (reference_number, date, description, currency, status, period_id, source_module, source_id, posted_by, posted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id, created_at, updated_at`,
		nullStr(entry.Reference), entry.Date, entry.Description, entry.Currency, entry.Status,
		nullInt(entry.PeriodID), nullStr(entry.SourceModule), nullUUID(entry.SourceID), nullInt(entry.PostedBy), postedAt)
	if err := row.Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	for i := range lines {
		line := &lines[i]
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_entry_lines (journal_entry_id, chart_of_account_id, debit, credit, description)
VALUES ($1,$2,$3,$4,$5) RETURNING id`,
			entryID, line.AccountID, line.Debit.Amount().StringFixed(2), line.Credit.Amount().StringFixed(2), line.Description).
			Scan(&line.ID)
		if err != nil {
			return err
		}
		line.EntryID = entryID
	}
	return nil
}

// DeleteLines supports the full line replacement semantics of draft
// saves: the line set is rewritten, never diffed.
func (r *txRepository) DeleteLines(ctx context.Context, entryID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM journal_entry_lines WHERE journal_entry_id=$1`, entryID)
	return err
}

func (r *txRepository) UpdateEntryHeader(ctx context.Context, entry *JournalEntry) error {
	var postedAt any
	if entry.Status == JournalStatusPosted {
		if entry.PostedAt.IsZero() {
			entry.PostedAt = time.Now()
		}
		postedAt = entry.PostedAt
	}
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries
SET reference_number=$2, date=$3, description=$4, currency=$5, status=$6, period_id=$7, posted_by=$8, posted_at=$9, updated_at=NOW()
WHERE id=$1`,
		entry.ID, nullStr(entry.Reference), entry.Date, entry.Description, entry.Currency, entry.Status,
		nullInt(entry.PeriodID), nullInt(entry.PostedBy), postedAt)
	if err != nil {
		return mapConstraint(err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

func (r *txRepository) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (module, ref_id, journal_entry_id) VALUES ($1,$2,$3)`, module, ref, entryID)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *txRepository) GetEntryWithLines(ctx context.Context, id int64) (JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, err
	}
	rows, err := r.tx.Query(ctx, `SELECT id, journal_entry_id, chart_of_account_id, debit::text, credit::text, description
FROM journal_entry_lines WHERE journal_entry_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			line          JournalLine
			debit, credit string
		)
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &debit, &credit, &line.Description); err != nil {
			return JournalEntry{}, err
		}
		if line.Debit, err = money.FromString(debit, entry.Currency); err != nil {
			return JournalEntry{}, err
		}
		if line.Credit, err = money.FromString(credit, entry.Currency); err != nil {
			return JournalEntry{}, err
		}
		entry.Lines = append(entry.Lines, line)
	}
	return entry, rows.Err()
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, status JournalStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var (
		entry        JournalEntry
		reference    *string
		periodID     *int64
		sourceModule *string
		sourceID     *uuid.UUID
		postedBy     *int64
		postedAt     *time.Time
	)
	err := row.Scan(&entry.ID, &reference, &entry.Date, &entry.Description, &entry.Currency,
		&entry.Status, &periodID, &sourceModule, &sourceID, &postedBy,
		&postedAt, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return JournalEntry{}, err
	}
	if reference != nil {
		entry.Reference = *reference
	}
	if periodID != nil {
		entry.PeriodID = *periodID
	}
	if sourceModule != nil {
		entry.SourceModule = *sourceModule
	}
	if sourceID != nil {
		entry.SourceID = *sourceID
	}
	if postedBy != nil {
		entry.PostedBy = *postedBy
	}
	if postedAt != nil {
		entry.PostedAt = *postedAt
	}
	return entry, nil
}

// mapConstraint translates unique violations into domain errors so the
// service can retry numbering or treat a duplicate event as a no-op.
func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "uq_journal_entries_reference":
			return shared.ErrNumberConflict
		case "uq_source_links":
			return shared.ErrSourceConflict
		}
	}
	return err
}

func nullStr(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}

func nullUUID(val uuid.UUID) any {
	if val == uuid.Nil {
		return nil
	}
	return val
}

