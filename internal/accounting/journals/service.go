package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/money"
	"github.com/meridian-erp/meridian-erp/internal/accounting/periods"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	internalshared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// numberRetries bounds how often a reference collision is retried before
// the posting fails. The locked counter row makes a collision rare; the
// retry covers sequences seeded from legacy data.
const numberRetries = 3

type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

// PeriodResolver maps a posting date to its open accounting period.
type PeriodResolver interface {
	FindOpenPeriodByDate(ctx context.Context, date time.Time) (periods.Period, error)
}

// LineCommand describes one side of a posting in caller terms.
type LineCommand struct {
	AccountID   int64
	Side        shared.Side
	Amount      money.Money
	Description string
}

// PostingCommand is the full input for creating and posting an entry in
// one step. Reference fixes the entry number; when empty the entry is
// numbered from the sequence scoped by Prefix and the posting month.
type PostingCommand struct {
	Date         time.Time
	Description  string
	Currency     string
	Reference    string
	Prefix       string
	SourceModule string
	SourceID     uuid.UUID
	PostedBy     int64
	Lines        []LineCommand
}

type Service struct {
	repo    Repository
	periods PeriodResolver
	audit   AuditPort
	metrics *observability.Metrics
	now     func() time.Time
}

func NewService(repo Repository, resolver PeriodResolver, audit AuditPort, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, periods: resolver, audit: audit, metrics: metrics, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (JournalEntry, error) {
	return s.repo.Get(ctx, id)
}

// CreateAndPost builds a balanced entry from the command and posts it
// atomically: period re-check under lock, number assignment and line
// writes happen in one transaction.
func (s *Service) CreateAndPost(ctx context.Context, cmd PostingCommand) (JournalEntry, error) {
	entry, err := buildEntry(cmd)
	if err != nil {
		return JournalEntry{}, s.countFailure(err)
	}
	if err := entry.Post(); err != nil {
		return JournalEntry{}, s.countFailure(err)
	}

	period, err := s.periods.FindOpenPeriodByDate(ctx, cmd.Date)
	if err != nil {
		return JournalEntry{}, s.countFailure(err)
	}
	entry.PeriodID = period.ID
	entry.SourceModule = cmd.SourceModule
	entry.SourceID = cmd.SourceID
	entry.PostedBy = cmd.PostedBy

	if err := s.insertPosted(ctx, entry, cmd.Prefix, cmd.Reference); err != nil {
		return JournalEntry{}, s.countFailure(err)
	}

	s.countPosted(entry.SourceModule)
	s.recordAudit(ctx, cmd.PostedBy, "journal.post", entry.ID, map[string]any{
		"reference":     entry.Reference,
		"source_module": entry.SourceModule,
	})
	return *entry, nil
}

// SaveDraft creates or rewrites a draft. The line set is replaced
// wholesale; posted and void entries are immutable.
func (s *Service) SaveDraft(ctx context.Context, id int64, cmd PostingCommand) (JournalEntry, error) {
	entry, err := buildEntry(cmd)
	if err != nil {
		return JournalEntry{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if id == 0 {
			if err := tx.InsertEntry(ctx, entry); err != nil {
				return err
			}
			return tx.InsertLines(ctx, entry.ID, entry.Lines)
		}
		current, err := tx.GetEntryWithLines(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != JournalStatusDraft {
			return fmt.Errorf("%w: status %s", shared.ErrEntryNotDraft, current.Status)
		}
		entry.ID = current.ID
		entry.CreatedAt = current.CreatedAt
		if err := tx.UpdateEntryHeader(ctx, entry); err != nil {
			return err
		}
		if err := tx.DeleteLines(ctx, entry.ID); err != nil {
			return err
		}
		return tx.InsertLines(ctx, entry.ID, entry.Lines)
	})
	if err != nil {
		return JournalEntry{}, err
	}
	return *entry, nil
}

// PostDraft posts a previously saved draft, assigning its period and
// reference number at post time.
func (s *Service) PostDraft(ctx context.Context, id int64, prefix string, actorID int64) (JournalEntry, error) {
	if prefix == "" {
		prefix = PrefixManual
	}
	var posted JournalEntry
	err := s.withNumberRetry(func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			entry, err := tx.GetEntryWithLines(ctx, id)
			if err != nil {
				return err
			}
			if entry.Status == JournalStatusPosted {
				posted = entry
				return nil
			}
			if err := entry.Post(); err != nil {
				return err
			}
			period, err := s.periods.FindOpenPeriodByDate(ctx, entry.Date)
			if err != nil {
				return err
			}
			locked, err := tx.GetPeriodForUpdate(ctx, period.ID)
			if err != nil {
				return err
			}
			if err := ensurePostable(locked, entry.Date); err != nil {
				return err
			}
			entry.PeriodID = locked.ID
			entry.PostedBy = actorID
			seq, err := tx.NextSequence(ctx, prefix, MonthKey(entry.Date))
			if err != nil {
				return err
			}
			entry.Reference = FormatReference(prefix, entry.Date, seq)
			if err := tx.UpdateEntryHeader(ctx, &entry); err != nil {
				return err
			}
			posted = entry
			return nil
		})
	})
	if err != nil {
		return JournalEntry{}, s.countFailure(err)
	}
	s.countPosted(posted.SourceModule)
	s.recordAudit(ctx, actorID, "journal.post", posted.ID, map[string]any{"reference": posted.Reference})
	return posted, nil
}

// Void cancels a draft. Posted entries are immutable; undoing one takes
// a reversal entry.
func (s *Service) Void(ctx context.Context, id, actorID int64, reason string) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryWithLines(ctx, id)
		if err != nil {
			return err
		}
		if err := current.Void(); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, current.ID, JournalStatusVoid); err != nil {
			return err
		}
		entry = current
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.recordAudit(ctx, actorID, "journal.void", entry.ID, map[string]any{"reason": reason})
	return entry, nil
}

// Reverse posts a mirror-image entry against a posted original. When the
// original period no longer accepts postings, the reversal lands on the
// first day of the next open period.
func (s *Service) Reverse(ctx context.Context, id, actorID int64, memo string) (JournalEntry, error) {
	var reversal JournalEntry
	err := s.withNumberRetry(func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			original, err := tx.GetEntryWithLines(ctx, id)
			if err != nil {
				return err
			}
			if original.Status != JournalStatusPosted {
				return fmt.Errorf("%w: only posted entries can be reversed", shared.ErrEntryNotDraft)
			}
			period, err := tx.GetPeriodForUpdate(ctx, original.PeriodID)
			if err != nil {
				return err
			}
			targetPeriod := period
			targetDate := original.Date
			if !targetPeriod.AcceptsPostings() {
				next, err := tx.GetNextOpenPeriodAfter(ctx, period.EndDate.AddDate(0, 0, 1))
				if err != nil {
					return err
				}
				targetPeriod = next
				targetDate = next.StartDate
			}

			entry := NewEntry(targetDate, reversalMemo(memo, original.Reference), original.Currency)
			for _, line := range original.Lines {
				mirrored, err := NewLine(line.AccountID, line.Credit, line.Debit, line.Description)
				if err != nil {
					return err
				}
				if err := entry.AddLine(mirrored); err != nil {
					return err
				}
			}
			if err := entry.Post(); err != nil {
				return err
			}
			entry.PeriodID = targetPeriod.ID
			entry.SourceModule = "reversal"
			entry.SourceID = uuid.New()
			entry.PostedBy = actorID

			prefix := reversalPrefix(original.Reference)
			seq, err := tx.NextSequence(ctx, prefix, MonthKey(targetDate))
			if err != nil {
				return err
			}
			entry.Reference = FormatReference(prefix, targetDate, seq)
			if err := tx.InsertEntry(ctx, entry); err != nil {
				return err
			}
			if err := tx.InsertLines(ctx, entry.ID, entry.Lines); err != nil {
				return err
			}
			if err := tx.LinkSource(ctx, entry.SourceModule, entry.SourceID, entry.ID); err != nil {
				return err
			}
			reversal = *entry
			return nil
		})
	})
	if err != nil {
		return JournalEntry{}, s.countFailure(err)
	}
	s.countPosted("reversal")
	s.recordAudit(ctx, actorID, "journal.reverse", id, map[string]any{
		"reversal_id":        reversal.ID,
		"reversal_reference": reversal.Reference,
	})
	return reversal, nil
}

// insertPosted writes a posted entry inside one transaction, numbering
// it unless a fixed reference was supplied.
func (s *Service) insertPosted(ctx context.Context, entry *JournalEntry, prefix, fixedRef string) error {
	if prefix == "" {
		prefix = PrefixGeneral
	}
	return s.withNumberRetry(func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			locked, err := tx.GetPeriodForUpdate(ctx, entry.PeriodID)
			if err != nil {
				return err
			}
			if err := ensurePostable(locked, entry.Date); err != nil {
				return err
			}
			if fixedRef != "" {
				entry.Reference = fixedRef
			} else {
				seq, err := tx.NextSequence(ctx, prefix, MonthKey(entry.Date))
				if err != nil {
					return err
				}
				entry.Reference = FormatReference(prefix, entry.Date, seq)
			}
			if err := tx.InsertEntry(ctx, entry); err != nil {
				return err
			}
			if err := tx.InsertLines(ctx, entry.ID, entry.Lines); err != nil {
				return err
			}
			if entry.SourceModule != "" && entry.SourceID != uuid.Nil {
				if err := tx.LinkSource(ctx, entry.SourceModule, entry.SourceID, entry.ID); err != nil {
					if errors.Is(err, shared.ErrSourceConflict) {
						return shared.ErrSourceAlreadyLinked
					}
					return err
				}
			}
			return nil
		})
	})
}

// withNumberRetry reruns fn when the reference unique constraint trips.
// Each attempt is a fresh transaction; the aborted one never leaks rows.
func (s *Service) withNumberRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < numberRetries; attempt++ {
		err = fn()
		if !errors.Is(err, shared.ErrNumberConflict) {
			return err
		}
		if s.metrics != nil {
			s.metrics.SequenceRetries.Inc()
		}
	}
	return err
}

func buildEntry(cmd PostingCommand) (*JournalEntry, error) {
	entry := NewEntry(cmd.Date, cmd.Description, cmd.Currency)
	for _, lc := range cmd.Lines {
		var (
			line JournalLine
			err  error
		)
		switch lc.Side {
		case shared.SideDebit:
			line, err = DebitLine(lc.AccountID, lc.Amount, lc.Description)
		case shared.SideCredit:
			line, err = CreditLine(lc.AccountID, lc.Amount, lc.Description)
		default:
			return nil, fmt.Errorf("ledger: unknown side %q", lc.Side)
		}
		if err != nil {
			return nil, err
		}
		if err := entry.AddLine(line); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// ensurePostable re-checks the period under its row lock. The unlocked
// read that resolved the period may have raced a lock transition.
func ensurePostable(period periods.Period, date time.Time) error {
	switch period.Status {
	case periods.PeriodStatusOpen:
	case periods.PeriodStatusLocked:
		return shared.ErrPeriodLocked
	default:
		return shared.ErrPeriodArchived
	}
	if !period.ContainsDate(date) {
		return shared.ErrDateOutOfRange
	}
	return nil
}

func reversalMemo(memo, originalRef string) string {
	if memo != "" {
		return memo
	}
	return "Reversal of " + originalRef
}

// reversalPrefix keeps the reversal in the same numbering family as the
// original; fixed references like opening balances fall back to GL.
func reversalPrefix(originalRef string) string {
	prefix, _, _, err := ParseReference(originalRef)
	if err != nil {
		return PrefixGeneral
	}
	switch prefix {
	case PrefixGeneral, PrefixManual, PrefixDeferral, PrefixDepreciation:
		return prefix
	default:
		return PrefixGeneral
	}
}

func (s *Service) countPosted(source string) {
	if s.metrics == nil {
		return
	}
	if source == "" {
		source = "manual"
	}
	s.metrics.EntriesPosted.WithLabelValues(source).Inc()
}

func (s *Service) countFailure(err error) error {
	if s.metrics == nil {
		return err
	}
	var unbalanced *UnbalancedError
	reason := "error"
	switch {
	case errors.As(err, &unbalanced):
		reason = "unbalanced"
	case errors.Is(err, shared.ErrTooFewLines):
		reason = "empty"
	case errors.Is(err, shared.ErrNoOpenPeriod):
		reason = "no_open_period"
	case errors.Is(err, shared.ErrPeriodLocked):
		reason = "period_locked"
	case errors.Is(err, shared.ErrPeriodArchived):
		reason = "period_archived"
	case errors.Is(err, shared.ErrNumberConflict):
		reason = "number_conflict"
	case errors.Is(err, shared.ErrSourceAlreadyLinked):
		reason = "source_linked"
	case errors.Is(err, shared.ErrDateOutOfRange):
		reason = "date_out_of_range"
	}
	s.metrics.PostingFailures.WithLabelValues(reason).Inc()
	return err
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entryID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalshared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: fmt.Sprintf("%d", entryID),
		Meta:     meta,
		At:       s.now(),
	})
}
