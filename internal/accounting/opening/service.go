// Package opening seeds a new fiscal year with its beginning balances.
package opening

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/automation"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/money"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// Balance is one account's opening position. Exactly one side carries
// the amount, mirroring a journal line.
type Balance struct {
	AccountID int64
	Side      shared.Side
	Amount    money.Money
}

// Command seeds the balances of one fiscal year.
type Command struct {
	Year     int
	Date     time.Time
	Currency string
	ActorID  int64
	Balances []Balance
}

type PostingPort interface {
	CreateAndPost(ctx context.Context, cmd journals.PostingCommand) (journals.JournalEntry, error)
}

type Service struct {
	journals PostingPort
	logger   *slog.Logger
}

func NewService(postingPort PostingPort, logger *slog.Logger) *Service {
	return &Service{journals: postingPort, logger: logger}
}

// Post writes the beginning-balance entry for the year. Each balance
// becomes exactly one line, so the entry is an audit-friendly snapshot
// of the books at migration time. Balances that do not net to zero fail
// the posting outright: an opening imbalance is a data defect to fix at
// the source, never to plug with a generated equity line.
func (s *Service) Post(ctx context.Context, cmd Command) (journals.JournalEntry, error) {
	if len(cmd.Balances) == 0 {
		return journals.JournalEntry{}, shared.ErrTooFewLines
	}
	date := cmd.Date
	if date.IsZero() {
		date = time.Date(cmd.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	posting := journals.PostingCommand{
		Date:         date,
		Description:  fmt.Sprintf("Beginning balances %d", cmd.Year),
		Currency:     cmd.Currency,
		Reference:    journals.OpeningReference(cmd.Year),
		SourceModule: "opening",
		SourceID:     automation.SourceID("opening.balances", journals.OpeningReference(cmd.Year)),
		PostedBy:     cmd.ActorID,
	}
	for _, balance := range cmd.Balances {
		posting.Lines = append(posting.Lines, journals.LineCommand{
			AccountID:   balance.AccountID,
			Side:        balance.Side,
			Amount:      balance.Amount,
			Description: "Opening balance",
		})
	}

	entry, err := s.journals.CreateAndPost(ctx, posting)
	if err != nil {
		return journals.JournalEntry{}, fmt.Errorf("opening: year %d: %w", cmd.Year, err)
	}
	s.logger.Info("beginning balances posted",
		"year", cmd.Year,
		"reference", entry.Reference,
		"lines", len(entry.Lines),
	)
	return entry, nil
}
