package journals

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/money"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// NewEntry starts a draft entry in the given currency.
func NewEntry(date time.Time, description, currency string) *JournalEntry {
	return &JournalEntry{
		Date:        date,
		Description: description,
		Currency:    currency,
		Status:      JournalStatusDraft,
	}
}

// AddLine appends a line to a draft entry. The line's currency must match
// the entry currency. Order is preserved; it matters for display only.
func (e *JournalEntry) AddLine(line JournalLine) error {
	if e.Status != JournalStatusDraft {
		return fmt.Errorf("%w: status %s", shared.ErrEntryNotDraft, e.Status)
	}
	if line.Currency() != e.Currency {
		return fmt.Errorf("%w: entry %s, line %s", money.ErrCurrencyMismatch, e.Currency, line.Currency())
	}
	e.Lines = append(e.Lines, line)
	return nil
}

// TotalDebit sums the debit side of every line.
func (e *JournalEntry) TotalDebit() (money.Money, error) {
	return e.total(func(l JournalLine) money.Money { return l.Debit })
}

// TotalCredit sums the credit side of every line.
func (e *JournalEntry) TotalCredit() (money.Money, error) {
	return e.total(func(l JournalLine) money.Money { return l.Credit })
}

func (e *JournalEntry) total(side func(JournalLine) money.Money) (money.Money, error) {
	sum := money.Zero(e.Currency)
	for _, line := range e.Lines {
		var err error
		sum, err = sum.Add(side(line))
		if err != nil {
			return money.Money{}, err
		}
	}
	return sum, nil
}

// Post validates the balance invariant and flips the entry to POSTED.
// Posting an already-posted entry is a no-op. This is the only place in
// the system where the accounting law is enforced; every entry point must
// route through it.
func (e *JournalEntry) Post() error {
	if e.Status == JournalStatusPosted {
		return nil
	}
	if e.Status == JournalStatusVoid {
		return fmt.Errorf("%w: status %s", shared.ErrEntryNotDraft, e.Status)
	}
	if len(e.Lines) == 0 {
		return shared.ErrTooFewLines
	}
	debit, err := e.TotalDebit()
	if err != nil {
		return err
	}
	credit, err := e.TotalCredit()
	if err != nil {
		return err
	}
	equal, err := debit.Equals(credit)
	if err != nil {
		return err
	}
	if !equal {
		return &UnbalancedError{TotalDebit: debit, TotalCredit: credit}
	}
	e.Status = JournalStatusPosted
	return nil
}

// Void cancels a draft entry. Posted entries cannot be voided; a reversal
// entry is the only way to undo them.
func (e *JournalEntry) Void() error {
	switch e.Status {
	case JournalStatusDraft:
		e.Status = JournalStatusVoid
		return nil
	case JournalStatusPosted:
		return shared.ErrEntryPosted
	default:
		return fmt.Errorf("%w: status %s", shared.ErrEntryNotDraft, e.Status)
	}
}
