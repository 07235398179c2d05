package journals

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/money"
)

// JournalStatus enumerates the entry lifecycle.
type JournalStatus string

const (
	JournalStatusDraft  JournalStatus = "DRAFT"
	JournalStatusPosted JournalStatus = "POSTED"
	JournalStatusVoid   JournalStatus = "VOID"
)

var (
	// ErrBothSides indicates a line constructed with debit and credit set.
	ErrBothSides = errors.New("ledger: line cannot carry both debit and credit")
	// ErrNoAmount indicates a line constructed with neither side set.
	ErrNoAmount = errors.New("ledger: line must carry a debit or a credit")
	// ErrNegativeAmount indicates a negative line amount.
	ErrNegativeAmount = errors.New("ledger: line amount must be positive")
	// ErrLineCurrency indicates a line whose sides disagree on currency.
	ErrLineCurrency = errors.New("ledger: line sides must share one currency")
)

// JournalLine is one debit-or-credit posting against a single account.
// Lines are immutable once constructed; the entry mutates by replacing its
// line collection, never a line in place.
type JournalLine struct {
	ID          int64
	EntryID     int64
	AccountID   int64
	Debit       money.Money
	Credit      money.Money
	Description string
}

// NewLine validates the debit/credit exclusivity invariant: exactly one
// side is non-zero, and both sides share the same currency.
func NewLine(accountID int64, debit, credit money.Money, description string) (JournalLine, error) {
	if accountID == 0 {
		return JournalLine{}, errors.New("ledger: line requires an account")
	}
	if debit.Currency() != credit.Currency() {
		return JournalLine{}, fmt.Errorf("%w: %s vs %s", ErrLineCurrency, debit.Currency(), credit.Currency())
	}
	if debit.IsNegative() || credit.IsNegative() {
		return JournalLine{}, ErrNegativeAmount
	}
	if !debit.IsZero() && !credit.IsZero() {
		return JournalLine{}, ErrBothSides
	}
	if debit.IsZero() && credit.IsZero() {
		return JournalLine{}, ErrNoAmount
	}
	return JournalLine{AccountID: accountID, Debit: debit, Credit: credit, Description: description}, nil
}

// DebitLine builds a debit posting; the credit side is zero in the same
// currency.
func DebitLine(accountID int64, amount money.Money, description string) (JournalLine, error) {
	return NewLine(accountID, amount, money.Zero(amount.Currency()), description)
}

// CreditLine builds a credit posting; the debit side is zero in the same
// currency.
func CreditLine(accountID int64, amount money.Money, description string) (JournalLine, error) {
	return NewLine(accountID, money.Zero(amount.Currency()), amount, description)
}

// Currency returns the currency both sides of the line share.
func (l JournalLine) Currency() string { return l.Debit.Currency() }

// JournalEntry is the aggregate root of the ledger. Post is the single
// gate where the balance invariant is enforced; no write path may bypass
// it.
type JournalEntry struct {
	ID           int64
	Reference    string
	Date         time.Time
	Description  string
	Currency     string
	Status       JournalStatus
	PeriodID     int64
	SourceModule string
	SourceID     uuid.UUID
	PostedBy     int64
	PostedAt     time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Lines        []JournalLine
}

// UnbalancedError reports both totals so a human can diagnose the
// mismatch without re-deriving it.
type UnbalancedError struct {
	TotalDebit  money.Money
	TotalCredit money.Money
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("ledger: journal does not balance (total debit: %s, total credit: %s)",
		e.TotalDebit.Format(), e.TotalCredit.Format())
}
