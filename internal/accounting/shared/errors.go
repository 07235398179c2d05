package shared

import "errors"

var (
	// ErrUnbalanced indicates total debit != total credit.
	ErrUnbalanced = errors.New("ledger: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: journal requires at least two lines")
	// ErrNoOpenPeriod indicates no open period covers the posting date.
	ErrNoOpenPeriod = errors.New("ledger: no open period for date")
	// ErrPeriodLocked indicates the target period is locked.
	ErrPeriodLocked = errors.New("ledger: period locked")
	// ErrPeriodArchived indicates the target period is archived.
	ErrPeriodArchived = errors.New("ledger: period archived")
	// ErrInvalidTransition indicates an illegal period status change.
	ErrInvalidTransition = errors.New("ledger: invalid period transition")
	// ErrDateOutOfRange indicates the entry date falls outside its period.
	ErrDateOutOfRange = errors.New("ledger: date outside period")
	// ErrJournalNotFound indicates a missing entry.
	ErrJournalNotFound = errors.New("ledger: journal entry not found")
	// ErrAccountNotFound indicates a missing chart of accounts row.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrRuleNotFound indicates no active posting rule for an event type.
	ErrRuleNotFound = errors.New("ledger: posting rule not found")
	// ErrEntryNotDraft indicates a mutation attempted on a posted or void entry.
	ErrEntryNotDraft = errors.New("ledger: entry is not draft")
	// ErrEntryPosted indicates an action that is illegal once posted.
	ErrEntryPosted = errors.New("ledger: cannot void a posted entry, use reversal")
	// ErrNumberConflict indicates a duplicate reference number write.
	ErrNumberConflict = errors.New("ledger: reference number conflict")
	// ErrSourceConflict indicates the source link already exists.
	ErrSourceConflict = errors.New("ledger: source link conflict")
	// ErrSourceAlreadyLinked indicates idempotency conflict on a business event.
	ErrSourceAlreadyLinked = errors.New("ledger: source already linked")
)
