// Package rules maps business events to journal postings. A rule is
// configuration, not code: finance staff bind event types to account
// lines without a deploy.
package rules

import (
	"errors"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

var (
	// ErrNoEventType indicates a rule without an event binding.
	ErrNoEventType = errors.New("ledger: rule requires an event type")
	// ErrNoLines indicates a rule with an empty line template.
	ErrNoLines = errors.New("ledger: rule requires at least one line")
	// ErrBadSide indicates a rule line with an unknown posting side.
	ErrBadSide = errors.New("ledger: rule line side must be DEBIT or CREDIT")
	// ErrNoAmountKey indicates a rule line without an amount source.
	ErrNoAmountKey = errors.New("ledger: rule line requires an amount key")
)

// PostingRule binds one event type to a set of line templates. At most
// one active rule exists per event type.
type PostingRule struct {
	ID          int64
	EventType   string
	Description string
	Module      string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []PostingRuleLine
}

// PostingRuleLine is one line template. AmountKey is a dot path into the
// event payload; DescriptionTemplate may carry {key} placeholders
// substituted from the payload.
type PostingRuleLine struct {
	ID                  int64
	RuleID              int64
	AccountID           int64
	Side                shared.Side
	AmountKey           string
	DescriptionTemplate string
	Position            int
}

// Validate checks the rule is well formed before it is saved.
func (r PostingRule) Validate() error {
	if r.EventType == "" {
		return ErrNoEventType
	}
	if len(r.Lines) == 0 {
		return ErrNoLines
	}
	for _, line := range r.Lines {
		if !line.Side.Valid() {
			return ErrBadSide
		}
		if line.AmountKey == "" {
			return ErrNoAmountKey
		}
		if line.AccountID == 0 {
			return errors.New("ledger: rule line requires an account")
		}
	}
	return nil
}
