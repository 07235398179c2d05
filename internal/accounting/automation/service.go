// Package automation posts journal entries from business events via
// configured posting rules. It is the write path for every upstream
// module that does not hand-craft journals.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/money"
	"github.com/meridian-erp/meridian-erp/internal/accounting/rules"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// eventNamespace seeds deterministic source ids so a redelivered event
// maps to the same journal entry.
var eventNamespace = uuid.MustParse("9f2e7d34-5a1b-4c8e-bb6f-2d9c0a817e43")

// Event is one business fact offered for posting.
type Event struct {
	Type        string
	Reference   string
	Description string
	Date        time.Time
	Currency    string
	Payload     map[string]any
}

// RulePort is the subset of the rules repository the automation needs.
type RulePort interface {
	FindActiveByEventType(ctx context.Context, eventType string) (rules.PostingRule, error)
}

// PostingPort posts the assembled command.
type PostingPort interface {
	CreateAndPost(ctx context.Context, cmd journals.PostingCommand) (journals.JournalEntry, error)
}

type Service struct {
	rules    RulePort
	journals PostingPort
	logger   *slog.Logger
	currency string
}

// NewService builds the automation. currency is the book currency used
// when an event does not name one.
func NewService(rulePort RulePort, postingPort PostingPort, logger *slog.Logger, currency string) *Service {
	return &Service{rules: rulePort, journals: postingPort, logger: logger, currency: currency}
}

// Handle posts the event through its rule. Events without an active rule
// and events whose rule resolves to no positive amounts are silent
// no-ops: upstream modules emit events unconditionally and the rule set
// decides what reaches the ledger. Redelivered events are absorbed by
// the source link.
func (s *Service) Handle(ctx context.Context, event Event) (journals.JournalEntry, bool, error) {
	rule, err := s.rules.FindActiveByEventType(ctx, event.Type)
	if err != nil {
		if errors.Is(err, shared.ErrRuleNotFound) {
			s.logger.Debug("no posting rule for event", "event_type", event.Type)
			return journals.JournalEntry{}, false, nil
		}
		return journals.JournalEntry{}, false, err
	}

	cmd, err := s.buildCommand(rule, event)
	if err != nil {
		return journals.JournalEntry{}, false, err
	}
	if len(cmd.Lines) == 0 {
		s.logger.Debug("event resolved to no postable lines", "event_type", event.Type, "reference", event.Reference)
		return journals.JournalEntry{}, false, nil
	}

	entry, err := s.journals.CreateAndPost(ctx, cmd)
	if err != nil {
		if errors.Is(err, shared.ErrSourceAlreadyLinked) {
			s.logger.Info("event already posted", "event_type", event.Type, "reference", event.Reference)
			return journals.JournalEntry{}, false, nil
		}
		return journals.JournalEntry{}, false, fmt.Errorf("automation: post %s %s: %w", event.Type, event.Reference, err)
	}

	s.logger.Info("event posted",
		"event_type", event.Type,
		"reference", event.Reference,
		"journal_reference", entry.Reference,
	)
	return entry, true, nil
}

func (s *Service) buildCommand(rule rules.PostingRule, event Event) (journals.PostingCommand, error) {
	currency := event.Currency
	if currency == "" {
		currency = s.currency
	}
	date := event.Date
	if date.IsZero() {
		date = time.Now()
	}
	description := event.Description
	if description == "" {
		description = rule.Description
	}

	cmd := journals.PostingCommand{
		Date:         date,
		Description:  rules.Substitute(description, event.Payload),
		Currency:     currency,
		SourceModule: sourceModule(rule),
		SourceID:     SourceID(event.Type, event.Reference),
	}
	for _, line := range rule.Lines {
		amount := rules.Amount(event.Payload, line.AmountKey)
		// zero and negative amounts drop the line, not the entry
		if !amount.IsPositive() {
			continue
		}
		lineAmount, err := money.New(amount, currency)
		if err != nil {
			return journals.PostingCommand{}, err
		}
		// a rule line without its own template inherits the event description
		lineDescription := line.DescriptionTemplate
		if lineDescription == "" {
			lineDescription = event.Description
		}
		cmd.Lines = append(cmd.Lines, journals.LineCommand{
			AccountID:   line.AccountID,
			Side:        line.Side,
			Amount:      lineAmount,
			Description: rules.Substitute(lineDescription, event.Payload),
		})
	}
	return cmd, nil
}

// SourceID derives the deterministic source id of an event. The same
// event type and reference always map to one id, making redelivery
// idempotent end to end.
func SourceID(eventType, reference string) uuid.UUID {
	return uuid.NewSHA1(eventNamespace, []byte(eventType+"|"+reference))
}

func sourceModule(rule rules.PostingRule) string {
	if rule.Module != "" {
		return rule.Module
	}
	return "automation"
}
