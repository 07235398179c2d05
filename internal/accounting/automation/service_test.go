package automation

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/rules"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

type stubRules struct {
	rule rules.PostingRule
	err  error
}

func (s stubRules) FindActiveByEventType(ctx context.Context, eventType string) (rules.PostingRule, error) {
	if s.err != nil {
		return rules.PostingRule{}, s.err
	}
	return s.rule, nil
}

type capturePoster struct {
	commands []journals.PostingCommand
	err      error
}

func (p *capturePoster) CreateAndPost(ctx context.Context, cmd journals.PostingCommand) (journals.JournalEntry, error) {
	p.commands = append(p.commands, cmd)
	if p.err != nil {
		return journals.JournalEntry{}, p.err
	}
	return journals.JournalEntry{ID: int64(len(p.commands)), Reference: "GL-202603-0001", Status: journals.JournalStatusPosted}, nil
}

func salesRule() rules.PostingRule {
	return rules.PostingRule{
		ID:        1,
		EventType: "sales.invoice.created",
		Module:    "invoicing",
		IsActive:  true,
		Lines: []rules.PostingRuleLine{
			{AccountID: 1101, Side: shared.SideDebit, AmountKey: "total", DescriptionTemplate: "AR {invoice_number}"},
			{AccountID: 4101, Side: shared.SideCredit, AmountKey: "amounts.net", DescriptionTemplate: "Revenue {invoice_number}"},
			{AccountID: 2301, Side: shared.SideCredit, AmountKey: "amounts.tax", DescriptionTemplate: "VAT {invoice_number}"},
		},
	}
}

func invoiceEvent() Event {
	return Event{
		Type:        "sales.invoice.created",
		Reference:   "INV-1042",
		Description: "Invoice {invoice_number}",
		Date:        time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Currency:    "USD",
		Payload: map[string]any{
			"invoice_number": "INV-1042",
			"total":          118.0,
			"amounts":        map[string]any{"net": 100.0, "tax": 18.0},
		},
	}
}

func newService(rulePort RulePort, poster PostingPort) *Service {
	return NewService(rulePort, poster, slog.New(slog.NewTextHandler(io.Discard, nil)), "USD")
}

func TestHandlePostsThreeLineInvoice(t *testing.T) {
	poster := &capturePoster{}
	svc := newService(stubRules{rule: salesRule()}, poster)

	entry, posted, err := svc.Handle(context.Background(), invoiceEvent())
	require.NoError(t, err)
	assert.True(t, posted)
	assert.Equal(t, "GL-202603-0001", entry.Reference)

	require.Len(t, poster.commands, 1)
	cmd := poster.commands[0]
	assert.Equal(t, "Invoice INV-1042", cmd.Description)
	assert.Equal(t, "invoicing", cmd.SourceModule)
	require.Len(t, cmd.Lines, 3)
	assert.Equal(t, "118.00", cmd.Lines[0].Amount.Amount().StringFixed(2))
	assert.Equal(t, shared.SideDebit, cmd.Lines[0].Side)
	assert.Equal(t, "AR INV-1042", cmd.Lines[0].Description)
	assert.Equal(t, "18.00", cmd.Lines[2].Amount.Amount().StringFixed(2))
}

func TestHandleLineWithoutTemplateUsesEventDescription(t *testing.T) {
	poster := &capturePoster{}
	rule := salesRule()
	rule.Lines[1].DescriptionTemplate = ""
	svc := newService(stubRules{rule: rule}, poster)

	_, posted, err := svc.Handle(context.Background(), invoiceEvent())
	require.NoError(t, err)
	assert.True(t, posted)

	require.Len(t, poster.commands, 1)
	lines := poster.commands[0].Lines
	require.Len(t, lines, 3)
	assert.Equal(t, "AR INV-1042", lines[0].Description)
	assert.Equal(t, "Invoice INV-1042", lines[1].Description)
}

func TestHandleDropsZeroAmountLines(t *testing.T) {
	poster := &capturePoster{}
	svc := newService(stubRules{rule: salesRule()}, poster)

	event := invoiceEvent()
	event.Payload["total"] = 100.0
	event.Payload["amounts"] = map[string]any{"net": 100.0, "tax": 0.0}

	_, posted, err := svc.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, posted)
	require.Len(t, poster.commands, 1)
	assert.Len(t, poster.commands[0].Lines, 2)
}

func TestHandleNoRuleIsNoOp(t *testing.T) {
	poster := &capturePoster{}
	svc := newService(stubRules{err: shared.ErrRuleNotFound}, poster)

	_, posted, err := svc.Handle(context.Background(), invoiceEvent())
	require.NoError(t, err)
	assert.False(t, posted)
	assert.Empty(t, poster.commands)
}

func TestHandleAllZeroAmountsIsNoOp(t *testing.T) {
	poster := &capturePoster{}
	svc := newService(stubRules{rule: salesRule()}, poster)

	event := invoiceEvent()
	event.Payload = map[string]any{"invoice_number": "INV-0000"}

	_, posted, err := svc.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, posted)
	assert.Empty(t, poster.commands)
}

func TestHandleRedeliveryIsNoOp(t *testing.T) {
	poster := &capturePoster{err: shared.ErrSourceAlreadyLinked}
	svc := newService(stubRules{rule: salesRule()}, poster)

	_, posted, err := svc.Handle(context.Background(), invoiceEvent())
	require.NoError(t, err)
	assert.False(t, posted)
}

func TestSourceIDDeterministic(t *testing.T) {
	a := SourceID("sales.invoice.created", "INV-1042")
	b := SourceID("sales.invoice.created", "INV-1042")
	c := SourceID("sales.invoice.created", "INV-1043")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
