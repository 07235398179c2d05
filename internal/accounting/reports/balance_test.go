package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

type stubSums struct {
	debit  string
	credit string
	calls  int
	ranges []Range
}

func (s *stubSums) SumPostedLines(ctx context.Context, accountID int64, period Range) (string, string, error) {
	s.calls++
	s.ranges = append(s.ranges, period)
	return s.debit, s.credit, nil
}

type stubAccounts struct {
	account accounts.Account
	err     error
}

func (s stubAccounts) Get(ctx context.Context, id int64) (accounts.Account, error) {
	if s.err != nil {
		return accounts.Account{}, s.err
	}
	return s.account, nil
}

func cashAccount() accounts.Account {
	return accounts.Account{ID: 1, Code: "1101", Name: "Cash", Type: accounts.AccountTypeAsset}
}

func payableAccount() accounts.Account {
	return accounts.Account{ID: 2, Code: "2101", Name: "Accounts Payable", Type: accounts.AccountTypeLiability}
}

func asOf() time.Time {
	return time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
}

func TestAssetBalanceIsDebitNormal(t *testing.T) {
	svc := NewService(&stubSums{debit: "1500.00", credit: "500.00"}, stubAccounts{account: cashAccount()}, "USD")

	balance, err := svc.GetAccountBalance(context.Background(), 1, Range{To: asOf()})
	require.NoError(t, err)
	assert.Equal(t, shared.SideDebit, balance.Side)
	assert.Equal(t, "1,000.00", balance.Amount.Format())
	assert.False(t, balance.Negative)
}

func TestLiabilityBalanceIsCreditNormal(t *testing.T) {
	svc := NewService(&stubSums{debit: "200.00", credit: "900.00"}, stubAccounts{account: payableAccount()}, "USD")

	balance, err := svc.GetAccountBalance(context.Background(), 2, Range{To: asOf()})
	require.NoError(t, err)
	assert.Equal(t, shared.SideCredit, balance.Side)
	assert.Equal(t, "700.00", balance.Amount.Format())
	assert.False(t, balance.Negative)
}

func TestContraBalanceReadsNegative(t *testing.T) {
	// overdrawn cash: credits exceed debits on a debit-normal account
	svc := NewService(&stubSums{debit: "100.00", credit: "350.00"}, stubAccounts{account: cashAccount()}, "USD")

	balance, err := svc.GetAccountBalance(context.Background(), 1, Range{To: asOf()})
	require.NoError(t, err)
	assert.Equal(t, "250.00", balance.Amount.Format())
	assert.True(t, balance.Negative)
}

func TestRangeBoundsReachTheQuery(t *testing.T) {
	sums := &stubSums{debit: "300.00", credit: "100.00"}
	svc := NewService(sums, stubAccounts{account: cashAccount()}, "USD")

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	balance, err := svc.GetAccountBalance(context.Background(), 1, Range{From: from, To: asOf()})
	require.NoError(t, err)
	assert.Equal(t, from, balance.From)
	assert.Equal(t, asOf(), balance.AsOf)

	require.Len(t, sums.ranges, 1)
	assert.Equal(t, from, sums.ranges[0].From)
	assert.Equal(t, asOf(), sums.ranges[0].To)
}

func TestUnknownAccount(t *testing.T) {
	svc := NewService(&stubSums{}, stubAccounts{err: shared.ErrAccountNotFound}, "USD")

	_, err := svc.GetAccountBalance(context.Background(), 99, Range{To: asOf()})
	assert.ErrorIs(t, err, shared.ErrAccountNotFound)
}
