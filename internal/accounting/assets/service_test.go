package assets

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/money"
	internalshared "github.com/meridian-erp/meridian-erp/internal/shared"
)

type mockAssetRepo struct {
	assets  map[int64]FixedAsset
	records map[string]DepreciationRecord
	nextID  int64
}

func newMockAssetRepo() *mockAssetRepo {
	return &mockAssetRepo{assets: map[int64]FixedAsset{}, records: map[string]DepreciationRecord{}}
}

func (m *mockAssetRepo) ListActive(ctx context.Context) ([]FixedAsset, error) {
	var out []FixedAsset
	for _, asset := range m.assets {
		if asset.IsActive {
			out = append(out, asset)
		}
	}
	return out, nil
}

func (m *mockAssetRepo) Get(ctx context.Context, id int64) (FixedAsset, error) {
	asset, ok := m.assets[id]
	if !ok {
		return FixedAsset{}, ErrAssetNotFound
	}
	return asset, nil
}

func (m *mockAssetRepo) Create(ctx context.Context, asset FixedAsset) (FixedAsset, error) {
	if err := asset.Validate(); err != nil {
		return FixedAsset{}, err
	}
	m.nextID++
	asset.ID = m.nextID
	m.assets[asset.ID] = asset
	return asset, nil
}

func (m *mockAssetRepo) UpdateBookValue(ctx context.Context, id int64, bookValue money.Money) error {
	asset, ok := m.assets[id]
	if !ok {
		return ErrAssetNotFound
	}
	asset.BookValue = bookValue
	m.assets[id] = asset
	return nil
}

func (m *mockAssetRepo) HasRecord(ctx context.Context, assetID int64, monthKey string) (bool, error) {
	_, ok := m.records[recordKey(assetID, monthKey)]
	return ok, nil
}

func (m *mockAssetRepo) SaveRecord(ctx context.Context, record DepreciationRecord) (DepreciationRecord, error) {
	m.records[recordKey(record.AssetID, record.MonthKey)] = record
	return record, nil
}

func recordKey(assetID int64, monthKey string) string {
	return monthKey + "|" + strconv.FormatInt(assetID, 10)
}

type capturePoster struct {
	commands []journals.PostingCommand
}

func (p *capturePoster) CreateAndPost(ctx context.Context, cmd journals.PostingCommand) (journals.JournalEntry, error) {
	p.commands = append(p.commands, cmd)
	return journals.JournalEntry{ID: int64(len(p.commands)), Status: journals.JournalStatusPosted}, nil
}

type stubLease struct{ err error }

func (l stubLease) Acquire(ctx context.Context) error { return l.err }
func (l stubLease) Release(ctx context.Context) error { return nil }

func usd(t *testing.T, value string) money.Money {
	t.Helper()
	m, err := money.FromString(value, "USD")
	require.NoError(t, err)
	return m
}

func laptop(t *testing.T) FixedAsset {
	return FixedAsset{
		Name:                 "Laptop fleet",
		ExpenseAccountID:     5401,
		AccumulatedAccountID: 1291,
		Cost:                 usd(t, "12000.00"),
		Salvage:              usd(t, "0.00"),
		BookValue:            usd(t, "12000.00"),
		UsefulYears:          1,
		AcquiredAt:           time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		IsActive:             true,
	}
}

func newService(repo Repository, poster PostingPort, lease LeasePort) *Service {
	var factory LeaseFactory
	if lease != nil {
		factory = func(string) LeasePort { return lease }
	}
	return NewService(repo, poster, factory, slog.New(slog.NewTextHandler(io.Discard, nil)), "USD")
}

func TestMonthlyAmountStraightLine(t *testing.T) {
	asset := laptop(t)
	amount, err := asset.MonthlyAmount()
	require.NoError(t, err)
	assert.Equal(t, "1000.00", amount.Amount().StringFixed(2))
}

func TestMonthlyAmountClampsAtSalvage(t *testing.T) {
	asset := laptop(t)
	asset.Salvage = usd(t, "2000.00")
	asset.BookValue = usd(t, "2500.00")

	amount, err := asset.MonthlyAmount()
	require.NoError(t, err)
	// only 500 of headroom remains above salvage
	assert.Equal(t, "500.00", amount.Amount().StringFixed(2))

	asset.BookValue = usd(t, "2000.00")
	amount, err = asset.MonthlyAmount()
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
}

func TestRunMonthlyPostsAndUpdatesBookValue(t *testing.T) {
	repo := newMockAssetRepo()
	asset, err := repo.Create(context.Background(), laptop(t))
	require.NoError(t, err)
	poster := &capturePoster{}
	svc := newService(repo, poster, nil)

	result, err := svc.RunMonthly(context.Background(), time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Posted)

	require.Len(t, poster.commands, 1)
	cmd := poster.commands[0]
	assert.Equal(t, journals.PrefixDepreciation, cmd.Prefix)
	require.Len(t, cmd.Lines, 2)
	assert.Equal(t, asset.ExpenseAccountID, cmd.Lines[0].AccountID)
	assert.Equal(t, asset.AccumulatedAccountID, cmd.Lines[1].AccountID)
	assert.Equal(t, "1000.00", cmd.Lines[0].Amount.Amount().StringFixed(2))

	updated, err := repo.Get(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "11000.00", updated.BookValue.Amount().StringFixed(2))
}

func TestRunMonthlyIsIdempotentPerMonth(t *testing.T) {
	repo := newMockAssetRepo()
	_, err := repo.Create(context.Background(), laptop(t))
	require.NoError(t, err)
	poster := &capturePoster{}
	svc := newService(repo, poster, nil)

	march := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	_, err = svc.RunMonthly(context.Background(), march)
	require.NoError(t, err)
	result, err := svc.RunMonthly(context.Background(), march)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Posted)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, poster.commands, 1)
}

func TestTwelveMonthsExhaustAsset(t *testing.T) {
	repo := newMockAssetRepo()
	asset, err := repo.Create(context.Background(), laptop(t))
	require.NoError(t, err)
	poster := &capturePoster{}
	svc := newService(repo, poster, nil)

	for month := 1; month <= 14; month++ {
		asOf := time.Date(2026, time.Month(month), 28, 0, 0, 0, 0, time.UTC)
		_, err := svc.RunMonthly(context.Background(), asOf)
		require.NoError(t, err)
	}

	// 12 charges of 1000, months 13 and 14 skip the exhausted asset
	assert.Len(t, poster.commands, 12)
	final, err := repo.Get(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.True(t, final.BookValue.IsZero())
	assert.True(t, final.FullyDepreciated())
}

func TestRunMonthlySkipsWhenLeaseHeld(t *testing.T) {
	repo := newMockAssetRepo()
	_, err := repo.Create(context.Background(), laptop(t))
	require.NoError(t, err)
	poster := &capturePoster{}
	svc := newService(repo, poster, stubLease{err: internalshared.ErrLockHeld})

	result, err := svc.RunMonthly(context.Background(), time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Posted)
	assert.Empty(t, poster.commands)
}

func TestRunMonthlySkipsFutureAcquisitions(t *testing.T) {
	repo := newMockAssetRepo()
	future := laptop(t)
	future.AcquiredAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := repo.Create(context.Background(), future)
	require.NoError(t, err)
	poster := &capturePoster{}
	svc := newService(repo, poster, nil)

	result, err := svc.RunMonthly(context.Background(), time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Posted)
	assert.Equal(t, 1, result.Skipped)
}
