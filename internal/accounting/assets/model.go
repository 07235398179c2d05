// Package assets manages fixed assets and their straight-line monthly
// depreciation postings.
package assets

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounting/money"
)

var (
	// ErrNoUsefulLife rejects an asset without a depreciation horizon.
	ErrNoUsefulLife = errors.New("ledger: asset requires a useful life in years")
	// ErrSalvageExceedsCost rejects a salvage value above cost.
	ErrSalvageExceedsCost = errors.New("ledger: salvage value cannot exceed cost")
	// ErrAssetNotFound indicates an unknown asset id.
	ErrAssetNotFound = errors.New("ledger: fixed asset not found")
)

// FixedAsset is one depreciable asset with its posting accounts. The
// expense account takes the monthly debit, the accumulated account the
// matching credit.
type FixedAsset struct {
	ID                   int64
	Name                 string
	ExpenseAccountID     int64
	AccumulatedAccountID int64
	Cost                 money.Money
	Salvage              money.Money
	BookValue            money.Money
	UsefulYears          int
	AcquiredAt           time.Time
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DepreciationRecord is one month's posted depreciation for one asset.
// Its (asset, month) pair is unique, making reruns idempotent.
type DepreciationRecord struct {
	ID             int64
	AssetID        int64
	MonthKey       string
	Amount         money.Money
	JournalEntryID int64
	CreatedAt      time.Time
}

// Validate checks the asset before it is registered.
func (a FixedAsset) Validate() error {
	if a.UsefulYears <= 0 {
		return ErrNoUsefulLife
	}
	cmp := a.Salvage.Amount().Cmp(a.Cost.Amount())
	if cmp > 0 {
		return ErrSalvageExceedsCost
	}
	if a.ExpenseAccountID == 0 || a.AccumulatedAccountID == 0 {
		return errors.New("ledger: asset requires expense and accumulated accounts")
	}
	return nil
}

// MonthlyAmount is the straight-line charge for one month, clamped so
// the book value never sinks below salvage. The final month absorbs the
// rounding remainder.
func (a FixedAsset) MonthlyAmount() (money.Money, error) {
	months := decimal.NewFromInt(int64(a.UsefulYears) * 12)
	base, err := a.Cost.Subtract(a.Salvage)
	if err != nil {
		return money.Money{}, err
	}
	monthly, err := base.Divide(months)
	if err != nil {
		return money.Money{}, err
	}
	remaining, err := a.BookValue.Subtract(a.Salvage)
	if err != nil {
		return money.Money{}, err
	}
	if remaining.IsNegative() || remaining.IsZero() {
		return money.Zero(a.Cost.Currency()), nil
	}
	if monthly.Amount().GreaterThan(remaining.Amount()) {
		return remaining, nil
	}
	return monthly, nil
}

// FullyDepreciated reports whether the book value has reached salvage.
func (a FixedAsset) FullyDepreciated() bool {
	return a.BookValue.Amount().LessThanOrEqual(a.Salvage.Amount())
}
