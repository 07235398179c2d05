package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/automation"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	internalshared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// LeasePort guards one month's run against concurrent workers.
type LeasePort interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

type LeaseFactory func(monthKey string) LeasePort

type PostingPort interface {
	CreateAndPost(ctx context.Context, cmd journals.PostingCommand) (journals.JournalEntry, error)
}

type Service struct {
	repo     Repository
	journals PostingPort
	lease    LeaseFactory
	logger   *slog.Logger
	currency string
}

func NewService(repo Repository, postingPort PostingPort, lease LeaseFactory, logger *slog.Logger, currency string) *Service {
	return &Service{repo: repo, journals: postingPort, lease: lease, logger: logger, currency: currency}
}

func (s *Service) Register(ctx context.Context, asset FixedAsset) (FixedAsset, error) {
	if asset.BookValue.IsZero() {
		asset.BookValue = asset.Cost
	}
	asset.IsActive = true
	return s.repo.Create(ctx, asset)
}

func (s *Service) List(ctx context.Context) ([]FixedAsset, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (FixedAsset, error) {
	return s.repo.Get(ctx, id)
}

// Currency is the ledger currency assets are carried in.
func (s *Service) Currency() string { return s.currency }

// RunResult summarizes one monthly run.
type RunResult struct {
	MonthKey string
	Posted   int
	Skipped  int
}

// RunMonthly posts straight-line depreciation for every active asset for
// the month containing asOf. The run is idempotent on two levels: a
// per-month lease keeps concurrent workers out, and the per-asset month
// record skips assets already charged.
func (s *Service) RunMonthly(ctx context.Context, asOf time.Time) (RunResult, error) {
	monthKey := journals.MonthKey(asOf)
	result := RunResult{MonthKey: monthKey}

	if s.lease != nil {
		lease := s.lease(monthKey)
		if err := lease.Acquire(ctx); err != nil {
			if errors.Is(err, internalshared.ErrLockHeld) {
				s.logger.Info("depreciation run already in progress", "month", monthKey)
				return result, nil
			}
			return result, err
		}
		defer func() { _ = lease.Release(ctx) }()
	}

	list, err := s.repo.ListActive(ctx)
	if err != nil {
		return result, err
	}
	for _, asset := range list {
		posted, err := s.depreciateAsset(ctx, asset, asOf, monthKey)
		if err != nil {
			return result, fmt.Errorf("assets: depreciate %q (%d): %w", asset.Name, asset.ID, err)
		}
		if posted {
			result.Posted++
		} else {
			result.Skipped++
		}
	}
	s.logger.Info("depreciation run finished", "month", monthKey, "posted", result.Posted, "skipped", result.Skipped)
	return result, nil
}

func (s *Service) depreciateAsset(ctx context.Context, asset FixedAsset, asOf time.Time, monthKey string) (bool, error) {
	if asset.AcquiredAt.After(asOf) {
		return false, nil
	}
	done, err := s.repo.HasRecord(ctx, asset.ID, monthKey)
	if err != nil {
		return false, err
	}
	if done || asset.FullyDepreciated() {
		return false, nil
	}
	amount, err := asset.MonthlyAmount()
	if err != nil {
		return false, err
	}
	if amount.IsZero() {
		return false, nil
	}

	entry, err := s.journals.CreateAndPost(ctx, journals.PostingCommand{
		Date:         asOf,
		Description:  fmt.Sprintf("Depreciation %s %s", asset.Name, monthKey),
		Currency:     s.currency,
		Prefix:       journals.PrefixDepreciation,
		SourceModule: "assets",
		SourceID:     automation.SourceID("assets.depreciation", fmt.Sprintf("%d|%s", asset.ID, monthKey)),
		Lines: []journals.LineCommand{
			{AccountID: asset.ExpenseAccountID, Side: shared.SideDebit, Amount: amount, Description: asset.Name},
			{AccountID: asset.AccumulatedAccountID, Side: shared.SideCredit, Amount: amount, Description: asset.Name},
		},
	})
	if err != nil {
		// the source link catches a record written by a competing run
		if errors.Is(err, shared.ErrSourceAlreadyLinked) {
			return false, nil
		}
		return false, err
	}

	if _, err := s.repo.SaveRecord(ctx, DepreciationRecord{
		AssetID:        asset.ID,
		MonthKey:       monthKey,
		Amount:         amount,
		JournalEntryID: entry.ID,
	}); err != nil {
		return false, err
	}
	newValue, err := asset.BookValue.Subtract(amount)
	if err != nil {
		return false, err
	}
	if err := s.repo.UpdateBookValue(ctx, asset.ID, newValue); err != nil {
		return false, err
	}
	return true, nil
}
