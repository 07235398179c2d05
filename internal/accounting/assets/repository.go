package assets

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/accounting/money"
)

type Repository interface {
	ListActive(ctx context.Context) ([]FixedAsset, error)
	Get(ctx context.Context, id int64) (FixedAsset, error)
	Create(ctx context.Context, asset FixedAsset) (FixedAsset, error)
	UpdateBookValue(ctx context.Context, id int64, bookValue money.Money) error
	HasRecord(ctx context.Context, assetID int64, monthKey string) (bool, error)
	SaveRecord(ctx context.Context, record DepreciationRecord) (DepreciationRecord, error)
}

type repository struct {
	db       *pgxpool.Pool
	currency string
}

func NewRepository(db *pgxpool.Pool, currency string) Repository {
	return &repository{db: db, currency: currency}
}

const assetColumns = `id, name, expense_account_id, accumulated_account_id, cost::text, salvage::text, book_value::text, useful_years, acquired_at, is_active, created_at, updated_at`

func (r *repository) scanAsset(row pgx.Row) (FixedAsset, error) {
	var (
		asset                    FixedAsset
		cost, salvage, bookValue string
	)
	err := row.Scan(&asset.ID, &asset.Name, &asset.ExpenseAccountID, &asset.AccumulatedAccountID,
		&cost, &salvage, &bookValue, &asset.UsefulYears, &asset.AcquiredAt, &asset.IsActive,
		&asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		return FixedAsset{}, err
	}
	if asset.Cost, err = money.FromString(cost, r.currency); err != nil {
		return FixedAsset{}, err
	}
	if asset.Salvage, err = money.FromString(salvage, r.currency); err != nil {
		return FixedAsset{}, err
	}
	if asset.BookValue, err = money.FromString(bookValue, r.currency); err != nil {
		return FixedAsset{}, err
	}
	return asset, nil
}

func (r *repository) ListActive(ctx context.Context) ([]FixedAsset, error) {
	rows, err := r.db.Query(ctx, `SELECT `+assetColumns+` FROM fixed_assets WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FixedAsset
	for rows.Next() {
		asset, err := r.scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, asset)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (FixedAsset, error) {
	asset, err := r.scanAsset(r.db.QueryRow(ctx, `SELECT `+assetColumns+` FROM fixed_assets WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FixedAsset{}, ErrAssetNotFound
		}
		return FixedAsset{}, err
	}
	return asset, nil
}

func (r *repository) Create(ctx context.Context, asset FixedAsset) (FixedAsset, error) {
	if err := asset.Validate(); err != nil {
		return FixedAsset{}, err
	}
	err := r.db.QueryRow(ctx, `INSERT INTO fixed_assets (name, expense_account_id, accumulated_account_id, cost, salvage, book_value, useful_years, acquired_at, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id, created_at, updated_at`,
		asset.Name, asset.ExpenseAccountID, asset.AccumulatedAccountID,
		asset.Cost.Amount().StringFixed(2), asset.Salvage.Amount().StringFixed(2), asset.BookValue.Amount().StringFixed(2),
		asset.UsefulYears, asset.AcquiredAt, asset.IsActive).
		Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		return FixedAsset{}, err
	}
	return asset, nil
}

func (r *repository) UpdateBookValue(ctx context.Context, id int64, bookValue money.Money) error {
	cmd, err := r.db.Exec(ctx, `UPDATE fixed_assets SET book_value=$2, updated_at=NOW() WHERE id=$1`,
		id, bookValue.Amount().StringFixed(2))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAssetNotFound
	}
	return nil
}

func (r *repository) HasRecord(ctx context.Context, assetID int64, monthKey string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM depreciation_records WHERE asset_id=$1 AND month_key=$2)`,
		assetID, monthKey).Scan(&exists)
	return exists, err
}

func (r *repository) SaveRecord(ctx context.Context, record DepreciationRecord) (DepreciationRecord, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO depreciation_records (asset_id, month_key, amount, journal_entry_id)
VALUES ($1,$2,$3,$4) RETURNING id, created_at`,
		record.AssetID, record.MonthKey, record.Amount.Amount().StringFixed(2), record.JournalEntryID).
		Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return DepreciationRecord{}, err
	}
	return record, nil
}
