package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

type Repository interface {
	List(ctx context.Context) ([]Account, error)
	Get(ctx context.Context, id int64) (Account, error)
	GetByCode(ctx context.Context, code AccountCode) (Account, error)
	Create(ctx context.Context, account Account) (Account, error)
	Update(ctx context.Context, account Account) (Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, code, name, type, parent_id, is_active, is_cash_account, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.IsActive, &a.IsCashAccount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	if err := a.VerifyType(); err != nil {
		return Account{}, err
	}
	return a, nil
}

func (r *repository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM chart_of_accounts ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.IsActive, &a.IsCashAccount, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if err := a.VerifyType(); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM chart_of_accounts WHERE id=$1`, id))
}

func (r *repository) GetByCode(ctx context.Context, code AccountCode) (Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM chart_of_accounts WHERE code=$1`, code))
}

func (r *repository) Create(ctx context.Context, account Account) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO chart_of_accounts (code, name, type, parent_id, is_active, is_cash_account)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at, updated_at`,
		account.Code, account.Name, account.Type, account.ParentID, account.IsActive, account.IsCashAccount)
	if err := row.Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return Account{}, err
	}
	return account, nil
}

func (r *repository) Update(ctx context.Context, account Account) (Account, error) {
	// The stored type column always tracks the code-derived classification.
	row := r.db.QueryRow(ctx, `UPDATE chart_of_accounts
SET name=$2, type=$3, parent_id=$4, is_active=$5, is_cash_account=$6, updated_at=NOW()
WHERE id=$1 RETURNING updated_at`,
		account.ID, account.Name, account.Type, account.ParentID, account.IsActive, account.IsCashAccount)
	if err := row.Scan(&account.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return account, nil
}
