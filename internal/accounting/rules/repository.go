package rules

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

type Repository interface {
	List(ctx context.Context) ([]PostingRule, error)
	Get(ctx context.Context, id int64) (PostingRule, error)
	FindActiveByEventType(ctx context.Context, eventType string) (PostingRule, error)
	Create(ctx context.Context, rule PostingRule) (PostingRule, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const ruleColumns = `id, event_type, description, module, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context) ([]PostingRule, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ruleColumns+` FROM posting_rules ORDER BY event_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PostingRule
	for rows.Next() {
		var rule PostingRule
		if err := rows.Scan(&rule.ID, &rule.EventType, &rule.Description, &rule.Module, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadLines(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *repository) Get(ctx context.Context, id int64) (PostingRule, error) {
	return r.one(ctx, `SELECT `+ruleColumns+` FROM posting_rules WHERE id=$1`, id)
}

// FindActiveByEventType returns the single active rule bound to the
// event type, or ErrRuleNotFound when none is configured.
func (r *repository) FindActiveByEventType(ctx context.Context, eventType string) (PostingRule, error) {
	return r.one(ctx, `SELECT `+ruleColumns+` FROM posting_rules WHERE event_type=$1 AND is_active`, eventType)
}

func (r *repository) one(ctx context.Context, query string, arg any) (PostingRule, error) {
	var rule PostingRule
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&rule.ID, &rule.EventType, &rule.Description, &rule.Module, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PostingRule{}, shared.ErrRuleNotFound
		}
		return PostingRule{}, err
	}
	if err := r.loadLines(ctx, &rule); err != nil {
		return PostingRule{}, err
	}
	return rule, nil
}

func (r *repository) loadLines(ctx context.Context, rule *PostingRule) error {
	rows, err := r.db.Query(ctx, `SELECT id, rule_id, account_id, side, amount_key, description_template, position
FROM posting_rule_lines WHERE rule_id=$1 ORDER BY position`, rule.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var line PostingRuleLine
		if err := rows.Scan(&line.ID, &line.RuleID, &line.AccountID, &line.Side, &line.AmountKey, &line.DescriptionTemplate, &line.Position); err != nil {
			return err
		}
		rule.Lines = append(rule.Lines, line)
	}
	return rows.Err()
}

func (r *repository) Create(ctx context.Context, rule PostingRule) (PostingRule, error) {
	if err := rule.Validate(); err != nil {
		return PostingRule{}, err
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return PostingRule{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `INSERT INTO posting_rules (event_type, description, module, is_active)
VALUES ($1,$2,$3,$4) RETURNING id, created_at, updated_at`,
		rule.EventType, rule.Description, rule.Module, rule.IsActive).
		Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return PostingRule{}, err
	}
	for i := range rule.Lines {
		line := &rule.Lines[i]
		line.RuleID = rule.ID
		line.Position = i
		err = tx.QueryRow(ctx, `INSERT INTO posting_rule_lines (rule_id, account_id, side, amount_key, description_template, position)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
			line.RuleID, line.AccountID, line.Side, line.AmountKey, line.DescriptionTemplate, line.Position).
			Scan(&line.ID)
		if err != nil {
			return PostingRule{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return PostingRule{}, err
	}
	return rule, nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE posting_rules SET is_active=$2, updated_at=NOW() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrRuleNotFound
	}
	return nil
}
