// Package shared holds small cross-cutting pieces used by more than one
// domain package: the audit trail and distributed leases.
package shared

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog is one immutable record of a state-changing action.
type AuditLog struct {
	ID       int64
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger appends audit records. Failures are logged and swallowed so
// the audit trail never blocks the business write it describes.
type AuditLogger struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewAuditLogger(db *pgxpool.Pool, logger *slog.Logger) *AuditLogger {
	return &AuditLogger{db: db, logger: logger}
}

func (a *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	meta, err := json.Marshal(log.Meta)
	if err != nil {
		a.logger.Warn("audit meta marshal failed", "action", log.Action, "error", err)
		meta = []byte("{}")
	}
	if log.At.IsZero() {
		log.At = time.Now()
	}
	_, err = a.db.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`, nullActor(log.ActorID), log.Action, log.Entity, log.EntityID, meta, log.At)
	if err != nil {
		a.logger.Warn("audit record failed", "action", log.Action, "entity", log.Entity, "error", err)
	}
	return nil
}

func nullActor(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
