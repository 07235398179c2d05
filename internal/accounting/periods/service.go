package periods

import (
	"context"
	"fmt"
	"time"

	internalshared "github.com/meridian-erp/meridian-erp/internal/shared"
)

type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) List(ctx context.Context) ([]Period, error) {
	return s.repo.List(ctx)
}

// FindOpenPeriodByDate resolves the open period for a posting date.
func (s *Service) FindOpenPeriodByDate(ctx context.Context, date time.Time) (Period, error) {
	return s.repo.FindOpenPeriodByDate(ctx, date)
}

func (s *Service) Create(ctx context.Context, name string, start, end time.Time) (Period, error) {
	period, err := New(name, start, end)
	if err != nil {
		return Period{}, err
	}
	return s.repo.Create(ctx, period)
}

// Lock closes the period for new postings.
func (s *Service) Lock(ctx context.Context, id, actorID int64) (Period, error) {
	return s.transition(ctx, id, actorID, "period.lock", func(p *Period) error {
		return p.Lock(actorID, s.now())
	})
}

// Reopen makes a locked period accept postings again.
func (s *Service) Reopen(ctx context.Context, id, actorID int64) (Period, error) {
	return s.transition(ctx, id, actorID, "period.reopen", (*Period).Reopen)
}

// Archive retires a locked period permanently.
func (s *Service) Archive(ctx context.Context, id, actorID int64) (Period, error) {
	return s.transition(ctx, id, actorID, "period.archive", (*Period).Archive)
}

func (s *Service) transition(ctx context.Context, id, actorID int64, action string, fn func(*Period) error) (Period, error) {
	period, err := s.repo.Get(ctx, id)
	if err != nil {
		return Period{}, err
	}
	if err := fn(&period); err != nil {
		return Period{}, err
	}
	updated, err := s.repo.Update(ctx, period)
	if err != nil {
		return Period{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  actorID,
			Action:   action,
			Entity:   "accounting_period",
			EntityID: fmt.Sprintf("%d", updated.ID),
			Meta:     map[string]any{"status": string(updated.Status)},
			At:       s.now(),
		})
	}
	return updated, nil
}
