package periods

import (
	"errors"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen     PeriodStatus = "OPEN"
	PeriodStatusLocked   PeriodStatus = "LOCKED"
	PeriodStatusArchived PeriodStatus = "ARCHIVED"
)

// ErrInvalidRange indicates start date after end date.
var ErrInvalidRange = errors.New("ledger: period start must not be after end")

// Period represents a fiscal period window. Transitions:
// OPEN -> LOCKED, LOCKED -> OPEN, LOCKED -> ARCHIVED. ARCHIVED is terminal.
type Period struct {
	ID        int64
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Status    PeriodStatus
	LockedBy  *int64
	LockedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds an open period covering [start, end].
func New(name string, start, end time.Time) (Period, error) {
	if start.After(end) {
		return Period{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return Period{Name: name, StartDate: start, EndDate: end, Status: PeriodStatusOpen}, nil
}

// ContainsDate reports whether date falls inside the period, inclusive on
// both ends.
func (p Period) ContainsDate(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(p.StartDate.Truncate(24*time.Hour)) && !d.After(p.EndDate.Truncate(24*time.Hour))
}

// Lock moves OPEN -> LOCKED and records who locked it.
func (p *Period) Lock(actorID int64, at time.Time) error {
	if p.Status != PeriodStatusOpen {
		return transitionErr(p.Status, PeriodStatusLocked)
	}
	p.Status = PeriodStatusLocked
	p.LockedBy = &actorID
	p.LockedAt = &at
	return nil
}

// Reopen moves LOCKED -> OPEN, clearing lock metadata.
func (p *Period) Reopen() error {
	if p.Status != PeriodStatusLocked {
		return transitionErr(p.Status, PeriodStatusOpen)
	}
	p.Status = PeriodStatusOpen
	p.LockedBy = nil
	p.LockedAt = nil
	return nil
}

// Archive moves LOCKED -> ARCHIVED. Archived periods never change again.
func (p *Period) Archive() error {
	if p.Status != PeriodStatusLocked {
		return transitionErr(p.Status, PeriodStatusArchived)
	}
	p.Status = PeriodStatusArchived
	return nil
}

// AcceptsPostings reports whether new journal entries may target the period.
func (p Period) AcceptsPostings() bool {
	return p.Status == PeriodStatusOpen
}

func transitionErr(from, to PeriodStatus) error {
	return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidTransition, from, to)
}
