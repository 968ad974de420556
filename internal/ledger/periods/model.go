package periods

import (
	"errors"
	"time"
)

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
	PeriodStatusLocked PeriodStatus = "LOCKED"
)

// FiscalPeriod represents a tenant-scoped accounting period window. Periods
// are opt-in: a date covered by no period is unconstrained for posting.
type FiscalPeriod struct {
	ID        int64
	TenantID  int64
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Status    PeriodStatus
	ClosedAt  *time.Time
	LockedBy  *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contains reports whether date falls inside [StartDate, EndDate].
func (p FiscalPeriod) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

var (
	// ErrPeriodNotFound indicates a missing period.
	ErrPeriodNotFound = errors.New("ledger: fiscal period not found")
	// ErrInvalidTransition indicates a status change not allowed by policy.
	ErrInvalidTransition = errors.New("ledger: period transition invalid")
	// ErrInvalidRange indicates end date not after start date.
	ErrInvalidRange = errors.New("ledger: period end must not precede start")
)

// ValidateTransition checks period status changes according to policy: open
// periods may close or lock, closed periods may reopen or lock, locked
// periods only move back to closed with an explicit override.
func ValidateTransition(current, target PeriodStatus, hasOverride bool) error {
	if current == target {
		return nil
	}
	switch current {
	case PeriodStatusOpen:
		if target == PeriodStatusClosed || target == PeriodStatusLocked {
			return nil
		}
	case PeriodStatusClosed:
		if target == PeriodStatusOpen || target == PeriodStatusLocked {
			return nil
		}
	case PeriodStatusLocked:
		if target == PeriodStatusClosed && hasOverride {
			return nil
		}
	}
	return ErrInvalidTransition
}
