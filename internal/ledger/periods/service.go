package periods

import (
	"context"
	"errors"
	"time"
)

// Service implements fiscal period management and the posting guard.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the period service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create registers a new period in OPEN state.
func (s *Service) Create(ctx context.Context, tenantID int64, name string, start, end time.Time) (FiscalPeriod, error) {
	if name == "" {
		return FiscalPeriod{}, errors.New("ledger: period name required")
	}
	if end.Before(start) {
		return FiscalPeriod{}, ErrInvalidRange
	}
	return s.repo.Insert(ctx, FiscalPeriod{
		TenantID:  tenantID,
		Name:      name,
		StartDate: start,
		EndDate:   end,
		Status:    PeriodStatusOpen,
	})
}

// List returns all periods for the tenant.
func (s *Service) List(ctx context.Context, tenantID int64) ([]FiscalPeriod, error) {
	return s.repo.List(ctx, tenantID)
}

// Transition moves a period to a new status per the transition policy.
func (s *Service) Transition(ctx context.Context, tenantID, id int64, target PeriodStatus, actorID int64, override bool) (FiscalPeriod, error) {
	period, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return FiscalPeriod{}, err
	}
	if err := ValidateTransition(period.Status, target, override); err != nil {
		return FiscalPeriod{}, err
	}
	var lockedBy *int64
	if target == PeriodStatusLocked {
		lockedBy = &actorID
	}
	if err := s.repo.UpdateStatus(ctx, tenantID, id, target, lockedBy); err != nil {
		return FiscalPeriod{}, err
	}
	period.Status = target
	period.LockedBy = lockedBy
	return period, nil
}

// LockedPeriodFor returns the locked period covering date, or nil when the
// date is uncovered or its period is not locked. Periods are opt-in, so the
// absence of any period leaves posting unconstrained.
func (s *Service) LockedPeriodFor(ctx context.Context, tenantID int64, date time.Time) (*FiscalPeriod, error) {
	period, err := s.repo.FindByDate(ctx, tenantID, date)
	if err != nil {
		if errors.Is(err, ErrPeriodNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if period.Status != PeriodStatusLocked {
		return nil, nil
	}
	return &period, nil
}
