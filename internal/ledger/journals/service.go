package journals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/qayd-app/qayd/internal/ledger/accounts"
	"github.com/qayd-app/qayd/internal/ledger/periods"
	"github.com/qayd-app/qayd/internal/shared"
)

// PeriodGuard reports the locked period covering a date, if any. A nil guard
// disables period enforcement.
type PeriodGuard interface {
	LockedPeriodFor(ctx context.Context, tenantID int64, date time.Time) (*periods.FiscalPeriod, error)
}

// AuditPort records posting actions. Optional.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Recorder counts posting outcomes. Optional.
type Recorder interface {
	JournalPosted()
	UnbalancedRejected()
}

// CacheBumper invalidates derived report caches after a posting. Optional.
type CacheBumper interface {
	Bump(ctx context.Context, tenantID int64) error
}

// Service implements journal entry creation and posting.
type Service struct {
	repo    RepositoryPort
	guard   PeriodGuard
	audit   AuditPort
	metrics Recorder
	cache   CacheBumper
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs Service. guard, audit, metrics and cache may be nil.
func NewService(repo RepositoryPort, guard PeriodGuard, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		guard:  guard,
		logger: logger,
		now:    time.Now,
	}
}

// WithAudit attaches an audit sink.
func (s *Service) WithAudit(a AuditPort) *Service {
	s.audit = a
	return s
}

// WithMetrics attaches posting counters.
func (s *Service) WithMetrics(m Recorder) *Service {
	s.metrics = m
	return s
}

// WithCache attaches a report cache invalidator.
func (s *Service) WithCache(c CacheBumper) *Service {
	s.cache = c
	return s
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create records a journal entry. Lines are validated against the balance
// invariant before any persistence; account numbers and names are snapshotted
// onto the lines. With AutoPost the entry is posted in the same transaction,
// which also applies balance deltas to every affected account.
func (s *Service) Create(ctx context.Context, tenantID int64, in CreateInput) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		var ub *UnbalancedError
		if errors.As(err, &ub) && s.metrics != nil {
			s.metrics.UnbalancedRejected()
		}
		return JournalEntry{}, err
	}
	if in.AutoPost {
		if err := s.checkPeriod(ctx, tenantID, in.Date); err != nil {
			return JournalEntry{}, err
		}
	}

	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ids := make([]int64, 0, len(in.Lines))
		for _, line := range in.Lines {
			ids = append(ids, line.AccountID)
		}
		accts, err := tx.GetAccountsForUpdate(ctx, tenantID, ids)
		if err != nil {
			return err
		}

		var totalDebit, totalCredit float64
		lines := make([]JournalLine, 0, len(in.Lines))
		for _, li := range in.Lines {
			acct, ok := accts[li.AccountID]
			if !ok {
				return fmt.Errorf("%w: id %d", ErrAccountUnknown, li.AccountID)
			}
			if !acct.IsActive {
				return fmt.Errorf("%w: %s", ErrAccountInactive, acct.Number)
			}
			line := JournalLine{
				AccountID:     acct.ID,
				AccountNumber: acct.Number,
				AccountName:   acct.Name,
				Debit:         round2(li.Debit),
				Credit:        round2(li.Credit),
				BranchID:      li.BranchID,
				CostCenter:    li.CostCenter,
				Memo:          li.Memo,
			}
			// totals come from the stored amounts so the header always
			// equals the sum of its lines, even on sub-cent input
			totalDebit += line.Debit
			totalCredit += line.Credit
			lines = append(lines, line)
		}

		year := in.Date.Year()
		seq, err := tx.NextEntryNumber(ctx, tenantID, year)
		if err != nil {
			return err
		}

		e := JournalEntry{
			TenantID:    tenantID,
			Number:      EntryNumber(year, seq),
			Date:        in.Date,
			Memo:        in.Memo,
			Status:      EntryStatusDraft,
			TotalDebit:  round2(totalDebit),
			TotalCredit: round2(totalCredit),
			Reference:   in.Reference,
			CreatedBy:   in.CreatedBy,
		}
		if in.AutoPost {
			now := s.now()
			e.Status = EntryStatusPosted
			e.PostedBy = &in.CreatedBy
			e.PostedAt = &now
		}
		e, err = tx.InsertEntry(ctx, e)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, e.ID, lines); err != nil {
			return err
		}
		if in.AutoPost {
			if err := applyDeltas(ctx, tx, accts, lines); err != nil {
				return err
			}
		}
		for i := range lines {
			lines[i].EntryID = e.ID
		}
		e.Lines = lines
		entry = e
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}

	s.logger.Info("journal entry created",
		slog.Int64("tenant_id", tenantID),
		slog.String("number", entry.Number),
		slog.String("status", string(entry.Status)),
		slog.Float64("total", entry.TotalDebit))
	if entry.Status == EntryStatusPosted {
		s.afterPost(ctx, entry)
	}
	return entry, nil
}

// Post transitions a draft entry to posted and applies balance deltas. The
// transition is a conditional update so a concurrent second post observes zero
// affected rows and fails with ErrNotDraft.
func (s *Service) Post(ctx context.Context, tenantID, entryID, postedBy int64) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		e, err := tx.GetEntryWithLines(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if e.Status != EntryStatusDraft {
			return ErrNotDraft
		}
		if err := s.checkPeriod(ctx, tenantID, e.Date); err != nil {
			return err
		}

		now := s.now()
		ok, err := tx.MarkPosted(ctx, tenantID, entryID, postedBy, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotDraft
		}

		ids := make([]int64, 0, len(e.Lines))
		for _, line := range e.Lines {
			ids = append(ids, line.AccountID)
		}
		accts, err := tx.GetAccountsForUpdate(ctx, tenantID, ids)
		if err != nil {
			return err
		}
		if err := applyDeltas(ctx, tx, accts, e.Lines); err != nil {
			return err
		}

		e.Status = EntryStatusPosted
		e.PostedBy = &postedBy
		e.PostedAt = &now
		entry = e
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}

	s.logger.Info("journal entry posted",
		slog.Int64("tenant_id", tenantID),
		slog.String("number", entry.Number))
	s.afterPost(ctx, entry)
	return entry, nil
}

// List returns the tenant's entries, newest first.
func (s *Service) List(ctx context.Context, tenantID int64) ([]JournalEntry, error) {
	return s.repo.List(ctx, tenantID)
}

// Get returns an entry with its lines.
func (s *Service) Get(ctx context.Context, tenantID, entryID int64) (JournalEntry, error) {
	return s.repo.Get(ctx, tenantID, entryID)
}

func (s *Service) checkPeriod(ctx context.Context, tenantID int64, date time.Time) error {
	if s.guard == nil {
		return nil
	}
	locked, err := s.guard.LockedPeriodFor(ctx, tenantID, date)
	if err != nil {
		return err
	}
	if locked != nil {
		return &PeriodLockedError{PeriodName: locked.Name}
	}
	return nil
}

func (s *Service) afterPost(ctx context.Context, entry JournalEntry) {
	if s.metrics != nil {
		s.metrics.JournalPosted()
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx, entry.TenantID); err != nil {
			s.logger.Warn("report cache bump failed", slog.String("error", err.Error()))
		}
	}
	if s.audit != nil {
		meta := map[string]any{
			"number": entry.Number,
			"debit":  entry.TotalDebit,
			"credit": entry.TotalCredit,
		}
		err := s.audit.Record(ctx, shared.AuditLog{
			TenantID: entry.TenantID,
			ActorID:  derefInt64(entry.PostedBy),
			Action:   "journal.post",
			Entity:   "journal_entry",
			EntityID: entry.Number,
			Meta:     meta,
		})
		if err != nil {
			s.logger.Warn("audit record failed", slog.String("error", err.Error()))
		}
	}
}

// applyDeltas moves each line amount onto its account, signed by the account's
// normal side so debit-normal accounts grow with debits and credit-normal
// accounts grow with credits.
func applyDeltas(ctx context.Context, tx TxRepository, accts map[int64]accounts.Account, lines []JournalLine) error {
	for _, line := range lines {
		acct := accts[line.AccountID]
		var delta float64
		switch acct.NormalBalance {
		case accounts.SideDebit:
			delta = line.Debit - line.Credit
		default:
			delta = line.Credit - line.Debit
		}
		if delta == 0 {
			continue
		}
		if err := tx.ApplyBalanceDelta(ctx, line.AccountID, round2(delta)); err != nil {
			return err
		}
	}
	return nil
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
