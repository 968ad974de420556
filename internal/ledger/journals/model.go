package journals

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryStatus enumerates journal lifecycle values. POSTED is terminal.
type EntryStatus string

const (
	EntryStatusDraft  EntryStatus = "DRAFT"
	EntryStatusPosted EntryStatus = "POSTED"
)

// ReferenceKind tags the business object a journal entry originates from.
type ReferenceKind string

const (
	ReferenceOrder   ReferenceKind = "ORDER"
	ReferenceInvoice ReferenceKind = "INVOICE"
	ReferenceExpense ReferenceKind = "EXPENSE"
	ReferenceManual  ReferenceKind = "MANUAL"
)

// Reference links an entry to its originating business object.
type Reference struct {
	Kind ReferenceKind
	ID   uuid.UUID
}

// JournalEntry is an atomic tenant-scoped accounting transaction. Entries are
// append-only: once created they are never mutated except for the one-way
// draft-to-posted transition, and corrections are made with new reversing
// entries.
type JournalEntry struct {
	ID          int64
	TenantID    int64
	Number      string
	Date        time.Time
	Memo        string
	Status      EntryStatus
	TotalDebit  float64
	TotalCredit float64
	Reference   Reference
	CreatedBy   int64
	PostedBy    *int64
	PostedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []JournalLine
}

// JournalLine stores a debit or credit amount against an account. The account
// number and name are snapshots taken at entry creation so the audit trail
// stays stable if the account is later renamed.
type JournalLine struct {
	ID            int64
	EntryID       int64
	AccountID     int64
	AccountNumber string
	AccountName   string
	Debit         float64
	Credit        float64
	BranchID      *int64
	CostCenter    *string
	Memo          string
}

var (
	// ErrUnbalanced indicates debit != credit beyond tolerance.
	ErrUnbalanced = errors.New("ledger: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: journal requires at least two lines")
	// ErrEntryNotFound indicates a missing entry.
	ErrEntryNotFound = errors.New("ledger: journal entry not found")
	// ErrNotDraft indicates a post attempt on an entry that is not draft.
	ErrNotDraft = errors.New("ledger: journal entry is not draft")
	// ErrPeriodLocked indicates the entry date falls in a locked period.
	ErrPeriodLocked = errors.New("ledger: fiscal period locked")
	// ErrUnknownReference indicates an unrecognised reference kind.
	ErrUnknownReference = errors.New("ledger: unknown reference kind")
	// ErrAccountUnknown indicates a line names an account that does not exist
	// for the tenant.
	ErrAccountUnknown = errors.New("ledger: line references unknown account")
	// ErrAccountInactive indicates a line names a deactivated account.
	ErrAccountInactive = errors.New("ledger: line references inactive account")
)

// UnbalancedError carries both totals for diagnostics.
type UnbalancedError struct {
	TotalDebit  float64
	TotalCredit float64
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("%v: debit %.2f, credit %.2f", ErrUnbalanced, e.TotalDebit, e.TotalCredit)
}

func (e *UnbalancedError) Unwrap() error { return ErrUnbalanced }

// PeriodLockedError names the period blocking a posting.
type PeriodLockedError struct {
	PeriodName string
}

func (e *PeriodLockedError) Error() string {
	return fmt.Sprintf("%v: %s", ErrPeriodLocked, e.PeriodName)
}

func (e *PeriodLockedError) Unwrap() error { return ErrPeriodLocked }
