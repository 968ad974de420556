package journals

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// BalanceTolerance is the allowed debit/credit mismatch, one cent.
const BalanceTolerance = 0.01

// LineInput describes a journal line for a posting request.
type LineInput struct {
	AccountID  int64
	Debit      float64
	Credit     float64
	BranchID   *int64
	CostCenter *string
	Memo       string
}

// CreateInput groups fields required to create a journal entry.
type CreateInput struct {
	Date      time.Time
	Memo      string
	Reference Reference
	CreatedBy int64
	AutoPost  bool
	Lines     []LineInput
}

// Validate ensures the input satisfies the double-entry law before any
// persistence happens.
func (in CreateInput) Validate() error {
	if in.Date.IsZero() {
		return errors.New("ledger: entry date required")
	}
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	switch in.Reference.Kind {
	case ReferenceOrder, ReferenceInvoice, ReferenceExpense, ReferenceManual:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownReference, in.Reference.Kind)
	}
	if in.Reference.Kind != ReferenceManual && in.Reference.ID == uuid.Nil {
		return errors.New("ledger: reference id required")
	}
	var debit, credit float64
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("ledger: line %d missing account", idx)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("ledger: line %d negative amount", idx)
		}
		if line.Debit > 0 && line.Credit > 0 {
			return fmt.Errorf("ledger: line %d cannot be both debit and credit", idx)
		}
		if line.Debit == 0 && line.Credit == 0 {
			return fmt.Errorf("ledger: line %d has no amount", idx)
		}
		debit += line.Debit
		credit += line.Credit
	}
	if math.Abs(debit-credit) > BalanceTolerance {
		return &UnbalancedError{TotalDebit: round2(debit), TotalCredit: round2(credit)}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// EntryNumber formats a sequential entry number, scoped per tenant per year.
func EntryNumber(year int, seq int64) string {
	return fmt.Sprintf("JE-%d-%06d", year, seq)
}
