// Package ledger implements the balance aggregation engine.
//
// Raw records (expenses with payer/splitter lists, direct transfers) are
// normalized into uniform signed ledger entries, which are then folded into
// pairwise net balances, group balances, statistics, and settlement
// suggestions. Every function here is a pure computation over an in-memory
// snapshot: no I/O, no clock reads, no hidden state. Fetching records and
// rendering results belong to the caller.
//
// All amounts are decimal.Decimal quantized to 2 fractional digits.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind distinguishes how a ledger entry originated.
type Kind string

const (
	// KindExpenseShare is an obligation derived from an expense's
	// payer/splitter lists.
	KindExpenseShare Kind = "expense_share"

	// KindTransfer is a direct settlement payment.
	KindTransfer Kind = "transfer"
)

// Entry is the atomic unit of financial movement: FromUser owes ToUser
// the amount. Amount is strictly positive; direction carries the sign.
type Entry struct {
	// FromUser owes the amount.
	FromUser string

	// ToUser is owed the amount.
	ToUser string

	// Amount is strictly positive, 2 fractional digits.
	Amount decimal.Decimal

	// GroupID is empty for direct (1:1) entries.
	GroupID string

	Kind Kind

	// Timestamp and Category feed statistics only; balance math ignores them.
	Timestamp time.Time
	Category  string

	// SourceID is the originating expense or transfer ID. Entries from the
	// same source share it, which is what makes incremental cache updates
	// idempotent.
	SourceID string
}

// Sentinel errors for records the normalizer rejects. A rejected record is
// excluded from the ledger entirely rather than producing an unbalanced set
// of entries.
var (
	// ErrAmountMismatch means an expense's payer sum or splitter sum
	// disagrees with the declared total. Tolerance is zero: inputs are
	// already currency-quantized.
	ErrAmountMismatch = errors.New("payer or splitter shares do not sum to the expense amount")

	// ErrEmptyRoles means an expense has no payers or no splitters.
	ErrEmptyRoles = errors.New("expense has no payers or no splitters")

	// ErrNonPositiveShare means a payer share, splitter share, or transfer
	// amount is zero or negative. Every ledger amount is strictly positive;
	// a participant is removed by omission, not by a negating share.
	ErrNonPositiveShare = errors.New("share or transfer amount is not positive")

	// ErrUnknownUser means an entry references a user ID with no display
	// identity. Non-fatal to balance math; the presentation layer
	// substitutes a placeholder.
	ErrUnknownUser = errors.New("unknown user")
)

// RecordError reports one source record the normalizer excluded, so callers
// can render "N records skipped" without losing the rest of the computation.
type RecordError struct {
	// SourceID is the offending expense or transfer ID.
	SourceID string
	Err      error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %s: %v", e.SourceID, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}
