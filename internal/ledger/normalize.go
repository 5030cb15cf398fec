package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/models"
)

// Normalize converts expenses and transfers into a uniform list of ledger
// entries.
//
// For each expense, every splitter's owed amount is distributed across the
// payers proportionally to each payer's paid share, so multi-payer expenses
// settle against whoever actually financed them. Self-pairs (a splitter
// paying themselves) and zero-amount shares are elided. Proportional
// distribution never loses or gains cents: payers are walked in ID order and
// the last payer absorbs the rounding remainder, so the shares for a given
// splitter always sum exactly to their owed amount.
//
// Records that fail validation (ErrAmountMismatch, ErrEmptyRoles,
// ErrNonPositiveShare) are
// excluded wholesale and reported in the returned RecordError slice; the
// remaining records still normalize. Callers wanting hard failure should
// treat a non-empty error slice as fatal.
func Normalize(expenses []*models.Expense, transfers []*models.Transfer) ([]Entry, []RecordError) {
	var entries []Entry
	var errs []RecordError

	for _, e := range expenses {
		es, err := normalizeExpense(e)
		if err != nil {
			errs = append(errs, RecordError{SourceID: e.ID, Err: err})
			continue
		}
		entries = append(entries, es...)
	}

	for _, t := range transfers {
		if !t.Amount.IsPositive() {
			errs = append(errs, RecordError{SourceID: t.ID, Err: ErrNonPositiveShare})
			continue
		}
		entries = append(entries, normalizeTransfer(t))
	}

	return entries, errs
}

// ValidateExpense checks the invariants the normalizer enforces, without
// producing entries. Used at write time to reject bad records before they
// reach storage.
func ValidateExpense(e *models.Expense) error {
	if len(e.Payers) == 0 || len(e.Splitters) == 0 {
		return ErrEmptyRoles
	}
	if hasNonPositiveShare(e.Payers) || hasNonPositiveShare(e.Splitters) {
		return ErrNonPositiveShare
	}
	if !sumShares(e.Payers).Equal(e.Amount) || !sumShares(e.Splitters).Equal(e.Amount) {
		return ErrAmountMismatch
	}
	return nil
}

func hasNonPositiveShare(shares []models.Share) bool {
	for _, s := range shares {
		if !s.Amount.IsPositive() {
			return true
		}
	}
	return false
}

func normalizeExpense(e *models.Expense) ([]Entry, error) {
	if err := ValidateExpense(e); err != nil {
		return nil, err
	}

	// Deterministic payer order so the rounding remainder always lands on
	// the same payer regardless of input order.
	payers := make([]models.Share, len(e.Payers))
	copy(payers, e.Payers)
	sort.Slice(payers, func(i, j int) bool { return payers[i].UserID < payers[j].UserID })

	ts := time.Unix(e.CreatedAt, 0).UTC()

	var entries []Entry
	for _, s := range e.Splitters {
		remaining := s.Amount
		for i, p := range payers {
			var share decimal.Decimal
			if i == len(payers)-1 {
				share = remaining
			} else {
				share = s.Amount.Mul(p.Amount).Div(e.Amount).Round(2)
				if share.GreaterThan(remaining) {
					share = remaining
				}
				remaining = remaining.Sub(share)
			}
			if share.IsZero() || p.UserID == s.UserID {
				continue
			}
			entries = append(entries, Entry{
				FromUser:  s.UserID,
				ToUser:    p.UserID,
				Amount:    share,
				GroupID:   e.GroupID,
				Kind:      KindExpenseShare,
				Timestamp: ts,
				Category:  e.Category,
				SourceID:  e.ID,
			})
		}
	}
	return entries, nil
}

func normalizeTransfer(t *models.Transfer) Entry {
	return Entry{
		FromUser:  t.PayerID,
		ToUser:    t.ReceiverID,
		Amount:    t.Amount,
		Kind:      KindTransfer,
		Timestamp: time.Unix(t.CreatedAt, 0).UTC(),
		SourceID:  t.ID,
	}
}

func sumShares(shares []models.Share) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}
