package models

import "github.com/shopspring/decimal"

// Share is one user's portion of an expense, either paid (payer) or
// owed (splitter). Amounts are positive, quantized to 2 fractional digits.
type Share struct {
	UserID string
	Amount decimal.Decimal
}

// Expense represents money spent on behalf of a set of people.
//
// Payers financed the expense and Splitters owe their share of it. Both
// lists must sum exactly to Amount; the ledger normalizer rejects expenses
// that do not. A user may appear in both lists (they paid and also consume
// a share).
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID scopes the expense to a group. Empty for direct (1:1) expenses.
	GroupID string

	// Description is the human-readable label (e.g., "Dinner at Luigi's").
	Description string

	// Amount is the total expense amount.
	Amount decimal.Decimal

	// Category is an optional spending category (e.g., "food", "travel").
	// Used for statistics only.
	Category string

	// CreatedBy is the user ID of whoever recorded the expense.
	CreatedBy string

	// Payers financed the expense. Sum of amounts == Amount.
	Payers []Share

	// Splitters owe shares of the expense. Sum of amounts == Amount.
	Splitters []Share

	// Settled is true once all debts arising from this expense have been
	// paid back. Drives the leaderboard settled ratio.
	Settled bool

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// ParticipantIDs returns the deduplicated user IDs appearing in either
// the payer or splitter list.
func (e *Expense) ParticipantIDs() []string {
	seen := make(map[string]bool, len(e.Payers)+len(e.Splitters))
	var ids []string
	for _, s := range e.Payers {
		if !seen[s.UserID] {
			seen[s.UserID] = true
			ids = append(ids, s.UserID)
		}
	}
	for _, s := range e.Splitters {
		if !seen[s.UserID] {
			seen[s.UserID] = true
			ids = append(ids, s.UserID)
		}
	}
	return ids
}
