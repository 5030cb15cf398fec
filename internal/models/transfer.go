package models

import "github.com/shopspring/decimal"

// Transfer represents a direct settlement payment between two users,
// typically made to clear a debt.
type Transfer struct {
	// ID is the unique identifier for the transfer (UUID format).
	ID string

	// PayerID is the user who sent the money (debtor settling up).
	PayerID string

	// ReceiverID is the user who received the money.
	ReceiverID string

	// Amount is the payment amount.
	Amount decimal.Decimal

	// Note is an optional description for the transfer.
	Note string

	// CreatedAt is the Unix timestamp when the transfer was recorded.
	CreatedAt int64
}
