package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SettlementSuggestion proposes one transfer that reduces outstanding debt.
type SettlementSuggestion struct {
	FromUser string          `json:"from_user"`
	ToUser   string          `json:"to_user"`
	Amount   decimal.Decimal `json:"amount"`
}

// SuggestSettlements proposes a minimal set of transfers that zeroes the
// given net balances. Positive balance = is owed money, negative = owes.
//
// Greedy debt simplification: repeatedly match the largest debtor with the
// largest creditor and transfer min(debt, credit). Produces at most n-1
// transfers for n participants with non-zero balances. Participants are
// sorted by amount then ID, so output is deterministic.
func SuggestSettlements(balances map[string]decimal.Decimal) []SettlementSuggestion {
	type position struct {
		userID string
		amount decimal.Decimal // always positive
	}

	var debtors, creditors []position
	for id, net := range balances {
		switch {
		case net.IsNegative():
			debtors = append(debtors, position{id, net.Neg()})
		case net.IsPositive():
			creditors = append(creditors, position{id, net})
		}
	}

	byAmountDesc := func(ps []position) func(i, j int) bool {
		return func(i, j int) bool {
			if !ps[i].amount.Equal(ps[j].amount) {
				return ps[i].amount.GreaterThan(ps[j].amount)
			}
			return ps[i].userID < ps[j].userID
		}
	}
	sort.Slice(debtors, byAmountDesc(debtors))
	sort.Slice(creditors, byAmountDesc(creditors))

	var suggestions []SettlementSuggestion
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].amount, creditors[j].amount)
		if amount.IsPositive() {
			suggestions = append(suggestions, SettlementSuggestion{
				FromUser: debtors[i].userID,
				ToUser:   creditors[j].userID,
				Amount:   amount,
			})
		}

		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)
		if debtors[i].amount.IsZero() {
			i++
		}
		if creditors[j].amount.IsZero() {
			j++
		}
	}
	return suggestions
}
