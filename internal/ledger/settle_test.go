package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSuggestSettlements(t *testing.T) {
	tests := []struct {
		name     string
		balances map[string]string
		want     []SettlementSuggestion
	}{
		{
			name:     "single pair",
			balances: map[string]string{"A": "10.00", "B": "-10.00"},
			want: []SettlementSuggestion{
				{FromUser: "B", ToUser: "A", Amount: dec("10.00")},
			},
		},
		{
			name:     "largest debtor pays largest creditor first",
			balances: map[string]string{"A": "30.00", "B": "10.00", "C": "-25.00", "D": "-15.00"},
			want: []SettlementSuggestion{
				{FromUser: "C", ToUser: "A", Amount: dec("25.00")},
				{FromUser: "D", ToUser: "A", Amount: dec("5.00")},
				{FromUser: "D", ToUser: "B", Amount: dec("10.00")},
			},
		},
		{
			name:     "equal amounts tie-break by id",
			balances: map[string]string{"B": "5.00", "A": "5.00", "D": "-5.00", "C": "-5.00"},
			want: []SettlementSuggestion{
				{FromUser: "C", ToUser: "A", Amount: dec("5.00")},
				{FromUser: "D", ToUser: "B", Amount: dec("5.00")},
			},
		},
		{
			name:     "zero balances produce nothing",
			balances: map[string]string{"A": "0", "B": "0"},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances := make(map[string]decimal.Decimal, len(tt.balances))
			for id, s := range tt.balances {
				balances[id] = dec(s)
			}

			got := SuggestSettlements(balances)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d suggestions %v, want %d", len(got), got, len(tt.want))
			}
			for i, want := range tt.want {
				if got[i].FromUser != want.FromUser || got[i].ToUser != want.ToUser || !got[i].Amount.Equal(want.Amount) {
					t.Errorf("suggestion %d = %+v, want %+v", i, got[i], want)
				}
			}
		})
	}
}

func TestSuggestSettlementsTransferBound(t *testing.T) {
	// n participants with non-zero balances need at most n-1 transfers.
	balances := map[string]decimal.Decimal{
		"A": dec("50.00"),
		"B": dec("25.00"),
		"C": dec("-30.00"),
		"D": dec("-20.00"),
		"E": dec("-25.00"),
	}

	got := SuggestSettlements(balances)
	if len(got) > len(balances)-1 {
		t.Errorf("got %d transfers for %d participants, want at most %d", len(got), len(balances), len(balances)-1)
	}

	// Applying the suggestions must zero every balance.
	remaining := make(map[string]decimal.Decimal, len(balances))
	for id, net := range balances {
		remaining[id] = net
	}
	for _, s := range got {
		remaining[s.FromUser] = remaining[s.FromUser].Add(s.Amount)
		remaining[s.ToUser] = remaining[s.ToUser].Sub(s.Amount)
	}
	for id, net := range remaining {
		if !net.IsZero() {
			t.Errorf("balance[%s] = %s after settling, want 0", id, net)
		}
	}
}
