package ledger

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/models"
)

func mustNormalize(t *testing.T, expenses []*models.Expense, transfers []*models.Transfer) []Entry {
	t.Helper()
	entries, errs := Normalize(expenses, transfers)
	if len(errs) != 0 {
		t.Fatalf("unexpected normalization errors: %v", errs)
	}
	return entries
}

func TestAggregateDirect(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		viewer  string
		want    map[string]string
	}{
		{
			name: "expense share credits the payer",
			entries: []Entry{
				{FromUser: "B", ToUser: "A", Amount: dec("5.00"), Kind: KindExpenseShare, SourceID: "e1"},
			},
			viewer: "A",
			want:   map[string]string{"B": "5.00"},
		},
		{
			name: "expense share debits the splitter",
			entries: []Entry{
				{FromUser: "B", ToUser: "A", Amount: dec("5.00"), Kind: KindExpenseShare, SourceID: "e1"},
			},
			viewer: "B",
			want:   map[string]string{"A": "-5.00"},
		},
		{
			name: "transfer by direction",
			entries: []Entry{
				{FromUser: "A", ToUser: "B", Amount: dec("20.00"), Kind: KindTransfer, SourceID: "t1"},
			},
			viewer: "A",
			want:   map[string]string{"B": "-20.00"},
		},
		{
			name: "transfer receiver side",
			entries: []Entry{
				{FromUser: "A", ToUser: "B", Amount: dec("20.00"), Kind: KindTransfer, SourceID: "t1"},
			},
			viewer: "B",
			want:   map[string]string{"A": "20.00"},
		},
		{
			name: "zero-net counterparties omitted",
			entries: []Entry{
				{FromUser: "B", ToUser: "A", Amount: dec("7.50"), Kind: KindExpenseShare, SourceID: "e1"},
				{FromUser: "A", ToUser: "B", Amount: dec("7.50"), Kind: KindExpenseShare, SourceID: "e2"},
			},
			viewer: "A",
			want:   map[string]string{},
		},
		{
			name: "group entries excluded from direct view",
			entries: []Entry{
				{FromUser: "B", ToUser: "A", Amount: dec("5.00"), GroupID: "g1", Kind: KindExpenseShare, SourceID: "e1"},
			},
			viewer: "A",
			want:   map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateDirect(tt.entries, tt.viewer)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d counterparties, want %d (%v)", len(got), len(tt.want), got)
			}
			for id, want := range tt.want {
				if !got[id].Equal(dec(want)) {
					t.Errorf("balance[%s] = %s, want %s", id, got[id], want)
				}
			}
		})
	}
}

func TestAggregateDirectZeroSum(t *testing.T) {
	// A closed ledger of direct entries must net to zero across all users.
	entries := mustNormalize(t,
		[]*models.Expense{
			{
				ID: "e1", Amount: dec("90.00"),
				Payers:    shares("A", "60.00", "B", "30.00"),
				Splitters: shares("A", "30.00", "B", "30.00", "C", "30.00"),
			},
			{
				ID: "e2", Amount: dec("10.01"),
				Payers:    shares("C", "10.01"),
				Splitters: shares("A", "3.34", "B", "3.34", "C", "3.33"),
			},
		},
		[]*models.Transfer{
			{ID: "t1", PayerID: "C", ReceiverID: "A", Amount: dec("12.25")},
		},
	)

	total := decimal.Zero
	for _, viewer := range []string{"A", "B", "C"} {
		for _, net := range AggregateDirect(entries, viewer) {
			total = total.Add(net)
		}
	}
	if !total.IsZero() {
		t.Errorf("global net = %s, want 0", total)
	}
}

func TestAggregateDirectCommutative(t *testing.T) {
	entries := mustNormalize(t,
		[]*models.Expense{
			{
				ID: "e1", Amount: dec("100.00"),
				Payers:    shares("A", "33.33", "B", "66.67"),
				Splitters: shares("A", "25.00", "B", "25.00", "C", "50.00"),
			},
		},
		[]*models.Transfer{
			{ID: "t1", PayerID: "C", ReceiverID: "A", Amount: dec("16.00")},
			{ID: "t2", PayerID: "A", ReceiverID: "B", Amount: dec("4.99")},
		},
	)

	want := AggregateDirect(entries, "A")

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		shuffled := make([]Entry, len(entries))
		copy(shuffled, entries)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := AggregateDirect(shuffled, "A")
		if len(got) != len(want) {
			t.Fatalf("trial %d: counterparty count changed: %v vs %v", trial, got, want)
		}
		for id, net := range want {
			if !got[id].Equal(net) {
				t.Errorf("trial %d: balance[%s] = %s, want %s", trial, id, got[id], net)
			}
		}
	}
}

func TestGroupBalancesForFriend(t *testing.T) {
	// A and B share two groups; opposite signs must not cancel in the
	// per-group breakdown.
	entries := []Entry{
		{FromUser: "B", ToUser: "A", Amount: dec("30.00"), GroupID: "g1", Kind: KindExpenseShare, SourceID: "e1"},
		{FromUser: "A", ToUser: "B", Amount: dec("12.00"), GroupID: "g2", Kind: KindExpenseShare, SourceID: "e2"},
	}
	groups := []GroupInfo{
		{ID: "g1", Name: "Trip", Members: []string{"A", "B", "C"}},
		{ID: "g2", Name: "Flat", Members: []string{"A", "B"}},
	}

	got := GroupBalancesForFriend(entries, "A", "B", groups)
	if len(got) != 2 {
		t.Fatalf("got %d group balances, want 2: %v", len(got), got)
	}
	if got[0].GroupID != "g1" || !got[0].Net.Equal(dec("30.00")) {
		t.Errorf("g1 = %+v, want net 30.00", got[0])
	}
	if got[1].GroupID != "g2" || !got[1].Net.Equal(dec("-12.00")) {
		t.Errorf("g2 = %+v, want net -12.00", got[1])
	}
}

func TestGroupBalancesMembershipFilter(t *testing.T) {
	entries := []Entry{
		{FromUser: "B", ToUser: "A", Amount: dec("30.00"), GroupID: "g1", Kind: KindExpenseShare, SourceID: "e1"},
	}
	// B has left g1: the historical entry stays in the ledger but must not
	// surface in the live view unless former members are included.
	groups := []GroupInfo{{ID: "g1", Name: "Trip", Members: []string{"A", "C"}}}

	if got := GroupBalancesForFriend(entries, "A", "B", groups); len(got) != 0 {
		t.Errorf("live view includes former member balance: %v", got)
	}

	got := GroupBalancesForFriend(entries, "A", "B", groups, WithFormerMembers(true))
	if len(got) != 1 || !got[0].Net.Equal(dec("30.00")) {
		t.Errorf("got %v, want g1 net 30.00 with former members included", got)
	}
}

func TestFriendBalancesCrossCheck(t *testing.T) {
	entries := mustNormalize(t,
		[]*models.Expense{
			{
				ID: "e1", Amount: dec("60.00"),
				Payers:    shares("A", "60.00"),
				Splitters: shares("A", "20.00", "B", "20.00", "C", "20.00"),
			},
			{
				ID: "e2", GroupID: "g1", Amount: dec("45.00"),
				Payers:    shares("B", "45.00"),
				Splitters: shares("A", "15.00", "B", "15.00", "C", "15.00"),
			},
			{
				ID: "e3", GroupID: "g2", Amount: dec("9.99"),
				Payers:    shares("A", "9.99"),
				Splitters: shares("A", "3.33", "B", "3.33", "C", "3.33"),
			},
		},
		[]*models.Transfer{
			{ID: "t1", PayerID: "B", ReceiverID: "A", Amount: dec("5.00")},
		},
	)
	groups := []GroupInfo{
		{ID: "g1", Name: "Trip", Members: []string{"A", "B", "C"}},
		{ID: "g2", Name: "Flat", Members: []string{"A", "B", "C"}},
	}

	for _, viewer := range []string{"A", "B", "C"} {
		balances := FriendBalances(entries, viewer, groups)
		if len(balances) == 0 {
			t.Fatalf("viewer %s has no friend balances", viewer)
		}
		for _, fb := range balances {
			groupSum := decimal.Zero
			for _, gb := range fb.Groups {
				groupSum = groupSum.Add(gb.Net)
			}
			if !fb.Group.Equal(groupSum) {
				t.Errorf("viewer %s friend %s: group total %s != sum of breakdown %s",
					viewer, fb.FriendID, fb.Group, groupSum)
			}
			if !fb.Total.Equal(fb.Direct.Add(groupSum)) {
				t.Errorf("viewer %s friend %s: total %s != direct %s + groups %s",
					viewer, fb.FriendID, fb.Total, fb.Direct, groupSum)
			}
		}
	}
}

func TestFriendBalancesSymmetry(t *testing.T) {
	entries := mustNormalize(t,
		[]*models.Expense{
			{
				ID: "e1", GroupID: "g1", Amount: dec("30.00"),
				Payers:    shares("A", "30.00"),
				Splitters: shares("A", "10.00", "B", "10.00", "C", "10.00"),
			},
		},
		nil,
	)
	groups := []GroupInfo{{ID: "g1", Name: "Trip", Members: []string{"A", "B", "C"}}}

	aView := FriendBalances(entries, "A", groups)
	bView := FriendBalances(entries, "B", groups)

	findFriend := func(balances []FriendBalance, id string) *FriendBalance {
		for i := range balances {
			if balances[i].FriendID == id {
				return &balances[i]
			}
		}
		return nil
	}

	ab := findFriend(aView, "B")
	ba := findFriend(bView, "A")
	if ab == nil || ba == nil {
		t.Fatalf("missing pairwise balances: aView=%v bView=%v", aView, bView)
	}
	if !ab.Total.Equal(ba.Total.Neg()) {
		t.Errorf("A sees %s, B sees %s; want mirrored", ab.Total, ba.Total)
	}
}
