package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func shares(pairs ...string) []models.Share {
	if len(pairs)%2 != 0 {
		panic("shares: want id/amount pairs")
	}
	var result []models.Share
	for i := 0; i < len(pairs); i += 2 {
		result = append(result, models.Share{UserID: pairs[i], Amount: dec(pairs[i+1])})
	}
	return result
}

func TestNormalizeExpense(t *testing.T) {
	tests := []struct {
		name         string
		expense      *models.Expense
		wantErr      error
		validateFunc func(t *testing.T, entries []Entry)
	}{
		{
			name: "single payer two splitters elides self-pay",
			expense: &models.Expense{
				ID:        "e1",
				Amount:    dec("10.00"),
				Payers:    shares("A", "10.00"),
				Splitters: shares("A", "5.00", "B", "5.00"),
			},
			validateFunc: func(t *testing.T, entries []Entry) {
				if len(entries) != 1 {
					t.Fatalf("got %d entries, want 1", len(entries))
				}
				e := entries[0]
				if e.FromUser != "B" || e.ToUser != "A" || !e.Amount.Equal(dec("5.00")) {
					t.Errorf("got %s -> %s %s, want B -> A 5.00", e.FromUser, e.ToUser, e.Amount)
				}
				if e.Kind != KindExpenseShare || e.SourceID != "e1" {
					t.Errorf("got kind=%s source=%s", e.Kind, e.SourceID)
				}
			},
		},
		{
			name: "uneven total keeps splitter shares exact",
			expense: &models.Expense{
				ID:        "e2",
				Amount:    dec("9.99"),
				Payers:    shares("A", "9.99"),
				Splitters: shares("A", "3.33", "B", "3.33", "C", "3.33"),
			},
			validateFunc: func(t *testing.T, entries []Entry) {
				// A -> A is elided; B and C each owe A their full share.
				if len(entries) != 2 {
					t.Fatalf("got %d entries, want 2", len(entries))
				}
				sum := decimal.Zero
				for _, e := range entries {
					if e.ToUser != "A" {
						t.Errorf("entry pays %s, want A", e.ToUser)
					}
					sum = sum.Add(e.Amount)
				}
				if !sum.Equal(dec("6.66")) {
					t.Errorf("non-payer splitter total = %s, want 6.66", sum)
				}
			},
		},
		{
			name: "multi-payer proportional distribution conserves cents",
			expense: &models.Expense{
				ID:     "e3",
				Amount: dec("100.00"),
				// B financed 2/3, A financed 1/3.
				Payers:    shares("A", "33.33", "B", "66.67"),
				Splitters: shares("C", "33.33", "D", "33.33", "E", "33.34"),
			},
			validateFunc: func(t *testing.T, entries []Entry) {
				// Each splitter's shares must sum exactly to their owed amount.
				bySplitter := make(map[string]decimal.Decimal)
				toPayers := make(map[string]decimal.Decimal)
				for _, e := range entries {
					bySplitter[e.FromUser] = bySplitter[e.FromUser].Add(e.Amount)
					toPayers[e.ToUser] = toPayers[e.ToUser].Add(e.Amount)
					if !e.Amount.IsPositive() {
						t.Errorf("non-positive entry amount %s", e.Amount)
					}
				}
				for splitter, want := range map[string]string{"C": "33.33", "D": "33.33", "E": "33.34"} {
					if !bySplitter[splitter].Equal(dec(want)) {
						t.Errorf("splitter %s total = %s, want %s", splitter, bySplitter[splitter], want)
					}
				}
				// Payers together are owed the full amount.
				financed := toPayers["A"].Add(toPayers["B"])
				if !financed.Equal(dec("100.00")) {
					t.Errorf("payers owed %s, want 100.00", financed)
				}
			},
		},
		{
			name: "payer sum mismatch",
			expense: &models.Expense{
				ID:        "e4",
				Amount:    dec("10.00"),
				Payers:    shares("A", "9.00"),
				Splitters: shares("B", "10.00"),
			},
			wantErr: ErrAmountMismatch,
		},
		{
			name: "splitter sum mismatch",
			expense: &models.Expense{
				ID:        "e5",
				Amount:    dec("10.00"),
				Payers:    shares("A", "10.00"),
				Splitters: shares("B", "9.99"),
			},
			wantErr: ErrAmountMismatch,
		},
		{
			// The splitter sum matches the total, so only the positivity
			// rule stands between this record and a negative-amount entry.
			name: "negative splitter share rejected despite matching sum",
			expense: &models.Expense{
				ID:        "e8",
				Amount:    dec("10.00"),
				Payers:    shares("A", "10.00"),
				Splitters: shares("B", "15.00", "C", "-5.00"),
			},
			wantErr: ErrNonPositiveShare,
		},
		{
			name: "zero payer share rejected",
			expense: &models.Expense{
				ID:        "e9",
				Amount:    dec("10.00"),
				Payers:    shares("A", "10.00", "B", "0.00"),
				Splitters: shares("C", "10.00"),
			},
			wantErr: ErrNonPositiveShare,
		},
		{
			name: "no splitters",
			expense: &models.Expense{
				ID:     "e6",
				Amount: dec("10.00"),
				Payers: shares("A", "10.00"),
			},
			wantErr: ErrEmptyRoles,
		},
		{
			name: "no payers",
			expense: &models.Expense{
				ID:        "e7",
				Amount:    dec("10.00"),
				Splitters: shares("B", "10.00"),
			},
			wantErr: ErrEmptyRoles,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, errs := Normalize([]*models.Expense{tt.expense}, nil)
			if tt.wantErr != nil {
				if len(errs) != 1 {
					t.Fatalf("got %d errors, want 1", len(errs))
				}
				if !errors.Is(errs[0], tt.wantErr) {
					t.Errorf("got error %v, want %v", errs[0], tt.wantErr)
				}
				if len(entries) != 0 {
					t.Errorf("rejected expense still produced %d entries", len(entries))
				}
				return
			}
			if len(errs) != 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}
			tt.validateFunc(t, entries)
		})
	}
}

func TestNormalizeTransfer(t *testing.T) {
	entries, errs := Normalize(nil, []*models.Transfer{
		{ID: "t1", PayerID: "A", ReceiverID: "B", Amount: dec("20.00")},
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.FromUser != "A" || e.ToUser != "B" || !e.Amount.Equal(dec("20.00")) || e.Kind != KindTransfer {
		t.Errorf("got %+v, want A -> B 20.00 transfer", e)
	}
}

func TestNormalizeRejectsNonPositiveTransfer(t *testing.T) {
	entries, errs := Normalize(nil, []*models.Transfer{
		{ID: "t1", PayerID: "A", ReceiverID: "B", Amount: dec("-3.00")},
		{ID: "t2", PayerID: "A", ReceiverID: "B", Amount: dec("3.00")},
	})
	if len(errs) != 1 || errs[0].SourceID != "t1" || !errors.Is(errs[0], ErrNonPositiveShare) {
		t.Fatalf("got errors %v, want one ErrNonPositiveShare for t1", errs)
	}
	if len(entries) != 1 || entries[0].SourceID != "t2" {
		t.Fatalf("got entries %v, want only t2", entries)
	}
}

func TestNormalizeRemainderDeterminism(t *testing.T) {
	// 0.01 cannot split proportionally between two payers; the last payer in
	// ID order absorbs it regardless of input payer order.
	build := func(payers []models.Share) *models.Expense {
		return &models.Expense{
			ID:        "e1",
			Amount:    dec("1.00"),
			Payers:    payers,
			Splitters: shares("C", "0.01", "D", "0.99"),
		}
	}

	first, errs := Normalize([]*models.Expense{build(shares("A", "0.50", "B", "0.50"))}, nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	second, errs := Normalize([]*models.Expense{build(shares("B", "0.50", "A", "0.50"))}, nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if len(first) != len(second) {
		t.Fatalf("entry counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.FromUser != b.FromUser || a.ToUser != b.ToUser || !a.Amount.Equal(b.Amount) {
			t.Errorf("entry %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestNormalizeSkipsBadRecordsKeepsRest(t *testing.T) {
	good := &models.Expense{
		ID:        "good",
		Amount:    dec("10.00"),
		Payers:    shares("A", "10.00"),
		Splitters: shares("B", "10.00"),
	}
	bad := &models.Expense{
		ID:        "bad",
		Amount:    dec("10.00"),
		Payers:    shares("A", "5.00"),
		Splitters: shares("B", "10.00"),
	}

	entries, errs := Normalize([]*models.Expense{bad, good}, nil)
	if len(errs) != 1 || errs[0].SourceID != "bad" {
		t.Fatalf("got errors %v, want one for 'bad'", errs)
	}
	if len(entries) != 1 || entries[0].SourceID != "good" {
		t.Fatalf("got entries %v, want only the good expense", entries)
	}
}
