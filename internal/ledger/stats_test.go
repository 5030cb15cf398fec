package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func ts(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func TestComputeMonthlyStats(t *testing.T) {
	entries := []Entry{
		// January: B owes A 40 from an expense A financed.
		{FromUser: "B", ToUser: "A", Amount: dec("40.00"), Kind: KindExpenseShare, Timestamp: ts(2026, time.January, 5), SourceID: "e1"},
		// March: A owes C 15.50.
		{FromUser: "A", ToUser: "C", Amount: dec("15.50"), Kind: KindExpenseShare, Timestamp: ts(2026, time.March, 9), SourceID: "e2"},
		// March: A transfers 10 to B, B receives.
		{FromUser: "A", ToUser: "B", Amount: dec("10.00"), Kind: KindTransfer, Timestamp: ts(2026, time.March, 10), SourceID: "t1"},
		// December of the previous year: excluded.
		{FromUser: "B", ToUser: "A", Amount: dec("99.00"), Kind: KindExpenseShare, Timestamp: ts(2025, time.December, 31), SourceID: "e3"},
	}

	stats := ComputeMonthlyStats(entries, "A", 2026)

	if !stats.TotalPaid.Equal(dec("40.00")) {
		t.Errorf("TotalPaid = %s, want 40.00", stats.TotalPaid)
	}
	if !stats.TotalSplit.Equal(dec("15.50")) {
		t.Errorf("TotalSplit = %s, want 15.50", stats.TotalSplit)
	}
	if !stats.TotalTransferred.Equal(dec("10.00")) {
		t.Errorf("TotalTransferred = %s, want 10.00", stats.TotalTransferred)
	}
	if !stats.TotalReceived.IsZero() {
		t.Errorf("TotalReceived = %s, want 0", stats.TotalReceived)
	}

	if len(stats.Chart.Categories) != 12 {
		t.Fatalf("got %d chart categories, want 12", len(stats.Chart.Categories))
	}
	paid := seriesByName(t, stats.Chart, "Paid")
	if !paid[0].Equal(dec("40.00")) {
		t.Errorf("January paid = %s, want 40.00", paid[0])
	}
	split := seriesByName(t, stats.Chart, "Split")
	if !split[2].Equal(dec("15.50")) {
		t.Errorf("March split = %s, want 15.50", split[2])
	}
}

func TestMonthlyStatsBucketsInUTC(t *testing.T) {
	// 2026-01-31 23:30 UTC-5 is already February in that zone, but bucketing
	// is defined in UTC so it lands in February only if the UTC month says so.
	loc := time.FixedZone("UTC-5", -5*3600)
	entry := Entry{
		FromUser:  "B",
		ToUser:    "A",
		Amount:    dec("10.00"),
		Kind:      KindExpenseShare,
		Timestamp: time.Date(2026, time.January, 31, 23, 30, 0, 0, loc),
		SourceID:  "e1",
	}

	stats := ComputeMonthlyStats([]Entry{entry}, "A", 2026)
	paid := seriesByName(t, stats.Chart, "Paid")
	// 23:30 UTC-5 == 04:30 UTC on Feb 1.
	if !paid[1].Equal(dec("10.00")) {
		t.Errorf("February paid = %s, want 10.00 (UTC bucketing)", paid[1])
	}
	if !paid[0].IsZero() {
		t.Errorf("January paid = %s, want 0", paid[0])
	}
}

func seriesByName(t *testing.T, chart ChartData, name string) []decimal.Decimal {
	t.Helper()
	for _, s := range chart.Series {
		if s.Name == name {
			return s.Data
		}
	}
	t.Fatalf("series %q not found", name)
	return nil
}

func TestComputeCategoryBreakdown(t *testing.T) {
	entries := []Entry{
		{FromUser: "A", ToUser: "B", Amount: dec("30.00"), Kind: KindExpenseShare, Category: "food", SourceID: "e1"},
		{FromUser: "A", ToUser: "B", Amount: dec("12.00"), Kind: KindExpenseShare, Category: "travel", SourceID: "e2"},
		{FromUser: "A", ToUser: "B", Amount: dec("5.00"), Kind: KindExpenseShare, SourceID: "e3"},
		// Someone else's spending never appears in A's breakdown.
		{FromUser: "C", ToUser: "B", Amount: dec("99.00"), Kind: KindExpenseShare, Category: "food", SourceID: "e4"},
		// Transfers carry no category and are excluded.
		{FromUser: "A", ToUser: "B", Amount: dec("50.00"), Kind: KindTransfer, SourceID: "t1"},
	}

	chart := ComputeCategoryBreakdown(entries, "A")
	wantLabels := []string{"food", "travel", UncategorizedLabel}
	wantAmounts := []string{"30.00", "12.00", "5.00"}

	if len(chart.Labels) != len(wantLabels) {
		t.Fatalf("got labels %v, want %v", chart.Labels, wantLabels)
	}
	for i := range wantLabels {
		if chart.Labels[i] != wantLabels[i] {
			t.Errorf("label[%d] = %s, want %s", i, chart.Labels[i], wantLabels[i])
		}
		if !chart.Series[i].Equal(dec(wantAmounts[i])) {
			t.Errorf("series[%d] = %s, want %s", i, chart.Series[i], wantAmounts[i])
		}
	}
}

func TestComputeLeaderboard(t *testing.T) {
	tests := []struct {
		name      string
		users     []UserActivity
		wantOrder []string
		check     func(t *testing.T, rows []LeaderboardRow)
	}{
		{
			name: "score is created times settled ratio",
			users: []UserActivity{
				{UserID: "u1", Name: "Ada", ExpensesCreated: 10, ExpensesSettled: 4},
				{UserID: "u2", Name: "Ben", ExpensesCreated: 5, ExpensesSettled: 5},
			},
			wantOrder: []string{"u2", "u1"},
			check: func(t *testing.T, rows []LeaderboardRow) {
				if rows[1].SettledRatio != 0.4 || rows[1].TotalPoint != 4.0 {
					t.Errorf("u1 ratio=%v point=%v, want 0.4 and 4.0", rows[1].SettledRatio, rows[1].TotalPoint)
				}
				if rows[0].TotalPoint != 5.0 {
					t.Errorf("u2 point=%v, want 5.0", rows[0].TotalPoint)
				}
			},
		},
		{
			name: "zero expenses scores zero not NaN",
			users: []UserActivity{
				{UserID: "u1", ExpensesCreated: 0, ExpensesSettled: 0},
				{UserID: "u2", ExpensesCreated: 2, ExpensesSettled: 1},
			},
			wantOrder: []string{"u2", "u1"},
			check: func(t *testing.T, rows []LeaderboardRow) {
				if rows[1].SettledRatio != 0 || rows[1].TotalPoint != 0 {
					t.Errorf("zero-expense user scored %v/%v, want 0/0", rows[1].SettledRatio, rows[1].TotalPoint)
				}
			},
		},
		{
			name: "ties break by created then user id",
			users: []UserActivity{
				{UserID: "u3", ExpensesCreated: 4, ExpensesSettled: 2}, // point 2, created 4
				{UserID: "u2", ExpensesCreated: 2, ExpensesSettled: 2}, // point 2, created 2
				{UserID: "u1", ExpensesCreated: 2, ExpensesSettled: 2}, // point 2, created 2
			},
			wantOrder: []string{"u3", "u1", "u2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := ComputeLeaderboard(tt.users)
			if len(rows) != len(tt.wantOrder) {
				t.Fatalf("got %d rows, want %d", len(rows), len(tt.wantOrder))
			}
			for i, want := range tt.wantOrder {
				if rows[i].UserID != want {
					t.Errorf("row %d = %s, want %s", i, rows[i].UserID, want)
				}
			}
			if tt.check != nil {
				tt.check(t, rows)
			}
		})
	}
}
