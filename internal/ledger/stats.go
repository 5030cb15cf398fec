package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ChartSeries is one named line/bar in a chart.
type ChartSeries struct {
	Name string            `json:"name"`
	Data []decimal.Decimal `json:"data"`
}

// ChartData is a categorical chart: one label per bucket, one data point per
// bucket in each series.
type ChartData struct {
	Categories []string      `json:"categories"`
	Series     []ChartSeries `json:"series"`
}

// MonthlyStats summarizes one viewer's activity for a calendar year.
// Entries are bucketed by calendar month of their timestamp in UTC, so
// bucketing is deterministic regardless of where the server runs.
type MonthlyStats struct {
	Year int `json:"year"`

	// TotalPaid sums expense shares the viewer financed (viewer on the
	// owed side of the proportional distribution).
	TotalPaid decimal.Decimal `json:"total_paid"`

	// TotalSplit sums expense shares the viewer owes.
	TotalSplit decimal.Decimal `json:"total_split"`

	// TotalTransferred and TotalReceived sum transfer entries by direction.
	TotalTransferred decimal.Decimal `json:"total_transferred"`
	TotalReceived    decimal.Decimal `json:"total_received"`

	Chart ChartData `json:"chart"`
}

// CategoryChart is a donut-style breakdown of the viewer's owed expense
// shares by category, largest first.
type CategoryChart struct {
	Labels []string          `json:"chart_labels"`
	Series []decimal.Decimal `json:"chart_series"`
}

// UncategorizedLabel is the bucket for expenses without a category.
const UncategorizedLabel = "other"

var monthNames = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// ComputeMonthlyStats derives the viewer's per-month paid/split/transferred/
// received sums for the given year, plus a 12-bucket chart.
func ComputeMonthlyStats(entries []Entry, viewerID string, year int) MonthlyStats {
	paid := zeroMonths()
	split := zeroMonths()
	transferred := zeroMonths()
	received := zeroMonths()

	for _, e := range entries {
		ts := e.Timestamp.UTC()
		if ts.Year() != year {
			continue
		}
		m := int(ts.Month()) - 1

		switch e.Kind {
		case KindExpenseShare:
			if e.ToUser == viewerID {
				paid[m] = paid[m].Add(e.Amount)
			}
			if e.FromUser == viewerID {
				split[m] = split[m].Add(e.Amount)
			}
		case KindTransfer:
			if e.FromUser == viewerID {
				transferred[m] = transferred[m].Add(e.Amount)
			}
			if e.ToUser == viewerID {
				received[m] = received[m].Add(e.Amount)
			}
		}
	}

	return MonthlyStats{
		Year:             year,
		TotalPaid:        sumMonths(paid),
		TotalSplit:       sumMonths(split),
		TotalTransferred: sumMonths(transferred),
		TotalReceived:    sumMonths(received),
		Chart: ChartData{
			Categories: monthNames,
			Series: []ChartSeries{
				{Name: "Paid", Data: paid},
				{Name: "Split", Data: split},
				{Name: "Transferred", Data: transferred},
				{Name: "Received", Data: received},
			},
		},
	}
}

// ComputeCategoryBreakdown sums the viewer's owed expense shares per
// category. Buckets are ordered by amount descending, label ascending on
// ties, for stable rendering.
func ComputeCategoryBreakdown(entries []Entry, viewerID string) CategoryChart {
	totals := make(map[string]decimal.Decimal)
	for _, e := range entries {
		if e.Kind != KindExpenseShare || e.FromUser != viewerID {
			continue
		}
		label := e.Category
		if label == "" {
			label = UncategorizedLabel
		}
		totals[label] = totals[label].Add(e.Amount)
	}

	labels := make([]string, 0, len(totals))
	for label := range totals {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		a, b := totals[labels[i]], totals[labels[j]]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return labels[i] < labels[j]
	})

	chart := CategoryChart{Labels: labels}
	for _, label := range labels {
		chart.Series = append(chart.Series, totals[label])
	}
	return chart
}

// UserActivity is one user's expense activity, the leaderboard input.
type UserActivity struct {
	UserID          string
	Name            string
	ImageURL        string
	ExpensesCreated int
	ExpensesSettled int
}

// LeaderboardRow is one scored user.
type LeaderboardRow struct {
	UserID          string  `json:"user_id"`
	Name            string  `json:"name"`
	ImageURL        string  `json:"image,omitempty"`
	ExpensesCreated int     `json:"expenses_created"`
	SettledRatio    float64 `json:"settled_ratio"`
	TotalPoint      float64 `json:"total_point"`
}

// ComputeLeaderboard scores users by expenses created weighted by how
// reliably those expenses get settled: totalPoint = created * settledRatio.
// A user with zero expenses scores 0 rather than dividing by zero. Rows are
// sorted by score descending, created count descending, then user ID
// ascending so ties are deterministic.
func ComputeLeaderboard(users []UserActivity) []LeaderboardRow {
	rows := make([]LeaderboardRow, 0, len(users))
	for _, u := range users {
		ratio := 0.0
		if u.ExpensesCreated > 0 {
			ratio = float64(u.ExpensesSettled) / float64(u.ExpensesCreated)
		}
		rows = append(rows, LeaderboardRow{
			UserID:          u.UserID,
			Name:            u.Name,
			ImageURL:        u.ImageURL,
			ExpensesCreated: u.ExpensesCreated,
			SettledRatio:    ratio,
			TotalPoint:      float64(u.ExpensesCreated) * ratio,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalPoint != rows[j].TotalPoint {
			return rows[i].TotalPoint > rows[j].TotalPoint
		}
		if rows[i].ExpensesCreated != rows[j].ExpensesCreated {
			return rows[i].ExpensesCreated > rows[j].ExpensesCreated
		}
		return rows[i].UserID < rows[j].UserID
	})
	return rows
}

func zeroMonths() []decimal.Decimal {
	months := make([]decimal.Decimal, 12)
	for i := range months {
		months[i] = decimal.Zero
	}
	return months
}

func sumMonths(months []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range months {
		sum = sum.Add(m)
	}
	return sum
}
