package ledger

import (
	"sync"
	"testing"

	"github.com/tallyhq/tally/internal/models"
)

func TestCacheMatchesBatchAggregation(t *testing.T) {
	expenses := []*models.Expense{
		{
			ID: "e1", Amount: dec("60.00"),
			Payers:    shares("A", "60.00"),
			Splitters: shares("A", "20.00", "B", "20.00", "C", "20.00"),
		},
		{
			ID: "e2", GroupID: "g1", Amount: dec("30.00"),
			Payers:    shares("B", "30.00"),
			Splitters: shares("A", "15.00", "B", "15.00"),
		},
	}
	transfers := []*models.Transfer{
		{ID: "t1", PayerID: "C", ReceiverID: "A", Amount: dec("7.00")},
	}
	entries := mustNormalize(t, expenses, transfers)

	cache := NewCache()
	for _, source := range groupBySource(entries) {
		cache.Apply(source[0].SourceID, source)
	}

	for _, viewer := range []string{"A", "B", "C"} {
		want := AggregateDirect(entries, viewer)
		got := cache.DirectBalances(viewer)
		if len(got) != len(want) {
			t.Fatalf("viewer %s: cache %v, batch %v", viewer, got, want)
		}
		for id, net := range want {
			if !got[id].Equal(net) {
				t.Errorf("viewer %s balance[%s]: cache %s, batch %s", viewer, id, got[id], net)
			}
		}

		wantGroup := AggregateGroup(entries, "g1", viewer)
		gotGroup := cache.GroupBalances(viewer, "g1")
		if len(gotGroup) != len(wantGroup) {
			t.Fatalf("viewer %s group: cache %v, batch %v", viewer, gotGroup, wantGroup)
		}
		for id, net := range wantGroup {
			if !gotGroup[id].Equal(net) {
				t.Errorf("viewer %s group balance[%s]: cache %s, batch %s", viewer, id, gotGroup[id], net)
			}
		}
	}
}

func TestCacheApplyIdempotent(t *testing.T) {
	entries := mustNormalize(t, []*models.Expense{
		{
			ID: "e1", Amount: dec("10.00"),
			Payers:    shares("A", "10.00"),
			Splitters: shares("A", "5.00", "B", "5.00"),
		},
	}, nil)

	cache := NewCache()
	cache.Apply("e1", entries)
	cache.Apply("e1", entries) // replayed delivery

	if got := cache.Balance("A", "B", ""); !got.Equal(dec("5.00")) {
		t.Errorf("balance after replay = %s, want 5.00 (no double count)", got)
	}
}

func TestCacheApplyUpdateAndDelete(t *testing.T) {
	original := mustNormalize(t, []*models.Expense{
		{
			ID: "e1", Amount: dec("10.00"),
			Payers:    shares("A", "10.00"),
			Splitters: shares("A", "5.00", "B", "5.00"),
		},
	}, nil)
	updated := mustNormalize(t, []*models.Expense{
		{
			ID: "e1", Amount: dec("30.00"),
			Payers:    shares("A", "30.00"),
			Splitters: shares("A", "10.00", "B", "20.00"),
		},
	}, nil)

	cache := NewCache()
	cache.Apply("e1", original)
	cache.Apply("e1", updated)

	if got := cache.Balance("A", "B", ""); !got.Equal(dec("20.00")) {
		t.Errorf("balance after update = %s, want 20.00", got)
	}
	if got := cache.Balance("B", "A", ""); !got.Equal(dec("-20.00")) {
		t.Errorf("mirror balance after update = %s, want -20.00", got)
	}

	cache.Apply("e1", nil) // delete
	if cache.Len() != 0 {
		t.Errorf("cache holds %d cells after delete, want 0", cache.Len())
	}
}

func TestCacheReleasesSourceStateOnDelete(t *testing.T) {
	entries := mustNormalize(t, []*models.Expense{
		{
			ID: "e1", Amount: dec("10.00"),
			Payers:    shares("A", "10.00"),
			Splitters: shares("B", "10.00"),
		},
	}, nil)

	cache := NewCache()
	cache.Apply("e1", entries)
	cache.Apply("e1", nil)

	// A deleted source must not pin per-source state forever: a long-lived
	// cache sees every record eventually deleted.
	if n := len(cache.applied); n != 0 {
		t.Errorf("applied holds %d sources after delete, want 0", n)
	}
	if n := len(cache.srcMu); n != 0 {
		t.Errorf("srcMu holds %d mutexes after delete, want 0", n)
	}

	// Re-creating the same source still works after release.
	cache.Apply("e1", entries)
	if got := cache.Balance("A", "B", ""); !got.Equal(dec("10.00")) {
		t.Errorf("balance after re-apply = %s, want 10.00", got)
	}
}

func TestCacheConcurrentApply(t *testing.T) {
	expenses := make([]*models.Expense, 50)
	for i := range expenses {
		expenses[i] = &models.Expense{
			ID:        string(rune('a'+i%26)) + "-" + string(rune('0'+i/26)),
			Amount:    dec("10.00"),
			Payers:    shares("A", "10.00"),
			Splitters: shares("A", "5.00", "B", "5.00"),
		}
	}
	entries := mustNormalize(t, expenses, nil)
	bySource := groupBySource(entries)

	cache := NewCache()
	var wg sync.WaitGroup
	for _, source := range bySource {
		wg.Add(1)
		go func(id string, es []Entry) {
			defer wg.Done()
			// Replay each source a few times concurrently.
			for i := 0; i < 3; i++ {
				cache.Apply(id, es)
			}
		}(source[0].SourceID, source)
	}
	wg.Wait()

	want := dec("5.00").Mul(dec("50"))
	if got := cache.Balance("A", "B", ""); !got.Equal(want) {
		t.Errorf("balance = %s, want %s", got, want)
	}
}

func groupBySource(entries []Entry) map[string][]Entry {
	bySource := make(map[string][]Entry)
	for _, e := range entries {
		bySource[e.SourceID] = append(bySource[e.SourceID], e)
	}
	return bySource
}
