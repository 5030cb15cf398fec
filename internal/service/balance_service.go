package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/events"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// BalanceService serves every read over the ledger: friend balances, group
// balances, settlement suggestions, stats and the leaderboard.
//
// Balances come from two regimes. An incremental cache, primed at startup
// and kept current by ledger events, answers the hot per-pair queries.
// Richer views (friend breakdowns, stats) recompute from the full entry
// stream, which also surfaces records the normalizer had to skip.
type BalanceService struct {
	store         storage.Store
	cache         *ledger.Cache
	logger        *slog.Logger
	includeFormer bool
	primed        atomic.Bool
}

var _ events.Sink = (*BalanceService)(nil)

// NewBalanceService creates a new balance service. includeFormer controls
// whether group balances against departed members stay visible.
func NewBalanceService(store storage.Store, logger *slog.Logger, includeFormer bool) *BalanceService {
	return &BalanceService{
		store:         store,
		cache:         ledger.NewCache(),
		logger:        logger,
		includeFormer: includeFormer,
	}
}

// Prime replays the whole ledger into the cache. Called once at startup;
// until it completes, balance reads fall back to full recomputation.
func (s *BalanceService) Prime(ctx context.Context) error {
	entries, skipped, err := s.allEntries(ctx)
	if err != nil {
		return fmt.Errorf("failed to prime balance cache: %w", err)
	}

	bySource := make(map[string][]ledger.Entry)
	for _, e := range entries {
		bySource[e.SourceID] = append(bySource[e.SourceID], e)
	}
	for sourceID, es := range bySource {
		s.cache.Apply(sourceID, es)
	}

	s.primed.Store(true)
	s.logger.Info("Balance cache primed", "entries", len(entries), "sources", len(bySource), "skipped_records", skipped)
	return nil
}

// Handle keeps the cache current from ledger events. Implements events.Sink.
func (s *BalanceService) Handle(_ context.Context, e events.Event) error {
	switch e.Type {
	case events.TypeExpenseCreated, events.TypeExpenseUpdated, events.TypeTransferCreated:
		entries, ok := e.Data.([]ledger.Entry)
		if !ok {
			return fmt.Errorf("event %s for %s carries no entries", e.Type, e.SourceID)
		}
		s.cache.Apply(e.SourceID, entries)
	case events.TypeExpenseDeleted, events.TypeTransferDeleted:
		s.cache.Apply(e.SourceID, nil)
	}
	return nil
}

// FriendBalances computes the viewer's balance against every friend, with
// the direct/group breakdown. The second return is the number of stored
// records the normalizer skipped.
func (s *BalanceService) FriendBalances(ctx context.Context, viewerID string) ([]ledger.FriendBalance, int, error) {
	entries, skipped, err := s.allEntries(ctx)
	if err != nil {
		return nil, 0, err
	}
	groups, err := s.viewerGroups(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}
	balances := ledger.FriendBalances(entries, viewerID, groups, ledger.WithFormerMembers(s.includeFormer))
	return balances, skipped, nil
}

// FriendBalance computes the viewer's balance against one friend.
func (s *BalanceService) FriendBalance(ctx context.Context, viewerID, friendID string) (*ledger.FriendBalance, int, error) {
	balances, skipped, err := s.FriendBalances(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}
	for i := range balances {
		if balances[i].FriendID == friendID {
			return &balances[i], skipped, nil
		}
	}
	// No history with this friend yet; report an explicit zero.
	return &ledger.FriendBalance{FriendID: friendID}, skipped, nil
}

// GroupBalances computes the viewer's net per member within one group.
// Served from the cache once primed.
func (s *BalanceService) GroupBalances(ctx context.Context, viewerID, groupID string) (map[string]decimal.Decimal, int, error) {
	if s.primed.Load() {
		return s.cache.GroupBalances(viewerID, groupID), 0, nil
	}
	entries, skipped, err := s.allEntries(ctx)
	if err != nil {
		return nil, 0, err
	}
	return ledger.AggregateGroup(entries, groupID, viewerID), skipped, nil
}

// DirectBalances computes the viewer's net per counterparty outside any
// group. Served from the cache once primed.
func (s *BalanceService) DirectBalances(ctx context.Context, viewerID string) (map[string]decimal.Decimal, int, error) {
	if s.primed.Load() {
		return s.cache.DirectBalances(viewerID), 0, nil
	}
	entries, skipped, err := s.allEntries(ctx)
	if err != nil {
		return nil, 0, err
	}
	return ledger.AggregateDirect(entries, viewerID), skipped, nil
}

// Suggestions proposes transfers that settle a group's outstanding debt.
func (s *BalanceService) Suggestions(ctx context.Context, groupID string) ([]ledger.SettlementSuggestion, int, error) {
	entries, skipped, err := s.allEntries(ctx)
	if err != nil {
		return nil, 0, err
	}

	positions := make(map[string]decimal.Decimal)
	for _, e := range entries {
		if e.GroupID != groupID {
			continue
		}
		positions[e.ToUser] = positions[e.ToUser].Add(e.Amount)
		positions[e.FromUser] = positions[e.FromUser].Sub(e.Amount)
	}
	return ledger.SuggestSettlements(positions), skipped, nil
}

// MonthlyStats computes the viewer's month-by-month chart for one year.
func (s *BalanceService) MonthlyStats(ctx context.Context, viewerID string, year int) (ledger.MonthlyStats, int, error) {
	entries, skipped, err := s.allEntries(ctx)
	if err != nil {
		return ledger.MonthlyStats{}, 0, err
	}
	return ledger.ComputeMonthlyStats(entries, viewerID, year), skipped, nil
}

// CategoryBreakdown computes the viewer's spend-by-category donut.
func (s *BalanceService) CategoryBreakdown(ctx context.Context, viewerID string) (ledger.CategoryChart, int, error) {
	entries, skipped, err := s.allEntries(ctx)
	if err != nil {
		return ledger.CategoryChart{}, 0, err
	}
	return ledger.ComputeCategoryBreakdown(entries, viewerID), skipped, nil
}

// Leaderboard scores every user by expense activity.
func (s *BalanceService) Leaderboard(ctx context.Context) ([]ledger.LeaderboardRow, error) {
	activity, err := s.store.ListUserActivity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user activity: %w", err)
	}
	return ledger.ComputeLeaderboard(activity), nil
}

func (s *BalanceService) allEntries(ctx context.Context) ([]ledger.Entry, int, error) {
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load expenses: %w", err)
	}
	transfers, err := s.store.ListTransfers(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load transfers: %w", err)
	}

	entries, recordErrs := ledger.Normalize(expenses, transfers)
	for _, re := range recordErrs {
		s.logger.Warn("Skipping unreadable ledger record", "source_id", re.SourceID, "error", re.Err)
	}
	return entries, len(recordErrs), nil
}

func (s *BalanceService) viewerGroups(ctx context.Context, viewerID string) ([]ledger.GroupInfo, error) {
	groups, err := s.store.ListGroupsForUser(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}
	return groupInfos(groups), nil
}

func groupInfos(groups []*models.Group) []ledger.GroupInfo {
	infos := make([]ledger.GroupInfo, len(groups))
	for i, g := range groups {
		infos[i] = ledger.GroupInfo{
			ID:      g.ID,
			Name:    g.Name,
			Members: g.MemberIDs(),
		}
	}
	return infos
}
