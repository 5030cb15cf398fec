package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/middleware"
	"github.com/tallyhq/tally/internal/service"
)

// unknownUserLabel stands in for friends whose account no longer resolves
// to a display identity. The balance math is unaffected.
const unknownUserLabel = "Unknown user"

type friendBalanceItem struct {
	ledger.FriendBalance
	FriendName  string `json:"friend_name"`
	FriendImage string `json:"friend_image,omitempty"`
}

// Balance responses carry skipped_records so clients can flag that some
// stored history was unreadable and excluded from the figures.
type friendBalancesResponse struct {
	Balances       []friendBalanceItem `json:"balances"`
	SkippedRecords int                 `json:"skipped_records"`
}

// resolveFriends attaches display identities to friend balances. Friends
// with no resolvable user get a placeholder name instead of failing the
// request.
func (h *Handler) resolveFriends(r *http.Request, balances []ledger.FriendBalance) []friendBalanceItem {
	ids := make([]string, len(balances))
	for i, b := range balances {
		ids[i] = b.FriendID
	}
	users, err := h.store.ListUsersByIDs(r.Context(), ids)
	if err != nil {
		h.logger.Error("Failed to resolve friend identities", "error", err)
	}

	items := make([]friendBalanceItem, len(balances))
	for i, b := range balances {
		items[i] = friendBalanceItem{FriendBalance: b}
		if u, ok := users[b.FriendID]; ok {
			items[i].FriendName = u.DisplayName
			items[i].FriendImage = u.ImageURL
		} else {
			items[i].FriendName = unknownUserLabel
			h.logger.Warn("Friend has no display identity",
				"user_id", b.FriendID, "error", ledger.ErrUnknownUser)
		}
	}
	return items
}

func (h *Handler) friendBalances(w http.ResponseWriter, r *http.Request) {
	balances, skipped, err := h.balances.FriendBalances(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}

	items := h.resolveFriends(r, balances)
	if items == nil {
		items = []friendBalanceItem{}
	}
	h.respond(w, http.StatusOK, friendBalancesResponse{Balances: items, SkippedRecords: skipped})
}

func (h *Handler) friendBalance(w http.ResponseWriter, r *http.Request) {
	balance, skipped, err := h.balances.FriendBalance(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	items := h.resolveFriends(r, []ledger.FriendBalance{*balance})
	h.respond(w, http.StatusOK, struct {
		Balance        friendBalanceItem `json:"balance"`
		SkippedRecords int               `json:"skipped_records"`
	}{items[0], skipped})
}

func (h *Handler) groupBalances(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "id")
	if _, err := h.groups.GetGroup(r.Context(), viewerID, groupID); err != nil {
		h.writeError(w, err)
		return
	}

	balances, skipped, err := h.balances.GroupBalances(r.Context(), viewerID, groupID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, struct {
		Balances       map[string]decimal.Decimal `json:"balances"`
		SkippedRecords int                        `json:"skipped_records"`
	}{balances, skipped})
}

func (h *Handler) groupSuggestions(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "id")
	if _, err := h.groups.GetGroup(r.Context(), viewerID, groupID); err != nil {
		h.writeError(w, err)
		return
	}

	suggestions, skipped, err := h.balances.Suggestions(r.Context(), groupID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []ledger.SettlementSuggestion{}
	}
	h.respond(w, http.StatusOK, struct {
		Suggestions    []ledger.SettlementSuggestion `json:"suggestions"`
		SkippedRecords int                           `json:"skipped_records"`
	}{suggestions, skipped})
}

func (h *Handler) monthlyStats(w http.ResponseWriter, r *http.Request) {
	year := time.Now().UTC().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, service.ErrInvalidInput)
			return
		}
		year = parsed
	}

	stats, skipped, err := h.balances.MonthlyStats(r.Context(), middleware.GetUserID(r.Context()), year)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, struct {
		Stats          ledger.MonthlyStats `json:"stats"`
		SkippedRecords int                 `json:"skipped_records"`
	}{stats, skipped})
}

func (h *Handler) categoryBreakdown(w http.ResponseWriter, r *http.Request) {
	chart, skipped, err := h.balances.CategoryBreakdown(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, struct {
		Chart          ledger.CategoryChart `json:"chart"`
		SkippedRecords int                  `json:"skipped_records"`
	}{chart, skipped})
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.balances.Leaderboard(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if rows == nil {
		rows = []ledger.LeaderboardRow{}
	}
	h.respond(w, http.StatusOK, rows)
}
