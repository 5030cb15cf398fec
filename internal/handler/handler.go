// Package handler exposes the application as a JSON HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/middleware"
	"github.com/tallyhq/tally/internal/service"
	"github.com/tallyhq/tally/internal/storage"
)

// Handler wires the services into HTTP routes.
type Handler struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	store         storage.Store
	expenses      *service.ExpenseService
	balances      *service.BalanceService
	groups        *service.GroupService
	logger        *slog.Logger
}

// New creates a handler over the given services.
func New(
	authenticator auth.Authenticator,
	jwtManager *auth.JWTManager,
	store storage.Store,
	expenses *service.ExpenseService,
	balances *service.BalanceService,
	groups *service.GroupService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		store:         store,
		expenses:      expenses,
		balances:      balances,
		groups:        groups,
		logger:        logger,
	}
}

// Router builds the chi router with the full route table and middleware
// chain.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)

	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.jwtManager))

			r.Get("/auth/me", h.me)

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", h.createGroup)
				r.Get("/", h.listGroups)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.getGroup)
					r.Put("/", h.renameGroup)
					r.Delete("/", h.deleteGroup)
					r.Post("/members", h.addMembers)
					r.Delete("/members/{userID}", h.removeMember)
					r.Get("/expenses", h.listGroupExpenses)
					r.Get("/balances", h.groupBalances)
					r.Get("/suggestions", h.groupSuggestions)
				})
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Post("/", h.createExpense)
				r.Get("/", h.listExpenses)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.getExpense)
					r.Put("/", h.updateExpense)
					r.Delete("/", h.deleteExpense)
					r.Post("/settle", h.settleExpense)
				})
			})

			r.Route("/transfers", func(r chi.Router) {
				r.Post("/", h.createTransfer)
				r.Get("/", h.listTransfers)
				r.Delete("/{id}", h.deleteTransfer)
			})

			r.Get("/balances/friends", h.friendBalances)
			r.Get("/balances/friends/{id}", h.friendBalance)
			r.Get("/stats/monthly", h.monthlyStats)
			r.Get("/stats/categories", h.categoryBreakdown)
			r.Get("/leaderboard", h.leaderboard)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respond(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, ledger.ErrAmountMismatch),
		errors.Is(err, ledger.ErrEmptyRoles),
		errors.Is(err, ledger.ErrNonPositiveShare):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailExists):
		status = http.StatusConflict
	case errors.Is(err, auth.ErrWeakPassword):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
		h.logger.Error("Request failed", "error", err)
	}
	h.respond(w, status, errorResponse{Error: err.Error()})
}
