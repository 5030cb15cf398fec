package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tallyhq/tally/internal/middleware"
	"github.com/tallyhq/tally/internal/models"
)

type memberResponse struct {
	UserID   string `json:"user_id"`
	JoinedAt int64  `json:"joined_at"`
}

type groupResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	CreatedBy string           `json:"created_by"`
	CreatedAt int64            `json:"created_at"`
	Members   []memberResponse `json:"members"`
}

func toGroupResponse(g *models.Group) groupResponse {
	members := make([]memberResponse, len(g.Members))
	for i, m := range g.Members {
		members[i] = memberResponse{UserID: m.UserID, JoinedAt: m.JoinedAt}
	}
	return groupResponse{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
		Members:   members,
	}
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string   `json:"name"`
		MemberIDs []string `json:"member_ids"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	group, err := h.groups.CreateGroup(r.Context(), middleware.GetUserID(r.Context()), req.Name, req.MemberIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, toGroupResponse(group))
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListGroups(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}

	responses := make([]groupResponse, len(groups))
	for i, g := range groups {
		responses[i] = toGroupResponse(g)
	}
	h.respond(w, http.StatusOK, responses)
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.GetGroup(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, toGroupResponse(group))
}

func (h *Handler) renameGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	group, err := h.groups.RenameGroup(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, toGroupResponse(group))
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.DeleteGroup(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}

func (h *Handler) addMembers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberIDs []string `json:"member_ids"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	group, err := h.groups.AddMembers(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req.MemberIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, toGroupResponse(group))
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	err := h.groups.RemoveMember(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}

func (h *Handler) listGroupExpenses(w http.ResponseWriter, r *http.Request) {
	// Membership check first so outsiders cannot read the ledger.
	if _, err := h.groups.GetGroup(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}

	expenses, err := h.expenses.ListGroupExpenses(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, toExpenseResponses(expenses))
}
