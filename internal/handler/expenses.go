package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/middleware"
	"github.com/tallyhq/tally/internal/models"
)

type shareDTO struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type expenseRequest struct {
	GroupID     string          `json:"group_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Payers      []shareDTO      `json:"payers"`
	Splitters   []shareDTO      `json:"splitters"`
}

func (req *expenseRequest) toModel() *models.Expense {
	return &models.Expense{
		GroupID:     req.GroupID,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Payers:      toShares(req.Payers),
		Splitters:   toShares(req.Splitters),
	}
}

func toShares(dtos []shareDTO) []models.Share {
	shares := make([]models.Share, len(dtos))
	for i, d := range dtos {
		shares[i] = models.Share{UserID: d.UserID, Amount: d.Amount}
	}
	return shares
}

type expenseResponse struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	CreatedBy   string          `json:"created_by"`
	Settled     bool            `json:"settled"`
	CreatedAt   int64           `json:"created_at"`
	Payers      []shareDTO      `json:"payers"`
	Splitters   []shareDTO      `json:"splitters"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		CreatedBy:   e.CreatedBy,
		Settled:     e.Settled,
		CreatedAt:   e.CreatedAt,
		Payers:      toShareDTOs(e.Payers),
		Splitters:   toShareDTOs(e.Splitters),
	}
}

func toShareDTOs(shares []models.Share) []shareDTO {
	dtos := make([]shareDTO, len(shares))
	for i, s := range shares {
		dtos[i] = shareDTO{UserID: s.UserID, Amount: s.Amount}
	}
	return dtos
}

func toExpenseResponses(expenses []*models.Expense) []expenseResponse {
	responses := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		responses[i] = toExpenseResponse(e)
	}
	return responses
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !h.decode(w, r, &req) {
		return
	}

	expense := req.toModel()
	if err := h.expenses.CreateExpense(r.Context(), middleware.GetUserID(r.Context()), expense); err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, toExpenseResponse(expense))
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.expenses.ListUserExpenses(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, toExpenseResponses(expenses))
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := h.expenses.GetExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, toExpenseResponse(expense))
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !h.decode(w, r, &req) {
		return
	}

	expense := req.toModel()
	expense.ID = chi.URLParam(r, "id")
	if err := h.expenses.UpdateExpense(r.Context(), middleware.GetUserID(r.Context()), expense); err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, toExpenseResponse(expense))
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.expenses.DeleteExpense(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}

func (h *Handler) settleExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Settled bool `json:"settled"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	err := h.expenses.SettleExpense(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req.Settled)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}

type transferResponse struct {
	ID         string          `json:"id"`
	PayerID    string          `json:"payer_id"`
	ReceiverID string          `json:"receiver_id"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  int64           `json:"created_at"`
}

func toTransferResponse(t *models.Transfer) transferResponse {
	return transferResponse{
		ID:         t.ID,
		PayerID:    t.PayerID,
		ReceiverID: t.ReceiverID,
		Amount:     t.Amount,
		Note:       t.Note,
		CreatedAt:  t.CreatedAt,
	}
}

func (h *Handler) createTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PayerID    string          `json:"payer_id"`
		ReceiverID string          `json:"receiver_id"`
		Amount     decimal.Decimal `json:"amount"`
		Note       string          `json:"note"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	transfer := &models.Transfer{
		PayerID:    req.PayerID,
		ReceiverID: req.ReceiverID,
		Amount:     req.Amount,
		Note:       req.Note,
	}
	if err := h.expenses.CreateTransfer(r.Context(), middleware.GetUserID(r.Context()), transfer); err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, toTransferResponse(transfer))
}

func (h *Handler) listTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := h.expenses.ListUserTransfers(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}

	responses := make([]transferResponse, len(transfers))
	for i, t := range transfers {
		responses[i] = toTransferResponse(t)
	}
	h.respond(w, http.StatusOK, responses)
}

func (h *Handler) deleteTransfer(w http.ResponseWriter, r *http.Request) {
	if err := h.expenses.DeleteTransfer(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}
