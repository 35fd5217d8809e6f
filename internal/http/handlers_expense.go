package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"divvy/internal/core"
)

type splitShareJSON struct {
	Member string `json:"member"`
	Amount string `json:"amount"`
}

type createExpenseRequest struct {
	Description string           `json:"description"`
	Amount      string           `json:"amount"`
	PaidBy      string           `json:"paid_by"`
	SplitType   string           `json:"split_type"`
	Splits      []splitShareJSON `json:"splits,omitempty"`
}

type expenseJSON struct {
	ID          string           `json:"id"`
	GroupID     string           `json:"group_id"`
	Description string           `json:"description"`
	Amount      string           `json:"amount"`
	PaidBy      string           `json:"paid_by"`
	SplitType   string           `json:"split_type"`
	Splits      []splitShareJSON `json:"splits,omitempty"`
	Settled     bool             `json:"settled"`
	CreatedAt   time.Time        `json:"created_at"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	out := expenseJSON{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      core.FormatAmount(e.Amount),
		PaidBy:      e.PaidBy,
		SplitType:   string(e.SplitType),
		Settled:     e.Settled,
		CreatedAt:   e.CreatedAt,
	}
	for _, s := range e.Splits {
		out.Splits = append(out.Splits, splitShareJSON{
			Member: s.Member,
			Amount: core.FormatAmount(s.Amount),
		})
	}
	return out
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group := s.loadMemberGroup(w, r, mux.Vars(r)["group_id"], claims.DisplayName)
	if group == nil {
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	paidBy := sanitizeInput(req.PaidBy)
	if paidBy == "" {
		paidBy = claims.DisplayName
	}
	if !group.HasMember(paidBy) {
		respondError(w, http.StatusUnprocessableEntity, "payer is not a group member")
		return
	}

	expense := core.Expense{
		GroupID:     group.ID,
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		PaidBy:      paidBy,
		SplitType:   core.SplitType(req.SplitType),
		Members:     group.Members,
	}
	for _, share := range req.Splits {
		shareAmount, err := core.ParseAmount(share.Amount)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "invalid split amount")
			return
		}
		expense.Splits = append(expense.Splits, core.SplitShare{
			Member: sanitizeInput(share.Member),
			Amount: shareAmount,
		})
	}

	saved, err := s.expenses.CreateExpense(r.Context(), expense)
	if err != nil {
		var status int
		switch {
		case errors.Is(err, core.ErrInvalidSplitType),
			errors.Is(err, core.ErrSplitMismatch),
			errors.Is(err, core.ErrEmptySplits),
			errors.Is(err, core.ErrEmptyDescription),
			errors.Is(err, core.ErrInvalidAmount):
			status = http.StatusUnprocessableEntity
		default:
			respondStoreError(w, r, err, "create expense")
			return
		}
		respondError(w, status, err.Error())
		return
	}

	s.invalidateDashboards(group.Members)
	respondJSON(w, http.StatusCreated, toExpenseJSON(saved))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	group := s.loadMemberGroup(w, r, mux.Vars(r)["group_id"], claims.DisplayName)
	if group == nil {
		return
	}

	expenses, err := s.store.ExpensesByGroup(r.Context(), group.ID)
	if err != nil {
		respondStoreError(w, r, err, "list expenses")
		return
	}

	out := make([]expenseJSON, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseJSON(e))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleSettleExpense(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	expense, err := s.store.Expense(r.Context(), mux.Vars(r)["expense_id"])
	if err != nil {
		respondStoreError(w, r, err, "load expense")
		return
	}

	group := s.loadMemberGroup(w, r, expense.GroupID, claims.DisplayName)
	if group == nil {
		return
	}

	if err := s.expenses.SettleExpense(r.Context(), expense.ID); err != nil {
		respondStoreError(w, r, err, "settle expense")
		return
	}

	s.invalidateDashboards(group.Members)
	respondJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	expense, err := s.store.Expense(r.Context(), mux.Vars(r)["expense_id"])
	if err != nil {
		respondStoreError(w, r, err, "load expense")
		return
	}

	group := s.loadMemberGroup(w, r, expense.GroupID, claims.DisplayName)
	if group == nil {
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), expense.ID); err != nil {
		respondStoreError(w, r, err, "delete expense")
		return
	}

	s.invalidateDashboards(group.Members)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
