package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"divvy/internal/core"
)

type createPersonalExpenseRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	SpentOn     string `json:"spent_on,omitempty"` // YYYY-MM-DD, defaults to today
}

type personalExpenseJSON struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	SpentOn     time.Time `json:"spent_on"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) handleCreatePersonalExpense(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	var req createPersonalExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	spentOn := time.Now().UTC()
	if req.SpentOn != "" {
		parsed, err := time.Parse("2006-01-02", req.SpentOn)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "invalid spent_on date, expected YYYY-MM-DD")
			return
		}
		spentOn = parsed
	}

	expense := core.PersonalExpense{
		ID:          uuid.NewString(),
		ProfileID:   claims.ProfileID,
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
		SpentOn:     spentOn,
		CreatedAt:   time.Now().UTC(),
	}
	if err := expense.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.CreatePersonalExpense(r.Context(), expense); err != nil {
		respondStoreError(w, r, err, "create personal expense")
		return
	}

	s.dashCache.Delete(claims.ProfileID)
	respondJSON(w, http.StatusCreated, toPersonalExpenseJSON(expense))
}

func (s *Server) handleListPersonalExpenses(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	expenses, err := s.store.PersonalExpenses(r.Context(), claims.ProfileID)
	if err != nil {
		respondStoreError(w, r, err, "list personal expenses")
		return
	}

	out := make([]personalExpenseJSON, 0, len(expenses))
	for _, p := range expenses {
		out = append(out, toPersonalExpenseJSON(p))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeletePersonalExpense(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	if err := s.store.DeletePersonalExpense(r.Context(), mux.Vars(r)["id"], claims.ProfileID); err != nil {
		respondStoreError(w, r, err, "delete personal expense")
		return
	}

	s.dashCache.Delete(claims.ProfileID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func toPersonalExpenseJSON(p core.PersonalExpense) personalExpenseJSON {
	return personalExpenseJSON{
		ID:          p.ID,
		Description: p.Description,
		Amount:      core.FormatAmount(p.Amount),
		Category:    p.Category,
		SpentOn:     p.SpentOn,
		CreatedAt:   p.CreatedAt,
	}
}
