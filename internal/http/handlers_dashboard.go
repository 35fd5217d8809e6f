package http

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/shopspring/decimal"

	"divvy/internal/core"
)

type settlementJSON struct {
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	Direction string `json:"direction"`
}

type dashboardResponse struct {
	TotalOwed     string           `json:"total_owed"`
	TotalOwing    string           `json:"total_owing"`
	NetBalance    string           `json:"net_balance"`
	Settlements   []settlementJSON `json:"settlements"`
	PersonalTotal string           `json:"personal_total"`
}

// handleDashboard feeds the viewer's expenses across all their groups to the
// settlement aggregator and adds a personal spending total. Results are
// cached per viewer for a few minutes; every expense or group write by a
// member invalidates the affected entries.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	if cached, found := s.dashCache.Get(claims.ProfileID); found {
		slog.DebugContext(r.Context(), "Dashboard cache hit", "viewer", claims.DisplayName)
		respondJSON(w, http.StatusOK, cached)
		return
	}

	expenses, err := s.store.ExpensesForMember(r.Context(), claims.DisplayName)
	if err != nil {
		respondStoreError(w, r, err, "load expenses")
		return
	}

	summary := core.ComputeSettlements(expenses, claims.DisplayName)

	personal, err := s.store.PersonalExpenses(r.Context(), claims.ProfileID)
	if err != nil {
		respondStoreError(w, r, err, "load personal expenses")
		return
	}
	personalTotal := decimal.Zero
	for _, p := range personal {
		personalTotal = personalTotal.Add(p.Amount)
	}

	resp := dashboardResponse{
		TotalOwed:     core.FormatAmount(summary.TotalOwed),
		TotalOwing:    core.FormatAmount(summary.TotalOwing),
		NetBalance:    core.FormatAmount(summary.TotalOwed.Sub(summary.TotalOwing)),
		Settlements:   make([]settlementJSON, 0, len(summary.Settlements)),
		PersonalTotal: core.FormatAmount(personalTotal),
	}
	for _, entry := range summary.Settlements {
		resp.Settlements = append(resp.Settlements, settlementJSON{
			Name:      entry.Name,
			Amount:    core.FormatAmount(entry.Amount),
			Direction: string(entry.Direction),
		})
	}

	s.dashCache.Set(claims.ProfileID, resp)
	s.dashViewers.add(claims.DisplayName, claims.ProfileID)
	respondJSON(w, http.StatusOK, resp)
}

// invalidateDashboards drops cached summaries for everyone a write affects.
// Group writes only know member display names, and display names are not
// unique across profiles, so the viewer index resolves each name to every
// profile that cached a dashboard under it.
func (s *Server) invalidateDashboards(members []string) {
	for _, m := range members {
		for _, profileID := range s.dashViewers.take(m) {
			s.dashCache.Delete(profileID)
		}
	}
}

// viewerIndex maps display names to the profile IDs holding a cached
// dashboard, so cache entries keyed by profile ID can be invalidated by name.
type viewerIndex struct {
	mu     sync.Mutex
	byName map[string]map[string]struct{}
}

func newViewerIndex() *viewerIndex {
	return &viewerIndex{byName: make(map[string]map[string]struct{})}
}

func (v *viewerIndex) add(name, profileID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ids, ok := v.byName[name]
	if !ok {
		ids = make(map[string]struct{})
		v.byName[name] = ids
	}
	ids[profileID] = struct{}{}
}

// take returns and forgets every profile ID registered under name.
func (v *viewerIndex) take(name string) []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	ids := v.byName[name]
	if len(ids) == 0 {
		return nil
	}
	delete(v.byName, name)
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}
