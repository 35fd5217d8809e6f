package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"divvy/internal/core"
)

type createGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type addMembersRequest struct {
	Members []string `json:"members"`
}

type groupJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

func toGroupJSON(g core.Group) groupJSON {
	return groupJSON{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		Members:   g.Members,
		CreatedAt: g.CreatedAt,
	}
}

// loadMemberGroup fetches the group and enforces that the viewer belongs
// to it. A nil group pointer means the response is already written.
func (s *Server) loadMemberGroup(w http.ResponseWriter, r *http.Request, groupID, viewerName string) *core.Group {
	group, err := s.store.Group(r.Context(), groupID)
	if err != nil {
		respondStoreError(w, r, err, "load group")
		return nil
	}
	if !group.HasMember(viewerName) {
		respondError(w, http.StatusForbidden, "not a member of this group")
		return nil
	}
	return &group
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	members := sanitizeAll(req.Members)
	// The creator is always a member.
	group := core.Group{
		ID:        uuid.NewString(),
		Name:      sanitizeInput(req.Name),
		CreatedBy: claims.ProfileID,
		Members:   ensureMember(members, claims.DisplayName),
		CreatedAt: time.Now().UTC(),
	}
	if err := group.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.CreateGroup(r.Context(), group); err != nil {
		respondStoreError(w, r, err, "create group")
		return
	}

	s.invalidateDashboards(group.Members)
	respondJSON(w, http.StatusCreated, toGroupJSON(group))
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	groups, err := s.store.GroupsForMember(r.Context(), claims.DisplayName)
	if err != nil {
		respondStoreError(w, r, err, "list groups")
		return
	}

	out := make([]groupJSON, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupJSON(g))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	group := s.loadMemberGroup(w, r, mux.Vars(r)["group_id"], claims.DisplayName)
	if group == nil {
		return
	}

	respondJSON(w, http.StatusOK, toGroupJSON(*group))
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	group, err := s.store.Group(r.Context(), mux.Vars(r)["group_id"])
	if err != nil {
		respondStoreError(w, r, err, "load group")
		return
	}
	if group.CreatedBy != claims.ProfileID {
		respondError(w, http.StatusForbidden, "only the creator can delete a group")
		return
	}

	if err := s.store.DeleteGroup(r.Context(), group.ID); err != nil {
		respondStoreError(w, r, err, "delete group")
		return
	}

	s.invalidateDashboards(group.Members)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAddMembers(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	var req addMembersRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	names := sanitizeAll(req.Members)
	if len(names) == 0 {
		respondError(w, http.StatusUnprocessableEntity, "no member names provided")
		return
	}

	group := s.loadMemberGroup(w, r, mux.Vars(r)["group_id"], claims.DisplayName)
	if group == nil {
		return
	}

	if err := s.store.AddMembers(r.Context(), group.ID, names); err != nil {
		respondStoreError(w, r, err, "add members")
		return
	}

	updated, err := s.store.Group(r.Context(), group.ID)
	if err != nil {
		respondStoreError(w, r, err, "load group")
		return
	}

	s.invalidateDashboards(updated.Members)
	respondJSON(w, http.StatusOK, toGroupJSON(updated))
}

func (s *Server) handleGroupActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	group := s.loadMemberGroup(w, r, mux.Vars(r)["group_id"], claims.DisplayName)
	if group == nil {
		return
	}

	entries, err := s.store.ActivityByGroup(r.Context(), group.ID, 50)
	if err != nil {
		respondStoreError(w, r, err, "load activity")
		return
	}

	type activityJSON struct {
		Kind      string    `json:"kind"`
		Message   string    `json:"message"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]activityJSON, 0, len(entries))
	for _, a := range entries {
		out = append(out, activityJSON{Kind: a.Kind, Message: a.Message, CreatedAt: a.CreatedAt})
	}
	respondJSON(w, http.StatusOK, out)
}

func ensureMember(members []string, name string) []string {
	for _, m := range members {
		if m == name {
			return members
		}
	}
	return append([]string{name}, members...)
}
