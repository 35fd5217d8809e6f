package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"divvy/internal/auth"
	"divvy/internal/core"
	"divvy/internal/store"
)

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token       string `json:"token"`
	ProfileID   string `json:"profile_id"`
	DisplayName string `json:"display_name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(sanitizeInput(req.Email))
	displayName := sanitizeInput(req.DisplayName)
	if email == "" || !strings.Contains(email, "@") {
		respondError(w, http.StatusUnprocessableEntity, "invalid email")
		return
	}
	if displayName == "" {
		respondError(w, http.StatusUnprocessableEntity, "display name is required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	profile := core.Profile{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
	}
	if err := s.store.CreateProfile(r.Context(), profile); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondError(w, http.StatusConflict, "email already registered")
			return
		}
		respondStoreError(w, r, err, "create profile")
		return
	}

	saved, err := s.store.ProfileByEmail(r.Context(), email)
	if err != nil {
		respondStoreError(w, r, err, "load profile")
		return
	}

	token, err := s.auth.Issue(saved.ID, saved.DisplayName)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to issue token", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusCreated, sessionResponse{
		Token:       token,
		ProfileID:   saved.ID,
		DisplayName: saved.DisplayName,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(sanitizeInput(req.Email))
	profile, err := s.store.ProfileByEmail(r.Context(), email)
	if err != nil {
		// Same response for unknown email and wrong password.
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := auth.CheckPassword(profile.PasswordHash, req.Password); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.auth.Issue(profile.ID, profile.DisplayName)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to issue token", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse{
		Token:       token,
		ProfileID:   profile.ID,
		DisplayName: profile.DisplayName,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	profile, err := s.store.ProfileByID(r.Context(), claims.ProfileID)
	if err != nil {
		respondStoreError(w, r, err, "load profile")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"profile_id":   profile.ID,
		"email":        profile.Email,
		"display_name": profile.DisplayName,
	})
}
