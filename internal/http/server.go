// Package http exposes the JSON API: auth, groups, shared and personal
// expenses, the settlement dashboard, and the group activity feed.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"divvy/internal/auth"
	"divvy/internal/cache"
	"divvy/internal/config"
	"divvy/internal/services"
	"divvy/internal/store"
)

type Server struct {
	http.Server
	store       store.Store
	expenses    *services.ExpenseService
	auth        *auth.Manager
	router      *mux.Router
	rateLimiter *rateLimiter

	// Dashboard summaries cached per profile ID, with a display name index
	// for invalidation by group member name.
	dashCache   *cache.LRUCache[dashboardResponse]
	dashViewers *viewerIndex

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(cfg *config.Config, st store.Store, expenses *services.ExpenseService, authMgr *auth.Manager) *Server {
	router := mux.NewRouter()

	s := &Server{
		store:            st,
		expenses:         expenses,
		auth:             authMgr,
		router:           router,
		rateLimiter:      newRateLimiter(),
		dashCache:        cache.NewLRUCache[dashboardResponse](200, 5*time.Minute),
		dashViewers:      newViewerIndex(),
		stopCacheCleanup: make(chan struct{}),
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}).Handler(router)

	s.Server = http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()

	go s.startCacheCleanup()

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.withObservability)

	s.router.HandleFunc("/healthz", handleHealth).Methods("GET")
	s.router.HandleFunc("/readyz", handleReady).Methods("GET")

	s.router.HandleFunc("/api/auth/register", s.handleRegister).Methods("POST")
	s.router.HandleFunc("/api/auth/login", s.handleLogin).Methods("POST")

	protected := s.router.PathPrefix("/api").Subrouter()
	protected.Use(s.authMiddleware)

	protected.HandleFunc("/me", s.handleMe).Methods("GET")

	protected.HandleFunc("/groups", s.handleListGroups).Methods("GET")
	protected.HandleFunc("/groups", s.handleCreateGroup).Methods("POST")
	protected.HandleFunc("/groups/{group_id}", s.handleGetGroup).Methods("GET")
	protected.HandleFunc("/groups/{group_id}", s.handleDeleteGroup).Methods("DELETE")
	protected.HandleFunc("/groups/{group_id}/members", s.handleAddMembers).Methods("POST")
	protected.HandleFunc("/groups/{group_id}/activity", s.handleGroupActivity).Methods("GET")

	protected.HandleFunc("/groups/{group_id}/expenses", s.handleListExpenses).Methods("GET")
	protected.HandleFunc("/groups/{group_id}/expenses", s.handleCreateExpense).Methods("POST")
	protected.HandleFunc("/expenses/{expense_id}/settle", s.handleSettleExpense).Methods("POST")
	protected.HandleFunc("/expenses/{expense_id}", s.handleDeleteExpense).Methods("DELETE")

	protected.HandleFunc("/dashboard", s.handleDashboard).Methods("GET")

	protected.HandleFunc("/personal-expenses", s.handleListPersonalExpenses).Methods("GET")
	protected.HandleFunc("/personal-expenses", s.handleCreatePersonalExpense).Methods("POST")
	protected.HandleFunc("/personal-expenses/{id}", s.handleDeletePersonalExpense).Methods("DELETE")
}

// withObservability adds security headers, request IDs, rate limiting on
// writes, and request logging.
func (s *Server) withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), contextKey("request_id"), requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// authMiddleware verifies the bearer token and attaches claims to the context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			respondError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		claims, err := s.auth.Parse(tokenString)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.dashCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Dashboard cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops background routines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
