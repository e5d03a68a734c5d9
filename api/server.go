package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/wricardo/mall-parking/wayfinder/logger"
	"github.com/wricardo/mall-parking/wayfinder/transport/websocket"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/config"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/engine"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/service"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/session"
)

// Server represents the REST API server
type Server struct {
	service service.NavigationService
	hub     *websocket.Hub
	router  *mux.Router
	log     *zerolog.Logger
	version string
}

// NewServer creates a new API server. hub may be nil.
func NewServer(navService service.NavigationService, hub *websocket.Hub) *Server {
	s := &Server{
		service: navService,
		hub:     hub,
		router:  mux.NewRouter(),
		log:     logger.Get(),
		version: "dev",
	}

	s.setupRoutes()
	return s
}

// WithVersion sets the version reported by the health endpoint
func (s *Server) WithVersion(v string) *Server {
	s.version = v
	return s
}

// WithLogger replaces the shared logger
func (s *Server) WithLogger(l *zerolog.Logger) *Server {
	s.log = l
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Vehicle and navigation
	api.HandleFunc("/sessions/{id}/vehicle", s.handleSaveVehicle).Methods("PUT")
	api.HandleFunc("/sessions/{id}/vehicle", s.handleClearVehicle).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/navigation", s.handleNavigate).Methods("GET")

	// Layouts
	api.HandleFunc("/layouts", s.handleListLayouts).Methods("GET")
	api.HandleFunc("/layouts", s.handleCreateLayout).Methods("POST")
	api.HandleFunc("/layouts/{name}", s.handleGetLayout).Methods("GET")
	api.HandleFunc("/layouts/{name}/path", s.handleFindPath).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors to status codes
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Msgf("[API] %s %s failed", r.Method, r.URL.Path)
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, config.ErrLayoutNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidLocationFormat),
		errors.Is(err, engine.ErrInvalidLayout),
		errors.Is(err, engine.ErrOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoVehicle),
		errors.Is(err, session.ErrSessionAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LayoutID string `json:"layout_id,omitempty"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	info, err := s.service.CreateSession(r.Context(), req.LayoutID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created", "accessed" (default)
	order := query.Get("order") // "asc", "desc" (default)
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 && l < len(sessions) {
		sessions = sessions[:l]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, websocket.EventSessionClosed, nil)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Vehicle and Navigation Handlers

func (s *Server) handleSaveVehicle(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Label) == "" {
		respondError(w, http.StatusBadRequest, "label is required, e.g. \"B3. Column F8\"")
		return
	}

	info, err := s.service.SaveVehicle(r.Context(), sessionID, req.Label)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastSession(websocket.EventVehicleSaved, info)
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleClearVehicle(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.ClearVehicle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastSession(websocket.EventVehicleClear, info)
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = acceptLanguage(r)
	}

	nav, err := s.service.Navigate(r.Context(), sessionID, locale)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastRoute(nav)
	}

	respondJSON(w, http.StatusOK, nav)
}

// Layout Handlers

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	layouts, err := s.service.ListLayouts(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, layouts)
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	layout, err := s.service.LoadLayout(r.Context(), name)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, layout)
}

func (s *Server) handleCreateLayout(w http.ResponseWriter, r *http.Request) {
	var layout engine.BasementLayout
	if err := json.NewDecoder(r.Body).Decode(&layout); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	layoutID := r.URL.Query().Get("id")
	if layoutID == "" {
		layoutID = strings.ToLower(layout.Name)
	}
	if layoutID == "" {
		respondError(w, http.StatusBadRequest, "Layout name is required")
		return
	}

	if err := s.service.SaveLayout(r.Context(), layoutID, &layout); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Layout saved successfully",
		"layout_id": layoutID,
	})
}

func (s *Server) handleFindPath(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")
	query := r.URL.Query()

	from, err := parsePoint(query.Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("from: %v", err))
		return
	}
	to, err := parsePoint(query.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("to: %v", err))
		return
	}

	leg, err := s.service.FindPath(r.Context(), name, from, to)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, leg)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "WebSocket not enabled", http.StatusNotImplemented)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, info.ID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
	})
}

// parsePoint accepts "x,y" grid coordinates or a column label such as "F8"
func parsePoint(v string) (engine.Position, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return engine.Position{}, fmt.Errorf("missing point, want x,y or a column label")
	}

	if x, y, ok := strings.Cut(v, ","); ok {
		px, errX := strconv.Atoi(strings.TrimSpace(x))
		py, errY := strconv.Atoi(strings.TrimSpace(y))
		if errX != nil || errY != nil {
			return engine.Position{}, fmt.Errorf("bad coordinates %q", v)
		}
		return engine.Position{X: px, Y: py}, nil
	}

	return engine.ParseColumn(v)
}

// acceptLanguage returns the primary tag of the first Accept-Language entry
func acceptLanguage(r *http.Request) string {
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return ""
	}
	first, _, _ := strings.Cut(header, ",")
	first, _, _ = strings.Cut(first, ";")
	return strings.TrimSpace(first)
}
