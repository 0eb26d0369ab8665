// Package api exposes the agent-reaction surface over HTTP, plus
// operational introspection: router decisions, incident history, the
// alert inbox, and a live websocket event stream.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/auton88n/workforce/internal/alert"
	"github.com/auton88n/workforce/internal/buildinfo"
	"github.com/auton88n/workforce/internal/escalation"
	"github.com/auton88n/workforce/internal/events"
	"github.com/auton88n/workforce/internal/persona"
	"github.com/auton88n/workforce/internal/reaction"
	"github.com/auton88n/workforce/internal/roster"
	"github.com/auton88n/workforce/internal/router"
	"github.com/auton88n/workforce/internal/workforce"
)

// adminHeader names the caller for admin-only endpoints. The API sits
// behind the application's own auth layer; the header carries the
// already-authenticated user id.
const adminHeader = "X-Admin-ID"

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the HTTP API server.
type Server struct {
	address    string
	port       int
	service    *workforce.Service
	registry   *persona.Registry
	router     *router.Router
	machine    *escalation.Machine
	alertStore *alert.Store
	dispatcher *alert.Dispatcher
	roster     *roster.Roster
	bus        *events.Bus
	logger     *slog.Logger
	server     *http.Server
}

// NewServer creates the API server. machine, alertStore, dispatcher,
// and bus may be nil; their endpoints return 503 when unconfigured.
func NewServer(address string, port int, svc *workforce.Service, registry *persona.Registry,
	rtr *router.Router, machine *escalation.Machine, alertStore *alert.Store,
	dispatcher *alert.Dispatcher, ros *roster.Roster, bus *events.Bus, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		address:    address,
		port:       port,
		service:    svc,
		registry:   registry,
		router:     rtr,
		machine:    machine,
		alertStore: alertStore,
		dispatcher: dispatcher,
		roster:     ros,
		bus:        bus,
		logger:     logger.With("component", "api"),
	}
}

// Start begins serving HTTP requests. Blocks until the server exits.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.withLogging(s.routes()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	s.logger.Info("starting API server", "address", s.address, "port", s.port)
	return s.server.ListenAndServe()
}

// routes builds the request mux. Split from Start so tests can drive
// the handlers through httptest without binding a port.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Agent-reaction surface
	mux.HandleFunc("POST /v1/agents/select", s.handleSelect)
	mux.HandleFunc("POST /v1/agents/react", s.handleReact)
	mux.HandleFunc("POST /v1/agents/format", s.handleFormat)
	mux.HandleFunc("GET /v1/agents", s.handleAgents)

	// Escalation
	mux.HandleFunc("POST /v1/incidents", s.handleIncident)
	mux.HandleFunc("GET /v1/incidents/{userId}", s.handleIncidentHistory)

	// Alerts
	mux.HandleFunc("POST /v1/alerts", s.handleAlertNotify)
	mux.HandleFunc("GET /v1/alerts/inbox", s.handleAlertInbox)
	mux.HandleFunc("POST /v1/alerts/{id}/approve", s.handleAlertApprove)

	// Router introspection
	mux.HandleFunc("GET /v1/router/decisions", s.handleRouterDecisions)
	mux.HandleFunc("GET /v1/router/stats", s.handleRouterStats)

	// Live event stream
	mux.HandleFunc("GET /v1/events", s.handleEvents)

	// Health
	mux.HandleFunc("GET /v1/healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/version", s.handleVersion)

	return mux
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    code,
		},
	}, s.logger)
}

// requireAdmin rejects callers whose X-Admin-ID header is not on the
// admin roster. Returns false after writing the error response.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	id := r.Header.Get(adminHeader)
	if id == "" || s.roster == nil || !s.roster.IsAdmin(id) {
		s.errorResponse(w, http.StatusForbidden, "admin access required")
		return false
	}
	return true
}

// Agent-reaction handlers

type selectRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.errorResponse(w, http.StatusBadRequest, "message is required")
		return
	}

	selected := s.service.SelectRelevantAgents(r.Context(), req.Message)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"agents": selected,
		"count":  len(selected),
	}, s.logger)
}

type reactRequest struct {
	Agents         []string `json:"agents,omitempty"`
	FounderMessage string   `json:"founder_message"`
	LeadReply      string   `json:"lead_reply"`
}

// handleReact runs the full pipeline: select (unless agents are given),
// react in parallel, format. The formatted string and the raw results
// are both returned.
func (s *Server) handleReact(w http.ResponseWriter, r *http.Request) {
	var req reactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FounderMessage == "" {
		s.errorResponse(w, http.StatusBadRequest, "founder_message is required")
		return
	}

	agents := req.Agents
	if len(agents) == 0 {
		agents = s.service.SelectRelevantAgents(r.Context(), req.FounderMessage)
	}

	reactions := s.service.InvokeAgentsParallel(r.Context(), agents, req.FounderMessage, req.LeadReply)
	formatted := s.service.FormatAgentReactions(r.Context(), req.LeadReply, reactions)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"agents":    agents,
		"reactions": reactions,
		"formatted": formatted,
	}, s.logger)
}

type formatRequest struct {
	LeadReply string            `json:"lead_reply"`
	Reactions []reaction.Result `json:"reactions"`
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	formatted := s.service.FormatAgentReactions(r.Context(), req.LeadReply, req.Reactions)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"formatted": formatted}, s.logger)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	type agentSummary struct {
		ID          string   `json:"id"`
		DisplayName string   `json:"display_name"`
		Emoji       string   `json:"emoji"`
		Keywords    []string `json:"keywords"`
		Lead        bool     `json:"lead,omitempty"`
	}

	profiles := s.registry.All()
	agents := make([]agentSummary, len(profiles))
	for i, p := range profiles {
		agents[i] = agentSummary{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Emoji:       p.Emoji,
			Keywords:    p.Keywords,
			Lead:        p.Lead,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"agents": agents,
		"count":  len(agents),
	}, s.logger)
}

// Escalation handlers

type incidentRequest struct {
	UserID       string `json:"user_id"`
	IncidentType string `json:"incident_type"`
}

func (s *Server) handleIncident(w http.ResponseWriter, r *http.Request) {
	if s.machine == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "escalation not configured")
		return
	}

	var req incidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.IncidentType == "" {
		s.errorResponse(w, http.StatusBadRequest, "user_id and incident_type are required")
		return
	}

	result := s.machine.RecordDetection(r.Context(), req.UserID, req.IncidentType)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, result, s.logger)
}

func (s *Server) handleIncidentHistory(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if s.machine == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "escalation not configured")
		return
	}

	userID := r.PathValue("userId")
	limit := parseIntParam(r, "limit", 50)

	history, err := s.machine.History(r.Context(), userID, limit)
	if err != nil {
		s.logger.Error("incident history failed", "error", err, "user", userID)
		s.errorResponse(w, http.StatusInternalServerError, "failed to read incident history")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"incidents": history,
		"count":     len(history),
	}, s.logger)
}

// Alert handlers

type notifyRequest struct {
	EmployeeID    string         `json:"employee_id"`
	Message       string         `json:"message"`
	Priority      string         `json:"priority,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	NeedsApproval bool           `json:"needs_approval,omitempty"`
}

// handleAlertNotify accepts an alert on behalf of an agent. Dispatch is
// fire-and-forget, so the response only acknowledges intake.
func (s *Server) handleAlertNotify(w http.ResponseWriter, r *http.Request) {
	if s.dispatcher == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "alerts not configured")
		return
	}

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EmployeeID == "" || req.Message == "" {
		s.errorResponse(w, http.StatusBadRequest, "employee_id and message are required")
		return
	}

	s.dispatcher.Notify(r.Context(), req.EmployeeID, req.Message, req.Priority, req.Details, req.NeedsApproval)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "accepted"}, s.logger)
}

func (s *Server) handleAlertInbox(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if s.alertStore == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "alerts not configured")
		return
	}

	recipientID := r.Header.Get(adminHeader)
	limit := parseIntParam(r, "limit", 50)

	entries, err := s.alertStore.Inbox(r.Context(), recipientID, limit)
	if err != nil {
		s.logger.Error("alert inbox failed", "error", err, "recipient", recipientID)
		s.errorResponse(w, http.StatusInternalServerError, "failed to read inbox")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"entries": entries,
		"count":   len(entries),
	}, s.logger)
}

func (s *Server) handleAlertApprove(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if s.alertStore == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "alerts not configured")
		return
	}

	id := r.PathValue("id")
	if err := s.alertStore.Approve(r.Context(), id); err != nil {
		s.errorResponse(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"status": "approved", "id": id}, s.logger)
}

// Router introspection handlers

func (s *Server) handleRouterDecisions(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}

	limit := parseIntParam(r, "limit", 20)
	decisions := s.router.AuditLog(limit)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"count":     len(decisions),
		"decisions": decisions,
	}, s.logger)
}

func (s *Server) handleRouterStats(w http.ResponseWriter, r *http.Request) {
	stats := s.router.GetStats()
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats, s.logger)
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.Info(), s.logger)
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
