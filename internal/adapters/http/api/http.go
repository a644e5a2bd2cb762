// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	service "scheddy/internal/app"
	"scheddy/internal/domain/goal"
	"scheddy/internal/domain/model"
	"scheddy/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// HandleTurn runs one conversational scheduling turn.
	HandleTurn(ctx context.Context, req service.TurnRequest) (types.TurnResult, error)

	// Read operations expose calendar and goal data.
	ListEvents(ctx context.Context, owner string, from, to time.Time) ([]model.Event, error)
	GoalProgress(ctx context.Context, owner, weekID string) ([]goal.Progress, error)

	// SetGoals replaces the owner's weekly goal targets.
	SetGoals(ctx context.Context, owner string, goals []model.WeeklyGoal) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	turnsHandler  *TurnsHandler
	eventsHandler *EventsHandler
	goalsHandler  *GoalsHandler
	exportHandler *ExportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		turnsHandler:  NewTurnsHandler(deps),
		eventsHandler: NewEventsHandler(deps),
		goalsHandler:  NewGoalsHandler(deps),
		exportHandler: NewExportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/turns", MetricsMiddleware(s.turnsHandler.HandlePostTurn, "turns"))
	mux.HandleFunc("/events/export.ics", MetricsMiddleware(s.exportHandler.HandleExport, "export"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleGetEvents, "events"))
	mux.HandleFunc("/goals", MetricsMiddleware(s.goalsHandler.HandleGoals, "goals"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
