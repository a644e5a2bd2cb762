// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"scheddy/internal/domain/goal"
	"scheddy/internal/domain/model"
	"scheddy/internal/domain/types"
)

// GoalsHandler handles weekly goal requests.
type GoalsHandler struct {
	deps Dependencies
}

// NewGoalsHandler creates a new goals handler.
func NewGoalsHandler(deps Dependencies) *GoalsHandler {
	return &GoalsHandler{deps: deps}
}

type goalsResponse struct {
	Owner string               `json:"owner"`
	Week  string               `json:"week"`
	Goals []types.GoalProgress `json:"goals"`
}

// goalTarget mirrors one target row in the PUT /goals payload.
type goalTarget struct {
	Category    string  `json:"category"`
	TargetHours float64 `json:"target_hours"`
}

type setGoalsRequest struct {
	Owner string       `json:"owner"`
	Week  string       `json:"week"`
	Goals []goalTarget `json:"goals"`
}

func (s setGoalsRequest) validate() error {
	if strings.TrimSpace(s.Owner) == "" {
		return ErrMissingOwner
	}
	if _, _, err := goal.WeekBounds(s.Week); err != nil {
		return err
	}
	if len(s.Goals) == 0 {
		return errors.New("missing goals")
	}
	for _, g := range s.Goals {
		if strings.TrimSpace(g.Category) == "" {
			return errors.New("missing category")
		}
		if g.TargetHours <= 0 {
			return errors.New("target_hours must be positive")
		}
	}
	return nil
}

// HandleGoals dispatches GET and PUT /goals requests.
func (h *GoalsHandler) HandleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGetGoals(w, r)
	case http.MethodPut:
		h.handlePutGoals(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleGetGoals answers GET /goals. An absent week parameter means the
// current ISO week.
func (h *GoalsHandler) handleGetGoals(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	if owner == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingOwner)
		return
	}
	week := strings.TrimSpace(r.URL.Query().Get("week"))

	progress, err := h.deps.GoalProgress(r.Context(), owner, week)
	if errors.Is(err, goal.ErrBadWeekID) {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", nil)
		return
	}

	writeJSON(w, http.StatusOK, goalsResponse{
		Owner: owner,
		Week:  week,
		Goals: types.NewGoalProgress(progress),
	})
}

// handlePutGoals answers PUT /goals by replacing the owner's targets for
// the named week.
func (h *GoalsHandler) handlePutGoals(w http.ResponseWriter, r *http.Request) {
	var req setGoalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	rows := make([]model.WeeklyGoal, 0, len(req.Goals))
	for _, g := range req.Goals {
		rows = append(rows, model.WeeklyGoal{
			Owner:       req.Owner,
			WeekID:      req.Week,
			Category:    strings.ToLower(strings.TrimSpace(g.Category)),
			TargetHours: g.TargetHours,
		})
	}

	if err := h.deps.SetGoals(r.Context(), req.Owner, rows); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
