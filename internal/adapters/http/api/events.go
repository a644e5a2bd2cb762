// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
	"time"

	"scheddy/internal/domain/types"
)

// EventsHandler handles calendar read requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

type eventsResponse struct {
	Owner  string        `json:"owner"`
	Count  int           `json:"count"`
	Events []types.Event `json:"events"`
}

// HandleGetEvents handles GET /events requests. Optional from/to query
// parameters (RFC3339) bound the window; absent bounds are unbounded.
func (h *EventsHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	if owner == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingOwner)
		return
	}

	from, ok := parseTimeParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := parseTimeParam(w, r, "to")
	if !ok {
		return
	}

	events, err := h.deps.ListEvents(r.Context(), owner, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", nil)
		return
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Owner:  owner,
		Count:  len(events),
		Events: types.NewEvents(events),
	})
}

// parseTimeParam reads an optional RFC3339 query parameter. A zero time
// means the parameter was absent. The bool is false when an error response
// has already been written.
func parseTimeParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return time.Time{}, false
	}
	return t, true
}
