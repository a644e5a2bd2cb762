// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "scheddy/internal/app"
)

// turnRequest mirrors the wire schema for POST /turns. Either text or
// fields must be present; fields wins when both are.
type turnRequest struct {
	Owner          string         `json:"owner"`
	Text           string         `json:"text,omitempty"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Fields         map[string]any `json:"fields,omitempty"`

	// TurnID is an optional idempotency key; retries carrying the same id
	// are not processed twice.
	TurnID string `json:"turn_id,omitempty"`
}

func (t turnRequest) validate() error {
	if strings.TrimSpace(t.Owner) == "" {
		return ErrMissingOwner
	}
	if strings.TrimSpace(t.Text) == "" && len(t.Fields) == 0 {
		return errors.New("missing text or fields")
	}
	return nil
}

// TurnsHandler handles conversational scheduling turns.
type TurnsHandler struct {
	deps Dependencies
}

// NewTurnsHandler creates a new turns handler.
func NewTurnsHandler(deps Dependencies) *TurnsHandler {
	return &TurnsHandler{deps: deps}
}

// HandlePostTurn handles POST /turns requests.
func (h *TurnsHandler) HandlePostTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.deps.HandleTurn(r.Context(), service.TurnRequest{
		Owner:          req.Owner,
		Text:           req.Text,
		ConversationID: req.ConversationID,
		Fields:         req.Fields,
		TurnID:         req.TurnID,
	})
	switch {
	case errors.Is(err, service.ErrMissingOwner):
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal", nil)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
