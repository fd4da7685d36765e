package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/geniuspost/internal/apperror"
	"github.com/sakif/geniuspost/internal/auth"
	"github.com/sakif/geniuspost/internal/service"
)

// LedgerHandler serves the usage counter and feedback endpoints.
// Every route is mounted behind auth.RequireSession.
type LedgerHandler struct {
	ledger *service.LedgerService
	logger *slog.Logger
}

// NewLedgerHandler creates a LedgerHandler.
func NewLedgerHandler(ledger *service.LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, logger: logger}
}

// TrackActionRequest is the body of /track_action.
type TrackActionRequest struct {
	Action string `json:"action"`
}

// sessionUser returns the user ID placed in the context by RequireSession.
// Its absence means the route was mounted without the guard.
func sessionUser(r *http.Request) (string, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", apperror.Unauthorized("login required", nil)
	}
	return userID, nil
}

// HandleTrackAction bumps one usage counter.
//
// HTTP: POST /track_action {"action": "export_pdf"}
//
//	200 {"status": "ok"}
//	400 {"error": "Invalid action"}
func (h *LedgerHandler) HandleTrackAction(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req TrackActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.ledger.RecordAction(r.Context(), userID, req.Action); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSubmitFeedback appends a feedback entry.
//
// HTTP: POST /submit_feedback {"star_rating": 5, "improvement_suggestion": "...", "would_recommend": true}
//
//	200 {"success": true}
//	400 {"success": false, "error": "star_rating must be between 1 and 5"}
func (h *LedgerHandler) HandleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		writeFailure(w, err)
		return
	}

	var in service.FeedbackInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeFailure(w, err)
		return
	}

	if _, err := h.ledger.RecordFeedback(r.Context(), userID, in); err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleFeedbackStatus tells the client whether to offer the feedback form.
//
// HTTP: GET /check_feedback_status → 200 {"has_submitted": false}
func (h *LedgerHandler) HandleFeedbackStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	has, err := h.ledger.HasFeedback(r.Context(), userID)
	if err != nil {
		h.logger.Error("feedback status failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"has_submitted": has})
}
