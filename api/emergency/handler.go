// Package emergency serves caller reports and call resets.
package emergency

import (
	"context"
	"net/http"

	"github.com/kilianp07/omnidispatch/api/respond"
	"github.com/kilianp07/omnidispatch/core/dispatch"
)

// Engine is the part of the dispatch engine used by these handlers.
type Engine interface {
	Submit(ctx context.Context, r dispatch.Report) (dispatch.Outcome, error)
	ResetCall(sessionID string) bool
}

// NewProcessHandler serves POST /api/emergency/process.
func NewProcessHandler(e Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rep dispatch.Report
		if err := respond.Decode(r, &rep, false); err != nil {
			respond.Error(w, err)
			return
		}
		if rep.SessionID == "" {
			rep.SessionID = r.URL.Query().Get("session_id")
		}
		out, err := e.Submit(r.Context(), rep)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, out)
	})
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

// NewResetHandler serves POST /api/call/reset. The session may be named in
// the body or the query; the default session is reset otherwise.
func NewResetHandler(e Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req resetRequest
		if err := respond.Decode(r, &req, true); err != nil {
			respond.Error(w, err)
			return
		}
		if req.SessionID == "" {
			req.SessionID = r.URL.Query().Get("session_id")
		}
		if req.SessionID == "" {
			req.SessionID = "default"
		}
		existed := e.ResetCall(req.SessionID)
		respond.JSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"message":    "Conversation reset",
			"session_id": req.SessionID,
			"existed":    existed,
		})
	})
}
