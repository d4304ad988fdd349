package dispatch

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/omnidispatch/api/respond"
	"github.com/kilianp07/omnidispatch/core/dispatch/logging"
	"github.com/kilianp07/omnidispatch/core/model"
)

// LogSource returns dispatch records matching a query.
type LogSource interface {
	DispatchLogs(ctx context.Context, q logging.LogQuery) ([]logging.LogRecord, error)
}

// NewLogHandler returns an HTTP handler exposing dispatch logs via GET /api/dispatch/logs.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewLogHandler(src LogSource, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		params := r.URL.Query()
		q := logging.LogQuery{
			IncidentID: params.Get("incident_id"),
			UnitID:     params.Get("unit_id"),
		}
		if s := params.Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := params.Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		if et := model.EmergencyType(params.Get("emergency_type")); et.Valid() {
			q.EmergencyType = et
		}
		if s := params.Get("limit"); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				q.Limit = n
			}
		}
		records, err := src.DispatchLogs(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []logging.LogRecord{}
		}
		respond.JSON(w, http.StatusOK, records)
	})
}
