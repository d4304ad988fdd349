package api

import (
	"net/http"
	"sort"

	"github.com/kilianp07/omnidispatch/api/respond"
)

// Version is reported by the root endpoint.
var Version = "3.0.0"

var features = []string{
	"AI emergency classification",
	"Nearest-unit dispatch",
	"Conversational follow-up guidance",
	"Nearby services lookup",
	"Voice synthesis",
	"Real-time websocket and MQTT updates",
}

func rootHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]any{
			"service":  "OmniDispatch API",
			"status":   "online",
			"version":  Version,
			"features": features,
		})
	})
}

func healthHandler(e Engine, integrations map[string]bool) http.Handler {
	names := make([]string, 0, len(integrations))
	for name := range integrations {
		names = append(names, name)
	}
	sort.Strings(names)
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{"status": "healthy"}
		for _, name := range names {
			if integrations[name] {
				body[name] = "connected"
			} else {
				body[name] = "missing_key"
			}
		}
		st := e.Stats()
		body["active_incidents"] = st.ActiveIncidents
		body["available_responders"] = st.AvailableResponders
		body["sessions"] = st.Sessions
		body["connected_observers"] = st.ConnectedObservers
		respond.JSON(w, http.StatusOK, body)
	})
}
