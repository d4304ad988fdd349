// Package api assembles the HTTP surface of the dispatch service.
package api

import (
	"context"
	"net/http"

	apidispatch "github.com/kilianp07/omnidispatch/api/dispatch"
	"github.com/kilianp07/omnidispatch/api/emergency"
	"github.com/kilianp07/omnidispatch/api/services"
	"github.com/kilianp07/omnidispatch/api/state"
	"github.com/kilianp07/omnidispatch/core/dispatch"
	"github.com/kilianp07/omnidispatch/core/logger"
	"github.com/kilianp07/omnidispatch/core/model"
	"github.com/kilianp07/omnidispatch/core/speech"
)

// Engine is everything the HTTP surface needs from the dispatch engine.
type Engine interface {
	emergency.Engine
	state.Engine
	apidispatch.LogSource
	Nearby(ctx context.Context, loc model.Location, kind model.EmergencyType) []model.Place
	Stats() dispatch.Stats
}

// Deps are the collaborators of the router. Speech and WS are optional.
type Deps struct {
	Engine      Engine
	Speech      speech.Synthesizer
	WS          http.Handler
	LogsToken   string
	CORSOrigins []string
	// Integrations maps an external service name to whether it is configured.
	Integrations map[string]bool
	Logger       logger.Logger
}

// NewRouter returns the root handler of the service.
func NewRouter(d Deps) http.Handler {
	log := logger.OrNop(d.Logger)
	mux := http.NewServeMux()

	mux.Handle("GET /{$}", rootHandler())
	mux.Handle("GET /health", healthHandler(d.Engine, d.Integrations))

	process := emergency.NewProcessHandler(d.Engine)
	mux.Handle("POST /api/emergency/process", process)
	mux.Handle("POST /api/emergency/process-full", process)
	mux.Handle("POST /api/call/reset", emergency.NewResetHandler(d.Engine))

	st := state.New(d.Engine)
	mux.HandleFunc("GET /api/incidents", st.Incidents)
	mux.HandleFunc("GET /api/incidents/{id}", st.Incident)
	mux.HandleFunc("POST /api/incidents/clear", st.Clear)
	mux.HandleFunc("GET /api/responders", st.Responders)
	mux.HandleFunc("POST /api/responders/init", st.InitFleet)

	mux.Handle("GET /api/places/nearby", services.NewNearbyHandler(d.Engine))
	mux.Handle("POST /api/voice/speak", services.NewSpeakHandler(d.Speech, log))
	mux.Handle("GET /api/dispatch/logs", apidispatch.NewLogHandler(d.Engine, d.LogsToken))

	if d.WS != nil {
		mux.Handle("GET /ws", d.WS)
	}
	return withCORS(withRecover(mux, log), d.CORSOrigins)
}
