package ws

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/kilianp07/omnidispatch/core/logger"
	"github.com/kilianp07/omnidispatch/internal/eventbus"
)

// Handler upgrades requests and registers each connection on the bus.
type Handler struct {
	bus      eventbus.EventBus
	log      logger.Logger
	queue    int
	upgrader websocket.Upgrader
}

// NewHandler creates a handler. An empty origins list or "*" accepts any
// origin.
func NewHandler(bus eventbus.EventBus, log logger.Logger, origins []string, queue int) *Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	h := &Handler{bus: bus, log: logger.OrNop(log), queue: queue}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowed) == 0 || allowed["*"] || origin == "" || allowed[origin]
		},
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("ws upgrade: %v", err)
		return
	}
	obs := newObserver(conn, h.queue, h.log)
	go obs.writePump()
	if err := h.bus.Register(obs); err != nil {
		h.log.Warnf("ws register %s: %v", obs.ID(), err)
		_ = obs.Close()
		return
	}
	h.log.Infof("websocket client %s connected", obs.ID())
	obs.readLoop()
	h.bus.Unregister(obs.ID())
	_ = obs.Close()
	h.log.Infof("websocket client %s disconnected", obs.ID())
}
