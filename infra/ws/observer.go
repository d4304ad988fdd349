// Package ws streams dispatch events to browser clients over websockets.
package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kilianp07/omnidispatch/core/events"
	"github.com/kilianp07/omnidispatch/core/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	// DefaultQueueSize is the number of events buffered per client.
	DefaultQueueSize = 64
)

var (
	ErrQueueFull = errors.New("ws: send queue full")
	ErrClosed    = errors.New("ws: connection closed")
)

// Observer is a single websocket client registered on the event bus.
// Send only enqueues; a dedicated goroutine owns all data writes.
type Observer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
	log  logger.Logger
}

func newObserver(conn *websocket.Conn, queue int, log logger.Logger) *Observer {
	if queue <= 0 {
		queue = DefaultQueueSize
	}
	return &Observer{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, queue),
		done: make(chan struct{}),
		log:  logger.OrNop(log),
	}
}

func (o *Observer) ID() string { return o.id }

// Send queues e for delivery. A full queue means the client is too slow and
// is reported as an error so the bus drops it.
func (o *Observer) Send(e events.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	select {
	case <-o.done:
		return ErrClosed
	default:
	}
	select {
	case o.send <- b:
		return nil
	case <-o.done:
		return ErrClosed
	default:
		return ErrQueueFull
	}
}

// Close stops the writer and closes the connection. It is safe to call
// more than once.
func (o *Observer) Close() error {
	var err error
	o.once.Do(func() {
		close(o.done)
		_ = o.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		err = o.conn.Close()
	})
	return err
}

func (o *Observer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-o.done:
			return
		case msg := <-o.send:
			_ = o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := o.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				o.log.Debugf("ws %s write: %v", o.id, err)
				_ = o.Close()
				return
			}
		case <-ticker.C:
			if err := o.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = o.Close()
				return
			}
		}
	}
}

type clientMessage struct {
	Type string `json:"type"`
}

// readLoop answers pings until the client goes away.
func (o *Observer) readLoop() {
	o.conn.SetReadLimit(maxMessageSize)
	_ = o.conn.SetReadDeadline(time.Now().Add(pongWait))
	o.conn.SetPongHandler(func(string) error {
		return o.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := o.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				o.log.Debugf("ws %s read: %v", o.id, err)
			}
			return
		}
		_ = o.conn.SetReadDeadline(time.Now().Add(pongWait))
		var msg clientMessage
		if json.Unmarshal(data, &msg) != nil {
			continue
		}
		if msg.Type == "ping" {
			if err := o.Send(events.NewPong()); err != nil {
				return
			}
		}
	}
}
