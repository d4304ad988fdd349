// Package conversation tracks per-call state: turn history, the emergency
// context carried to follow-up messages and whether units were dispatched.
package conversation

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/omnidispatch/core/model"
)

// State is the position of a call in its lifecycle.
type State int

const (
	Idle State = iota
	FirstContact
	Engaged
	Ending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FirstContact:
		return "first_contact"
	case Engaged:
		return "engaged"
	case Ending:
		return "ending"
	default:
		return "unknown"
	}
}

// ErrAlreadyDispatched is returned when a session records a second dispatch.
var ErrAlreadyDispatched = errors.New("units already dispatched for this call")

var terminationPhrases = []string{
	"thank", "thanks", "bye", "goodbye", "stop", "that's all", "thats all", "end call", "hang up",
}

// IsTermination reports whether transcript asks to end the call.
func IsTermination(transcript string) bool {
	t := strings.ToLower(transcript)
	for _, p := range terminationPhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

// Session is the state of one call. Its methods are not synchronized on
// their own; callers hold the session lock for the whole message.
type Session struct {
	ID string

	mu         sync.Mutex
	turns      []model.Turn
	context    model.EmergencyContext
	dispatched bool
	state      State
	lastSeen   time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{ID: id, lastSeen: now}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Append records a turn. Caller turns move an idle call to first contact and
// resume an ending call.
func (s *Session) Append(speaker model.Speaker, text string, now time.Time) {
	s.turns = append(s.turns, model.Turn{Speaker: speaker, Text: text})
	s.lastSeen = now
	if speaker != model.SpeakerCaller {
		return
	}
	switch s.state {
	case Idle:
		s.state = FirstContact
	case Ending:
		if s.dispatched {
			s.state = Engaged
		} else {
			s.state = FirstContact
		}
	}
}

// Window returns a copy of the last n turns.
func (s *Session) Window(n int) []model.Turn {
	start := 0
	if n >= 0 && len(s.turns) > n {
		start = len(s.turns) - n
	}
	out := make([]model.Turn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out
}

// Turns returns a copy of the full history.
func (s *Session) Turns() []model.Turn { return s.Window(-1) }

func (s *Session) State() State                    { return s.state }
func (s *Session) Dispatched() bool                { return s.dispatched }
func (s *Session) Context() model.EmergencyContext { return s.context }

// MarkDispatched stores the context snapshot and moves the call to Engaged.
// It succeeds once per call until Reset.
func (s *Session) MarkDispatched(c model.EmergencyContext) error {
	if s.dispatched {
		return ErrAlreadyDispatched
	}
	c.UnitsDispatched = append([]string(nil), c.UnitsDispatched...)
	s.context = c
	s.dispatched = true
	s.state = Engaged
	return nil
}

// End moves the call to Ending. The dispatched flag is left untouched.
func (s *Session) End() { s.state = Ending }

// Reset clears history, context and the dispatched flag.
func (s *Session) Reset() {
	s.turns = nil
	s.context = model.EmergencyContext{}
	s.dispatched = false
	s.state = Idle
}

func (s *Session) idleSince(now time.Time) time.Duration { return now.Sub(s.lastSeen) }
