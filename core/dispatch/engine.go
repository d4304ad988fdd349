// Package dispatch coordinates a call from first report to follow-up: it
// classifies the report, assigns the nearest units, records the incident,
// keeps per-call context and publishes state changes.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/omnidispatch/core/advice"
	"github.com/kilianp07/omnidispatch/core/conversation"
	"github.com/kilianp07/omnidispatch/core/dispatch/logging"
	"github.com/kilianp07/omnidispatch/core/events"
	"github.com/kilianp07/omnidispatch/core/incident"
	"github.com/kilianp07/omnidispatch/core/logger"
	"github.com/kilianp07/omnidispatch/core/metrics"
	"github.com/kilianp07/omnidispatch/core/model"
	"github.com/kilianp07/omnidispatch/core/places"
	"github.com/kilianp07/omnidispatch/core/responder"
	"github.com/kilianp07/omnidispatch/core/triage"
	"github.com/kilianp07/omnidispatch/internal/eventbus"
)

// Report is one inbound caller message.
type Report struct {
	SessionID   string          `json:"session_id,omitempty"`
	Transcript  string          `json:"transcript"`
	Location    *model.Location `json:"caller_location,omitempty"`
	CallerPhone string          `json:"caller_phone,omitempty"`
}

// Analysis summarizes the classification returned to the caller.
type Analysis struct {
	Description     string `json:"description"`
	RequiresFire    bool   `json:"requires_fire"`
	RequiresMedical bool   `json:"requires_medical"`
	RequiresPolice  bool   `json:"requires_police"`
	ImmediateDanger bool   `json:"immediate_danger"`
}

// Outcome is the answer to a Report.
type Outcome struct {
	Success         bool                    `json:"success"`
	SessionID       string                  `json:"session_id"`
	IncidentID      string                  `json:"incident_id,omitempty"`
	EmergencyType   model.EmergencyType     `json:"emergency_type,omitempty"`
	Priority        model.Priority          `json:"priority,omitempty"`
	Message         string                  `json:"message"`
	DispatchedUnits []model.DispatchSummary `json:"dispatched_units"`
	NearbyServices  []model.Place           `json:"nearby_services"`
	ETAMinutes      int                     `json:"eta_minutes,omitempty"`
	Location        *model.Location         `json:"location,omitempty"`
	Analysis        *Analysis               `json:"analysis,omitempty"`
	IsEnding        bool                    `json:"is_ending,omitempty"`
	IsFollowup      bool                    `json:"is_followup,omitempty"`
}

// ErrEmptyTranscript is returned for reports without text.
var ErrEmptyTranscript = errors.New("transcript is empty")

// Engine owns the shared fleet and incident list. Fleet and incident
// mutations, and the snapshots served to observers, share one lock so that
// a dispatched unit is never visible without its incident.
type Engine struct {
	cfg Config

	mu        sync.RWMutex
	registry  *responder.Registry
	incidents *incident.Store
	seq       sequencer

	sessions   *conversation.Manager
	classifier triage.Classifier
	advisor    advice.Advisor
	places     places.Finder
	bus        eventbus.EventBus
	sink       metrics.MetricsSink
	store      logging.LogStore
	log        logger.Logger
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

func WithClassifier(c triage.Classifier) Option { return func(e *Engine) { e.classifier = c } }
func WithAdvisor(a advice.Advisor) Option       { return func(e *Engine) { e.advisor = a } }
func WithPlaces(f places.Finder) Option         { return func(e *Engine) { e.places = f } }
func WithBus(b eventbus.EventBus) Option        { return func(e *Engine) { e.bus = b } }
func WithMetrics(s metrics.MetricsSink) Option  { return func(e *Engine) { e.sink = s } }
func WithLogStore(s logging.LogStore) Option    { return func(e *Engine) { e.store = s } }
func WithLogger(l logger.Logger) Option         { return func(e *Engine) { e.log = l } }

// WithRegistry replaces the responder registry, e.g. to use a custom fleet template.
func WithRegistry(r *responder.Registry) Option { return func(e *Engine) { e.registry = r } }

// WithIncidentStore replaces the incident store.
func WithIncidentStore(s *incident.Store) Option { return func(e *Engine) { e.incidents = s } }

// WithSessions replaces the session manager.
func WithSessions(m *conversation.Manager) Option { return func(e *Engine) { e.sessions = m } }

// WithClock overrides the time source for log records.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// New creates an engine. Missing collaborators default to their local
// fallbacks; the bus defaults to an in-process Bus.
func New(cfg Config, opts ...Option) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	e := &Engine{cfg: cfg, now: time.Now}
	e.seq.cond = sync.NewCond(&e.seq.mu)
	for _, o := range opts {
		o(e)
	}
	e.log = logger.OrNop(e.log)
	if e.registry == nil {
		e.registry = responder.NewRegistry(nil)
	}
	if e.incidents == nil {
		e.incidents = incident.NewStore(incident.WithMaxCleared(cfg.MaxClearedIncidents))
	}
	if e.sessions == nil {
		e.sessions = conversation.NewManager(cfg.sessionTTL())
	}
	if e.classifier == nil {
		e.classifier = triage.NewResilient(e.log, nil)
	}
	if e.advisor == nil {
		e.advisor = advice.NewResilient(e.log)
	}
	if e.places == nil {
		e.places = places.Fallback{Log: e.log}
	}
	if e.bus == nil {
		e.bus = eventbus.New(eventbus.WithLogger(e.log))
	}
	if e.sink == nil {
		e.sink = metrics.NopSink{}
	}
	if e.store == nil {
		e.store = logging.NopStore{}
	}
	if s, ok := e.bus.(interface{ SetSnapshot(eventbus.SnapshotFunc) }); ok {
		s.SetSnapshot(e.Snapshot)
	}
	return e, nil
}

// Bus returns the event bus observers register with.
func (e *Engine) Bus() eventbus.EventBus { return e.bus }

// Sessions returns the conversation manager.
func (e *Engine) Sessions() *conversation.Manager { return e.sessions }

// Submit handles one caller message. External collaborators are bounded by
// the configured timeout and fall back locally, so only invalid input or an
// inconsistent fleet produce an error.
func (e *Engine) Submit(ctx context.Context, r Report) (Outcome, error) {
	if strings.TrimSpace(r.Transcript) == "" {
		return Outcome{}, ErrEmptyTranscript
	}
	if r.SessionID == "" {
		r.SessionID = conversation.DefaultSessionID
	}
	s := e.sessions.Get(r.SessionID)
	s.Lock()
	defer s.Unlock()

	s.Append(model.SpeakerCaller, r.Transcript, e.sessions.Now())

	switch {
	case conversation.IsTermination(r.Transcript):
		s.End()
		e.log.Infof("session %s: caller ending the call", r.SessionID)
		msg := e.advise(ctx, s, advice.Request{Transcript: r.Transcript, Context: s.Context(), Ending: true})
		return Outcome{Success: true, SessionID: r.SessionID, Message: msg, IsEnding: true,
			DispatchedUnits: []model.DispatchSummary{}, NearbyServices: []model.Place{}}, nil
	case s.Dispatched():
		msg := e.advise(ctx, s, advice.Request{Transcript: r.Transcript, Context: s.Context()})
		return Outcome{Success: true, SessionID: r.SessionID, Message: msg, IsFollowup: true,
			DispatchedUnits: []model.DispatchSummary{}, NearbyServices: []model.Place{}}, nil
	}
	return e.firstContact(ctx, s, r)
}

func (e *Engine) firstContact(ctx context.Context, s *conversation.Session, r Report) (Outcome, error) {
	loc := e.cfg.DefaultLocation
	if r.Location != nil {
		loc = *r.Location
	}

	// external inputs first; nothing below mutates shared state until both are in
	c := e.classify(ctx, r.Transcript)
	nearby := e.nearby(ctx, loc, c.EmergencyType)

	e.mu.Lock()
	if e.cfg.ReinitFleetOnFirstContact || e.registry.Empty() {
		e.registry.InitializeFleet(loc)
		e.log.Infof("fleet initialized around %.4f,%.4f", loc.Lat, loc.Lng)
	}
	start := time.Now()
	plan, err := Planner{Fleet: e.registry}.Plan(c.RequiredCategories(), loc)
	if err != nil {
		e.mu.Unlock()
		return Outcome{}, err
	}
	inc := e.incidents.Create(incident.Draft{
		Type:            c.EmergencyType,
		Priority:        c.Priority,
		Description:     c.Description,
		Location:        loc,
		DispatchedUnits: plan.Summaries,
		NearbyServices:  nearby,
		CallerPhone:     r.CallerPhone,
		Analysis:        c,
	})
	units := e.registry.List()
	ticket := e.seq.ticket()
	e.mu.Unlock()
	planningLatency.Observe(time.Since(start).Seconds())

	e.publish(ticket, events.NewNewIncident(inc), events.NewResponderUpdate(units))
	e.record(ctx, r.SessionID, inc, plan, c)

	eta := plan.MinETA(e.cfg.FallbackETAMinutes)
	snapshot := model.EmergencyContext{
		EmergencyType:   c.EmergencyType,
		Priority:        c.Priority,
		Description:     c.Description,
		ImmediateDanger: c.ImmediateDanger,
		UnitsDispatched: plan.UnitNames(),
		ETAMinutes:      eta,
		IncidentID:      inc.ID,
	}
	if err := s.MarkDispatched(snapshot); err != nil {
		return Outcome{}, err
	}
	e.log.Infof("incident %s created: %s/%s, %d unit(s), %d unfulfilled",
		inc.ID, c.EmergencyType, c.Priority, len(plan.Summaries), len(plan.Unfulfilled))

	guidance := e.advise(ctx, s, advice.Request{Transcript: r.Transcript, Context: snapshot, FirstContact: true})
	who := "emergency services"
	if names := plan.UnitNames(); len(names) > 0 {
		who = strings.Join(names, ", ")
	}

	return Outcome{
		Success:         true,
		SessionID:       r.SessionID,
		IncidentID:      inc.ID,
		EmergencyType:   c.EmergencyType,
		Priority:        c.Priority,
		Message:         fmt.Sprintf("%s dispatched to your location, ETA %d minutes. %s", who, eta, guidance),
		DispatchedUnits: nonNil(plan.Summaries),
		NearbyServices:  nearby,
		ETAMinutes:      eta,
		Location:        &loc,
		Analysis: &Analysis{
			Description:     c.Description,
			RequiresFire:    c.RequiresFire,
			RequiresMedical: c.RequiresMedical,
			RequiresPolice:  c.RequiresPolice,
			ImmediateDanger: c.ImmediateDanger,
		},
	}, nil
}

func (e *Engine) classify(ctx context.Context, transcript string) model.Classification {
	cctx, cancel := context.WithTimeout(ctx, e.cfg.externalTimeout())
	defer cancel()
	c, err := e.classifier.Classify(cctx, transcript)
	if err == nil {
		err = c.Validate()
	}
	if err != nil {
		e.log.Warnf("classifier failed, using keyword taxonomy: %v", err)
		c = triage.NewKeyword(nil).ClassifyText(transcript)
	}
	if c.Source == triage.SourceFallback {
		e.fallback("classifier", "no provider answered")
	}
	return c
}

func (e *Engine) nearby(ctx context.Context, loc model.Location, kind model.EmergencyType) []model.Place {
	pctx, cancel := context.WithTimeout(ctx, e.cfg.externalTimeout())
	defer cancel()
	ps, err := e.places.Nearby(pctx, loc, kind)
	if err != nil {
		e.log.Warnf("place lookup failed: %v", err)
		e.fallback("places", err.Error())
		ps, _ = places.Static{}.Nearby(pctx, loc, kind)
	}
	return nonNil(ps)
}

type sourcedAdvisor interface {
	AdviseWithSource(ctx context.Context, req advice.Request) (string, bool)
}

// advise asks the advisor with the recent history and records its answer
// as an assistant turn.
func (e *Engine) advise(ctx context.Context, s *conversation.Session, req advice.Request) string {
	req.History = s.Window(conversation.HistoryWindow)
	actx, cancel := context.WithTimeout(ctx, e.cfg.externalTimeout())
	defer cancel()

	var (
		text     string
		fellBack bool
	)
	if sa, ok := e.advisor.(sourcedAdvisor); ok {
		text, fellBack = sa.AdviseWithSource(actx, req)
	} else {
		var err error
		text, err = e.advisor.Advise(actx, req)
		if err != nil || strings.TrimSpace(text) == "" {
			e.log.Warnf("advisor failed: %v", err)
			text, _ = advice.Canned{}.Advise(actx, req)
			fellBack = true
		}
	}
	if fellBack {
		e.fallback("advisor", "no provider answered")
	}
	s.Append(model.SpeakerAssistant, text, e.sessions.Now())
	return text
}

func (e *Engine) fallback(component, reason string) {
	externalFallback.WithLabelValues(component).Inc()
	if fr, ok := e.sink.(metrics.FallbackRecorder); ok {
		if err := fr.RecordFallback(metrics.FallbackEvent{Component: component, Reason: reason, Time: e.now()}); err != nil {
			e.log.Errorf("fallback metrics error: %v", err)
		}
	}
}

// record feeds metrics sinks and the decision log.
func (e *Engine) record(ctx context.Context, session string, inc model.Incident, plan Plan, c model.Classification) {
	now := e.now()
	recs := make([]metrics.DispatchRecord, 0, len(plan.Summaries))
	for _, s := range plan.Summaries {
		unitsDispatched.WithLabelValues(string(s.Category)).Inc()
		recs = append(recs, metrics.DispatchRecord{
			IncidentID:    inc.ID,
			UnitID:        s.UnitID,
			Category:      s.Category,
			EmergencyType: inc.Type,
			Priority:      inc.Priority,
			DistanceKm:    s.DistanceKm,
			ETAMinutes:    s.ETAMinutes,
			Time:          now,
		})
	}
	if len(recs) > 0 {
		if err := e.sink.RecordDispatch(recs); err != nil {
			e.log.Errorf("metrics error: %v", err)
		}
	}
	ur, _ := e.sink.(metrics.UnfulfilledRecorder)
	for _, cat := range plan.Unfulfilled {
		unfulfilled.WithLabelValues(string(cat)).Inc()
		e.log.Warnf("incident %s: no available %s unit", inc.ID, cat)
		if ur != nil {
			if err := ur.RecordUnfulfilled(metrics.UnfulfilledEvent{IncidentID: inc.ID, Category: cat, Time: now}); err != nil {
				e.log.Errorf("unfulfilled metrics error: %v", err)
			}
		}
	}
	err := e.store.Append(ctx, logging.LogRecord{
		Timestamp:        now,
		SessionID:        session,
		IncidentID:       inc.ID,
		EmergencyType:    inc.Type,
		Priority:         inc.Priority,
		Location:         inc.Location,
		Required:         plan.Required,
		Unfulfilled:      plan.Unfulfilled,
		Dispatched:       plan.Summaries,
		ClassifierSource: c.Source,
	})
	if err != nil {
		e.log.Errorf("dispatch log append: %v", err)
	}
}

// ResetCall returns a session to Idle. It reports whether the session existed.
func (e *Engine) ResetCall(sessionID string) bool {
	return e.sessions.Reset(sessionID)
}

// ClearIncidents marks every active incident cleared and makes every unit
// available again. It returns the ids that were cleared.
func (e *Engine) ClearIncidents() []string {
	e.mu.Lock()
	cleared := e.incidents.ClearAll()
	e.registry.ResetAll()
	units := e.registry.List()
	ticket := e.seq.ticket()
	e.mu.Unlock()

	ids := make([]string, 0, len(cleared))
	for _, inc := range cleared {
		ids = append(ids, inc.ID)
	}
	e.log.Infof("cleared %d incident(s)", len(ids))
	e.publish(ticket, events.NewIncidentsCleared(ids), events.NewResponderUpdate(units))
	return ids
}

// ListIncidents returns the active incidents, or every retained incident
// when all is set.
func (e *Engine) ListIncidents(all bool) []model.Incident {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if all {
		return nonNil(e.incidents.List())
	}
	return nonNil(e.incidents.ListActive())
}

// Incident returns one incident by id.
func (e *Engine) Incident(id string) (model.Incident, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.incidents.Get(id)
}

// ListResponders returns the fleet.
func (e *Engine) ListResponders() []model.ResponderUnit {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return nonNil(e.registry.List())
}

// InitFleet replaces the fleet with units placed around loc.
func (e *Engine) InitFleet(loc model.Location) []model.ResponderUnit {
	e.mu.Lock()
	units := e.registry.InitializeFleet(loc)
	ticket := e.seq.ticket()
	e.mu.Unlock()
	e.log.Infof("initialized %d responders near %.4f,%.4f", len(units), loc.Lat, loc.Lng)
	e.publish(ticket, events.NewResponderUpdate(units))
	return units
}

// Snapshot builds the initial_state event for a new observer.
func (e *Engine) Snapshot() events.Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return events.NewInitialState(e.incidents.ListActive(), e.registry.List())
}

// Nearby looks up services near loc outside of any call.
func (e *Engine) Nearby(ctx context.Context, loc model.Location, kind model.EmergencyType) []model.Place {
	return e.nearby(ctx, loc, kind)
}

// DispatchLogs queries the decision log.
func (e *Engine) DispatchLogs(ctx context.Context, q logging.LogQuery) ([]logging.LogRecord, error) {
	recs, err := e.store.Query(ctx, q)
	return nonNil(recs), err
}

// Stats is the summary served by the health endpoint.
type Stats struct {
	ActiveIncidents     int `json:"active_incidents"`
	AvailableResponders int `json:"available_responders"`
	Sessions            int `json:"sessions"`
	ConnectedObservers  int `json:"connected_observers"`
}

// Stats reports current counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	active := len(e.incidents.ListActive())
	available := 0
	for _, u := range e.registry.List() {
		if u.Available() {
			available++
		}
	}
	e.mu.RUnlock()
	return Stats{
		ActiveIncidents:     active,
		AvailableResponders: available,
		Sessions:            e.sessions.Len(),
		ConnectedObservers:  e.bus.Len(),
	}
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (e *Engine) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if ids := e.sessions.Evict(); len(ids) > 0 {
				e.log.Debugf("evicted %d idle session(s)", len(ids))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close releases the bus and the decision log.
func (e *Engine) Close() error {
	e.bus.Close()
	return e.store.Close()
}

// publish sends evs once every earlier commit has been published.
func (e *Engine) publish(ticket uint64, evs ...events.Event) {
	e.seq.wait(ticket)
	defer e.seq.release(ticket)
	for _, ev := range evs {
		e.bus.Publish(ev)
	}
}

// sequencer hands out tickets under the engine lock and lets holders
// proceed strictly in ticket order.
type sequencer struct {
	mu   sync.Mutex
	cond *sync.Cond
	next uint64
	done uint64
}

func (s *sequencer) ticket() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

func (s *sequencer) wait(t uint64) {
	s.mu.Lock()
	for s.done != t-1 {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

func (s *sequencer) release(t uint64) {
	s.mu.Lock()
	s.done = t
	s.cond.Broadcast()
	s.mu.Unlock()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
