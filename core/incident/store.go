// Package incident keeps the list of reported incidents and their lifecycle.
package incident

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/kilianp07/omnidispatch/core/model"
)

// DefaultMaxCleared bounds how many cleared incidents are retained.
const DefaultMaxCleared = 200

// Draft carries the fields supplied by the caller of Create.
type Draft struct {
	Type            model.EmergencyType
	Priority        model.Priority
	Description     string
	Location        model.Location
	DispatchedUnits []model.DispatchSummary
	NearbyServices  []model.Place
	CallerPhone     string
	Analysis        model.Classification
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRand overrides the source of the id suffix.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) { s.rnd = r }
}

// WithMaxCleared sets the retention bound for cleared incidents.
func WithMaxCleared(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.maxCleared = n
		}
	}
}

// Store is a concurrency-safe in-memory incident list. Cleared incidents are
// retained for audit up to the configured bound.
type Store struct {
	mu         sync.RWMutex
	incidents  []model.Incident
	ids        map[string]struct{}
	now        func() time.Time
	rnd        *rand.Rand
	maxCleared int
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		ids:        make(map[string]struct{}),
		now:        time.Now,
		rnd:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6f6d6e69)),
		maxCleared: DefaultMaxCleared,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create records a new active incident and returns it.
func (s *Store) Create(d Draft) model.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := s.now()
	inc := model.Incident{
		ID:              s.nextID(created),
		Type:            d.Type,
		Priority:        d.Priority,
		Description:     d.Description,
		Location:        d.Location,
		DispatchedUnits: append([]model.DispatchSummary{}, d.DispatchedUnits...),
		NearbyServices:  append([]model.Place{}, d.NearbyServices...),
		Status:          model.IncidentActive,
		CreatedAt:       created,
		CallerPhone:     d.CallerPhone,
		Analysis:        d.Analysis,
	}
	s.incidents = append(s.incidents, inc)
	return inc
}

// nextID allocates "INC-<timestamp>-<nnn>", retrying the suffix on collision.
// Callers hold s.mu.
func (s *Store) nextID(t time.Time) string {
	stamp := t.Format("20060102150405")
	id := ""
	for attempt := 0; attempt < 1000; attempt++ {
		id = fmt.Sprintf("INC-%s-%03d", stamp, 100+s.rnd.IntN(900))
		if _, taken := s.ids[id]; !taken {
			s.ids[id] = struct{}{}
			return id
		}
	}
	// every suffix of this second is taken
	id = fmt.Sprintf("%s-%d", id, len(s.ids))
	s.ids[id] = struct{}{}
	return id
}

// Get returns the incident with the given id.
func (s *Store) Get(id string) (model.Incident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inc := range s.incidents {
		if inc.ID == id {
			return inc, true
		}
	}
	return model.Incident{}, false
}

// ListActive returns the active incidents in creation order.
func (s *Store) ListActive() []model.Incident {
	return s.list(func(inc model.Incident) bool { return inc.Status == model.IncidentActive })
}

// List returns every retained incident, active and cleared.
func (s *Store) List() []model.Incident {
	return s.list(func(model.Incident) bool { return true })
}

func (s *Store) list(keep func(model.Incident) bool) []model.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Incident, 0, len(s.incidents))
	for _, inc := range s.incidents {
		if keep(inc) {
			out = append(out, inc)
		}
	}
	return out
}

// ClearAll marks every active incident as cleared and returns them.
func (s *Store) ClearAll() []model.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var cleared []model.Incident
	for i := range s.incidents {
		if s.incidents[i].Status != model.IncidentActive {
			continue
		}
		ts := now
		s.incidents[i].Status = model.IncidentCleared
		s.incidents[i].ClearedAt = &ts
		cleared = append(cleared, s.incidents[i])
	}
	s.prune()
	return cleared
}

// prune drops the oldest cleared incidents above the retention bound.
// Callers hold s.mu.
func (s *Store) prune() {
	n := 0
	for _, inc := range s.incidents {
		if inc.Status == model.IncidentCleared {
			n++
		}
	}
	excess := n - s.maxCleared
	if excess <= 0 {
		return
	}
	kept := s.incidents[:0]
	for _, inc := range s.incidents {
		if excess > 0 && inc.Status == model.IncidentCleared {
			excess--
			continue
		}
		kept = append(kept, inc)
	}
	s.incidents = kept
}
