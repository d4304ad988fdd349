package state

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/omnidispatch/core/model"
)

type fakeEngine struct {
	incidents []model.Incident
	cleared   []model.Incident
	units     []model.ResponderUnit
	origin    model.Location
}

func (f *fakeEngine) ListIncidents(all bool) []model.Incident {
	if all {
		return append(append([]model.Incident{}, f.incidents...), f.cleared...)
	}
	return f.incidents
}

func (f *fakeEngine) Incident(id string) (model.Incident, bool) {
	for _, inc := range f.incidents {
		if inc.ID == id {
			return inc, true
		}
	}
	return model.Incident{}, false
}

func (f *fakeEngine) ClearIncidents() []string {
	var ids []string
	for _, inc := range f.incidents {
		ids = append(ids, inc.ID)
	}
	f.cleared = append(f.cleared, f.incidents...)
	f.incidents = nil
	return ids
}

func (f *fakeEngine) ListResponders() []model.ResponderUnit { return f.units }

func (f *fakeEngine) InitFleet(loc model.Location) []model.ResponderUnit {
	f.origin = loc
	return f.units
}

func newMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/incidents", h.Incidents)
	mux.HandleFunc("GET /api/incidents/{id}", h.Incident)
	mux.HandleFunc("POST /api/incidents/clear", h.Clear)
	mux.HandleFunc("GET /api/responders", h.Responders)
	mux.HandleFunc("POST /api/responders/init", h.InitFleet)
	return mux
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, strings.NewReader(body)))
	out := map[string]json.RawMessage{}
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	return rr, out
}

func TestIncidentsAndClear(t *testing.T) {
	eng := &fakeEngine{incidents: []model.Incident{
		{ID: "INC-1", Type: model.EmergencyFire, Status: model.IncidentActive},
		{ID: "INC-2", Type: model.EmergencyMedical, Status: model.IncidentActive},
	}}
	mux := newMux(New(eng))

	rr, out := do(t, mux, http.MethodGet, "/api/incidents", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var incs []model.Incident
	require.NoError(t, json.Unmarshal(out["incidents"], &incs))
	assert.Len(t, incs, 2)

	rr, _ = do(t, mux, http.MethodGet, "/api/incidents/INC-2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"INC-2"`)

	rr, _ = do(t, mux, http.MethodGet, "/api/incidents/INC-9", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, out = do(t, mux, http.MethodPost, "/api/incidents/clear", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `["INC-1","INC-2"]`, string(out["cleared"]))
	assert.JSONEq(t, `"All incidents cleared"`, string(out["message"]))

	_, out = do(t, mux, http.MethodGet, "/api/incidents", "")
	assert.JSONEq(t, `[]`, string(out["incidents"]))

	_, out = do(t, mux, http.MethodGet, "/api/incidents?all=true", "")
	require.NoError(t, json.Unmarshal(out["incidents"], &incs))
	assert.Len(t, incs, 2)

	rr, out = do(t, mux, http.MethodPost, "/api/incidents/clear", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, string(out["cleared"]))
}

func TestRespondersInit(t *testing.T) {
	eng := &fakeEngine{units: []model.ResponderUnit{{ID: "FIRE-001", Category: model.CategoryFire}}}
	mux := newMux(New(eng))

	rr, out := do(t, mux, http.MethodGet, "/api/responders", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, string(out["responders"]), "FIRE-001")

	rr, out = do(t, mux, http.MethodPost, "/api/responders/init", `{"lat":12.97,"lng":77.59}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `true`, string(out["success"]))
	assert.Equal(t, model.Location{Lat: 12.97, Lng: 77.59}, eng.origin)

	rr, _ = do(t, mux, http.MethodPost, "/api/responders/init", `{"lat":12.97}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = do(t, mux, http.MethodPost, "/api/responders/init", `{`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
