package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/omnidispatch/core/metrics"
	"github.com/kilianp07/omnidispatch/core/model"
)

type lineServer struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineServer) start(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.bodies = append(l.bodies, strings.TrimSpace(string(data)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordDispatch(t *testing.T) {
	ls := &lineServer{}
	srv := ls.start(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket", nil)
	defer sink.Close()

	now := time.Now()
	rec := coremetrics.DispatchRecord{
		IncidentID:    "INC-20250101120000-001",
		UnitID:        "ENG-7",
		Category:      model.CategoryFire,
		EmergencyType: model.EmergencyFire,
		Priority:      model.PriorityCritical,
		DistanceKm:    1.23456,
		ETAMinutes:    3,
		Time:          now,
	}
	if err := sink.RecordDispatch([]coremetrics.DispatchRecord{rec}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("unit_dispatched").
		AddTag("incident_id", "INC-20250101120000-001").
		AddTag("unit_id", "ENG-7").
		AddTag("category", "fire").
		AddTag("emergency_type", "fire").
		AddTag("priority", "critical").
		AddField("distance_km", 1.235).
		AddField("eta_minutes", 3).
		SetTime(now)
	if len(ls.bodies) != 1 || ls.bodies[0] != line(p) {
		t.Errorf("unexpected bodies: %#v", ls.bodies)
	}
}

func TestInfluxSink_RecordFallbackAndUnfulfilled(t *testing.T) {
	ls := &lineServer{}
	srv := ls.start(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket", nil)
	defer sink.Close()

	now := time.Now()
	if err := sink.RecordFallback(coremetrics.FallbackEvent{Component: "classifier", Reason: "timeout", Time: now}); err != nil {
		t.Fatalf("record fallback: %v", err)
	}
	if err := sink.RecordUnfulfilled(coremetrics.UnfulfilledEvent{IncidentID: "INC-1", Category: model.CategoryPolice, Time: now}); err != nil {
		t.Fatalf("record unfulfilled: %v", err)
	}
	p1 := write.NewPointWithMeasurement("fallback_applied").
		AddTag("component", "classifier").
		AddField("reason", "timeout").
		SetTime(now)
	p2 := write.NewPointWithMeasurement("category_unfulfilled").
		AddTag("incident_id", "INC-1").
		AddTag("category", "police").
		AddField("count", 1).
		SetTime(now)
	if len(ls.bodies) != 2 || ls.bodies[0] != line(p1) || ls.bodies[1] != line(p2) {
		t.Errorf("unexpected bodies: %#v", ls.bodies)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	cfg := coremetrics.Config{
		InfluxURL:    srv.URL + "/api/v2/write",
		InfluxToken:  "tok",
		InfluxOrg:    "org",
		InfluxBucket: "bucket",
	}
	sink := NewInfluxSinkWithFallback(cfg, nil)
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
