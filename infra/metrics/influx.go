package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/omnidispatch/core/logger"
	coremetrics "github.com/kilianp07/omnidispatch/core/metrics"
)

// InfluxSink writes dispatch history to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string, log logger.Logger) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.OrNop(log),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config, log logger.Logger) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket, log)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordDispatch writes one point per dispatched unit.
func (s *InfluxSink) RecordDispatch(recs []coremetrics.DispatchRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range recs {
		p := write.NewPointWithMeasurement("unit_dispatched").
			AddTag("incident_id", r.IncidentID).
			AddTag("unit_id", r.UnitID).
			AddTag("category", string(r.Category)).
			AddTag("emergency_type", string(r.EmergencyType)).
			AddTag("priority", string(r.Priority)).
			AddField("distance_km", round3(r.DistanceKm)).
			AddField("eta_minutes", r.ETAMinutes).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordFallback records a collaborator replaced by its local fallback.
func (s *InfluxSink) RecordFallback(ev coremetrics.FallbackEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fallback_applied").
		AddTag("component", ev.Component).
		AddField("reason", ev.Reason).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordUnfulfilled records a required category that had no available unit.
func (s *InfluxSink) RecordUnfulfilled(ev coremetrics.UnfulfilledEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("category_unfulfilled").
		AddTag("incident_id", ev.IncidentID).
		AddTag("category", string(ev.Category)).
		AddField("count", 1).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
