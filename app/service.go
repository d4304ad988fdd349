package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/omnidispatch/api"
	"github.com/kilianp07/omnidispatch/config"
	"github.com/kilianp07/omnidispatch/core/advice"
	"github.com/kilianp07/omnidispatch/core/dispatch"
	coremetrics "github.com/kilianp07/omnidispatch/core/metrics"
	coremon "github.com/kilianp07/omnidispatch/core/monitoring"
	coreplaces "github.com/kilianp07/omnidispatch/core/places"
	"github.com/kilianp07/omnidispatch/core/speech"
	"github.com/kilianp07/omnidispatch/core/triage"
	"github.com/kilianp07/omnidispatch/infra/llm"
	"github.com/kilianp07/omnidispatch/infra/logger"
	"github.com/kilianp07/omnidispatch/infra/metrics"
	"github.com/kilianp07/omnidispatch/infra/monitoring"
	"github.com/kilianp07/omnidispatch/infra/mqtt"
	"github.com/kilianp07/omnidispatch/infra/places"
	infraspeech "github.com/kilianp07/omnidispatch/infra/speech"
	"github.com/kilianp07/omnidispatch/infra/ws"
	"github.com/kilianp07/omnidispatch/internal/eventbus"
)

// Service wires the dispatch engine to its collaborators and transports.
type Service struct {
	Engine *dispatch.Engine
	Router http.Handler

	cfg    *config.Config
	log    logger.Logger
	mqtt   *mqtt.PahoClient
	sink   coremetrics.MetricsSink
	speech speech.Synthesizer
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	var classifiers []triage.Classifier
	var advisors []advice.Advisor
	for _, p := range cfg.AI.Configured() {
		client, err := llm.NewClient(p)
		if err != nil {
			return nil, fmt.Errorf("llm %s: %w", p.Name, err)
		}
		classifiers = append(classifiers, llm.NewClassifier(client))
		advisors = append(advisors, llm.NewAdvisor(client))
		logg.Infof("llm provider %s enabled (%s)", p.Name, p.Model)
	}
	if len(classifiers) == 0 {
		logg.Warnf("no llm provider configured, using keyword classification")
	}

	finder := coreplaces.Fallback{Log: logger.New("places")}
	if cfg.Places.Enabled {
		g, err := places.NewGoogle(cfg.Places)
		if err != nil {
			return nil, fmt.Errorf("places: %w", err)
		}
		finder.Primary = g
	}

	svc := &Service{cfg: cfg, log: logg}
	if cfg.Speech.Enabled {
		el, err := infraspeech.NewElevenLabs(cfg.Speech)
		if err != nil {
			return nil, fmt.Errorf("speech: %w", err)
		}
		svc.speech = el
	}

	var sinks []coremetrics.MetricsSink
	var gauge coremetrics.ObserverGaugeRecorder
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
		gauge = sink
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics, logger.New("influx")))
	}
	if len(sinks) == 1 {
		svc.sink = sinks[0]
	} else if len(sinks) > 1 {
		svc.sink = metrics.NewMultiSink(sinks...)
	}

	store, err := newLogStore(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("dispatch log: %w", err)
	}

	bus := eventbus.New(eventbus.WithLogger(logger.New("eventbus")), eventbus.WithGauge(gauge))
	opts := []dispatch.Option{
		dispatch.WithLogger(logger.New("dispatch")),
		dispatch.WithClassifier(triage.NewResilient(logger.New("triage"), nil, classifiers...)),
		dispatch.WithAdvisor(advice.NewResilient(logger.New("advice"), advisors...)),
		dispatch.WithPlaces(finder),
		dispatch.WithBus(bus),
		dispatch.WithLogStore(store),
	}
	if svc.sink != nil {
		opts = append(opts, dispatch.WithMetrics(svc.sink))
	}
	engine, err := dispatch.New(cfg.Dispatch, opts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	svc.Engine = engine

	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT, logger.New("mqtt"))
		if err != nil {
			_ = engine.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.mqtt = client
		if err := bus.Register(mqtt.NewEventObserver(client, cfg.MQTT, logger.New("mqtt"))); err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("mqtt observer: %w", err)
		}
	}

	svc.Router = api.NewRouter(api.Deps{
		Engine:       engine,
		Speech:       svc.speech,
		WS:           ws.NewHandler(bus, logger.New("ws"), cfg.Server.CORSOrigins, cfg.Server.WSQueueSize),
		LogsToken:    cfg.Server.LogsToken,
		CORSOrigins:  cfg.Server.CORSOrigins,
		Integrations: integrations(cfg),
		Logger:       logger.New("api"),
	})
	return svc, nil
}

// integrations reports which external services hold credentials.
func integrations(cfg *config.Config) map[string]bool {
	out := map[string]bool{
		"google_places": cfg.Places.Enabled,
		"elevenlabs":    cfg.Speech.Enabled,
	}
	for _, p := range cfg.AI.Providers {
		out[p.Name] = p.APIKey != ""
	}
	return out
}

// Run serves HTTP and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.Engine.RunJanitor(ctx, s.cfg.Server.JanitorInterval())
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort, nil, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.Server.ReadTimeout(),
		WriteTimeout:      s.cfg.Server.WriteTimeout(),
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warnf("http shutdown: %v", err)
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	err := s.Engine.Close()
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	return err
}
