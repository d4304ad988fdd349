// Package monitoring reports recovered errors and panics to Sentry.
package monitoring

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	coremon "github.com/kilianp07/omnidispatch/core/monitoring"
)

// Config defines settings for Sentry error monitoring.
type Config struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

// NewSentryMonitor initializes Sentry using the provided configuration and
// returns a Monitor implementation. An empty DSN yields a no-op monitor.
func NewSentryMonitor(cfg Config) (coremon.Monitor, error) {
	return newSentryMonitor(cfg, nil)
}

func newSentryMonitor(cfg Config, beforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
		BeforeSend:       beforeSend,
	})
	if err != nil {
		return nil, err
	}
	return &sentryMonitor{}, nil
}

type sentryMonitor struct{}

func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	if len(tags) == 0 {
		sentry.CaptureException(err)
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

func (s *sentryMonitor) RecoverPanic(r any) {
	if r == nil {
		return
	}
	if hub := sentry.CurrentHub(); hub != nil {
		hub.Recover(r)
		return
	}
	sentry.CaptureException(fmt.Errorf("panic: %v", r))
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }
