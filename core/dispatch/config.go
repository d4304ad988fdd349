package dispatch

import (
	"errors"
	"time"

	"github.com/kilianp07/omnidispatch/core/incident"
	"github.com/kilianp07/omnidispatch/core/model"
)

// Config defines dispatch-related settings.
type Config struct {
	ExternalTimeoutSeconds    int            `json:"external_timeout_seconds"`
	FallbackETAMinutes        int            `json:"fallback_eta_minutes"`
	SessionTTLMinutes         int            `json:"session_ttl_minutes"`
	ReinitFleetOnFirstContact bool           `json:"reinit_fleet_on_first_contact"`
	MaxClearedIncidents       int            `json:"max_cleared_incidents"`
	DefaultLocation           model.Location `json:"default_location"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.ExternalTimeoutSeconds == 0 {
		c.ExternalTimeoutSeconds = 12
	}
	if c.FallbackETAMinutes == 0 {
		c.FallbackETAMinutes = 5
	}
	if c.SessionTTLMinutes == 0 {
		c.SessionTTLMinutes = 30
	}
	if c.MaxClearedIncidents == 0 {
		c.MaxClearedIncidents = incident.DefaultMaxCleared
	}
	if c.DefaultLocation == (model.Location{}) {
		c.DefaultLocation = model.DefaultLocation
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.ExternalTimeoutSeconds < 1 || c.ExternalTimeoutSeconds > 60 {
		errs = append(errs, errors.New("dispatch.external_timeout_seconds must be within 1..60"))
	}
	if c.FallbackETAMinutes < 1 {
		errs = append(errs, errors.New("dispatch.fallback_eta_minutes must be positive"))
	}
	if c.SessionTTLMinutes < 0 {
		errs = append(errs, errors.New("dispatch.session_ttl_minutes must not be negative"))
	}
	if c.MaxClearedIncidents < 0 {
		errs = append(errs, errors.New("dispatch.max_cleared_incidents must not be negative"))
	}
	return errors.Join(errs...)
}

func (c Config) externalTimeout() time.Duration {
	return time.Duration(c.ExternalTimeoutSeconds) * time.Second
}

func (c Config) sessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}
