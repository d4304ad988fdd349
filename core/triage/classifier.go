// Package triage turns caller transcripts into classifications, using remote
// providers when available and a local keyword taxonomy otherwise.
package triage

import (
	"context"
	"errors"

	"github.com/kilianp07/omnidispatch/core/logger"
	"github.com/kilianp07/omnidispatch/core/model"
	"github.com/kilianp07/omnidispatch/core/monitoring"
)

// SourceFallback tags classifications produced by the keyword taxonomy.
const SourceFallback = "fallback"

// Classifier reads a transcript.
type Classifier interface {
	Classify(ctx context.Context, transcript string) (model.Classification, error)
}

// Named is implemented by providers that can identify themselves in logs.
type Named interface {
	Name() string
}

// Resilient tries each provider in order and falls back to the keyword
// taxonomy. It never returns an error.
type Resilient struct {
	providers []Classifier
	fallback  *Keyword
	log       logger.Logger
}

// NewResilient builds a classifier chain. A nil fallback uses a time-seeded
// Keyword classifier.
func NewResilient(log logger.Logger, fallback *Keyword, providers ...Classifier) *Resilient {
	if fallback == nil {
		fallback = NewKeyword(nil)
	}
	return &Resilient{providers: providers, fallback: fallback, log: logger.OrNop(log)}
}

// Classify implements Classifier.
func (r *Resilient) Classify(ctx context.Context, transcript string) (model.Classification, error) {
	for _, p := range r.providers {
		name := providerName(p)
		c, err := p.Classify(ctx, transcript)
		if err == nil {
			if verr := c.Validate(); verr != nil {
				err = &model.MalformedResponseError{Component: "classifier/" + name, Err: verr}
			}
		}
		if err == nil {
			if c.Source == "" {
				c.Source = name
			}
			return c, nil
		}
		var mre *model.MalformedResponseError
		if errors.As(err, &mre) {
			monitoring.Capture("classifier", err)
		}
		r.log.Warnf("classifier %s failed, trying next: %v", name, err)
		if ctx.Err() != nil {
			break
		}
	}
	c := r.fallback.ClassifyText(transcript)
	r.log.Infof("keyword classification: %s/%s", c.EmergencyType, c.Priority)
	return c, nil
}

func providerName(c Classifier) string {
	if n, ok := c.(Named); ok {
		return n.Name()
	}
	return "provider"
}
