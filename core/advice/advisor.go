// Package advice produces the guidance text spoken back to a caller.
package advice

import (
	"context"
	"errors"
	"strings"

	"github.com/kilianp07/omnidispatch/core/logger"
	"github.com/kilianp07/omnidispatch/core/model"
	"github.com/kilianp07/omnidispatch/core/monitoring"
)

// Request is everything an advisor may use to answer the latest message.
type Request struct {
	Transcript   string
	Context      model.EmergencyContext
	FirstContact bool
	// Ending is set when the caller is closing the call.
	Ending bool
	// History holds the most recent turns, latest last.
	History []model.Turn
}

// Advisor answers a caller message with guidance text.
type Advisor interface {
	Advise(ctx context.Context, req Request) (string, error)
}

// Resilient asks each provider in order and answers from the canned table
// when none of them can.
type Resilient struct {
	providers []Advisor
	fallback  Canned
	log       logger.Logger
}

func NewResilient(log logger.Logger, providers ...Advisor) *Resilient {
	return &Resilient{providers: providers, log: logger.OrNop(log)}
}

// Advise implements Advisor and never fails.
func (r *Resilient) Advise(ctx context.Context, req Request) (string, error) {
	text, _ := r.AdviseWithSource(ctx, req)
	return text, nil
}

// AdviseWithSource is Advise that also reports whether the fallback answered.
func (r *Resilient) AdviseWithSource(ctx context.Context, req Request) (string, bool) {
	for i, p := range r.providers {
		text, err := p.Advise(ctx, req)
		if err == nil {
			text = strings.TrimSpace(text)
			if text != "" {
				return text, false
			}
			err = &model.MalformedResponseError{Component: "advisor", Err: errors.New("empty guidance")}
		}
		var mre *model.MalformedResponseError
		if errors.As(err, &mre) {
			monitoring.Capture("advisor", err)
		}
		r.log.Warnf("advisor provider %d failed: %v", i, err)
		if ctx.Err() != nil {
			break
		}
	}
	text, _ := r.fallback.Advise(ctx, req)
	return text, true
}
