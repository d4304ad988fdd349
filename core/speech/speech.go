// Package speech defines the text-to-speech boundary.
package speech

import "context"

// Audio is synthesized speech.
type Audio struct {
	Data   []byte
	Format string
}

// Synthesizer renders text as audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Audio, error)
}
