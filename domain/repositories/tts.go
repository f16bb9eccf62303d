package repositories

import (
	"context"

	"github.com/satriahrh/speechbox/domain/entities"
)

// TextToSpeech abstracts a multi-speaker synthesis model
type TextToSpeech interface {
	// Speakers lists the speaker identities the model exposes, in model order
	Speakers() []string
	// Synthesize renders text with the given speaker
	Synthesize(ctx context.Context, text, speaker string) (*entities.Waveform, error)
}
