package tts

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/speechbox/domain/entities"
	"github.com/satriahrh/speechbox/domain/repositories"
)

const (
	mockSampleRate      = 16000
	mockSamplesPerRune  = 800 // 50ms of tone per character
	mockBaseFrequencyHz = 220.0
)

// mockSpeakers imitates a multi-speaker corpus voice list
var mockSpeakers = []string{"p225", "p226", "p227", "p228", "p229", "p230"}

// MockTextToSpeech is a placeholder implementation for text-to-speech. It
// renders a tone whose pitch depends on the speaker and whose length
// depends on the text.
type MockTextToSpeech struct {
	logger *zap.Logger
}

// NewMockTextToSpeech creates a new mock text-to-speech service
func NewMockTextToSpeech(logger *zap.Logger) repositories.TextToSpeech {
	return &MockTextToSpeech{
		logger: logger,
	}
}

// Speakers implements repositories.TextToSpeech
func (t *MockTextToSpeech) Speakers() []string {
	out := make([]string, len(mockSpeakers))
	copy(out, mockSpeakers)
	return out
}

// SampleRate is the fixed mock output rate
func (t *MockTextToSpeech) SampleRate() int {
	return mockSampleRate
}

// Synthesize implements repositories.TextToSpeech
func (t *MockTextToSpeech) Synthesize(ctx context.Context, text, speaker string) (*entities.Waveform, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	idx := -1
	for i, s := range mockSpeakers {
		if s == speaker {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("unknown speaker %q", speaker)
	}

	t.logger.Info("Processing text-to-speech",
		zap.Int("textLength", len(text)),
		zap.String("speaker", speaker))

	freq := mockBaseFrequencyHz * float64(idx+1)
	samples := make([]float32, len([]rune(text))*mockSamplesPerRune)
	for i := range samples {
		samples[i] = float32(0.3 * math.Sin(2*math.Pi*freq*float64(i)/mockSampleRate))
	}

	return &entities.Waveform{Samples: samples, SampleRate: mockSampleRate}, nil
}
