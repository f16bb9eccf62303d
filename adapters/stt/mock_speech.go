package stt

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/speechbox/domain/repositories"
	"github.com/satriahrh/speechbox/internal/audio"
)

// MockSpeechToText is a placeholder implementation for speech recognition
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) repositories.SpeechToText {
	return &MockSpeechToText{
		logger: logger,
	}
}

// TranscribeFile implements repositories.SpeechToText
func (s *MockSpeechToText) TranscribeFile(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat audio: %w", err)
	}

	s.logger.Info("Processing speech-to-text", zap.Int64("audioSize", info.Size()))

	if info.Size() == 0 {
		return "", fmt.Errorf("no audio data received")
	}

	// WAV uploads are judged by duration, anything else by size
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()

	if wave, err := audio.DecodeWAV(f); err == nil {
		d := wave.Duration()
		s.logger.Debug("Mock transcription of WAV", zap.Duration("duration", d))
		switch {
		case d > 500*time.Millisecond:
			return "hello there, this is a longer mock transcription", nil
		case d > 100*time.Millisecond:
			return "hello there", nil
		default:
			return "hello", nil
		}
	}

	switch {
	case info.Size() > 10000:
		return "hello there, this is a longer mock transcription", nil
	case info.Size() > 1000:
		return "hello there", nil
	default:
		return "hello", nil
	}
}
