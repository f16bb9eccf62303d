// Package adapters builds the model backends named in the configuration.
package adapters

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/speechbox/adapters/stt"
	"github.com/satriahrh/speechbox/adapters/tts"
	"github.com/satriahrh/speechbox/domain/repositories"
	"github.com/satriahrh/speechbox/internal/config"
)

// NewTextToSpeech constructs the configured synthesis backend. ctx bounds
// the ElevenLabs voice lookup.
func NewTextToSpeech(ctx context.Context, cfg config.TTSConfig, logger *zap.Logger) (repositories.TextToSpeech, error) {
	switch cfg.Backend {
	case config.BackendPiper:
		return tts.NewPiperTTS(tts.PiperConfig{
			BinaryPath: cfg.PiperBin,
			ModelPath:  cfg.PiperModel,
		}, logger)
	case config.BackendElevenLabs:
		return tts.NewElevenLabsTTS(ctx, tts.NewElevenLabsConfigFromEnv(), logger)
	case config.BackendMock:
		return tts.NewMockTextToSpeech(logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownTTSBackend, cfg.Backend)
	}
}

// NewSpeechToText constructs the configured transcription backend. The
// Google client keeps ctx for its connection, so pass a long-lived one.
func NewSpeechToText(ctx context.Context, cfg config.STTConfig, logger *zap.Logger) (repositories.SpeechToText, error) {
	switch cfg.Backend {
	case config.BackendWhisper:
		return stt.NewWhisperSpeechToText(stt.WhisperConfig{
			BinaryPath: cfg.WhisperBin,
			ModelPath:  cfg.WhisperModel,
			Threads:    cfg.WhisperThreads,
		}, logger)
	case config.BackendGoogle:
		return stt.NewGoogleSpeechToText(ctx, stt.GoogleConfig{
			Language:        cfg.GoogleLanguage,
			Encoding:        cfg.GoogleEncoding,
			CredentialsFile: cfg.GoogleCredsFile,
		}, logger)
	case config.BackendMock:
		return stt.NewMockSpeechToText(logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownSTTBackend, cfg.Backend)
	}
}
