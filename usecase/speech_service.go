package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/speechbox/domain/entities"
	"github.com/satriahrh/speechbox/domain/repositories"
	"github.com/satriahrh/speechbox/internal/audio"
)

var (
	// ErrEmptyText is returned for synthesis requests without text
	ErrEmptyText = errors.New("text is required")
	// ErrNoAudio is returned for transcription requests without audio bytes
	ErrNoAudio = errors.New("audio is required")
	// ErrSpeakerNotFound is returned when the configured speaker does not exist
	ErrSpeakerNotFound = errors.New("speaker not found")
)

// SpeakerSelection picks the synthesis voice. Name wins over Index.
type SpeakerSelection struct {
	Index int
	Name  string
}

// sampleRater is implemented by backends whose rate is known up front
type sampleRater interface {
	SampleRate() int
}

// SpeechService holds the process-wide models. It is built once at startup
// and never mutated; calls into each model are serialized.
type SpeechService struct {
	tts repositories.TextToSpeech
	stt repositories.SpeechToText

	// one-slot semaphores, one per model
	ttsSlot chan struct{}
	sttSlot chan struct{}

	speakers []string
	speaker  string
	tempDir  string
	logger   *zap.Logger
}

// Option customizes a SpeechService at construction
type Option func(*SpeechService)

// WithTempDir sets where uploaded audio is staged; defaults to os.TempDir()
func WithTempDir(dir string) Option {
	return func(s *SpeechService) {
		s.tempDir = dir
	}
}

// NewSpeechService creates the service and resolves the speaker once
func NewSpeechService(
	tts repositories.TextToSpeech,
	stt repositories.SpeechToText,
	selection SpeakerSelection,
	logger *zap.Logger,
	opts ...Option,
) (*SpeechService, error) {
	if tts == nil || stt == nil {
		return nil, errors.New("both speech models are required")
	}

	speakers := tts.Speakers()
	speaker, err := resolveSpeaker(speakers, selection)
	if err != nil {
		return nil, err
	}

	s := &SpeechService{
		tts:      tts,
		stt:      stt,
		ttsSlot:  make(chan struct{}, 1),
		sttSlot:  make(chan struct{}, 1),
		speakers: speakers,
		speaker:  speaker,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	logger.Info("Speech service ready",
		zap.Int("speakers", len(speakers)),
		zap.String("speaker", speaker))

	return s, nil
}

func resolveSpeaker(speakers []string, selection SpeakerSelection) (string, error) {
	if selection.Name != "" {
		for _, s := range speakers {
			if s == selection.Name {
				return s, nil
			}
		}
		return "", fmt.Errorf("%w: %q", ErrSpeakerNotFound, selection.Name)
	}
	if selection.Index < 0 || selection.Index >= len(speakers) {
		return "", fmt.Errorf("%w: index %d out of %d speakers", ErrSpeakerNotFound, selection.Index, len(speakers))
	}
	return speakers[selection.Index], nil
}

// Speakers returns the synthesis model's speaker identities
func (s *SpeechService) Speakers() []string {
	out := make([]string, len(s.speakers))
	copy(out, s.speakers)
	return out
}

// Speaker returns the speaker every synthesis uses
func (s *SpeechService) Speaker() string {
	return s.speaker
}

// SampleRate returns the synthesis model's native rate, or 0 when the
// backend only reports it per waveform
func (s *SpeechService) SampleRate() int {
	if r, ok := s.tts.(sampleRater); ok {
		return r.SampleRate()
	}
	return 0
}

// Synthesize renders text with the selected speaker and returns a WAV file
func (s *SpeechService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	start := time.Now()
	wave, err := s.callTTS(ctx, text)
	if err != nil {
		return nil, err
	}

	data, err := audio.EncodeWAV(wave)
	if err != nil {
		return nil, fmt.Errorf("encoding failed: %w", err)
	}

	s.logger.Info("Synthesis completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Duration("audio", wave.Duration()),
		zap.Int("sampleRate", wave.SampleRate),
		zap.Int("bytes", len(data)))
	return data, nil
}

// Transcribe stages the audio in a temporary file for the model and
// removes it on every return path
func (s *SpeechService) Transcribe(ctx context.Context, audioData io.Reader) (string, error) {
	if audioData == nil {
		return "", ErrNoAudio
	}

	tmp, err := os.CreateTemp(s.tempDir, "stt-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmp.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to remove temp file", zap.String("path", path), zap.Error(err))
		}
	}()

	n, err := io.Copy(tmp, audioData)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to stage audio: %w", err)
	}
	if n == 0 {
		return "", ErrNoAudio
	}

	start := time.Now()
	text, err := s.callSTT(ctx, path)
	if err != nil {
		return "", err
	}

	s.logger.Info("Transcription completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int64("audioBytes", n))
	return strings.TrimSpace(text), nil
}

// Close releases backends that hold resources
func (s *SpeechService) Close() error {
	var errs []error
	if c, ok := s.tts.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if c, ok := s.stt.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (s *SpeechService) callTTS(ctx context.Context, text string) (*entities.Waveform, error) {
	if err := acquire(ctx, s.ttsSlot); err != nil {
		return nil, err
	}
	defer func() { <-s.ttsSlot }()

	wave, err := s.tts.Synthesize(ctx, text, s.speaker)
	if err != nil {
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}
	return wave, nil
}

func (s *SpeechService) callSTT(ctx context.Context, path string) (string, error) {
	if err := acquire(ctx, s.sttSlot); err != nil {
		return "", err
	}
	defer func() { <-s.sttSlot }()

	text, err := s.stt.TranscribeFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return text, nil
}

func acquire(ctx context.Context, slot chan struct{}) error {
	select {
	case slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
