package repositories

import "context"

// SpeechToText abstracts speech recognition models
type SpeechToText interface {
	// TranscribeFile reads the audio file at path and returns the recognized text
	TranscribeFile(ctx context.Context, path string) (string, error)
}
