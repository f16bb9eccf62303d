package entities

import (
	"errors"
	"strings"
)

// SynthesisRequest is the payload of POST /tts
type SynthesisRequest struct {
	Text string `json:"text"`
}

// Validate rejects requests without text
func (r *SynthesisRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("text is required")
	}
	return nil
}

// TranscriptionResponse is the payload returned by POST /stt
type TranscriptionResponse struct {
	Text string `json:"text"`
}

// SpeakersResponse describes the voices of the synthesis model
type SpeakersResponse struct {
	Speakers   []string `json:"speakers"`
	Selected   string   `json:"selected"`
	SampleRate int      `json:"sample_rate,omitempty"`
}
