package entities

import (
	"errors"
	"time"
)

// Waveform is single-channel audio produced by a synthesis model.
// Samples are normalized to [-1, 1].
type Waveform struct {
	Samples    []float32 `json:"-"`
	SampleRate int       `json:"sample_rate"`
}

// Duration returns the playback length of the waveform
func (w *Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.SampleRate)
}

// Validate checks that the waveform can be encoded
func (w *Waveform) Validate() error {
	if w.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}
	if len(w.Samples) == 0 {
		return errors.New("waveform has no samples")
	}
	return nil
}
