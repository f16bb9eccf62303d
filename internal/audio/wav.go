// Package audio converts model waveforms to and from the WAV container.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"

	"github.com/satriahrh/speechbox/domain/entities"
)

const (
	pcmFormat   = 1
	bitDepth    = 16
	numChannels = 1
	maxInt16    = 32767
)

// ErrInvalidWAV is returned when a stream does not carry a RIFF/WAVE header
var ErrInvalidWAV = errors.New("not a valid WAV stream")

// Info describes the header of a WAV stream
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	PCM        bool
}

// EncodeWAV writes the waveform as 16-bit PCM mono WAV at its own sample rate
func EncodeWAV(w *entities.Waveform) ([]byte, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("invalid waveform: %w", err)
	}

	data := make([]int, len(w.Samples))
	for i, s := range w.Samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * maxInt16)
	}

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: numChannels,
			SampleRate:  w.SampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	out := &writerseeker.WriterSeeker{}
	enc := wav.NewEncoder(out, w.SampleRate, bitDepth, numChannels, pcmFormat)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize WAV header: %w", err)
	}

	encoded, err := io.ReadAll(out.BytesReader())
	if err != nil {
		return nil, fmt.Errorf("failed to read encoded WAV: %w", err)
	}
	return encoded, nil
}

// DecodePCM16 converts raw little-endian signed 16-bit mono PCM into a waveform
func DecodePCM16(raw []byte, sampleRate int) (*entities.Waveform, error) {
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("odd PCM byte count %d", len(raw))
	}
	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		samples[i] = float32(v) / (maxInt16 + 1)
	}
	return &entities.Waveform{Samples: samples, SampleRate: sampleRate}, nil
}

// ProbeWAV reads the header of a WAV stream
func ProbeWAV(r io.ReadSeeker) (Info, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() || dec.BitDepth == 0 {
		return Info{}, ErrInvalidWAV
	}
	return Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		PCM:        dec.WavAudioFormat == pcmFormat,
	}, nil
}

// DecodeWAV reads a whole WAV stream into a waveform. Only the first channel
// is kept. A header without a bit depth is rejected; it would leave nothing
// to scale the samples by.
func DecodeWAV(r io.ReadSeeker) (*entities.Waveform, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() || dec.BitDepth == 0 {
		return nil, ErrInvalidWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		channels = 1
	}
	scale := float32(int64(1) << (dec.BitDepth - 1))
	samples := make([]float32, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		samples = append(samples, float32(buf.Data[i])/scale)
	}
	return &entities.Waveform{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}
