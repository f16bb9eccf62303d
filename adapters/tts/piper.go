package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/speechbox/domain/entities"
	"github.com/satriahrh/speechbox/domain/repositories"
	"github.com/satriahrh/speechbox/internal/audio"
)

// processWaitDelay bounds how long a killed piper may hold its pipes open
const processWaitDelay = 2 * time.Second

// PiperConfig points at a piper binary and a voice model. The voice config
// defaults to ModelPath + ".json", the layout piper voices ship with.
type PiperConfig struct {
	BinaryPath  string
	ModelPath   string
	ConfigPath  string
	LengthScale float64
}

// PiperTTS runs a local piper voice as a subprocess per request
type PiperTTS struct {
	binaryPath  string
	modelPath   string
	lengthScale float64
	sampleRate  int
	speakers    []string
	speakerIDs  map[string]int
	logger      *zap.Logger
}

// Ensure PiperTTS implements the TextToSpeech interface
var _ repositories.TextToSpeech = (*PiperTTS)(nil)

// piperVoiceConfig is the subset of a piper .onnx.json we rely on
type piperVoiceConfig struct {
	Audio struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
	NumSpeakers  int            `json:"num_speakers"`
	SpeakerIDMap map[string]int `json:"speaker_id_map"`
}

// NewPiperTTS loads the voice config once; the speaker list and the sample
// rate never change afterwards.
func NewPiperTTS(config PiperConfig, logger *zap.Logger) (*PiperTTS, error) {
	if config.ModelPath == "" {
		return nil, errors.New("piper model path is required")
	}
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("piper model not found: %w", err)
	}

	binaryPath := config.BinaryPath
	if binaryPath == "" {
		binaryPath = "piper"
	}
	resolved, err := exec.LookPath(binaryPath)
	if err != nil {
		return nil, fmt.Errorf("piper binary not found: %w", err)
	}

	configPath := config.ConfigPath
	if configPath == "" {
		configPath = config.ModelPath + ".json"
	}
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read voice config: %w", err)
	}
	voice, err := parsePiperVoiceConfig(raw)
	if err != nil {
		return nil, err
	}

	speakers := orderedSpeakers(voice.SpeakerIDMap)

	logger.Info("Loaded piper voice",
		zap.String("model", config.ModelPath),
		zap.Int("sampleRate", voice.Audio.SampleRate),
		zap.Int("speakers", len(speakers)))

	return &PiperTTS{
		binaryPath:  resolved,
		modelPath:   config.ModelPath,
		lengthScale: config.LengthScale,
		sampleRate:  voice.Audio.SampleRate,
		speakers:    speakers,
		speakerIDs:  voice.SpeakerIDMap,
		logger:      logger,
	}, nil
}

func parsePiperVoiceConfig(raw []byte) (*piperVoiceConfig, error) {
	var voice piperVoiceConfig
	if err := json.Unmarshal(raw, &voice); err != nil {
		return nil, fmt.Errorf("failed to parse voice config: %w", err)
	}
	if voice.Audio.SampleRate <= 0 {
		return nil, errors.New("voice config has no audio.sample_rate")
	}
	if len(voice.SpeakerIDMap) == 0 {
		// single speaker voice
		voice.SpeakerIDMap = map[string]int{"default": 0}
	}
	return &voice, nil
}

// orderedSpeakers lists speaker names by speaker id, the order the model
// itself uses
func orderedSpeakers(ids map[string]int) []string {
	speakers := make([]string, 0, len(ids))
	for name := range ids {
		speakers = append(speakers, name)
	}
	sort.Slice(speakers, func(i, j int) bool {
		a, b := ids[speakers[i]], ids[speakers[j]]
		if a != b {
			return a < b
		}
		return speakers[i] < speakers[j]
	})
	return speakers
}

// Speakers implements repositories.TextToSpeech
func (p *PiperTTS) Speakers() []string {
	out := make([]string, len(p.speakers))
	copy(out, p.speakers)
	return out
}

// SampleRate is the native rate of the voice
func (p *PiperTTS) SampleRate() int {
	return p.sampleRate
}

// Synthesize implements repositories.TextToSpeech
func (p *PiperTTS) Synthesize(ctx context.Context, text, speaker string) (*entities.Waveform, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	id, ok := p.speakerIDs[speaker]
	if !ok {
		return nil, fmt.Errorf("unknown speaker %q", speaker)
	}

	args := []string{"--model", p.modelPath, "--output_raw", "--speaker", strconv.Itoa(id)}
	if p.lengthScale > 0 {
		args = append(args, "--length_scale", strconv.FormatFloat(p.lengthScale, 'f', -1, 64))
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binaryPath, args...)
	// piper reads one utterance per line
	cmd.Stdin = strings.NewReader(strings.ReplaceAll(text, "\n", " ") + "\n")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = processWaitDelay

	p.logger.Debug("Running piper",
		zap.String("speaker", speaker),
		zap.Int("speakerID", id),
		zap.Int("textLength", len(text)))

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("piper execution failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("piper produced no audio")
	}

	// a trailing odd byte would only come from a truncated write
	raw := stdout.Bytes()
	if len(raw)%2 != 0 {
		raw = raw[:len(raw)-1]
	}
	return audio.DecodePCM16(raw, p.sampleRate)
}
