// Command example synthesizes a sentence with the configured TTS backend,
// without a server, and plays the resulting WAV.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/speechbox/adapters"
	"github.com/satriahrh/speechbox/internal/audio"
	"github.com/satriahrh/speechbox/internal/config"
)

func main() {
	// Create logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ttsService, err := adapters.NewTextToSpeech(ctx, cfg.TTS, logger)
	if err != nil {
		logger.Fatal("Failed to create TTS service", zap.Error(err))
	}

	speakers := ttsService.Speakers()
	if len(speakers) == 0 {
		logger.Fatal("Voice has no speakers")
	}
	speaker := speakers[0]
	if cfg.TTS.Speaker != "" {
		speaker = cfg.TTS.Speaker
	} else if cfg.TTS.SpeakerIndex < len(speakers) {
		speaker = speakers[cfg.TTS.SpeakerIndex]
	}

	text := "Hello! This is a demonstration of local text to speech."
	if len(os.Args) > 1 {
		text = os.Args[1]
	}

	logger.Info("Converting text to speech",
		zap.String("backend", cfg.TTS.Backend),
		zap.String("speaker", speaker),
		zap.String("text", text))

	waveform, err := ttsService.Synthesize(ctx, text, speaker)
	if err != nil {
		logger.Fatal("Failed to convert text to speech", zap.Error(err))
	}

	wav, err := audio.EncodeWAV(waveform)
	if err != nil {
		logger.Fatal("Failed to encode WAV", zap.Error(err))
	}

	outputFile := "example_output.wav"
	if err := os.WriteFile(outputFile, wav, 0o644); err != nil {
		logger.Fatal("Failed to write output file", zap.Error(err))
	}

	fmt.Printf("Audio saved to %s (%.2fs at %d Hz)\n", outputFile, waveform.Duration().Seconds(), waveform.SampleRate)

	if os.Getenv("NO_AUTOPLAY") == "true" {
		return
	}
	if err := playAudioFile(outputFile, logger); err != nil {
		logger.Warn("Failed to play audio automatically", zap.Error(err))
	}

	if os.Getenv("SHOW_VOICES") == "true" {
		fmt.Printf("\nAvailable speakers (%d):\n", len(speakers))
		for i, s := range speakers {
			if i >= 10 {
				fmt.Printf("... and %d more\n", len(speakers)-10)
				break
			}
			fmt.Printf("  - %s\n", s)
		}
	}
}

// audioPlayer represents an audio player command and its arguments
type audioPlayer struct {
	command string
	args    []string
}

// WAV carries its own format, so players need no raw-PCM flags
var audioPlayers = []audioPlayer{
	{"play", nil},
	{"ffplay", []string{"-nodisp", "-autoexit"}},
	{"aplay", nil},
	{"afplay", nil},
}

// playAudioFile tries each known player in turn
func playAudioFile(filename string, logger *zap.Logger) error {
	for _, player := range audioPlayers {
		if _, err := exec.LookPath(player.command); err != nil {
			continue
		}
		args := append(append([]string{}, player.args...), filename)
		logger.Info("Attempting to play audio",
			zap.String("player", player.command),
			zap.Strings("args", args))

		err := exec.Command(player.command, args...).Run()
		if err == nil {
			return nil
		}
		logger.Debug("Player failed", zap.String("player", player.command), zap.Error(err))
	}
	return fmt.Errorf("no suitable audio player found")
}
