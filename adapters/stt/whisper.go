package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/speechbox/domain/repositories"
)

// processWaitDelay bounds how long a killed whisper may hold its pipes open
const processWaitDelay = 2 * time.Second

// WhisperConfig points at a whisper.cpp CLI and a ggml model
type WhisperConfig struct {
	BinaryPath string
	ModelPath  string
	// Threads is passed as -t when positive
	Threads int
}

// WhisperSpeechToText transcribes files with the whisper.cpp command line
type WhisperSpeechToText struct {
	binaryPath string
	modelPath  string
	threads    int
	logger     *zap.Logger
}

// Ensure WhisperSpeechToText implements the SpeechToText interface
var _ repositories.SpeechToText = (*WhisperSpeechToText)(nil)

// NewWhisperSpeechToText checks the binary and model once at startup
func NewWhisperSpeechToText(config WhisperConfig, logger *zap.Logger) (*WhisperSpeechToText, error) {
	if config.ModelPath == "" {
		return nil, errors.New("whisper model path is required")
	}
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("whisper model not found: %w", err)
	}

	binaryPath := config.BinaryPath
	if binaryPath == "" {
		binaryPath = "whisper-cli"
	}
	resolved, err := exec.LookPath(binaryPath)
	if err != nil {
		return nil, fmt.Errorf("whisper binary not found: %w", err)
	}

	logger.Info("Loaded whisper model",
		zap.String("binary", resolved),
		zap.String("model", config.ModelPath))

	return &WhisperSpeechToText{
		binaryPath: resolved,
		modelPath:  config.ModelPath,
		threads:    config.Threads,
		logger:     logger,
	}, nil
}

// TranscribeFile implements repositories.SpeechToText. The transcript is
// written next to the input so it stays in the caller's staging directory.
func (w *WhisperSpeechToText) TranscribeFile(ctx context.Context, path string) (string, error) {
	outDir, err := os.MkdirTemp(filepath.Dir(path), "whisper-out-")
	if err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	defer os.RemoveAll(outDir)
	outPrefix := filepath.Join(outDir, "transcript")

	args := []string{"-m", w.modelPath, "-f", path, "-nt", "-np", "-otxt", "-of", outPrefix}
	if w.threads > 0 {
		args = append(args, "-t", strconv.Itoa(w.threads))
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.binaryPath, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = processWaitDelay

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper execution failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(outPrefix + ".txt")
	if err != nil {
		return "", fmt.Errorf("reading transcript: %w", err)
	}

	text := joinTranscriptLines(string(data))
	w.logger.Info("Transcription completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("textLength", len(text)))
	return text, nil
}

// joinTranscriptLines flattens whisper's one-segment-per-line output
func joinTranscriptLines(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
