// Package config loads speechbox settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/satriahrh/speechbox/internal/auth"
)

// Backend names
const (
	BackendPiper      = "piper"
	BackendElevenLabs = "elevenlabs"
	BackendWhisper    = "whisper"
	BackendGoogle     = "google"
	BackendMock       = "mock"
)

const (
	defaultHost          = "127.0.0.1"
	defaultPort          = 5000
	defaultMaxUploadSize = "25M"
	defaultSpeakerIndex  = 4
	defaultPiperBin      = "piper"
	defaultPiperModel    = "models/en_GB-vctk-medium.onnx"
	defaultWhisperBin    = "whisper-cli"
	defaultWhisperModel  = "models/ggml-small.bin"
	defaultGoogleLang    = "en-US"
)

var (
	ErrInvalidPort         = errors.New("port must be between 1 and 65535")
	ErrUnknownTTSBackend   = errors.New("unknown TTS backend")
	ErrUnknownSTTBackend   = errors.New("unknown STT backend")
	ErrInvalidSpeakerIndex = errors.New("speaker index must be a non-negative integer")
)

// Config is the process configuration, fixed at startup
type Config struct {
	Host          string
	Port          int
	Development   bool
	MaxUploadSize string
	// AllowedNetworks replaces the loopback-only policy when non-empty
	AllowedNetworks []netip.Prefix

	TTS TTSConfig
	STT STTConfig
}

// TTSConfig selects and configures the synthesis model
type TTSConfig struct {
	Backend      string
	SpeakerIndex int
	// Speaker, when set, overrides SpeakerIndex
	Speaker    string
	PiperBin   string
	PiperModel string
}

// STTConfig selects and configures the transcription model
type STTConfig struct {
	Backend         string
	WhisperBin      string
	WhisperModel    string
	WhisperThreads  int
	GoogleLanguage  string
	// GoogleEncoding is assumed for uploads that are not WAV
	GoogleEncoding  string
	GoogleCredsFile string
}

// Address returns host:port for the listener
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// AccessPolicy returns the authorization policy the configuration asks for
func (c *Config) AccessPolicy() auth.Policy {
	if len(c.AllowedNetworks) > 0 {
		return auth.AllowNetworks(c.AllowedNetworks...)
	}
	return auth.LoopbackOnly()
}

// Load reads an optional .env file and then the environment
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Host:          getEnv("HOST", defaultHost),
		Development:   strings.EqualFold(os.Getenv("APP_ENV"), "development"),
		MaxUploadSize: getEnv("MAX_UPLOAD_SIZE", defaultMaxUploadSize),
		TTS: TTSConfig{
			Backend:    strings.ToLower(getEnv("TTS_BACKEND", BackendPiper)),
			Speaker:    os.Getenv("TTS_SPEAKER"),
			PiperBin:   getEnv("PIPER_BIN", defaultPiperBin),
			PiperModel: getEnv("PIPER_MODEL", defaultPiperModel),
		},
		STT: STTConfig{
			Backend:         strings.ToLower(getEnv("STT_BACKEND", BackendWhisper)),
			WhisperBin:      getEnv("WHISPER_BIN", defaultWhisperBin),
			WhisperModel:    getEnv("WHISPER_MODEL", defaultWhisperModel),
			GoogleLanguage:  getEnv("GOOGLE_STT_LANGUAGE", defaultGoogleLang),
			GoogleEncoding:  strings.ToUpper(os.Getenv("GOOGLE_STT_ENCODING")),
			GoogleCredsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		},
	}

	port, err := getEnvInt("PORT", defaultPort)
	if err != nil || port < 1 || port > 65535 {
		return nil, ErrInvalidPort
	}
	cfg.Port = port

	idx, err := getEnvInt("TTS_SPEAKER_INDEX", defaultSpeakerIndex)
	if err != nil || idx < 0 {
		return nil, ErrInvalidSpeakerIndex
	}
	cfg.TTS.SpeakerIndex = idx

	threads, err := getEnvInt("WHISPER_THREADS", 0)
	if err != nil || threads < 0 {
		return nil, fmt.Errorf("invalid WHISPER_THREADS: %q", os.Getenv("WHISPER_THREADS"))
	}
	cfg.STT.WhisperThreads = threads

	if list := os.Getenv("ALLOWED_NETWORKS"); list != "" {
		prefixes, err := auth.ParseNetworks(list)
		if err != nil {
			return nil, fmt.Errorf("invalid ALLOWED_NETWORKS: %w", err)
		}
		cfg.AllowedNetworks = prefixes
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend names
func (c *Config) Validate() error {
	switch c.TTS.Backend {
	case BackendPiper, BackendElevenLabs, BackendMock:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTTSBackend, c.TTS.Backend)
	}
	switch c.STT.Backend {
	case BackendWhisper, BackendGoogle, BackendMock:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSTTBackend, c.STT.Backend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
