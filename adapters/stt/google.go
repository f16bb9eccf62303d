package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/satriahrh/speechbox/domain/repositories"
	"github.com/satriahrh/speechbox/internal/audio"
)

// GoogleConfig configures the Google Cloud Speech-to-Text adapter
type GoogleConfig struct {
	// Language is a BCP-47 code, e.g. en-US
	Language string
	// Encoding is used for uploads that are not WAV, e.g. FLAC or OGG_OPUS
	Encoding string
	// CredentialsFile overrides application default credentials
	CredentialsFile string
}

// GoogleSpeechToText implements SpeechToText for Google Cloud
type GoogleSpeechToText struct {
	client   *speech.Client
	language string
	encoding string
	logger   *zap.Logger
}

// Ensure GoogleSpeechToText implements the SpeechToText interface
var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText creates the long-lived Speech client
func NewGoogleSpeechToText(ctx context.Context, config GoogleConfig, logger *zap.Logger) (*GoogleSpeechToText, error) {
	if config.Language == "" {
		config.Language = "en-US"
	}
	if config.Encoding != "" {
		if _, err := getAudioEncoding(config.Encoding); err != nil {
			return nil, err
		}
	}

	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	logger.Info("Created Google speech client", zap.String("language", config.Language))

	return &GoogleSpeechToText{
		client:   client,
		language: config.Language,
		encoding: strings.ToUpper(config.Encoding),
		logger:   logger,
	}, nil
}

// TranscribeFile implements repositories.SpeechToText
func (g *GoogleSpeechToText) TranscribeFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read audio: %w", err)
	}

	recognitionConfig, err := buildRecognitionConfig(data, g.encoding, g.language)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: recognitionConfig,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize failed: %w", err)
	}

	text := joinResults(resp.GetResults())
	g.logger.Info("Transcription completed",
		zap.Int("results", len(resp.GetResults())),
		zap.Int("textLength", len(text)))
	return text, nil
}

// Close releases the gRPC connection
func (g *GoogleSpeechToText) Close() error {
	return g.client.Close()
}

// buildRecognitionConfig reads WAV headers when present and falls back to
// the configured encoding otherwise
func buildRecognitionConfig(data []byte, fallbackEncoding, language string) (*speechpb.RecognitionConfig, error) {
	info, err := audio.ProbeWAV(bytes.NewReader(data))
	if err == nil {
		if !info.PCM || info.BitDepth != 16 {
			return nil, fmt.Errorf("unsupported WAV format: pcm=%t bit depth %d", info.PCM, info.BitDepth)
		}
		return &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   int32(info.SampleRate),
			AudioChannelCount: int32(info.Channels),
			LanguageCode:      language,
		}, nil
	}
	if !errors.Is(err, audio.ErrInvalidWAV) {
		return nil, err
	}
	if fallbackEncoding == "" {
		return nil, errors.New("audio is not WAV and no fallback encoding is configured")
	}

	encoding, err := getAudioEncoding(fallbackEncoding)
	if err != nil {
		return nil, err
	}
	return &speechpb.RecognitionConfig{
		Encoding:     encoding,
		LanguageCode: language,
	}, nil
}

// joinResults concatenates the best alternative of every result
func joinResults(results []*speechpb.SpeechRecognitionResult) string {
	parts := make([]string, 0, len(results))
	for _, result := range results {
		if len(result.GetAlternatives()) == 0 {
			continue
		}
		if t := strings.TrimSpace(result.GetAlternatives()[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch strings.ToUpper(encoding) {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "AMR":
		return speechpb.RecognitionConfig_AMR, nil
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
