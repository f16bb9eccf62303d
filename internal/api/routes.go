package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/speechbox/domain/entities"
	"github.com/satriahrh/speechbox/usecase"
)

const serviceName = "speechbox"

// SpeechService is what the handlers need from usecase.SpeechService
type SpeechService interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
	Speakers() []string
	Speaker() string
	SampleRate() int
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, svc SpeechService, logger *zap.Logger) {
	h := &handlers{svc: svc, logger: logger}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:  "ok",
			Service: serviceName,
		})
	})

	e.POST("/tts", h.synthesize)
	e.GET("/tts/speakers", h.speakers)
	e.POST("/stt", h.transcribe)
}

type handlers struct {
	svc    SpeechService
	logger *zap.Logger
}

func (h *handlers) synthesize(c echo.Context) error {
	var req entities.SynthesisRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Debug("Failed to bind synthesis request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Request body must be JSON with a text field",
		})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "No text provided",
		})
	}

	data, err := h.svc.Synthesize(c.Request().Context(), req.Text)
	if err != nil {
		return h.failure(c, "Synthesis failed", err)
	}

	c.Response().Header().Set("Content-Disposition", "inline; filename=tts.wav")
	return c.Blob(http.StatusOK, "audio/wav", data)
}

func (h *handlers) speakers(c echo.Context) error {
	return c.JSON(http.StatusOK, entities.SpeakersResponse{
		Speakers:   h.svc.Speakers(),
		Selected:   h.svc.Speaker(),
		SampleRate: h.svc.SampleRate(),
	})
}

func (h *handlers) transcribe(c echo.Context) error {
	fh, err := c.FormFile("audio")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "No audio file provided",
		})
	}

	src, err := fh.Open()
	if err != nil {
		return h.failure(c, "Failed to open upload", err)
	}
	defer src.Close()

	h.logger.Debug("Received audio for transcription",
		zap.String("filename", fh.Filename),
		zap.Int64("size", fh.Size))

	text, err := h.svc.Transcribe(c.Request().Context(), src)
	if err != nil {
		return h.failure(c, "Transcription failed", err)
	}

	return c.JSON(http.StatusOK, entities.TranscriptionResponse{Text: text})
}

// failure maps service errors to responses. Input errors are 400, anything
// else is reported as a model failure.
func (h *handlers) failure(c echo.Context, msg string, err error) error {
	switch {
	case errors.Is(err, usecase.ErrEmptyText):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing_fields", Message: "No text provided"})
	case errors.Is(err, usecase.ErrNoAudio):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing_fields", Message: "No audio file provided"})
	}

	h.logger.Error(msg, zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "model_error",
		Message: msg,
	})
}
