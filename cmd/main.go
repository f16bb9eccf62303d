package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/speechbox/adapters"
	"github.com/satriahrh/speechbox/internal/api"
	"github.com/satriahrh/speechbox/internal/config"
	"github.com/satriahrh/speechbox/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewProduction()
	if cfg.Development {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	// Models are loaded once; a broken model fails startup, not the first request
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	textToSpeech, err := adapters.NewTextToSpeech(ctx, cfg.TTS, logger)
	if err != nil {
		cancel()
		logger.Fatal("Failed to initialize text-to-speech", zap.Error(err))
	}
	cancel()
	// the Google client keeps its connection for the life of the process,
	// so it is not dialled with the startup timeout
	speechToText, err := adapters.NewSpeechToText(context.Background(), cfg.STT, logger)
	if err != nil {
		logger.Fatal("Failed to initialize speech-to-text", zap.Error(err))
	}

	speechService, err := usecase.NewSpeechService(
		textToSpeech,
		speechToText,
		usecase.SpeakerSelection{Index: cfg.TTS.SpeakerIndex, Name: cfg.TTS.Speaker},
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to initialize speech service", zap.Error(err))
	}

	e := api.NewServer(speechService, api.ServerOptions{
		Policy:        cfg.AccessPolicy(),
		MaxUploadSize: cfg.MaxUploadSize,
	}, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("address", cfg.Address()),
		zap.String("tts", cfg.TTS.Backend),
		zap.String("stt", cfg.STT.Backend),
		zap.String("speaker", speechService.Speaker()))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := speechService.Close(); err != nil {
		logger.Error("Failed to close models", zap.Error(err))
	}

	logger.Info("Server exited")
}
