package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"orderverifier/internal/config"
	"orderverifier/internal/gateway"
	"orderverifier/internal/handlers"
	"orderverifier/internal/metrics"
	"orderverifier/internal/services"
	"orderverifier/internal/utils"
	"orderverifier/pkg/httpserver"
	"orderverifier/pkg/logger"
)

const shutdownTimeout = time.Second * 30

var whisperBackends = []string{"cli", "server"}

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	slog.SetDefault(lg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.ToCtx(ctx, lg)

	if err := run(ctx, cfg, lg); err != nil {
		lg.Error("server stopped", logger.Error(err))
		stop()
		os.Exit(1)
	}
	lg.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, lg *slog.Logger) error {
	transcriber, err := newTranscriber(cfg.Whisper)
	if err != nil {
		return err
	}
	lg.Info("transcriber ready",
		slog.String("backend", transcriber.Name()),
		slog.Int64("concurrency", cfg.Whisper.Concurrency),
	)

	metrics.Register()

	llm := gateway.NewOpenAI(gateway.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL), cfg.OpenAI.Timeout)
	extractor := services.NewFoodExtractor(llm, cfg.OpenAI.TextModel, cfg.OpenAI.VisionModel)
	comparator := services.NewBillComparator(llm, cfg.OpenAI.CompareModel)
	voice := services.NewVoiceToTextService(transcriber, services.VoiceOptions{
		MinBytes: cfg.Audio.MinBytes,
		BeamSize: cfg.Whisper.BeamSize,
		TempDir:  cfg.Audio.TempDir,
	})

	router := handlers.NewRouter(handlers.Deps{
		Extractor:    extractor,
		Voice:        voice,
		Verifier:     services.NewBillVerifier(extractor, comparator),
		Log:          lg,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	srv := httpserver.New(ctx, router, httpserver.Options{
		Host:         cfg.Host,
		Port:         cfg.Port,
		WriteTimeout: cfg.WriteTimeout,
	})

	return httpserver.Run(ctx, srv, shutdownTimeout)
}

// newTranscriber loads the speech model once for the whole process.
func newTranscriber(cfg config.Whisper) (gateway.Transcriber, error) {
	if !utils.InSlice(whisperBackends, cfg.Backend) {
		return nil, fmt.Errorf("unknown whisper backend %q, want one of %v", cfg.Backend, whisperBackends)
	}

	if cfg.Backend == "server" {
		return gateway.NewWhisperServer(gateway.WhisperServerConfig{
			BaseURL:     cfg.ServerURL,
			APIKey:      cfg.ServerAPIKey,
			Model:       cfg.Model,
			Language:    cfg.Language,
			Concurrency: cfg.Concurrency,
			Timeout:     cfg.Timeout,
		}), nil
	}

	cli, err := gateway.NewWhisperCLI(gateway.WhisperCLIConfig{
		Binary:      cfg.Binary,
		ModelPath:   cfg.ModelPath,
		Language:    cfg.Language,
		Concurrency: cfg.Concurrency,
		Timeout:     cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("load whisper.cpp: %w", err)
	}

	return cli, nil
}
