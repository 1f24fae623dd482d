package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/voxsplit/voxsplit/internal/api"
	"github.com/voxsplit/voxsplit/internal/audio"
	"github.com/voxsplit/voxsplit/internal/config"
	"github.com/voxsplit/voxsplit/internal/media"
	"github.com/voxsplit/voxsplit/internal/output"
	"github.com/voxsplit/voxsplit/internal/storage/sqlite"
	"github.com/voxsplit/voxsplit/internal/transcription"
	"github.com/voxsplit/voxsplit/pkg/logger"
)

// videoExtensions are inputs that get their audio track extracted first
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".mov":  true,
	".webm": true,
	".avi":  true,
	".m4v":  true,
}

func main() {
	var (
		configPath = flag.String("config", "", "path to TOML config file")
		inputPath  = flag.String("input", "", "audio or video file to transcribe")
		outputPath = flag.String("output", "", "transcript destination (default: input path with .txt)")
		language   = flag.String("language", "", "override the configured language code")
		serve      = flag.Bool("serve", false, "run the HTTP API server instead of a one-shot transcription")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *language != "" {
		cfg.Transcription.Language = *language
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Transcription.OpenAIAPIKey == "" {
		log.Warn("No OpenAI API key configured, transcription calls will fail")
	}

	if *serve {
		if err := runServer(cfg, log); err != nil {
			log.Error("Server exited with error", logger.Error(err))
			os.Exit(1)
		}
		return
	}

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: voxsplit -input <file> [-output <file>] [-config <file>]")
		os.Exit(2)
	}
	dest := *outputPath
	if dest == "" {
		dest = strings.TrimSuffix(*inputPath, filepath.Ext(*inputPath)) + ".txt"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transcribe := buildTranscribeFunc(cfg, log)
	transcript, err := transcribe(ctx, *inputPath, dest)
	if err != nil {
		log.Error("Transcription failed", logger.Error(err))
		os.Exit(1)
	}

	log.Info("Transcription complete",
		logger.String("output", dest),
		logger.Int("segments", len(transcript.Results)),
		logger.Int("chars", len(transcript.Text())),
	)
}

// buildTranscribeFunc wires one independent pipeline run per invocation. Every
// run owns its own scratch directory and retry state, so concurrent jobs do
// not interfere with each other.
func buildTranscribeFunc(cfg *config.Config, log *logger.Logger) api.TranscribeFunc {
	return func(ctx context.Context, sourcePath, destPath string) (transcription.CombinedTranscript, error) {
		scratchDir, err := os.MkdirTemp(cfg.Media.ScratchDir, "voxsplit-")
		if err != nil {
			return transcription.CombinedTranscript{}, fmt.Errorf("failed to create scratch directory: %w", err)
		}
		if !cfg.Media.KeepSegments {
			defer os.RemoveAll(scratchDir)
		}

		ffmpeg := media.NewFFmpeg(media.Options{
			FFmpegPath:  cfg.Media.FFmpegPath,
			FFprobePath: cfg.Media.FFprobePath,
			SampleRate:  cfg.Media.SampleRate,
			Channels:    cfg.Media.Channels,
			Bitrate:     cfg.Media.Bitrate,
		}, log)

		audioPath := sourcePath
		if videoExtensions[strings.ToLower(filepath.Ext(sourcePath))] {
			audioPath, err = ffmpeg.ExtractAudio(ctx, sourcePath, scratchDir)
			if err != nil {
				return transcription.CombinedTranscript{}, err
			}
		}

		segmenter := audio.NewSegmenter(ffmpeg, ffmpeg, cfg.Transcription.ChunkSizeLimitBytes(), scratchDir, log)

		tcfg := transcription.Config{
			APIKey:            cfg.Transcription.OpenAIAPIKey,
			BaseURL:           cfg.Transcription.BaseURL,
			Model:             cfg.Transcription.Model,
			Language:          cfg.Transcription.Language,
			Temperature:       cfg.Transcription.Temperature,
			MaxAttempts:       cfg.Transcription.MaxAttempts,
			RetryDelay:        cfg.Transcription.RetryDelay(),
			Timeout:           cfg.Transcription.Timeout(),
			ContextTokenLimit: cfg.Transcription.ContextTokenLimit,
		}
		client := transcription.NewClient(tcfg, log)
		pipeline := transcription.NewPipeline(client, tcfg, log)

		var cleaner transcription.TextCleaner
		if cfg.PostProcess.Enabled {
			cleaner = transcription.NewPostProcessor(cfg.Transcription.OpenAIAPIKey, transcription.PostProcessorConfig{
				Model:       cfg.PostProcess.Model,
				Temperature: cfg.PostProcess.Temperature,
				Timeout:     time.Duration(cfg.PostProcess.TimeoutSeconds) * time.Second,
			}, log)
		}

		service := transcription.NewService(segmenter, pipeline, cleaner, log)
		transcript, err := service.TranscribeFile(ctx, audioPath)
		if err != nil {
			return transcription.CombinedTranscript{}, err
		}

		if _, err := output.NewWriter(log).Save(transcript, destPath); err != nil {
			return transcription.CombinedTranscript{}, err
		}
		return transcript, nil
	}
}

// runServer starts the HTTP API with run history backed by SQLite
func runServer(cfg *config.Config, log *logger.Logger) error {
	if !cfg.Storage.Enabled {
		return fmt.Errorf("the API server requires storage.enabled = true")
	}

	db, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	storage, err := sqlite.NewRunStorage(db, log)
	if err != nil {
		return err
	}

	handler := api.NewHandler(storage, buildTranscribeFunc(cfg, log), log)
	router := api.NewRouter(handler, cfg, log)
	server := api.NewServer(cfg.Server.ListenAddr, router.Routes(), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
