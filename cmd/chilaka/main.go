// Command chilaka is the speech practice server: whisper transcription,
// dual-script answer checking, the word dataset, and speech synthesis behind
// one HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kolluru/chilaka/internal/config"
	"github.com/kolluru/chilaka/internal/health"
	"github.com/kolluru/chilaka/internal/observe"
	"github.com/kolluru/chilaka/internal/server"
	"github.com/kolluru/chilaka/internal/tts"
	"github.com/kolluru/chilaka/internal/verify"
	"github.com/kolluru/chilaka/internal/words"
	"github.com/kolluru/chilaka/pkg/audio"
	"github.com/kolluru/chilaka/pkg/provider/stt/whisper"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "chilaka: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "chilaka: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	// The level lives in a LevelVar so a config reload can adjust it without a
	// restart.
	level := new(slog.LevelVar)
	level.Set(slogLevel(cfg.Server.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("chilaka starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Recognition pipeline ──────────────────────────────────────────────────
	var engineOpts []whisper.Option
	if cfg.STT.Threads > 0 {
		engineOpts = append(engineOpts, whisper.WithThreads(uint(cfg.STT.Threads)))
	}
	engine, err := whisper.New(cfg.STT.ModelPath, engineOpts...)
	if err != nil {
		slog.Error("failed to create whisper engine", "err", err)
		return 1
	}
	defer func() {
		if err := engine.Close(); err != nil {
			slog.Warn("whisper engine close error", "err", err)
		}
	}()

	normalizer := audio.NewNormalizer(audio.Config{
		NoiseReduction: cfg.STT.NoiseReduction,
	})
	recognizer := verify.NewDualPass(engine,
		verify.WithInitialPrompt(!cfg.STT.DisableInitialPrompt),
		verify.WithForcedPassDisabled(cfg.STT.DisableForcedPass),
	)
	verifier := verify.NewService(normalizer, recognizer,
		verify.WithTimeout(cfg.Limits.RequestTimeout),
	)

	// ── Word dataset ──────────────────────────────────────────────────────────
	store, err := words.New()
	if err != nil {
		slog.Error("failed to load word dataset", "err", err)
		return 1
	}
	slog.Info("word dataset loaded", "categories", len(store.Categories()))

	// ── Server options ────────────────────────────────────────────────────────
	opts := []server.Option{
		server.WithHealthCheckers(
			health.ModelFile(cfg.STT.ModelPath),
			health.FFmpeg("ffmpeg"),
		),
	}

	if !cfg.TTS.Disabled {
		var synthOpts []tts.GoogleOption
		if cfg.TTS.Endpoint != "" {
			synthOpts = append(synthOpts, tts.WithEndpoint(cfg.TTS.Endpoint))
		}
		synthOpts = append(synthOpts, tts.WithHTTPClient(&http.Client{Timeout: cfg.TTS.Timeout}))
		opts = append(opts, server.WithSynthesizer(tts.NewGoogle(synthOpts...)))
	} else {
		slog.Info("speech synthesis disabled")
	}

	// ── Config watcher ────────────────────────────────────────────────────────
	// Client-facing defaults and the log level are hot-reloadable; anything
	// else logs a restart hint.
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		diff := config.Diff(old, new)
		if diff.LogLevelChanged {
			level.Set(slogLevel(diff.NewLogLevel))
			slog.Info("log level changed", "level", diff.NewLogLevel)
		}
		if diff.DefaultsChanged {
			slog.Info("client defaults reloaded")
		}
		if diff.RestartRequired {
			slog.Warn("config changes require a restart to take effect")
		}
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()
	opts = append(opts, server.WithSettingsSource(func() config.ClientSettings {
		return watcher.Current().Defaults
	}))

	// ── Serve ─────────────────────────────────────────────────────────────────
	srv := server.New(cfg, verifier, store, opts...)

	slog.Info("server ready — press Ctrl+C to shut down", "listen_addr", cfg.Server.ListenAddr)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
