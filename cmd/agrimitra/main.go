// Command agrimitra runs the farming-assistant conversation service: the
// messaging webhook, the stateless query API and the session janitor.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agrimitra/agrimitra/internal/agent"
	"github.com/agrimitra/agrimitra/internal/config"
	"github.com/agrimitra/agrimitra/internal/dispatch"
	"github.com/agrimitra/agrimitra/internal/gateway"
	"github.com/agrimitra/agrimitra/internal/handlers"
	"github.com/agrimitra/agrimitra/internal/limits"
	"github.com/agrimitra/agrimitra/internal/metrics"
	"github.com/agrimitra/agrimitra/internal/normalize"
	"github.com/agrimitra/agrimitra/internal/providers"
	"github.com/agrimitra/agrimitra/internal/render"
	"github.com/agrimitra/agrimitra/internal/session"
	"github.com/agrimitra/agrimitra/internal/storage"
)

var (
	// Version is set via ldflags.
	Version = "dev"

	configFile = flag.String("config", os.Getenv("AGRIMITRA_CONFIG"), "path to JSON config file (optional)")
)

func main() {
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	slog.Info("starting agrimitra", "version", Version)

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("agrimitra exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("agrimitra stopped")
}

func loadConfig() (*config.Config, error) {
	if *configFile != "" {
		return config.LoadFromFile(*configFile)
	}
	return config.Load(), nil
}

func run(ctx context.Context, cfg *config.Config) error {
	callTimeout := time.Duration(cfg.Limits.CallTimeoutSeconds) * time.Second

	// Session store: Redis when configured, in-memory otherwise.
	var store session.Store
	if cfg.Sessions.RedisAddr != "" {
		rs, err := session.NewRedisStore(session.RedisConfig{
			Addr:     cfg.Sessions.RedisAddr,
			Password: cfg.Sessions.RedisPassword,
		})
		if err != nil {
			return err
		}
		store = rs
		slog.Info("using redis session store", "addr", cfg.Sessions.RedisAddr)
	} else {
		store = session.NewMemoryStore()
		slog.Info("using in-memory session store")
	}

	manager := session.NewManager(store)
	defer manager.Close()

	idleTTL := time.Duration(cfg.Sessions.IdleTTLMinutes) * time.Minute
	janitor, err := session.NewJanitor(manager, cfg.Sessions.CleanupSchedule, idleTTL)
	if err != nil {
		return err
	}
	janitor.Start()
	defer janitor.Stop()

	// Media analysis (voice transcription, photo description).
	analyzer, err := providers.NewMediaAnalyzer(ctx, cfg.Media.APIKey, cfg.Media.AudioModel, cfg.Media.ImageModel)
	if err != nil {
		return err
	}

	fetcher := normalize.NewHTTPFetcher(cfg.Channel.AccountID, cfg.Channel.AuthToken)
	normalizer := normalize.NewNormalizer(
		fetcher, analyzer,
		limits.NewSemaphore(cfg.Limits.MediaConcurrency),
		callTimeout,
	)

	// Reasoning provider and capability handlers.
	reasoner := providers.NewForModel(cfg.Reasoning.Model, cfg.Reasoning.APIKey, cfg.Reasoning.BaseURL)
	handlerSem := limits.NewSemaphore(cfg.Limits.HandlerConcurrency)

	registry := handlers.NewRegistry()
	for _, h := range []handlers.Handler{
		handlers.NewWebSearchHandler(reasoner, cfg.Reasoning.Model),
		handlers.NewRetrievalHandler(cfg.Upstreams.RetrievalBaseURL),
		handlers.NewWeatherHandler(cfg.Upstreams.WeatherAPIKey, cfg.Upstreams.WeatherBaseURL),
		handlers.NewMarketplaceHandler(cfg.Upstreams.MarketplaceAPIKey, cfg.Upstreams.MarketplaceBaseURL),
		handlers.NewAnalysisHandler(reasoner, cfg.Reasoning.Model),
	} {
		registry.Register(handlers.Limited(h, handlerSem, callTimeout))
	}

	classifier := dispatch.NewLLMClassifier(reasoner, cfg.Reasoning.Model, registry)
	dispatcher := dispatch.NewDispatcher(classifier, registry)

	// Voice reply path: best-effort, disabled without a bucket.
	var blobs storage.BlobStore
	var synth render.Synthesizer
	if cfg.Storage.Bucket != "" {
		gcs, err := storage.NewGCSStore(ctx, cfg.Storage.Bucket)
		if err != nil {
			slog.Warn("voice replies disabled, storage unavailable", "err", err)
		} else {
			blobs = gcs
			synth = providers.NewSynthesizer(cfg.Reasoning.APIKey, cfg.Media.VoiceModel)
		}
	} else {
		slog.Info("voice replies disabled, no storage bucket configured")
	}
	renderer := render.NewRenderer(synth, blobs,
		limits.NewSemaphore(cfg.Limits.SynthesisConcurrency), callTimeout)

	orch := agent.NewOrchestrator(normalizer, manager, dispatcher, renderer)
	srv := gateway.NewServer(orch, cfg.Gateway.Host, cfg.Gateway.Port, callTimeout)
	return srv.Start(ctx)
}
