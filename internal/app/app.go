// Package app wires all voice-kiosk subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects every
// subsystem in dependency order, Run starts the HTTP listener and blocks
// until the context is cancelled, and Shutdown tears everything down in
// reverse order.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/melpes/voicekiosk/internal/config"
	"github.com/melpes/voicekiosk/internal/dialogue"
	"github.com/melpes/voicekiosk/internal/errs"
	"github.com/melpes/voicekiosk/internal/external"
	"github.com/melpes/voicekiosk/internal/external/openai"
	"github.com/melpes/voicekiosk/internal/menu"
	"github.com/melpes/voicekiosk/internal/observe"
	"github.com/melpes/voicekiosk/internal/pipeline"
	"github.com/melpes/voicekiosk/internal/resilience"
	"github.com/melpes/voicekiosk/internal/responsebuilder"
	"github.com/melpes/voicekiosk/internal/security"
	"github.com/melpes/voicekiosk/internal/server"
	"github.com/melpes/voicekiosk/internal/session"
	"github.com/melpes/voicekiosk/internal/ttscache"
)

// App owns every subsystem's lifetime and serves the HTTP surface.
type App struct {
	cfg *config.Config

	menuReloader *menu.Reloader
	sessions     *session.Registry
	cache        *ttscache.Cache
	tracker      *errs.Tracker
	monitor      *observe.Monitor
	alerts       *observe.AlertManager
	metrics      *observe.Metrics
	otelShutdown func(context.Context) error

	httpServer *http.Server

	// closers are called in reverse order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// New wires every subsystem from cfg: the Menu Catalog (with hot reload),
// Session Registry, TTS Cache, OpenAI-backed collaborators (the TTS client
// behind a circuit-breaker fallback group; the STT and LLM clients called
// directly), the Dialogue Policy, Response Builder,
// Request Pipeline, Security Gate, and observability providers — then
// builds the [server.Server]'s HTTP handler.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "voicekiosk"})
	if err != nil {
		return nil, fmt.Errorf("app: init telemetry provider: %w", err)
	}
	a.otelShutdown = otelShutdown
	a.closers = append(a.closers, func() error {
		return a.otelShutdown(context.Background())
	})

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return nil, fmt.Errorf("app: init metrics: %w", err)
	}
	a.metrics = metrics

	reloader, err := menu.Watch(cfg.Menu.Path, cfg.Menu.ReloadInterval)
	if err != nil {
		return nil, fmt.Errorf("app: load menu catalog: %w", err)
	}
	a.menuReloader = reloader
	a.closers = append(a.closers, func() error { reloader.Stop(); return nil })
	catalog := reloader.Catalog()

	sweepInterval := cfg.Session.IdleTimeout / 2
	a.sessions = session.NewRegistry(cfg.Session.IdleTimeout, cfg.Session.ContextHistoryLimit, sweepInterval)
	a.closers = append(a.closers, func() error { a.sessions.Stop(); return nil })

	a.cache = ttscache.New(ttscache.Config{
		TTL:              cfg.Cache.TTL,
		MaxEntries:       cfg.Cache.MaxEntries,
		MemoryLimitBytes: int64(cfg.Cache.MemoryLimitMB) * 1024 * 1024,
		CleanupInterval:  cfg.Cache.CleanupInterval,
	})
	a.closers = append(a.closers, func() error { a.cache.Stop(); return nil })

	a.tracker = errs.NewTracker()
	a.monitor = observe.NewMonitor()
	a.alerts = observe.NewAlertManager(observe.AlertConfig{})

	llmClient, err := openai.New(cfg.TTS.APIKey, cfg.TTS.Model)
	if err != nil {
		return nil, fmt.Errorf("app: init llm client: %w", err)
	}

	sttClient, err := openai.NewSTT(cfg.TTS.APIKey, "whisper-1")
	if err != nil {
		return nil, fmt.Errorf("app: init stt client: %w", err)
	}

	ttsClient, err := openai.NewTTS(cfg.TTS.APIKey, cfg.TTS.Model)
	if err != nil {
		return nil, fmt.Errorf("app: init tts client: %w", err)
	}

	synthGroup := resilience.NewFallbackGroup[external.Synthesizer](
		ttsClient, cfg.TTS.Provider, resilience.FallbackConfig{
			CircuitBreaker: resilience.CircuitBreakerConfig{},
		},
	)

	voiceCfg := map[string]string{
		"provider": cfg.TTS.Provider,
		"voice":    cfg.TTS.Voice,
		"speed":    fmt.Sprintf("%g", cfg.TTS.Speed),
		"format":   cfg.TTS.Format,
	}

	builder := responsebuilder.NewBuilder(catalog, a.cache, synthGroup, cfg.Cache.Dir, "/api/voice/tts", voiceCfg)

	progress := dialogue.NewProgressTracker()
	policy := dialogue.NewPolicy(catalog, llmClient, progress)

	pl := pipeline.New(
		pipeline.Config{
			Workers:        cfg.Pipeline.Workers,
			QueueCapacity:  cfg.Pipeline.QueueSize,
			RequestTimeout: cfg.Pipeline.RequestTimeout,
		},
		a.sessions,
		catalog,
		sttClient,
		llmClient,
		policy,
		builder,
		a.tracker,
	)

	gate := security.NewGate(security.Config{
		MaxFileSize:       int64(cfg.Security.MaxFileSizeMB) * 1024 * 1024,
		AllowedExtensions: cfg.Security.AllowedExtensions,
		ForceHTTPS:        cfg.Server.ForceHTTPS,
		TrustedProxies:    cfg.Security.TrustedProxies,
		RateLimit: security.RateLimitConfig{
			MaxRequests:   cfg.Security.MaxRequests,
			TimeWindow:    cfg.Security.TimeWindow,
			BlockDuration: cfg.Security.BlockDuration,
		},
	})

	srv := server.New(pl, gate, catalog, a.sessions, a.cache, builder, a.tracker, a.monitor, a.alerts, a.metrics, progress)

	a.httpServer = &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: srv.Mux(),
	}

	return a, nil
}

// Run starts the HTTP listener and blocks until the server stops (either
// via Shutdown or a listener error).
func (a *App) Run(ctx context.Context) error {
	slog.Info("voice kiosk server starting", "listen_addr", a.httpServer.Addr)
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Shutdown stops the HTTP listener and tears down every subsystem in
// reverse-init order, respecting ctx's deadline.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if err := a.httpServer.Shutdown(ctx); err != nil {
			slog.Warn("http server shutdown error", "err", err)
		}

		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", i+1)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
