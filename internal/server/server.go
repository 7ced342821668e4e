// Package server wires the Request Pipeline, Security Gate, Monitoring,
// Error Classifier, and TTS Cache into the HTTP surface spec §6 describes.
// It is kept separate from [wire] (which only owns the JSON schema and
// types/conversion helpers) because handlers here depend on [pipeline],
// which itself depends on [wire] — folding handlers into [wire] would
// create an import cycle.
//
// Grounded on the teacher's internal/health.Handler.Register (stdlib
// net/http.ServeMux, Go 1.22+ method-and-path patterns) and
// internal/observe/middleware.go's wrap-the-whole-mux composition.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/melpes/voicekiosk/internal/dialogue"
	"github.com/melpes/voicekiosk/internal/errs"
	"github.com/melpes/voicekiosk/internal/health"
	"github.com/melpes/voicekiosk/internal/menu"
	"github.com/melpes/voicekiosk/internal/observe"
	"github.com/melpes/voicekiosk/internal/pipeline"
	"github.com/melpes/voicekiosk/internal/resilience"
	"github.com/melpes/voicekiosk/internal/responsebuilder"
	"github.com/melpes/voicekiosk/internal/security"
	"github.com/melpes/voicekiosk/internal/session"
	"github.com/melpes/voicekiosk/internal/ttscache"
)

// Server holds every collaborator the HTTP surface dispatches to.
type Server struct {
	Pipeline  *pipeline.Pipeline
	Gate      *security.Gate
	Catalog   *menu.Catalog
	Sessions  *session.Registry
	Cache     *ttscache.Cache
	Builder   *responsebuilder.Builder
	Tracker   *errs.Tracker
	Monitor   *observe.Monitor
	Alerts    *observe.AlertManager
	Metrics   *observe.Metrics
	Progress  *dialogue.ProgressTracker
	StartedAt time.Time
}

// New builds a Server. Every field must already be constructed by the
// caller (see internal/app for the wiring order).
func New(
	pl *pipeline.Pipeline,
	gate *security.Gate,
	catalog *menu.Catalog,
	sessions *session.Registry,
	cache *ttscache.Cache,
	builder *responsebuilder.Builder,
	tracker *errs.Tracker,
	monitor *observe.Monitor,
	alerts *observe.AlertManager,
	metrics *observe.Metrics,
	progress *dialogue.ProgressTracker,
) *Server {
	return &Server{
		Pipeline: pl, Gate: gate, Catalog: catalog, Sessions: sessions,
		Cache: cache, Builder: builder, Tracker: tracker,
		Monitor: monitor, Alerts: alerts, Metrics: metrics,
		Progress: progress, StartedAt: time.Now(),
	}
}

// Mux builds the full routing table (spec §6), wrapped with the observe and
// security middleware chains — outermost first: observe (trace + duration)
// then the Security Gate (headers, rate limit, HTTPS enforcement).
func (s *Server) Mux() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Additive k8s-style liveness/readiness probes, separate from the spec's
	// own /health: /healthz always passes once the process can serve HTTP,
	// /readyz fails while the menu catalog hasn't loaded or every TTS
	// provider's circuit breaker is open.
	health.New(
		health.Checker{Name: "menu_catalog", Check: func(ctx context.Context) error {
			if len(s.Catalog.Categories()) == 0 {
				return errors.New("catalog has no categories loaded")
			}
			return nil
		}},
		health.Checker{Name: "tts_providers", Check: func(ctx context.Context) error {
			for _, p := range s.Builder.Synth.Providers() {
				if p.State != resilience.StateOpen {
					return nil
				}
			}
			return errors.New("all tts providers have open circuit breakers")
		}},
	).Register(mux)
	mux.HandleFunc("POST /api/voice/process", s.handleVoiceProcess)
	mux.HandleFunc("GET /api/voice/tts/{file_id}", s.handleVoiceTTS)
	mux.HandleFunc("GET /api/tts/providers", s.handleTTSProviders)
	mux.HandleFunc("POST /api/tts/switch", s.handleTTSSwitch)
	mux.HandleFunc("GET /api/errors/stats", s.handleErrorStats)
	mux.HandleFunc("POST /api/errors/clear", s.handleErrorClear)
	mux.HandleFunc("GET /api/system/status", s.handleSystemStatus)
	mux.HandleFunc("GET /api/security/stats", s.handleSecurityStats)
	mux.HandleFunc("POST /api/security/clear-rate-limit", s.handleSecurityClear)
	mux.HandleFunc("GET /api/security/config", s.handleSecurityConfig)
	mux.HandleFunc("GET /api/optimization/stats", s.handleOptimizationStats)
	mux.HandleFunc("POST /api/optimization/clear-cache", s.handleOptimizationClearCache)
	mux.HandleFunc("GET /api/payment/progress/{order_id}", s.handlePaymentProgress)
	mux.HandleFunc("GET /api/monitoring/stats", s.handleMonitoringStats)
	mux.HandleFunc("GET /api/monitoring/alerts", s.handleMonitoringAlerts)
	mux.HandleFunc("POST /api/monitoring/export", s.handleMonitoringExport)
	mux.HandleFunc("GET /api/monitoring/performance", s.handleMonitoringPerformance)

	// Additive Prometheus scrape endpoint (SPEC_FULL §6 clarification): the
	// OTel metrics bridge (observe.InitProvider) registers its Prometheus
	// reader against the default registry, so promhttp.Handler serves it.
	mux.Handle("GET /metrics", promhttp.Handler())

	return observe.Middleware(s.Metrics)(s.Gate.Middleware(mux))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	providers := s.Builder.Synth.Providers()
	var current any
	if len(providers) > 0 {
		current = map[string]any{
			"name":  providers[0].Name,
			"state": providers[0].State.String(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"api_initialized": true,
		"tts_provider":    current,
	})
}

// handleVoiceTTS streams a previously synthesized clip back by file ID. The
// Response Builder names files "tts_<id><ext>" under Builder.Dir; since the
// extension depends on the provider's response format, the handler globs
// for any matching extension.
func (s *Server) handleVoiceTTS(w http.ResponseWriter, r *http.Request) {
	fileID := r.PathValue("file_id")
	if fileID == "" || strings.ContainsAny(fileID, "/\\") {
		http.Error(w, "invalid file id", http.StatusBadRequest)
		return
	}

	matches, _ := filepath.Glob(filepath.Join(s.Builder.Dir, "tts_"+fileID+".*"))
	if len(matches) == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	f, err := os.Open(matches[0])
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	contentType := "audio/wav"
	if ext := filepath.Ext(matches[0]); ext != "" && ext != ".wav" {
		contentType = "audio/" + strings.TrimPrefix(ext, ".")
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = io.Copy(w, f)
}

func (s *Server) handlePaymentProgress(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("order_id")
	snap, ok := s.Progress.Snapshot(orderID)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"order_id": orderID, "status": "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"order_id": orderID,
		"status":   "processing",
		"progress": map[string]any{
			"steps":        snap.Steps,
			"current_step": snap.Step,
			"step_text":    snap.StepText,
			"done":         snap.Done,
		},
	})
}
