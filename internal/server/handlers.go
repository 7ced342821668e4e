package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/melpes/voicekiosk/internal/errs"
	"github.com/melpes/voicekiosk/internal/security"
	"github.com/melpes/voicekiosk/internal/wire"
)

// writeExportFile persists a monitoring export snapshot to disk for the
// /api/monitoring/export endpoint.
func writeExportFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// handleVoiceProcess implements the main entry point (spec §6): parse the
// multipart upload, validate it through the Security Gate's
// [security.FileValidator], then hand off to the Request Pipeline.
func (s *Server) handleVoiceProcess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(errs.New(errs.KindValidation, err)))
		return
	}

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(errs.New(errs.KindValidation, err)))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(errs.New(errs.KindAudio, err)))
		return
	}

	if problems := s.Gate.Validator().ValidateUpload(header.Filename, int64(len(audio)), audio); len(problems) > 0 {
		ce := errs.New(errs.KindValidation, errValidation(problems))
		writeJSON(w, http.StatusBadRequest, errorResponse(ce))
		return
	}

	sessionID := r.FormValue("session_id")
	clientIP := security.ClientIP(r, s.Gate.Config().TrustedProxies)

	requestID := clientIP + "-" + sessionID
	s.Monitor.StartRequest(requestID, clientIP, int64(len(audio)))
	s.Monitor.UpdateProcessingStatus(requestID)

	start := time.Now()
	result := s.Pipeline.Process(r.Context(), sessionID, audio, "audio/wav")
	if result.Err != nil {
		s.Monitor.LogError(requestID, result.Err.Message)
		s.Metrics.RecordRequest(r.Context(), "error")
		s.Metrics.RecordClassifiedError(r.Context(), string(result.Err.Kind))
		writeJSON(w, statusForKind(result.Err.Kind), errorResponse(result.Err))
		return
	}

	s.Monitor.CompleteRequest(requestID, time.Since(start), 0)
	s.Metrics.RecordRequest(r.Context(), "success")
	writeJSON(w, http.StatusOK, result.Response)
}

func errValidation(problems []string) error {
	msg := "validation failed"
	if len(problems) > 0 {
		msg = problems[0]
	}
	return &validationError{problems: problems, msg: msg}
}

type validationError struct {
	problems []string
	msg      string
}

func (e *validationError) Error() string { return e.msg }

func errorResponse(ce *errs.ClassifiedError) wire.ServerResponse {
	return wire.ServerResponse{
		Success:   false,
		Message:   ce.Message,
		ErrorInfo: wire.FromClassifiedError(ce),
		Timestamp: wire.Timestamp(time.Now()),
	}
}

func statusForKind(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleTTSProviders(w http.ResponseWriter, _ *http.Request) {
	providers := s.Builder.Synth.Providers()
	available := make([]map[string]any, len(providers))
	for i, p := range providers {
		available[i] = map[string]any{"name": p.Name, "state": p.State.String()}
	}
	var current any
	if len(providers) > 0 {
		current = available[0]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available_providers": available,
		"current_provider":    current,
	})
}

// handleTTSSwitch reports whether provider is among the registered TTS
// fallback-group entries. Switching is reporting-only: the active entry
// order is fixed at construction time (SPEC_FULL §9's Open Question on
// non-behavioral optimization/provider endpoints).
func (s *Server) handleTTSSwitch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Provider string         `json:"provider"`
		Config   map[string]any `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid request body"})
		return
	}

	for _, p := range s.Builder.Synth.Providers() {
		if p.Name == body.Provider {
			writeJSON(w, http.StatusOK, map[string]any{
				"success":       true,
				"message":       "provider selection acknowledged",
				"provider_info": map[string]any{"name": p.Name, "state": p.State.String()},
			})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{
		"success": false,
		"message": "unknown provider: " + body.Provider,
	})
}

func (s *Server) handleErrorStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"error_stats":  s.Tracker.Stats(),
		"total_errors": s.Tracker.Total(),
		"generated_at": wire.Timestamp(time.Now()),
	})
}

func (s *Server) handleErrorClear(w http.ResponseWriter, _ *http.Request) {
	s.Tracker.Clear()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "error stats cleared",
		"cleared_at": wire.Timestamp(time.Now()),
	})
}

func (s *Server) handleSystemStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"api_initialized": true,
		"server_status": map[string]any{
			"uptime_seconds": time.Since(s.StartedAt).Seconds(),
			"sessions":       s.Sessions.Count(),
		},
		"error_stats":     s.Tracker.Stats(),
		"security_stats":  s.Gate.Limiter().Stats(),
		"tts_provider":    s.Builder.Synth.Providers(),
		"pipeline_status": s.Pipeline.Stats(),
	})
}

func (s *Server) handleSecurityStats(w http.ResponseWriter, _ *http.Request) {
	limiterStats := s.Gate.Limiter().Stats()
	cfg := s.Gate.Config()
	writeJSON(w, http.StatusOK, map[string]any{
		"rate_limit_config": map[string]any{
			"max_requests":   limiterStats.MaxRequests,
			"time_window":    limiterStats.TimeWindow.String(),
			"block_duration": limiterStats.BlockDuration.String(),
		},
		"blocked_ips":    limiterStats.BlockedIPs,
		"active_clients": limiterStats.ActiveClients,
		"file_validation_config": map[string]any{
			"max_file_size":      cfg.MaxFileSize,
			"allowed_extensions": cfg.AllowedExtensions,
			"allowed_mime_types": cfg.AllowedMIMETypes,
		},
	})
}

func (s *Server) handleSecurityClear(w http.ResponseWriter, _ *http.Request) {
	s.Gate.Limiter().Clear()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "rate limit state cleared",
		"cleared_at": wire.Timestamp(time.Now()),
	})
}

func (s *Server) handleSecurityConfig(w http.ResponseWriter, _ *http.Request) {
	cfg := s.Gate.Config()
	writeJSON(w, http.StatusOK, map[string]any{
		"config": map[string]any{
			"max_file_size":      cfg.MaxFileSize,
			"allowed_extensions": cfg.AllowedExtensions,
			"allowed_mime_types": cfg.AllowedMIMETypes,
			"force_https":        cfg.ForceHTTPS,
			"trusted_proxies":    cfg.TrustedProxies,
			"rate_limit": map[string]any{
				"max_requests":   cfg.RateLimit.MaxRequests,
				"time_window":    cfg.RateLimit.TimeWindow.String(),
				"block_duration": cfg.RateLimit.BlockDuration.String(),
			},
		},
	})
}

// handleOptimizationStats reports compression/cache/connection-pool
// snapshots per SPEC_FULL §4.12; no field here carries a behavioral
// contract.
func (s *Server) handleOptimizationStats(w http.ResponseWriter, _ *http.Request) {
	cacheStats := s.Cache.Stats()
	pipelineStats := s.Pipeline.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"compression": map[string]any{"ratio": 1.0, "enabled": false},
		"cache": map[string]any{
			"entries":            cacheStats.Entries,
			"total_bytes":        cacheStats.TotalBytes,
			"max_entries":        cacheStats.MaxEntries,
			"memory_limit_bytes": cacheStats.MemoryLimitBytes,
			"ttl":                cacheStats.TTL.String(),
		},
		"connection_pool": map[string]any{
			"active": pipelineStats.InFlight,
			"idle":   int64(pipelineStats.Workers) - pipelineStats.InFlight,
			"max":    pipelineStats.Workers,
		},
		"timestamp": wire.Timestamp(time.Now()),
	})
}

func (s *Server) handleOptimizationClearCache(w http.ResponseWriter, _ *http.Request) {
	s.Cache.Clear()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "TTS cache cleared",
		"cleared_at": wire.Timestamp(time.Now()),
	})
}

func (s *Server) handleMonitoringStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"current_metrics":    s.Monitor.CurrentMetrics(),
		"performance_report": s.Monitor.PerformanceReport(),
		"generated_at":       wire.Timestamp(time.Now()),
	})
}

func (s *Server) handleMonitoringAlerts(w http.ResponseWriter, _ *http.Request) {
	alerts := s.Alerts.CheckAlerts(s.Monitor)
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts":          alerts,
		"alert_count":     len(alerts),
		"current_metrics": s.Monitor.CurrentMetrics(),
	})
}

func (s *Server) handleMonitoringExport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OutputFile string `json:"output_file"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	export := s.Monitor.Export()
	outputFile := body.OutputFile
	if outputFile == "" {
		outputFile = "monitoring_export_" + time.Now().UTC().Format("20060102T150405Z") + ".json"
	}

	data, err := json.MarshalIndent(export, "", "  ")
	success := err == nil
	if success {
		err = writeExportFile(outputFile, data)
		success = err == nil
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     success,
		"output_file": outputFile,
		"exported_at": wire.Timestamp(time.Now()),
	})
}

func (s *Server) handleMonitoringPerformance(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"performance_report": s.Monitor.PerformanceReport(),
		"additional_metrics": map[string]any{
			"active_sessions": s.Sessions.Count(),
		},
		"generated_at": wire.Timestamp(time.Now()),
	})
}
