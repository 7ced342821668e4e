package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadFromReaderDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(`
menu:
  path: menu.yaml
`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Security.MaxRequests != 100 {
		t.Errorf("MaxRequests = %d, want 100", cfg.Security.MaxRequests)
	}
	if cfg.Pipeline.Workers != 10 {
		t.Errorf("Workers = %d, want 10", cfg.Pipeline.Workers)
	}
	if cfg.Cache.TTL != 3600*time.Second {
		t.Errorf("Cache.TTL = %v, want 3600s", cfg.Cache.TTL)
	}
	if len(cfg.Security.AllowedExtensions) != 1 || cfg.Security.AllowedExtensions[0] != ".wav" {
		t.Errorf("AllowedExtensions = %v, want [.wav]", cfg.Security.AllowedExtensions)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("menu:\n  path: menu.yaml\n"))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	ApplyEnv(cfg, []string{
		"RATE_LIMIT_REQUESTS=5",
		"RATE_LIMIT_WINDOW=60",
		"TTS_PROVIDER=elevenlabs",
		"FORCE_HTTPS=true",
	})
	if cfg.Security.MaxRequests != 5 {
		t.Errorf("MaxRequests = %d, want 5", cfg.Security.MaxRequests)
	}
	if cfg.Security.TimeWindow != 60*time.Second {
		t.Errorf("TimeWindow = %v, want 60s", cfg.Security.TimeWindow)
	}
	if cfg.TTS.Provider != "elevenlabs" {
		t.Errorf("TTS.Provider = %q, want elevenlabs", cfg.TTS.Provider)
	}
	if !cfg.Server.ForceHTTPS {
		t.Error("ForceHTTPS = false, want true")
	}
}

func TestValidateRequiresMenuPath(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate() = nil, want error for missing menu.path")
	}
}
