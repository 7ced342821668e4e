package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path, applies environment
// overrides, and returns a validated [Config]. It is a convenience wrapper
// around [LoadFromReader] and [ApplyEnv].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	ApplyEnv(cfg, os.Environ())
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, fills in defaults, and
// returns the result without validating or applying environment overrides.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// ApplyEnv overlays environment-variable overrides onto cfg, matching the
// variable names documented in spec §6: MAX_FILE_SIZE_MB,
// ALLOWED_FILE_EXTENSIONS, FORCE_HTTPS, RATE_LIMIT_REQUESTS,
// RATE_LIMIT_WINDOW, RATE_LIMIT_BLOCK, TRUSTED_PROXIES, TTS_PROVIDER,
// TTS_MODEL, TTS_VOICE, TTS_SPEED, TTS_FORMAT. environ is a slice of
// "KEY=VALUE" strings, normally os.Environ() — passed explicitly so tests
// don't depend on process state.
func ApplyEnv(cfg *Config, environ []string) {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	if v, ok := env["MAX_FILE_SIZE_MB"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Security.MaxFileSizeMB = n
		}
	}
	if v, ok := env["ALLOWED_FILE_EXTENSIONS"]; ok {
		cfg.Security.AllowedExtensions = strings.Split(v, ",")
	}
	if v, ok := env["FORCE_HTTPS"]; ok {
		cfg.Server.ForceHTTPS = v == "1" || strings.EqualFold(v, "true")
	}
	if v, ok := env["RATE_LIMIT_REQUESTS"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Security.MaxRequests = n
		}
	}
	if v, ok := env["RATE_LIMIT_WINDOW"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Security.TimeWindow = time.Duration(n) * time.Second
		}
	}
	if v, ok := env["RATE_LIMIT_BLOCK"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Security.BlockDuration = time.Duration(n) * time.Second
		}
	}
	if v, ok := env["TRUSTED_PROXIES"]; ok {
		cfg.Security.TrustedProxies = strings.Split(v, ",")
	}
	if v, ok := env["TTS_PROVIDER"]; ok {
		cfg.TTS.Provider = v
	}
	if v, ok := env["TTS_MODEL"]; ok {
		cfg.TTS.Model = v
	}
	if v, ok := env["TTS_VOICE"]; ok {
		cfg.TTS.Voice = v
	}
	if v, ok := env["TTS_SPEED"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.TTS.Speed = f
		}
	}
	if v, ok := env["TTS_FORMAT"]; ok {
		cfg.TTS.Format = v
	}
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Menu.Path == "" {
		errs = append(errs, errors.New("menu.path is required"))
	}
	if cfg.Security.MaxRequests <= 0 {
		errs = append(errs, errors.New("security.max_requests must be positive"))
	}
	if cfg.Pipeline.Workers <= 0 {
		errs = append(errs, errors.New("pipeline.workers must be positive"))
	}
	if cfg.Pipeline.QueueSize <= 0 {
		errs = append(errs, errors.New("pipeline.queue_size must be positive"))
	}
	if cfg.Cache.MaxEntries <= 0 {
		errs = append(errs, errors.New("cache.max_entries must be positive"))
	}

	return errors.Join(errs...)
}
