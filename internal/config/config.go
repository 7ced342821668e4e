// Package config provides the configuration schema, YAML loader, and
// polling file watcher for the voice kiosk server.
package config

import "time"

// LogLevel controls slog verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is one of the known log levels.
func (l LogLevel) IsValid() bool {
	switch l {
	case "", LogDebug, LogInfo, LogWarn, LogError:
		return true
	default:
		return false
	}
}

// Config is the root configuration structure for the voice kiosk server.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader],
// then has environment overrides applied via [ApplyEnv].
type Config struct {
	Server   ServerConfig     `yaml:"server"`
	Security SecurityConfig   `yaml:"security"`
	TTS      TTSConfig        `yaml:"tts"`
	Session  SessionConfig    `yaml:"session"`
	Pipeline PipelineConfig   `yaml:"pipeline"`
	Cache    CacheConfig      `yaml:"cache"`
	Menu     MenuSourceConfig `yaml:"menu"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel LogLevel `yaml:"log_level"`

	// ForceHTTPS causes every request that did not arrive over TLS to be
	// rejected with 426 Upgrade Required.
	ForceHTTPS bool `yaml:"force_https"`
}

// SecurityConfig holds rate limiting, file validation, and trusted proxy
// settings for the Security Gate.
type SecurityConfig struct {
	// MaxRequests is the number of requests a client may make within
	// TimeWindow before being blocked. Default: 100.
	MaxRequests int `yaml:"max_requests"`

	// TimeWindow is the sliding window over which MaxRequests is counted.
	// Default: 1h.
	TimeWindow time.Duration `yaml:"time_window"`

	// BlockDuration is how long a client stays blocked after exceeding
	// MaxRequests. Default: 1h.
	BlockDuration time.Duration `yaml:"block_duration"`

	// TrustedProxies lists peer IPs allowed to set X-Forwarded-For /
	// X-Real-IP headers that the server will trust.
	TrustedProxies []string `yaml:"trusted_proxies"`

	// MaxFileSizeMB is the maximum accepted audio upload size.
	// Default: 10.
	MaxFileSizeMB int `yaml:"max_file_size_mb"`

	// AllowedExtensions lists permitted upload file extensions.
	// Default: [".wav"].
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// TTSConfig selects the TTS collaborator provider and voice parameters.
type TTSConfig struct {
	Provider string  `yaml:"provider"`
	Model    string  `yaml:"model"`
	Voice    string  `yaml:"voice"`
	Speed    float64 `yaml:"speed"`
	Format   string  `yaml:"format"`
	APIKey   string  `yaml:"api_key"`
	BaseURL  string  `yaml:"base_url"`
}

// SessionConfig controls Session Registry behaviour.
type SessionConfig struct {
	// IdleTimeout is how long a session may go unused before the sweeper
	// reclaims it. Default: 30m.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ContextHistoryLimit is the maximum number of conversation turns kept
	// per session. Default: 20.
	ContextHistoryLimit int `yaml:"context_history_limit"`
}

// PipelineConfig controls the Request Pipeline's worker pool.
type PipelineConfig struct {
	// Workers is the number of concurrent request workers. Default: 10.
	Workers int `yaml:"workers"`

	// QueueSize is the bounded queue depth ahead of the worker pool.
	// Default: 100.
	QueueSize int `yaml:"queue_size"`

	// RequestTimeout bounds how long a request may wait for a worker slot
	// plus how long its processing stages may run. Default: 30s.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// CacheConfig controls the TTS Cache.
type CacheConfig struct {
	// TTL is how long a cache entry remains reachable. Default: 3600s.
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries bounds the cache by entry count. Default: 100.
	MaxEntries int `yaml:"max_entries"`

	// MemoryLimitMB bounds the cache by total file size. Default: 50.
	MemoryLimitMB int `yaml:"memory_limit_mb"`

	// CleanupInterval is how often the background sweeper runs. Default: 60s.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`

	// Dir is the directory backing cached TTS audio files.
	Dir string `yaml:"dir"`
}

// MenuSourceConfig points at the menu document backing the Menu Catalog.
type MenuSourceConfig struct {
	// Path is the filesystem path to the menu YAML document.
	Path string `yaml:"path"`

	// ReloadInterval is how often the catalog polls Path's mtime for
	// hot-reload. Default: 5s.
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// applyDefaults fills zero-valued fields with the documented defaults.
func (c *Config) applyDefaults() {
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
	if c.Security.MaxRequests <= 0 {
		c.Security.MaxRequests = 100
	}
	if c.Security.TimeWindow <= 0 {
		c.Security.TimeWindow = time.Hour
	}
	if c.Security.BlockDuration <= 0 {
		c.Security.BlockDuration = time.Hour
	}
	if c.Security.MaxFileSizeMB <= 0 {
		c.Security.MaxFileSizeMB = 10
	}
	if len(c.Security.AllowedExtensions) == 0 {
		c.Security.AllowedExtensions = []string{".wav"}
	}
	if c.Session.IdleTimeout <= 0 {
		c.Session.IdleTimeout = 30 * time.Minute
	}
	if c.Session.ContextHistoryLimit <= 0 {
		c.Session.ContextHistoryLimit = 20
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 10
	}
	if c.Pipeline.QueueSize <= 0 {
		c.Pipeline.QueueSize = 100
	}
	if c.Pipeline.RequestTimeout <= 0 {
		c.Pipeline.RequestTimeout = 30 * time.Second
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 3600 * time.Second
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 100
	}
	if c.Cache.MemoryLimitMB <= 0 {
		c.Cache.MemoryLimitMB = 50
	}
	if c.Cache.CleanupInterval <= 0 {
		c.Cache.CleanupInterval = 60 * time.Second
	}
	if c.Menu.ReloadInterval <= 0 {
		c.Menu.ReloadInterval = 5 * time.Second
	}
}
