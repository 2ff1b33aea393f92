package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
	"github.com/zalando/go-keyring"
)

// Environment overrides, also read from a .env file in the working directory.
const (
	EnvBackendURL = "TAPDECK_BACKEND_URL"
	EnvBackendKey = "TAPDECK_BACKEND_KEY"
	EnvUserID     = "TAPDECK_USER_ID"
)

const (
	keyringService = "tapdeck"
	keyringUser    = "backend_api_key"
)

type Config struct {
	UserID    string `koanf:"user_id"`    // owner of the remote playlist orders
	StatePath string `koanf:"state_path"` // sqlite file, defaults to the XDG data dir

	Backend   BackendConfig   `koanf:"backend"`
	Playback  PlaybackConfig  `koanf:"playback"`
	Playlists PlaylistsConfig `koanf:"playlists"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// BackendConfig holds the REST API endpoint.
type BackendConfig struct {
	URL    string `koanf:"url"`     // e.g., "https://xyz.supabase.co"
	APIKey string `koanf:"api_key"` // falls back to the OS keyring when empty
}

// PlaybackConfig holds player behavior settings.
type PlaybackConfig struct {
	TrackDelaySeconds    float64 `koanf:"track_delay_seconds"`    // pause before Next changes track (default: 0)
	ResumeMinSeconds     float64 `koanf:"resume_min_seconds"`     // minimum listened time to resume (default: 30)
	ResumeWindowMinutes  float64 `koanf:"resume_window_minutes"`  // resume freshness window (default: 30)
	FallbackTrackSeconds float64 `koanf:"fallback_track_seconds"` // duration of sources without metadata (default: 180)
}

// PlaylistsConfig holds playlist order persistence settings.
type PlaylistsConfig struct {
	PrimaryRetryMinutes float64 `koanf:"primary_retry_minutes"` // 0 keeps a downgrade for the session
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `koanf:"level"` // logrus level name (default: "info")
	JSON  bool   `koanf:"json"`
}

// MetricsConfig holds the optional metrics listener.
type MetricsConfig struct {
	Listen string `koanf:"listen"` // e.g., "127.0.0.1:9464", empty disables
}

func Load() (*Config, error) {
	return load(getConfigPaths(), ".env")
}

func load(configPaths []string, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)

	if cfg.StatePath != "" {
		cfg.StatePath = expandPath(cfg.StatePath)
	}

	// Normalize backend URL (remove trailing slash)
	cfg.Backend.URL = strings.TrimSuffix(cfg.Backend.URL, "/")

	if cfg.Backend.URL != "" && cfg.Backend.APIKey == "" {
		key, err := GetAPIKey()
		if err != nil {
			log.WithError(err).Debug("no backend API key in keyring")
		}
		cfg.Backend.APIKey = key
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvBackendURL); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv(EnvBackendKey); v != "" {
		cfg.Backend.APIKey = v
	}
	if v := os.Getenv(EnvUserID); v != "" {
		cfg.UserID = v
	}
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/tapdeck/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "tapdeck", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// SetAPIKey stores the backend API key in the OS keyring.
func SetAPIKey(key string) error {
	if key == "" {
		return errors.New("API key cannot be empty")
	}
	return keyring.Set(keyringService, keyringUser, key)
}

// GetAPIKey reads the backend API key from the OS keyring.
func GetAPIKey() (string, error) {
	return keyring.Get(keyringService, keyringUser)
}

// DeleteAPIKey removes the backend API key from the OS keyring.
func DeleteAPIKey() error {
	return keyring.Delete(keyringService, keyringUser)
}

// HasBackendConfig returns true if the REST backend is configured.
func (c *Config) HasBackendConfig() bool {
	return c.Backend.URL != "" && c.Backend.APIKey != ""
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback

	// Apply defaults
	if cfg.TrackDelaySeconds < 0 {
		cfg.TrackDelaySeconds = 0
	}
	if cfg.ResumeMinSeconds <= 0 {
		cfg.ResumeMinSeconds = 30
	}
	if cfg.ResumeWindowMinutes <= 0 {
		cfg.ResumeWindowMinutes = 30
	}
	if cfg.FallbackTrackSeconds <= 0 {
		cfg.FallbackTrackSeconds = 180
	}

	return cfg
}

// TrackDelay returns the inter-track delay as a duration.
func (p PlaybackConfig) TrackDelay() time.Duration {
	return seconds(p.TrackDelaySeconds)
}

// ResumeWindow returns the resume freshness window as a duration.
func (p PlaybackConfig) ResumeWindow() time.Duration {
	return time.Duration(p.ResumeWindowMinutes * float64(time.Minute))
}

// PrimaryRetry returns the remote tier retry interval, 0 when disabled.
func (p PlaylistsConfig) PrimaryRetry() time.Duration {
	if p.PrimaryRetryMinutes <= 0 {
		return 0
	}
	return time.Duration(p.PrimaryRetryMinutes * float64(time.Minute))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
