// Package config provides configuration management for devconsole.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Defaults.
const (
	DefaultPort                 = 37878
	DefaultHost                 = "127.0.0.1"
	DefaultBackend              = BackendSQLite
	DefaultSiteURL              = "http://localhost:3000"
	DefaultMaxTranscriptEntries = 100
	DefaultFetchTimeout         = 10 * time.Second
	DefaultRateLimit            = 5.0
	DefaultRateBurst            = 10
	DefaultLogLevel             = "info"

	dataDirName      = ".devconsole"
	dbFileName       = "devconsole.db"
	logFileName      = "devconsole.log"
	settingsFileName = "settings.json"
	envPrefix        = "DEVCONSOLE_"
)

// Storage backends for the session records.
const (
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Backends lists the accepted Backend values.
var Backends = []string{BackendSQLite, BackendMemory, BackendPostgres, BackendRedis}

// Config holds the devconsole settings. JSON keys double as environment
// variable names.
type Config struct {
	Host    string `json:"DEVCONSOLE_HOST"`
	Port    int    `json:"DEVCONSOLE_PORT"`
	Backend string `json:"DEVCONSOLE_BACKEND"`

	DBPath      string `json:"DEVCONSOLE_DB_PATH"`
	MaxConns    int    `json:"DEVCONSOLE_MAX_CONNS"`
	PostgresDSN string `json:"DEVCONSOLE_POSTGRES_DSN"`

	RedisAddr     string `json:"DEVCONSOLE_REDIS_ADDR"`
	RedisPassword string `json:"DEVCONSOLE_REDIS_PASSWORD"`
	RedisDB       int    `json:"DEVCONSOLE_REDIS_DB"`
	RedisPrefix   string `json:"DEVCONSOLE_REDIS_PREFIX"`

	ReadmePath          string `json:"DEVCONSOLE_README_PATH"`
	ReadmeURL           string `json:"DEVCONSOLE_README_URL"`
	ServiceURL          string `json:"DEVCONSOLE_SERVICE_URL"`
	FetchTimeoutSeconds int    `json:"DEVCONSOLE_FETCH_TIMEOUT"`

	SiteURL              string `json:"DEVCONSOLE_SITE_URL"`
	CatalogPath          string `json:"DEVCONSOLE_CATALOG_PATH"`
	MaxTranscriptEntries int    `json:"DEVCONSOLE_MAX_TRANSCRIPT"`

	RateLimit float64 `json:"DEVCONSOLE_RATE_LIMIT"`
	RateBurst int     `json:"DEVCONSOLE_RATE_BURST"`

	// AllowedOrigins is a comma separated list of origins allowed to call
	// the API from a browser. Empty allows same-origin only.
	AllowedOriginsRaw string   `json:"DEVCONSOLE_ALLOWED_ORIGINS"`
	AllowedOrigins    []string `json:"-"`

	LogLevel string `json:"DEVCONSOLE_LOG_LEVEL"`
}

var (
	global   *Config
	globalMu sync.Mutex
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Host:                 DefaultHost,
		Port:                 DefaultPort,
		Backend:              DefaultBackend,
		MaxConns:             4,
		RedisPrefix:          "devconsole:",
		FetchTimeoutSeconds:  int(DefaultFetchTimeout / time.Second),
		SiteURL:              DefaultSiteURL,
		MaxTranscriptEntries: DefaultMaxTranscriptEntries,
		RateLimit:            DefaultRateLimit,
		RateBurst:            DefaultRateBurst,
		AllowedOrigins:       []string{},
		LogLevel:             DefaultLogLevel,
	}
}

// DataDir returns the data directory, ~/.devconsole.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, dataDirName)
}

// DBPath returns the default SQLite database path.
func DBPath() string {
	return filepath.Join(DataDir(), dbFileName)
}

// LogPath returns the log file used while the terminal UI owns the screen.
func LogPath() string {
	return filepath.Join(DataDir(), logFileName)
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), settingsFileName)
}

// EnsureDataDir creates the data directory if needed.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0o750)
}

// EnsureSettings writes a default settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	cfg := Default()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode default settings: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// EnsureAll creates the data directory and the default settings file.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := EnsureSettings(); err != nil {
		return fmt.Errorf("create settings: %w", err)
	}
	return nil
}

// Load reads the settings file and applies environment overrides. A missing
// or unparsable file yields the defaults.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			log.Warn().Err(jsonErr).Str("path", SettingsPath()).Msg("Invalid settings file, using defaults")
			cfg = Default()
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// Get returns the process-wide configuration, loading it on first use.
func Get() *Config {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		cfg, err := Load()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load settings, using defaults")
			cfg = Default()
			cfg.normalize()
		}
		global = cfg
	}
	return global
}

// GetPort returns the HTTP port, honouring DEVCONSOLE_PORT even after Get
// has cached the configuration.
func GetPort() int {
	if port, ok := envInt(envPrefix + "PORT"); ok && port > 0 {
		return port
	}
	return Get().Port
}

// Addr returns host:port for the HTTP service.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FetchTimeout returns the README fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// ResolvedDBPath returns DBPath or the default database location.
func (c *Config) ResolvedDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return DBPath()
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendMemory:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("postgres backend requires DEVCONSOLE_POSTGRES_DSN")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("redis backend requires DEVCONSOLE_REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown backend %q (want one of %s)", c.Backend, strings.Join(Backends, ", "))
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v, ok := envInt(envPrefix + name); ok {
			*dst = v
		}
	}

	setString("HOST", &c.Host)
	setInt("PORT", &c.Port)
	setString("BACKEND", &c.Backend)
	setString("DB_PATH", &c.DBPath)
	setInt("MAX_CONNS", &c.MaxConns)
	setString("POSTGRES_DSN", &c.PostgresDSN)
	setString("REDIS_ADDR", &c.RedisAddr)
	setString("REDIS_PASSWORD", &c.RedisPassword)
	setInt("REDIS_DB", &c.RedisDB)
	setString("REDIS_PREFIX", &c.RedisPrefix)
	setString("README_PATH", &c.ReadmePath)
	setString("README_URL", &c.ReadmeURL)
	setString("SERVICE_URL", &c.ServiceURL)
	setInt("FETCH_TIMEOUT", &c.FetchTimeoutSeconds)
	setString("SITE_URL", &c.SiteURL)
	setString("CATALOG_PATH", &c.CatalogPath)
	setInt("MAX_TRANSCRIPT", &c.MaxTranscriptEntries)
	setInt("RATE_BURST", &c.RateBurst)
	setString("ALLOWED_ORIGINS", &c.AllowedOriginsRaw)
	setString("LOG_LEVEL", &c.LogLevel)

	if v, ok := os.LookupEnv(envPrefix + "RATE_LIMIT"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RateLimit = f
		}
	}
}

// normalize replaces unusable values with defaults.
func (c *Config) normalize() {
	d := Default()
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.Port <= 0 {
		c.Port = d.Port
	}
	if c.MaxConns <= 0 {
		c.MaxConns = d.MaxConns
	}
	if c.FetchTimeoutSeconds <= 0 {
		c.FetchTimeoutSeconds = d.FetchTimeoutSeconds
	}
	if c.MaxTranscriptEntries <= 0 {
		c.MaxTranscriptEntries = d.MaxTranscriptEntries
	}
	if c.RateLimit <= 0 {
		c.RateLimit = d.RateLimit
	}
	if c.RateBurst <= 0 {
		c.RateBurst = d.RateBurst
	}
	if c.SiteURL == "" {
		c.SiteURL = d.SiteURL
	}
	c.SiteURL = strings.TrimRight(c.SiteURL, "/")
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	c.AllowedOrigins = splitTrim(c.AllowedOriginsRaw)
}

func envInt(name string) (int, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// splitTrim splits a comma-separated string, trimming blanks and dropping
// empty values.
func splitTrim(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
