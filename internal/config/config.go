// Package config loads the contacts service settings from the environment,
// applying defaults, normalizing values and validating the result.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig lists the browser origins allowed to call the API. Empty means
// any origin.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig controls HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig configures trace export.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT, host:port
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0,1]
}

// Config is the full service configuration.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int
	MaxBodyBytes      int64
	GinMode           string // debug|release|test

	// Logging / surfaces
	LogLevel       string
	LogPretty      bool
	SwaggerEnabled bool
	UIEnabled      bool
	APIBasePath    string

	// Storage
	DBPath string

	// Rate limiting
	RateRPS   float64
	RateBurst int

	CORS     CORSConfig
	Security SecurityConfig
	OTEL     OTELConfig
}

// MustLoad is Load that panics on an invalid configuration.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment. Unparseable numbers, booleans and durations
// fall back to their defaults; out-of-range values are reported together.
func Load() (Config, error) {
	var cfg Config
	loadServer(&cfg)
	loadSurfaces(&cfg)
	loadLimits(&cfg)
	loadOTEL(&cfg)
	return cfg, cfg.validate()
}

func loadServer(cfg *Config) {
	cfg.Port = envOr("PORT", "3000", asString)
	cfg.DBPath = envOr("DB_PATH", "contacts.db", asString)
	cfg.ReadTimeout = envOr("READ_TIMEOUT", 15*time.Second, time.ParseDuration)
	cfg.ReadHeaderTimeout = envOr("READ_HEADER_TIMEOUT", 10*time.Second, time.ParseDuration)
	cfg.WriteTimeout = envOr("WRITE_TIMEOUT", 20*time.Second, time.ParseDuration)
	cfg.IdleTimeout = envOr("IDLE_TIMEOUT", 60*time.Second, time.ParseDuration)
	cfg.ShutdownTimeout = envOr("SHUTDOWN_TIMEOUT", 10*time.Second, time.ParseDuration)

	switch mode := strings.ToLower(envOr("GIN_MODE", "release", asString)); mode {
	case "debug", "release", "test":
		cfg.GinMode = mode
	default:
		cfg.GinMode = "release"
	}
}

func loadSurfaces(cfg *Config) {
	cfg.LogLevel = strings.ToLower(envOr("LOG_LEVEL", "info", asString))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	cfg.LogPretty = envOr("LOG_PRETTY", false, parseBool)
	cfg.SwaggerEnabled = envOr("SWAGGER_ENABLED", false, parseBool)
	cfg.UIEnabled = envOr("UI_ENABLED", true, parseBool)
	cfg.APIBasePath = normalizeBasePath(envOr("API_BASE_PATH", "/api/contacts", asString))
	cfg.CORS.AllowedOrigins = splitCSV(envOr("CORS_ALLOWED_ORIGINS", "", asString))
	cfg.Security = SecurityConfig{
		EnableHSTS: envOr("ENABLE_HSTS", false, parseBool),
		HSTSMaxAge: envOr("HSTS_MAX_AGE", 180*24*time.Hour, time.ParseDuration),
	}
}

func loadLimits(cfg *Config) {
	cfg.MaxHeaderBytes = envOr("MAX_HEADER_BYTES", 1<<20, strconv.Atoi)
	cfg.MaxBodyBytes = envOr("MAX_BODY_BYTES", int64(1<<20), parseInt64)
	cfg.RateRPS = envOr("RATE_RPS", 10.0, parseFloat)
	cfg.RateBurst = envOr("RATE_BURST", 20, strconv.Atoi)
}

func loadOTEL(cfg *Config) {
	cfg.OTEL = OTELConfig{
		Enabled:     envOr("OTEL_ENABLED", false, parseBool),
		Endpoint:    envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317", asString),
		Insecure:    envOr("OTEL_EXPORTER_OTLP_INSECURE", true, parseBool),
		ServiceName: envOr("OTEL_SERVICE_NAME", "go-contacts-backend", asString),
		SampleRatio: envOr("OTEL_TRACES_SAMPLER_ARG", 1.0, parseFloat),
	}
}

func (c Config) validate() error {
	var errs []error
	check := func(bad bool, msg string) {
		if bad {
			errs = append(errs, errors.New(msg))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"))
	}
	check(strings.TrimSpace(c.Port) == "", "PORT must not be empty")
	check(strings.TrimSpace(c.DBPath) == "", "DB_PATH must not be empty")
	check(c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 ||
		c.IdleTimeout <= 0 || c.ShutdownTimeout <= 0, "timeouts must be positive durations")
	check(c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0")
	check(c.MaxBodyBytes <= 0, "MAX_BODY_BYTES must be > 0")
	// the UI page and /health live at the root
	check(c.APIBasePath == "/", "API_BASE_PATH must not be the root path")
	check(c.RateRPS < 0, "RATE_RPS must be >= 0")
	check(c.RateBurst < 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0")
	check(c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	return errors.Join(errs...)
}

// Addr is the listen address for Port.
func (c Config) Addr() string { return ":" + c.Port }

// envOr parses the variable key, returning def when it is unset, empty or
// does not parse.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func asString(s string) (string, error) { return s, nil }

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func parseInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

var errNotBool = errors.New("not a boolean")

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, errNotBool
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing ones.
func normalizeBasePath(p string) string {
	return "/" + strings.Trim(strings.TrimSpace(p), "/")
}
