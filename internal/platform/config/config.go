package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	pstrings "cityscope/pkg/platform/strings"
)

const (
	defaultEnvFile         = "envs/backend/db.env"
	defaultEnvFileFallback = "envs/backend/db.env-default"

	// MaxGeocoderTimeout bounds the external lookup; callers cannot raise it.
	MaxGeocoderTimeout = 10 * time.Second
)

// Config is the full process configuration.
type Config struct {
	Server   Server
	Database Database
	Redis    RedisConfig
	Geocoder Geocoder
	Resolver Resolver
	Tracing  Tracing
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string
	// AddressRateLimit is the per-client budget for resolve-address calls
	// per minute. Zero disables the limit.
	AddressRateLimit int
}

// Database holds PostgreSQL connection settings. An empty Host means the
// service runs against the in-memory seeded catalog.
type Database struct {
	Host         string
	Port         int
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
}

// Enabled reports whether a PostgreSQL catalog is configured.
func (d Database) Enabled() bool {
	return d.Host != ""
}

// DSN renders a lib/pq connection URL.
func (d Database) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisConfig configures the optional geocode cache backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Geocoder configures the Nominatim-compatible address lookup.
type Geocoder struct {
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	CountryCodes   []string
	Qualifier      string
	CacheTTL       time.Duration
	DistrictFields []string
	RatePerMinute  int

	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Resolver tunes the name resolution engine.
type Resolver struct {
	// SnapshotTTL caches the full-scan snapshot; zero re-reads it per call.
	SnapshotTTL time.Duration
}

// Tracing configures OTLP span export. An empty endpoint keeps the no-op
// tracer provider.
type Tracing struct {
	OTLPEndpoint   string
	ServiceVersion string
}

// Enabled reports whether spans should be exported.
func (t Tracing) Enabled() bool {
	return t.OTLPEndpoint != ""
}

// FromEnv builds the configuration from the environment so main stays lean.
// An env file is loaded first when present; real environment variables win.
func FromEnv() Config {
	loadEnvFile()

	return Config{
		Server: Server{
			Addr:        getEnv("CITYSCOPE_ADDR", ":5001"),
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),

			AddressRateLimit: getEnvInt("RESOLVE_ADDRESS_RATE_PER_MINUTE", 30),
		},
		Database: Database{
			Host:         os.Getenv("POSTGRES_HOST"),
			Port:         getEnvInt("POSTGRES_PORT", 5432),
			Name:         getEnv("POSTGRES_DB", "cityscope"),
			User:         getEnv("POSTGRES_USER", "postgres"),
			Password:     os.Getenv("POSTGRES_PASSWORD"),
			SSLMode:      getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", time.Second),
		},
		Geocoder: Geocoder{
			BaseURL:        getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:      getEnv("GEOCODER_USER_AGENT", "cityscope/1.0"),
			Timeout:        clampTimeout(getEnvDuration("GEOCODER_TIMEOUT", MaxGeocoderTimeout)),
			CountryCodes:   listOrDefault(os.Getenv("GEOCODER_COUNTRY_CODES"), []string{"pl"}),
			Qualifier:      getEnv("GEOCODER_QUALIFIER", "Warszawa, Polska"),
			CacheTTL:       getEnvDuration("GEOCODER_CACHE_TTL", 24*time.Hour),
			DistrictFields: pstrings.SplitList(os.Getenv("GEOCODER_DISTRICT_FIELDS")),
			RatePerMinute:  getEnvInt("GEOCODER_RATE_PER_MINUTE", 60),

			BreakerThreshold: getEnvInt("GEOCODER_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  getEnvDuration("GEOCODER_BREAKER_COOLDOWN", 30*time.Second),
		},
		Resolver: Resolver{
			SnapshotTTL: getEnvDuration("RESOLVER_SNAPSHOT_TTL", 0),
		},
		Tracing: Tracing{
			OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		},
	}
}

func loadEnvFile() {
	path := os.Getenv("CITYSCOPE_ENV_FILE")
	if path == "" {
		path = defaultEnvFile
		if _, err := os.Stat(path); err != nil {
			path = defaultEnvFileFallback
		}
	}
	// godotenv.Load never overrides variables already set in the environment.
	_ = godotenv.Load(path)
}

func clampTimeout(d time.Duration) time.Duration {
	if d <= 0 || d > MaxGeocoderTimeout {
		return MaxGeocoderTimeout
	}
	return d
}

func listOrDefault(raw string, def []string) []string {
	if v := pstrings.SplitList(raw); len(v) > 0 {
		return v
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
