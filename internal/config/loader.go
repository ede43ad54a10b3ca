package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// CONFIGURATION LOADER
// ============================================================================

// Loader handles loading configuration from multiple sources.
type Loader struct {
	basePath    string
	environment Environment
	sources     []string
	fileLoaders []FileLoader
	getenv      func(string) string
}

// FileLoader decodes one configuration file format.
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extension() string
}

// NewLoader creates a loader reading from basePath, "config" when empty.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}
	l := &Loader{
		basePath:    basePath,
		environment: env,
		getenv:      os.Getenv,
	}
	l.RegisterLoader(&YAMLLoader{})
	l.RegisterLoader(&JSONLoader{})
	return l
}

// RegisterLoader adds a file format. Earlier registrations win when two
// files share a name.
func (l *Loader) RegisterLoader(loader FileLoader) {
	l.fileLoaders = append(l.fileLoaders, loader)
}

// BasePath is the directory configuration files are read from.
func (l *Loader) BasePath() string { return l.basePath }

// Load loads configuration using a hierarchy of sources.
// The loading order (from lowest to highest priority):
//  1. Default values (in code)
//  2. Base configuration file (base.yaml)
//  3. Environment-specific file (e.g., production.yaml)
//  4. Local overrides file (local.yaml, development only)
//  5. Environment variables
func (l *Loader) Load() (*Config, error) {
	l.sources = l.sources[:0]
	cfg := l.defaultConfig()
	l.sources = append(l.sources, "defaults")

	if err := l.loadFile("base", cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if l.environment == Development {
		if err := l.loadFile("local", cfg); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load local config: %v\n", err)
		}
	}

	l.loadEnvironmentVariables(cfg)
	l.sources = append(l.sources, "environment")

	cfg.Environment = l.environment
	cfg.LoadedFrom = append([]string(nil), l.sources...)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) loadFile(name string, cfg *Config) error {
	for _, loader := range l.fileLoaders {
		path := filepath.Join(l.basePath, name+"."+loader.Extension())

		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		err = loader.Load(file, cfg)
		file.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		l.sources = append(l.sources, path)
		return nil
	}
	return os.ErrNotExist
}

// loadEnvironmentVariables overlays environment variables on the configuration.
func (l *Loader) loadEnvironmentVariables(cfg *Config) {
	str := func(key string, dst *string) {
		if v := l.getenv(key); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v := l.getenv(key); v != "" {
			*dst = parseBool(v)
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := l.getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	// Server
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if v := l.getenv(key); v != "" {
			if port := parseInt(v); port > 0 {
				cfg.Server.Port = port
			}
		}
	}
	str("SERVER_HOST", &cfg.Server.Host)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)

	// Storage
	str("STORAGE_BACKEND", &cfg.Storage.Backend)
	str("SNAPSHOT_BACKEND", &cfg.Storage.SnapshotBackend)
	duration("SNAPSHOT_TTL", &cfg.Storage.SnapshotTTL)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("SUPABASE_URL", &cfg.Supabase.URL)
	str("SUPABASE_SERVICE_ROLE_KEY", &cfg.Supabase.ServiceKey)
	str("DATABASE_URL", &cfg.Postgres.DSN)
	boolean("DATABASE_MIGRATE", &cfg.Postgres.Migrate)

	// AWS
	str("AWS_REGION", &cfg.AWS.Region)
	str("DYNAMODB_ENDPOINT", &cfg.AWS.DynamoDBEndpoint)
	str("TABLE_NAME", &cfg.AWS.TableName)
	str("EVENT_BUS_NAME", &cfg.AWS.EventBusName)

	// Search and attachments
	str("SEARCH_PROVIDER", &cfg.Search.Provider)
	str("MEILI_URL", &cfg.Search.URL)
	str("MEILI_API_KEY", &cfg.Search.APIKey)
	boolean("ATTACHMENTS_ENABLED", &cfg.Attachments.Enabled)
	str("MINIO_ENDPOINT", &cfg.Attachments.Endpoint)
	str("MINIO_ACCESS_KEY", &cfg.Attachments.AccessKey)
	str("MINIO_SECRET_KEY", &cfg.Attachments.SecretKey)
	str("MINIO_BUCKET", &cfg.Attachments.Bucket)

	// Security
	str("AUTH_VERIFIER", &cfg.Security.Verifier)
	str("SUPABASE_JWT_SECRET", &cfg.Security.JWTSecret)
	str("JWT_ISSUER", &cfg.Security.JWTIssuer)
	if v := l.getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Security.AllowedOrigins = splitList(v)
	}

	// Behaviour
	duration("CHAT_RESPONSE_DELAY", &cfg.Chat.ResponseDelay)
	str("TIMELINE_WEEK_START", &cfg.Timeline.WeekStart)
	str("TIMELINE_LOCATION", &cfg.Timeline.Location)

	// Feature flags
	boolean("ENABLE_METRICS", &cfg.Features.EnableMetrics)
	boolean("ENABLE_TRACING", &cfg.Features.EnableTracing)
	boolean("ENABLE_CLOUDWATCH", &cfg.Features.EnableCloudWatch)
	boolean("ENABLE_EVENTS", &cfg.Features.EnableEvents)
	boolean("ENABLE_SAMPLE_WORKSPACE", &cfg.Features.EnableSampleWorkspace)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Tracing.Endpoint)
}

// defaultConfig lets the service run with no files at all.
func (l *Loader) defaultConfig() *Config {
	return &Config{
		Environment: l.environment,
		Server: Server{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Logging: Logging{Level: "info", Format: "json"},
		Storage: Storage{
			Backend:          BackendMemory,
			SnapshotBackend:  BackendMemory,
			SnapshotTTL:      30 * 24 * time.Hour,
			SessionIdleTTL:   2 * time.Hour,
			OperationTimeout: 10 * time.Second,
		},
		Redis: Redis{Addr: "localhost:6379"},
		Postgres: Postgres{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		AWS: AWS{
			Region:           "us-east-1",
			TableName:        "jirai-" + strings.ToLower(string(l.environment)),
			EventBusName:     "default",
			MetricsNamespace: "Jirai",
		},
		Search: Search{Provider: "none", Index: "nodes"},
		Attachments: Attachments{
			Bucket:    "jirai-attachments",
			URLExpiry: 7 * 24 * time.Hour,
			MaxSize:   25 << 20,
		},
		Security: Security{
			Verifier:       VerifierJWT,
			JWTSecret:      devSecret(l.environment),
			JWTAudience:    []string{"authenticated"},
			TokenCacheTTL:  time.Minute,
			RateLimit:      20,
			RateBurst:      40,
			AllowedOrigins: []string{"*"},
		},
		CircuitBreaker: CircuitBreaker{
			Enabled:      true,
			MaxRequests:  3,
			Interval:     10 * time.Second,
			Timeout:      30 * time.Second,
			FailureRatio: 0.5,
			MinRequests:  10,
		},
		Chat:     Chat{ResponseDelay: 1500 * time.Millisecond},
		Timeline: Timeline{WeekStart: "sunday", Location: "UTC"},
		Features: Features{
			EnableMetrics:         true,
			EnableSampleWorkspace: true,
		},
		Tracing: Tracing{
			ServiceName: "jirai-backend",
			Endpoint:    "localhost:4317",
			SampleRate:  0.1,
		},
	}
}

// devSecret gives local runs a usable secret; other environments must set one.
func devSecret(env Environment) string {
	if env == Development || env == Test {
		return "jirai-development-secret-change-me-please"
	}
	return ""
}

// ============================================================================
// FILE LOADERS
// ============================================================================

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target interface{}) error {
	err := yaml.NewDecoder(reader).Decode(target)
	if err == io.EOF {
		return nil
	}
	return err
}

func (y *YAMLLoader) Extension() string { return "yaml" }

// JSONLoader loads configuration from JSON files.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target interface{}) error {
	return json.NewDecoder(reader).Decode(target)
}

func (j *JSONLoader) Extension() string { return "json" }

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

func parseInt(s string) int {
	val, _ := strconv.Atoi(s)
	return val
}

func parseBool(s string) bool {
	val, _ := strconv.ParseBool(s)
	return val
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load reads configuration for the ENVIRONMENT from CONFIG_DIR.
func Load() (*Config, *Loader, error) {
	loader := NewLoader(os.Getenv("CONFIG_DIR"), getEnvironment())
	cfg, err := loader.Load()
	return cfg, loader, err
}

// MustLoad loads configuration and panics on error.
// Use this only in main() or init() functions.
func MustLoad() (*Config, *Loader) {
	cfg, loader, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg, loader
}
