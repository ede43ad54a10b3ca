// Package config loads the service configuration from layered YAML or JSON
// files and environment variables, and hot reloads the mutable subset in
// development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
	Test        Environment = "test"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
)

// Token verifiers.
const (
	VerifierJWT      = "jwt"
	VerifierSupabase = "supabase"
)

type Config struct {
	Environment    Environment    `yaml:"environment" json:"environment"`
	Server         Server         `yaml:"server" json:"server"`
	Logging        Logging        `yaml:"logging" json:"logging"`
	Storage        Storage        `yaml:"storage" json:"storage"`
	Redis          Redis          `yaml:"redis" json:"redis"`
	Supabase       Supabase       `yaml:"supabase" json:"supabase"`
	Postgres       Postgres       `yaml:"postgres" json:"postgres"`
	AWS            AWS            `yaml:"aws" json:"aws"`
	Search         Search         `yaml:"search" json:"search"`
	Attachments    Attachments    `yaml:"attachments" json:"attachments"`
	Security       Security       `yaml:"security" json:"security"`
	CircuitBreaker CircuitBreaker `yaml:"circuitBreaker" json:"circuitBreaker"`
	Chat           Chat           `yaml:"chat" json:"chat"`
	Timeline       Timeline       `yaml:"timeline" json:"timeline"`
	Features       Features       `yaml:"features" json:"features"`
	Tracing        Tracing        `yaml:"tracing" json:"tracing"`

	LoadedFrom []string `yaml:"-" json:"-"`
}

type Server struct {
	Port            int           `yaml:"port" json:"port"`
	Host            string        `yaml:"host" json:"host"`
	ReadTimeout     time.Duration `yaml:"readTimeout" json:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" json:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout" json:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout" json:"requestTimeout"`
}

// Addr is host:port.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type Logging struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // json or console
}

// Storage selects the workspace repository and the session snapshot store.
type Storage struct {
	Backend          string        `yaml:"backend" json:"backend"`
	SnapshotBackend  string        `yaml:"snapshotBackend" json:"snapshotBackend"`
	SnapshotTTL      time.Duration `yaml:"snapshotTTL" json:"snapshotTTL"`
	SessionIdleTTL   time.Duration `yaml:"sessionIdleTTL" json:"sessionIdleTTL"`
	OperationTimeout time.Duration `yaml:"operationTimeout" json:"operationTimeout"`
}

type Redis struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

type Supabase struct {
	URL        string `yaml:"url" json:"url"`
	ServiceKey string `yaml:"serviceKey" json:"serviceKey"`
}

type Postgres struct {
	DSN             string        `yaml:"dsn" json:"dsn"`
	MaxOpenConns    int           `yaml:"maxOpenConns" json:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns" json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" json:"connMaxLifetime"`
	Migrate         bool          `yaml:"migrate" json:"migrate"`
}

type AWS struct {
	Region           string `yaml:"region" json:"region"`
	DynamoDBEndpoint string `yaml:"dynamodbEndpoint" json:"dynamodbEndpoint"`
	TableName        string `yaml:"tableName" json:"tableName"`
	EventBusName     string `yaml:"eventBusName" json:"eventBusName"`
	MetricsNamespace string `yaml:"metricsNamespace" json:"metricsNamespace"`
}

type Search struct {
	Provider string `yaml:"provider" json:"provider"` // none or meilisearch
	URL      string `yaml:"url" json:"url"`
	APIKey   string `yaml:"apiKey" json:"apiKey"`
	Index    string `yaml:"index" json:"index"`
}

type Attachments struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Endpoint  string        `yaml:"endpoint" json:"endpoint"`
	AccessKey string        `yaml:"accessKey" json:"accessKey"`
	SecretKey string        `yaml:"secretKey" json:"secretKey"`
	Bucket    string        `yaml:"bucket" json:"bucket"`
	UseSSL    bool          `yaml:"useSSL" json:"useSSL"`
	URLExpiry time.Duration `yaml:"urlExpiry" json:"urlExpiry"`
	MaxSize   int64         `yaml:"maxSize" json:"maxSize"`
}

type Security struct {
	Verifier       string        `yaml:"verifier" json:"verifier"`
	JWTSecret      string        `yaml:"jwtSecret" json:"jwtSecret"`
	JWTIssuer      string        `yaml:"jwtIssuer" json:"jwtIssuer"`
	JWTAudience    []string      `yaml:"jwtAudience" json:"jwtAudience"`
	TokenCacheTTL  time.Duration `yaml:"tokenCacheTTL" json:"tokenCacheTTL"`
	RateLimit      float64       `yaml:"rateLimit" json:"rateLimit"` // requests per second per user
	RateBurst      int           `yaml:"rateBurst" json:"rateBurst"`
	AllowedOrigins []string      `yaml:"allowedOrigins" json:"allowedOrigins"`
}

type CircuitBreaker struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	MaxRequests  uint32        `yaml:"maxRequests" json:"maxRequests"`
	Interval     time.Duration `yaml:"interval" json:"interval"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	FailureRatio float64       `yaml:"failureRatio" json:"failureRatio"`
	MinRequests  uint32        `yaml:"minRequests" json:"minRequests"`
}

type Chat struct {
	ResponseDelay time.Duration `yaml:"responseDelay" json:"responseDelay"`
}

type Timeline struct {
	WeekStart string `yaml:"weekStart" json:"weekStart"`
	Location  string `yaml:"location" json:"location"`
}

// Weekday parses WeekStart, defaulting to Sunday.
func (t Timeline) Weekday() time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), t.WeekStart) {
			return d
		}
	}
	return time.Sunday
}

// Loc loads Location, defaulting to UTC.
func (t Timeline) Loc() (*time.Location, error) {
	if t.Location == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(t.Location)
}

// Features contains feature flags for the application
type Features struct {
	EnableMetrics         bool `yaml:"enableMetrics" json:"enableMetrics"`
	EnableTracing         bool `yaml:"enableTracing" json:"enableTracing"`
	EnableCloudWatch      bool `yaml:"enableCloudWatch" json:"enableCloudWatch"`
	EnableEvents          bool `yaml:"enableEvents" json:"enableEvents"`
	EnableSampleWorkspace bool `yaml:"enableSampleWorkspace" json:"enableSampleWorkspace"`
}

type Tracing struct {
	ServiceName string  `yaml:"serviceName" json:"serviceName"`
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	SampleRate  float64 `yaml:"sampleRate" json:"sampleRate"`
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	switch c.Environment {
	case Development, Staging, Production, Test:
	default:
		add("unknown environment %q", c.Environment)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add("server.port %d out of range", c.Server.Port)
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSupabase:
		if c.Supabase.URL == "" || c.Supabase.ServiceKey == "" {
			add("supabase backend requires supabase.url and supabase.serviceKey")
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			add("postgres backend requires postgres.dsn")
		}
	case BackendDynamoDB:
		if c.AWS.TableName == "" {
			add("dynamodb backend requires aws.tableName")
		}
	default:
		add("unknown storage.backend %q", c.Storage.Backend)
	}
	switch c.Storage.SnapshotBackend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			add("redis snapshot backend requires redis.addr")
		}
	default:
		add("unknown storage.snapshotBackend %q", c.Storage.SnapshotBackend)
	}

	switch c.Security.Verifier {
	case VerifierJWT:
		if c.Security.JWTSecret == "" {
			add("jwt verifier requires security.jwtSecret")
		}
	case VerifierSupabase:
		if c.Supabase.URL == "" || c.Supabase.ServiceKey == "" {
			add("supabase verifier requires supabase.url and supabase.serviceKey")
		}
	default:
		add("unknown security.verifier %q", c.Security.Verifier)
	}
	if c.Security.RateLimit < 0 || c.Security.RateBurst < 0 {
		add("security rate limit must not be negative")
	}

	if c.Search.Provider != "" && c.Search.Provider != "none" && c.Search.Provider != "meilisearch" {
		add("unknown search.provider %q", c.Search.Provider)
	}
	if c.Search.Provider == "meilisearch" && c.Search.URL == "" {
		add("meilisearch requires search.url")
	}
	if c.Attachments.Enabled && (c.Attachments.Endpoint == "" || c.Attachments.Bucket == "") {
		add("attachments require attachments.endpoint and attachments.bucket")
	}
	if c.CircuitBreaker.FailureRatio < 0 || c.CircuitBreaker.FailureRatio > 1 {
		add("circuitBreaker.failureRatio must be within [0,1]")
	}
	if c.Chat.ResponseDelay < 0 {
		add("chat.responseDelay must not be negative")
	}
	if _, err := c.Timeline.Loc(); err != nil {
		add("timeline.location: %v", err)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		add("tracing.sampleRate must be within [0,1]")
	}

	return errors.Join(errs...)
}

// IsProduction reports whether c runs in production.
func (c *Config) IsProduction() bool { return c.Environment == Production }

func getEnvironment() Environment {
	switch env := Environment(strings.ToLower(os.Getenv("ENVIRONMENT"))); env {
	case Staging, Production, Test:
		return env
	default:
		return Development
	}
}
