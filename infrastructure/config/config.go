package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	domainconfig "ideapardaz/domain/config"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable, e.g. IDEAS_BACKEND
const EnvPrefix = "IDEAS"

// FileEnvVar names the optional YAML file read before the environment
const FileEnvVar = "IDEAS_CONFIG_FILE"

// Backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

// Auth modes
const (
	AuthNone     = "none"
	AuthJWT      = "jwt"
	AuthSupabase = "supabase"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Environment   string `yaml:"environment" envconfig:"ENVIRONMENT"`
	ServerAddress string `yaml:"server_address" envconfig:"SERVER_ADDRESS"`
	LogLevel      string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	// Persistence
	Backend        string        `yaml:"backend" envconfig:"BACKEND"`
	DataDir        string        `yaml:"data_dir" envconfig:"DATA_DIR"`
	PersistTimeout time.Duration `yaml:"persist_timeout" envconfig:"PERSIST_TIMEOUT"`
	RetryAttempts  int           `yaml:"retry_attempts" envconfig:"RETRY_ATTEMPTS"`
	Breaker        BreakerConfig `yaml:"breaker" envconfig:"BREAKER"`

	// AWS configuration
	AWSRegion    string        `yaml:"aws_region" envconfig:"AWS_REGION"`
	TableName    string        `yaml:"table_name" envconfig:"TABLE_NAME"`
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL"`
	EventBusName string        `yaml:"event_bus_name" envconfig:"EVENT_BUS_NAME"`

	// Authentication
	AuthMode    string `yaml:"auth_mode" envconfig:"AUTH_MODE"`
	JWTSecret   string `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
	JWTIssuer   string `yaml:"jwt_issuer" envconfig:"JWT_ISSUER"`
	SupabaseURL string `yaml:"supabase_url" envconfig:"SUPABASE_URL"`
	SupabaseKey string `yaml:"supabase_key" envconfig:"SUPABASE_KEY"`

	// Observability
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	EnableTracing bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	OTLPEndpoint  string `yaml:"otlp_endpoint" envconfig:"OTLP_ENDPOINT"`

	CORSOrigins []string `yaml:"cors_origins" envconfig:"CORS_ORIGINS"`

	// Business rules
	Domain DomainConfig `yaml:"domain" envconfig:"DOMAIN"`
}

// BreakerConfig configures the circuit breaker around the backend
type BreakerConfig struct {
	MinRequests      uint32        `yaml:"min_requests" envconfig:"MIN_REQUESTS"`
	FailureThreshold float64       `yaml:"failure_threshold" envconfig:"FAILURE_THRESHOLD"`
	OpenTimeout      time.Duration `yaml:"open_timeout" envconfig:"OPEN_TIMEOUT"`
}

// DomainConfig mirrors the store's business rules
type DomainConfig struct {
	RequireUniqueVibeNames bool `yaml:"require_unique_vibe_names" envconfig:"REQUIRE_UNIQUE_VIBE_NAMES"`
	MaxLinksPerIdea        int  `yaml:"max_links_per_idea" envconfig:"MAX_LINKS_PER_IDEA"`
	AllowLinksToArchived   bool `yaml:"allow_links_to_archived" envconfig:"ALLOW_LINKS_TO_ARCHIVED"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	domain := domainconfig.DefaultDomainConfig()
	return &Config{
		Environment:    "development",
		ServerAddress:  ":8080",
		LogLevel:       "info",
		Backend:        BackendMemory,
		DataDir:        "./data",
		PersistTimeout: 10 * time.Second,
		RetryAttempts:  3,
		Breaker: BreakerConfig{
			MinRequests:      5,
			FailureThreshold: 0.6,
			OpenTimeout:      15 * time.Second,
		},
		AWSRegion:    "us-west-2",
		TableName:    "ideapardaz",
		PollInterval: 5 * time.Second,
		AuthMode:     AuthNone,
		JWTIssuer:    "ideapardaz",
		OTLPEndpoint: "localhost:4317",
		CORSOrigins:  []string{"*"},
		Domain: DomainConfig{
			RequireUniqueVibeNames: domain.RequireUniqueVibeNames,
			MaxLinksPerIdea:        domain.MaxLinksPerIdea,
			AllowLinksToArchived:   domain.AllowLinksToArchived,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// IDEAS_CONFIG_FILE if any, then IDEAS_* environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnvVar); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks backend and auth specific requirements
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendFile, BackendSQLite:
		if c.DataDir == "" {
			return fmt.Errorf("%s_DATA_DIR is required for the %s backend", EnvPrefix, c.Backend)
		}
	case BackendDynamoDB:
		if c.TableName == "" {
			return fmt.Errorf("%s_TABLE_NAME is required for the dynamodb backend", EnvPrefix)
		}
		if c.AWSRegion == "" {
			return fmt.Errorf("%s_AWS_REGION is required for the dynamodb backend", EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch c.AuthMode {
	case AuthNone:
		if c.IsProduction() {
			return fmt.Errorf("auth mode %q is not allowed in production", AuthNone)
		}
	case AuthJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("%s_JWT_SECRET is required for jwt auth", EnvPrefix)
		}
	case AuthSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("%s_SUPABASE_URL and %s_SUPABASE_KEY are required for supabase auth", EnvPrefix, EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown auth mode %q", c.AuthMode)
	}

	if c.PersistTimeout <= 0 {
		return fmt.Errorf("persist timeout must be positive")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1")
	}
	if c.Domain.MaxLinksPerIdea < 0 {
		return fmt.Errorf("max links per idea must not be negative")
	}
	return nil
}

// DomainRules converts the business rule section for the store
func (c *Config) DomainRules() *domainconfig.DomainConfig {
	return &domainconfig.DomainConfig{
		RequireUniqueVibeNames: c.Domain.RequireUniqueVibeNames,
		MaxLinksPerIdea:        c.Domain.MaxLinksPerIdea,
		AllowLinksToArchived:   c.Domain.AllowLinksToArchived,
	}
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
