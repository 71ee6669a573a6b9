package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration, loaded once at boot into
// the global AppConfig. Environment variables override file values.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	Verifier VerifierConfig `yaml:"verifier"`
	Builder  BuilderConfig  `yaml:"builder"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	CORS     CORSConfig     `yaml:"cors"`
	Admin    AdminConfig    `yaml:"admin"`
	JWT      JWTConfig      `yaml:"jwt"`
}

// ServerConfig HTTP server configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig database configuration.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig NATS event bus configuration. Eventing is optional: an
// empty URL runs the service without a bus.
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`        // seconds
	ReconnectWait int    `yaml:"reconnect_wait"` // seconds
	MaxReconnects int    `yaml:"max_reconnects"`
	StreamName    string `yaml:"stream_name"`
}

// VerifierConfig external proof verifier service configuration.
type VerifierConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"` // seconds
}

// BuilderConfig off-chain tree builder configuration. The builder runs
// in-process as the privileged root submitter.
type BuilderConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval int    `yaml:"interval"` // seconds between replay rounds
	Address  string `yaml:"address"`  // submitter principal address
}

// LedgerConfig protocol bootstrap configuration.
type LedgerConfig struct {
	Owner string `yaml:"owner"` // owner principal address
}

// CORSConfig CORS configuration.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"`
}

// AdminConfig admin API access control configuration.
type AdminConfig struct {
	AllowedIPs []string `yaml:"allowedIPs"`
}

// JWTConfig token signing configuration. Secret normally comes from
// the JWT_SECRET environment variable, not the file.
type JWTConfig struct {
	Secret   string `yaml:"secret"`
	TTLHours int    `yaml:"ttlHours"`
}

// AppConfig is the loaded application configuration.
var AppConfig *Config

// LoadConfig reads the YAML config file and applies environment
// overrides. Missing file is tolerated when the environment carries
// everything needed.
func LoadConfig(configPath string) error {
	var config Config

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if configPath != "" {
		fmt.Printf("config file %s not readable (%v), relying on environment\n", configPath, err)
	}

	overrideFromEnv(&config)
	applyDefaults(&config)

	AppConfig = &config
	return nil
}

func overrideFromEnv(config *Config) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}
	if natsTimeout := os.Getenv("NATS_TIMEOUT"); natsTimeout != "" {
		if t, err := strconv.Atoi(natsTimeout); err == nil {
			config.NATS.Timeout = t
		}
	}
	if verifier := os.Getenv("VERIFIER_BASE_URL"); verifier != "" {
		config.Verifier.BaseURL = verifier
	}
	if timeout := os.Getenv("VERIFIER_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			config.Verifier.Timeout = t
		}
	}
	if owner := os.Getenv("LEDGER_OWNER"); owner != "" {
		config.Ledger.Owner = owner
	}
	if addr := os.Getenv("BUILDER_ADDRESS"); addr != "" {
		config.Builder.Address = addr
	}
	if interval := os.Getenv("BUILDER_INTERVAL"); interval != "" {
		if t, err := strconv.Atoi(interval); err == nil {
			config.Builder.Interval = t
		}
	}
	if enabled := os.Getenv("BUILDER_ENABLED"); enabled != "" {
		config.Builder.Enabled = enabled == "true" || enabled == "1"
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.JWT.Secret = secret
	}
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.NATS.Timeout == 0 {
		config.NATS.Timeout = 10
	}
	if config.NATS.ReconnectWait == 0 {
		config.NATS.ReconnectWait = 5
	}
	if config.NATS.StreamName == "" {
		config.NATS.StreamName = "GHOST_EVENTS"
	}
	if config.Verifier.Timeout == 0 {
		config.Verifier.Timeout = 60
	}
	if config.Builder.Interval == 0 {
		config.Builder.Interval = 15
	}
	if config.JWT.TTLHours == 0 {
		config.JWT.TTLHours = 24
	}
}
