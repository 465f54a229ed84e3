package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. CARVIZ_DATASET_PATH.
const EnvPrefix = "CARVIZ"

// Config represents the complete application configuration.
//
// Leaf fields use split_words rather than an envconfig tag: envconfig falls
// back to the bare tag name when the prefixed variable is unset, which would
// let $PATH or $PORT leak into the configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Dataset   DatasetConfig   `yaml:"dataset" envconfig:"DATASET"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" split_words:"true"`
	Port            int           `yaml:"port" split_words:"true"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true"`
	RequestTimeout  time.Duration `yaml:"request_timeout" split_words:"true"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" split_words:"true"`
	EnableCORS     bool            `yaml:"enable_cors" split_words:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" split_words:"true"`
	RPS     float64 `yaml:"rps" split_words:"true"`
	Burst   int     `yaml:"burst" split_words:"true"`
}

// LoggingConfig contains logging configuration. Output is one of
// "console", "file" or "both"; records are always JSON.
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true"`
	Output   string `yaml:"output" split_words:"true"`
	FilePath string `yaml:"file_path" split_words:"true"`
}

// DatasetConfig locates the CSV catalog (CARVIZ_DATASET_PATH).
type DatasetConfig struct {
	Path string `yaml:"path" split_words:"true"`
}

// PathsConfig contains file system paths configuration. Relative entries are
// resolved against BaseDir, which defaults to the working directory.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" split_words:"true"`
	ExportsDir string `yaml:"exports_dir" split_words:"true"`
	LogsDir    string `yaml:"logs_dir" split_words:"true"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" split_words:"true"`
	WriteBufferSize int           `yaml:"write_buffer_size" split_words:"true"`
	MaxMessageSize  int64         `yaml:"max_message_size" split_words:"true"`
	PingPeriod      time.Duration `yaml:"ping_period" split_words:"true"`
	PongWait        time.Duration `yaml:"pong_wait" split_words:"true"`
	WriteWait       time.Duration `yaml:"write_wait" split_words:"true"`
}

// TelemetryConfig switches the OpenTelemetry exporters.
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" split_words:"true"`
	EnableTracing  bool    `yaml:"enable_tracing" split_words:"true"`
	EnableMetrics  bool    `yaml:"enable_metrics" split_words:"true"`
	TraceExporter  string  `yaml:"trace_exporter" split_words:"true"`
	MetricExporter string  `yaml:"metric_exporter" split_words:"true"`
	SampleRatio    float64 `yaml:"sample_ratio" split_words:"true"`
}

// Load builds the configuration from, in increasing precedence: defaults,
// the first YAML file found, a .env file in the working directory, and the
// process environment.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit YAML file. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// godotenv never overrides variables already present in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file on cfg. Keys absent from the file keep
// their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	if strings.TrimSpace(c.Dataset.Path) == "" {
		return fmt.Errorf("dataset path must be set")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %q", c.Logging.Output)
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/carviz.log"
	}

	if c.WebSocket.PingPeriod >= c.WebSocket.PongWait {
		return fmt.Errorf("websocket ping period must be shorter than pong wait")
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"carviz.yaml",
		"configs/carviz.yaml",
		"../configs/carviz.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8501,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  30 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8501", "http://127.0.0.1:8501"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   100,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/carviz.log",
		},
		Dataset: DatasetConfig{
			Path: DefaultDatasetPath,
		},
		Paths: PathsConfig{
			ExportsDir: "exports",
			LogsDir:    "logs",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			MaxMessageSize:  64 * 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
			WriteWait:       10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			EnableTracing:  false,
			EnableMetrics:  true,
			TraceExporter:  "stdout",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
