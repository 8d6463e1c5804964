package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	Providers   ProvidersConfig `toml:"providers"`
	Schedule    ScheduleConfig  `toml:"schedule"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration for the report archive
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// PipelineConfig controls batching and concurrency for the summarization pipeline
type PipelineConfig struct {
	BatchSize          int     `toml:"batch_size" validate:"gte=1"`           // Documents per batch (default: 20)
	MaxCharsPerDoc     int     `toml:"max_chars_per_doc" validate:"gte=50"`   // Per-document excerpt budget (default: 500)
	MaxConcurrency     int     `toml:"max_concurrency" validate:"gte=1"`      // Concurrent batch summarizations (default: 3)
	BatchMaxTokens     int     `toml:"batch_max_tokens" validate:"gte=1"`     // Token budget per batch summary call
	SynthesisMaxTokens int     `toml:"synthesis_max_tokens" validate:"gte=1"` // Token budget for the final synthesis call
	Temperature        float32 `toml:"temperature"`                           // Generation temperature (default: 0.3)
}

// ProvidersConfig holds the provider priority order and per-provider settings.
// The last entry in Order is conventionally the local fallback with no
// external quota.
type ProvidersConfig struct {
	Order  []string       `toml:"order" validate:"min=1"` // Provider identifiers in priority order
	Gemini ProviderConfig `toml:"gemini"`
	Claude ProviderConfig `toml:"claude"`
	Local  ProviderConfig `toml:"local"`
}

// ProviderConfig contains settings for a single text-generation backend
type ProviderConfig struct {
	APIKey       string `toml:"api_key"`       // API key for hosted providers (never logged)
	Endpoint     string `toml:"endpoint"`      // Base URL for the local llama-server backend
	Model        string `toml:"model"`         // Model identifier
	Timeout      string `toml:"timeout"`       // Per-attempt timeout as duration string
	RequestLimit int    `toml:"request_limit"` // Max requests per quota window (0 = unlimited)
	Window       string `toml:"window"`        // Quota window as duration string (default: "60s")
	RateLimit    string `toml:"rate_limit"`    // Minimum interval between requests (default: none)
}

// ScheduleConfig controls periodic report generation
type ScheduleConfig struct {
	Enabled    bool   `toml:"enabled"`
	Cron       string `toml:"cron"`        // Cron expression (default: every hour)
	Context    string `toml:"context"`     // Monitoring context passed into prompts
	SourceFile string `toml:"source_file"` // JSON document file consumed each run
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings belong in vigil.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Pipeline: PipelineConfig{
			BatchSize:          20,
			MaxCharsPerDoc:     500,
			MaxConcurrency:     3, // Hosted providers share a per-minute ceiling across the run
			BatchMaxTokens:     1024,
			SynthesisMaxTokens: 2048,
			Temperature:        0.3,
		},
		Providers: ProvidersConfig{
			Order: []string{"gemini", "claude", "local"},
			Gemini: ProviderConfig{
				Model:        "gemini-3-flash-preview",
				Timeout:      "30s",
				RequestLimit: 15, // Free tier: 15 RPM
				Window:       "60s",
				RateLimit:    "4s",
			},
			Claude: ProviderConfig{
				Model:        "claude-haiku-3-5-20241022",
				Timeout:      "30s",
				RequestLimit: 50,
				Window:       "60s",
				RateLimit:    "1s",
			},
			Local: ProviderConfig{
				Endpoint: "http://localhost:8081",
				Model:    "local",
				Timeout:  "60s",
				Window:   "60s",
			},
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "0 * * * *",
			Context: "general monitoring",
		},
	}
}

// LoadFromFiles loads configuration from files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VIGIL_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("VIGIL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("VIGIL_STORAGE_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	if key := os.Getenv("VIGIL_GEMINI_API_KEY"); key != "" {
		config.Providers.Gemini.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && config.Providers.Gemini.APIKey == "" {
		config.Providers.Gemini.APIKey = key
	}

	if key := os.Getenv("VIGIL_CLAUDE_API_KEY"); key != "" {
		config.Providers.Claude.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && config.Providers.Claude.APIKey == "" {
		config.Providers.Claude.APIKey = key
	}

	if endpoint := os.Getenv("VIGIL_LOCAL_ENDPOINT"); endpoint != "" {
		config.Providers.Local.Endpoint = endpoint
	}

	if size := os.Getenv("VIGIL_BATCH_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			config.Pipeline.BatchSize = n
		}
	}
	if conc := os.Getenv("VIGIL_MAX_CONCURRENCY"); conc != "" {
		if n, err := strconv.Atoi(conc); err == nil {
			config.Pipeline.MaxConcurrency = n
		}
	}
}

// Validate checks the configuration for construction-time errors. This is
// the only error path that surfaces to the caller: once a pipeline is built
// from a valid config it degrades instead of failing.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if len(c.Providers.Order) == 0 {
		return fmt.Errorf("providers.order must list at least one provider")
	}

	for _, name := range c.Providers.Order {
		pc, err := c.Provider(name)
		if err != nil {
			return err
		}
		if _, err := time.ParseDuration(pc.Timeout); err != nil {
			return fmt.Errorf("provider %s: invalid timeout %q: %w", name, pc.Timeout, err)
		}
		if pc.Window != "" {
			if _, err := time.ParseDuration(pc.Window); err != nil {
				return fmt.Errorf("provider %s: invalid window %q: %w", name, pc.Window, err)
			}
		}
		if pc.RateLimit != "" {
			if _, err := time.ParseDuration(pc.RateLimit); err != nil {
				return fmt.Errorf("provider %s: invalid rate_limit %q: %w", name, pc.RateLimit, err)
			}
		}
	}

	return nil
}

// Provider returns the configuration block for a provider identifier from
// the priority order.
func (c *Config) Provider(name string) (*ProviderConfig, error) {
	switch name {
	case "gemini":
		return &c.Providers.Gemini, nil
	case "claude":
		return &c.Providers.Claude, nil
	case "local":
		return &c.Providers.Local, nil
	default:
		return nil, fmt.Errorf("unknown provider %q in providers.order", name)
	}
}

// ParseDurationOr parses a duration string, returning fallback on empty or
// invalid input.
func ParseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
