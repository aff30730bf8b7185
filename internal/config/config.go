// Package config loads splitcharge settings from defaults, an optional
// splitcharge.yaml, SPLITCHARGE_* environment variables and bound CLI flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/mmynk/splitcharge/internal/calculator"
)

// ErrConfiguration is returned for any configuration that cannot be loaded or is invalid.
var ErrConfiguration = errors.New("invalid configuration")

const (
	DefaultLogLevel       = "info"
	DefaultConcurrency    = 1
	DefaultGatewayTimeout = 15 * time.Second
	DefaultRetryAttempts  = 3
	DefaultAliasDB        = "~/.config/splitcharge/aliases.db"

	envPrefix  = "SPLITCHARGE"
	configName = "splitcharge"
)

// Config holds every setting the CLI reads.
type Config struct {
	LogLevel      string        `mapstructure:"log_level"       validate:"oneof=debug info warn warning error"`
	Itemized      bool          `mapstructure:"itemized"`
	MaxNoteLength int           `mapstructure:"max_note_length" validate:"min=1,max=1000"`
	StrictNotes   bool          `mapstructure:"strict_notes"`
	Concurrency   int           `mapstructure:"concurrency"     validate:"min=1,max=16"`
	AliasDB       string        `mapstructure:"alias_db"`
	MetricsFile   string        `mapstructure:"metrics_file"`
	Gateway       GatewayConfig `mapstructure:"gateway"`
}

// GatewayConfig configures the payment gateway used by `charge --execute`.
type GatewayConfig struct {
	URL           string        `mapstructure:"url"            validate:"omitempty,url"`
	Secret        string        `mapstructure:"secret"`
	Payer         string        `mapstructure:"payer"`
	Timeout       time.Duration `mapstructure:"timeout"        validate:"gt=0"`
	RetryAttempts uint          `mapstructure:"retry_attempts" validate:"min=1,max=10"`
}

var defaults = map[string]any{
	"log_level":              DefaultLogLevel,
	"itemized":               true,
	"max_note_length":        calculator.DefaultMaxNoteLength,
	"strict_notes":           false,
	"concurrency":            DefaultConcurrency,
	"alias_db":               DefaultAliasDB,
	"metrics_file":           "",
	"gateway.url":            "",
	"gateway.secret":         "",
	"gateway.payer":          "",
	"gateway.timeout":        DefaultGatewayTimeout,
	"gateway.retry_attempts": DefaultRetryAttempts,
}

// New returns a viper instance with defaults and environment lookup set up.
// If configFile is empty, splitcharge.yaml is searched for in the working
// directory and in $HOME/.config/splitcharge.
func New(configFile string) *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/splitcharge")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file, if any, and returns the validated settings.
// Flags must be bound to v before calling Load.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: failed to read config file: %w", ErrConfiguration, err)
		}
		// Config file not found is okay, we'll use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field ranges. Gateway credentials are only checked by RequireGateway.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

// RequireGateway reports whether the gateway can actually be called.
func (c *Config) RequireGateway() error {
	var missing []string
	if c.Gateway.URL == "" {
		missing = append(missing, "gateway.url")
	}
	if c.Gateway.Secret == "" {
		missing = append(missing, "gateway.secret")
	}
	if c.Gateway.Payer == "" {
		missing = append(missing, "gateway.payer")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}
