package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DefaultFileName is looked up in the working directory when no explicit
// config file is given.
const DefaultFileName = ".freshstart"

var validate = validator.New()

// Config is the root configuration for a freshstart run.
type Config struct {
	LogLevel     string             `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	App          AppConfig          `mapstructure:"app"`
	Health       HealthConfig       `mapstructure:"health"`
	Env          EnvConfig          `mapstructure:"env"`
	Dependencies DependenciesConfig `mapstructure:"dependencies"`
	Compose      ComposeConfig      `mapstructure:"compose"`
	Requirements RequirementsConfig `mapstructure:"requirements"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

type AppConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

type HealthConfig struct {
	Timeout        time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Interval       time.Duration `mapstructure:"interval" validate:"gt=0,ltefield=Timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	InitialDelay   time.Duration `mapstructure:"initial_delay" validate:"gte=0"`
}

type EnvConfig struct {
	Template string `mapstructure:"template" validate:"required"`
	Local    string `mapstructure:"local" validate:"required,nefield=Template"`
}

type DependenciesConfig struct {
	Binary            string `mapstructure:"binary" validate:"required"`
	VendorDir         string `mapstructure:"vendor_dir" validate:"required"`
	Artifact          string `mapstructure:"artifact" validate:"required"`
	ContainerFallback bool   `mapstructure:"container_fallback"`
	Image             string `mapstructure:"image" validate:"required_if=ContainerFallback true"`
}

type ComposeConfig struct {
	File    string `mapstructure:"file" validate:"required"`
	Service string `mapstructure:"service" validate:"required"`
}

type RequirementsConfig struct {
	Tools []ToolConfig `mapstructure:"tools" validate:"dive"`
}

// ToolConfig names an external command that must run successfully before any
// stage touches containers or dependencies.
type ToolConfig struct {
	Name string   `mapstructure:"name" validate:"required"`
	Args []string `mapstructure:"args"`
	Hint string   `mapstructure:"hint"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Load reads defaults, then the YAML file at path (or .freshstart.yaml in the
// working directory when path is empty and the file exists), then
// FRESHSTART_* environment variables, e.g. FRESHSTART_APP_URL.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("FRESHSTART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config does not decode: %v", err))
	}
	return &cfg
}

// Validate checks the configuration for values no run could use.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("app.url", "http://localhost:8080")

	v.SetDefault("health.timeout", 30*time.Second)
	v.SetDefault("health.interval", 2*time.Second)
	v.SetDefault("health.request_timeout", 5*time.Second)
	v.SetDefault("health.initial_delay", 3*time.Second)

	v.SetDefault("env.template", ".env.example")
	v.SetDefault("env.local", ".env.local")

	v.SetDefault("dependencies.binary", "composer")
	v.SetDefault("dependencies.vendor_dir", "vendor")
	v.SetDefault("dependencies.artifact", "vendor/autoload_runtime.php")
	v.SetDefault("dependencies.container_fallback", false)
	v.SetDefault("dependencies.image", "composer:2")

	v.SetDefault("compose.file", "docker-compose.yml")
	v.SetDefault("compose.service", "app")

	v.SetDefault("requirements.tools", []map[string]any{
		{
			"name": "node",
			"args": []string{"--version"},
			"hint": "Node.js is required. Please install from https://nodejs.org/",
		},
	})

	v.SetDefault("metrics.textfile", "")
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validation failed: %w", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatFieldError(e))
	}

	if len(messages) == 1 {
		return fmt.Errorf("invalid configuration: %s", messages[0])
	}
	return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(messages, "\n  - "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch e.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("field '%s' is required but missing", field)
	case "url":
		return fmt.Sprintf("field '%s' must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", field, e.Param())
	case "gt", "gte":
		return fmt.Sprintf("field '%s' must be greater than %s", field, e.Param())
	case "ltefield":
		return fmt.Sprintf("field '%s' must not exceed %s", field, e.Param())
	case "nefield":
		return fmt.Sprintf("field '%s' must differ from %s", field, e.Param())
	default:
		return fmt.Sprintf("field '%s' failed validation (%s)", field, e.Tag())
	}
}
