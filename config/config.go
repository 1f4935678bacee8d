// Package config loads service configuration from YAML with environment
// variable resolution, declarative defaults, and struct validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/plancraft/plancraft/pricing"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// url_format validates URL structure
	validate.RegisterValidation("url_format", func(fl validator.FieldLevel) bool {
		u, err := url.Parse(fl.Field().String())
		return err == nil && u.Scheme != "" && u.Host != ""
	})
}

type Config struct {
	Listen   string `yaml:"listen" default:":8080" validate:"required"`
	Catalog  string `yaml:"catalog" default:"catalog.yaml" validate:"required"`
	Currency string `yaml:"currency" default:"USD" validate:"len=3"`

	Backend   BackendConfig      `yaml:"backend"`
	Store     StoreConfig        `yaml:"store"`
	Discounts []pricing.Discount `yaml:"discounts"`
}

type BackendConfig struct {
	BaseURL      string        `yaml:"base_url" validate:"required,url_format"`
	Timeout      time.Duration `yaml:"timeout" default:"10s" validate:"gte=1s"`
	MaxRetries   int           `yaml:"max_retries" default:"3" validate:"gte=0,lte=10"`
	RetryWait    time.Duration `yaml:"retry_wait" default:"250ms" validate:"gte=0"`
	RetryMaxWait time.Duration `yaml:"retry_max_wait" default:"4s" validate:"gte=0"`
	Debug        bool          `yaml:"debug" default:"false"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" default:"memory" validate:"oneof=memory sqlite"`
	// DSN is the SQLite file path; required when driver is sqlite.
	DSN string `yaml:"dsn" validate:"required_if=Driver sqlite"`
}

// Load reads, resolves, defaults, and validates a config file, in that
// order: defaults first, then file values (env-resolved) merged on top,
// then validation of the final result.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return Config{}, fmt.Errorf("error unmarshalling config: %w", err)
	}
	resolved, err := resolveEnvVars(values)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to apply defaults: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &cfg,
		TagName: "yaml",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(), // decimal discount values
		),
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(resolved); err != nil {
		return Config{}, fmt.Errorf("failed to apply config values: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var messages []string
			for _, fieldErr := range validationErrors {
				messages = append(messages, fmt.Sprintf(
					"field '%s' failed validation (rule: %s)",
					fieldErr.Namespace(),
					fieldErr.Tag(),
				))
			}
			return Config{}, fmt.Errorf("config validation failed:\n  - %s", strings.Join(messages, "\n  - "))
		}
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:default} syntax
var envVarPattern = regexp.MustCompile(`^\$\{([A-Z_][A-Z0-9_]*)(:[^}]*)?\}$`)

func resolveEnvVars(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return resolveEnvVar(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			resolved, err := resolveEnvVars(item)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := resolveEnvVars(item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return value, nil
	}
}

func resolveEnvVar(value string) (any, error) {
	matches := envVarPattern.FindStringSubmatch(value)
	if matches == nil {
		return value, nil
	}

	varName := matches[1]
	defaultPart := matches[2]

	if envValue, exists := os.LookupEnv(varName); exists {
		return envValue, nil
	}
	if defaultPart != "" {
		return strings.TrimPrefix(defaultPart, ":"), nil
	}
	return nil, fmt.Errorf("required environment variable not set: %s", varName)
}
