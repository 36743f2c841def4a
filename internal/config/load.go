package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config.yaml next to the binary or in the working directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults cover everything.
	}

	// Environment variables: PANELGEN_SERVER_PORT, PANELGEN_LLM_GEMINI_API_KEY, ...
	v.SetEnvPrefix("PANELGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface env-only keys through Unmarshal;
	// keys without a registered default must be bound explicitly.
	for _, key := range []string{
		"database.url",
		"llm.gemini_api_key",
		"llm.google_project_id",
		"llm.google_location",
		"llm.fallback_model",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for everything that has a sensible one.
// Credentials deliberately have no default so construction fails loudly
// without them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("llm.primary_model", "gemini-2.0-flash")
	v.SetDefault("llm.image_model", "imagen-3.0-generate-002")
	v.SetDefault("llm.call_timeout_seconds", 30)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.initial_backoff_seconds", 0.5)
	v.SetDefault("llm.breaker_failure_threshold", 5)
	v.SetDefault("llm.breaker_open_timeout_seconds", 30)

	v.SetDefault("pipeline.qc.max_closeup_ratio", 0.6)
	v.SetDefault("pipeline.qc.max_dialogue_ratio", 0.7)
	v.SetDefault("pipeline.qc.max_repeated_framing_run", 2)
	v.SetDefault("pipeline.layout.canvas_width", 1024)
	v.SetDefault("pipeline.layout.canvas_height", 1536)
}
