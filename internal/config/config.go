package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Pipeline PipelineConfig `mapstructure:"pipeline" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// LLMConfig contains the generative-model provider settings. The model
// ids, retry budget, backoff and breaker thresholds are supplied here at
// client-construction time and are not part of the engine's runtime state.
type LLMConfig struct {
	// One credential selects the backend: an API key for the Gemini API,
	// or a Google Cloud project for Vertex. With neither, the server
	// starts without a model client and runs heuristics only; the client
	// itself refuses construction without a credential.
	GeminiAPIKey    string `mapstructure:"gemini_api_key"`
	GoogleProjectID string `mapstructure:"google_project_id"`
	GoogleLocation  string `mapstructure:"google_location"`

	PrimaryModel string `mapstructure:"primary_model" validate:"required"`
	// FallbackModel is optional; when set, exhausted primary retries are
	// retried once more against it with the same budget.
	FallbackModel string `mapstructure:"fallback_model"`
	ImageModel    string `mapstructure:"image_model"`

	CallTimeoutSeconds    int     `mapstructure:"call_timeout_seconds"    validate:"gte=0"`
	MaxRetries            int     `mapstructure:"max_retries"             validate:"gte=0"`
	InitialBackoffSeconds float64 `mapstructure:"initial_backoff_seconds" validate:"gte=0"`

	BreakerFailureThreshold   int `mapstructure:"breaker_failure_threshold"    validate:"gte=1"`
	BreakerOpenTimeoutSeconds int `mapstructure:"breaker_open_timeout_seconds" validate:"gte=1"`
}

// PipelineConfig carries the externally supplied QC thresholds and layout
// defaults the stages evaluate against.
type PipelineConfig struct {
	QC     QCConfig     `mapstructure:"qc"`
	Layout LayoutConfig `mapstructure:"layout"`
}

// QCConfig contains the numeric thresholds the quality check evaluates a
// panel plan and its semantics against.
type QCConfig struct {
	MaxCloseupRatio       float64 `mapstructure:"max_closeup_ratio"        validate:"gte=0,lte=1"`
	MaxDialogueRatio      float64 `mapstructure:"max_dialogue_ratio"       validate:"gte=0,lte=1"`
	MaxRepeatedFramingRun int     `mapstructure:"max_repeated_framing_run" validate:"gte=1"`
}

// LayoutConfig contains the page geometry defaults for layout templates.
type LayoutConfig struct {
	CanvasWidth  int `mapstructure:"canvas_width"  validate:"gt=0"`
	CanvasHeight int `mapstructure:"canvas_height" validate:"gt=0"`
}
