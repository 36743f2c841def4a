package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/panelworks/panelgen-api/internal/config"
	"github.com/panelworks/panelgen-api/internal/generation"
	"github.com/panelworks/panelgen-api/internal/telemetry"
)

// ErrEmptyPrompt is returned when a generation call receives an empty prompt.
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

const (
	defaultCallTimeout    = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 500 * time.Millisecond
)

// ResilientClient implements generation.ModelClient using Google's Gemini
// API. Per call it applies a timeout, retries with exponential backoff
// against the primary model, falls back to the configured fallback model
// with the same retry budget, and routes everything through a shared
// circuit breaker so a failing provider is isolated quickly.
type ResilientClient struct {
	logger   *slog.Logger
	recorder telemetry.Recorder
	provider modelProvider
	breaker  *circuitBreaker

	primaryModel   string
	fallbackModel  string
	imageModel     string
	callTimeout    time.Duration
	maxRetries     int
	initialBackoff time.Duration
}

// Ensure ResilientClient implements generation.ModelClient interface
var _ generation.ModelClient = (*ResilientClient)(nil)

// NewResilientClient creates a new instance of ResilientClient with the
// provided dependencies. Construction fails with
// generation.ErrInvalidConfig when neither an API key nor a Google Cloud
// project is supplied.
func NewResilientClient(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
	recorder telemetry.Recorder,
) (*ResilientClient, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" && cfg.GoogleProjectID == "" {
		return nil, fmt.Errorf("%w: no credential supplied (API key or project id required)",
			generation.ErrInvalidConfig)
	}

	if cfg.PrimaryModel == "" {
		return nil, fmt.Errorf("%w: primary model cannot be empty", generation.ErrInvalidConfig)
	}

	clientConfig := &genai.ClientConfig{}
	if cfg.GeminiAPIKey != "" {
		clientConfig.APIKey = cfg.GeminiAPIKey
		clientConfig.Backend = genai.BackendGeminiAPI
	} else {
		clientConfig.Project = cfg.GoogleProjectID
		clientConfig.Location = cfg.GoogleLocation
		clientConfig.Backend = genai.BackendVertexAI
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return newResilientClient(logger, cfg, recorder, &genaiProvider{client: client}), nil
}

// newResilientClient wires a client around an arbitrary provider.
// Tests use it with a fake transport.
func newResilientClient(
	logger *slog.Logger,
	cfg config.LLMConfig,
	recorder telemetry.Recorder,
	provider modelProvider,
) *ResilientClient {
	callTimeout := defaultCallTimeout
	if cfg.CallTimeoutSeconds > 0 {
		callTimeout = time.Duration(cfg.CallTimeoutSeconds) * time.Second
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = defaultMaxRetries
	}

	initialBackoff := defaultInitialBackoff
	if cfg.InitialBackoffSeconds > 0 {
		initialBackoff = time.Duration(cfg.InitialBackoffSeconds * float64(time.Second))
	}

	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = cfg.PrimaryModel
	}

	if recorder == nil {
		recorder = telemetry.NopRecorder{}
	}

	breakerTimeout := time.Duration(cfg.BreakerOpenTimeoutSeconds) * time.Second
	if breakerTimeout <= 0 {
		breakerTimeout = 30 * time.Second
	}

	return &ResilientClient{
		logger:         logger.With(slog.String("component", "model_client")),
		recorder:       recorder,
		provider:       provider,
		breaker:        newCircuitBreaker(cfg.BreakerFailureThreshold, breakerTimeout),
		primaryModel:   cfg.PrimaryModel,
		fallbackModel:  cfg.FallbackModel,
		imageModel:     imageModel,
		callTimeout:    callTimeout,
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
	}
}

// GenerateText implements generation.ModelClient.GenerateText.
// An empty model argument selects the configured primary; the configured
// fallback model (if any) is tried with the same retry budget after the
// primary's attempts are exhausted.
func (c *ResilientClient) GenerateText(ctx context.Context, prompt, model string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	primary := c.primaryModel
	if model != "" {
		primary = model
	}

	var result string
	err := c.callWithResilience(ctx, "generate_text", primary, func(ctx context.Context, m string) error {
		text, err := c.provider.generateText(ctx, m, prompt)
		if err != nil {
			return err
		}
		result = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// GenerateImage implements generation.ModelClient.GenerateImage.
func (c *ResilientClient) GenerateImage(ctx context.Context, prompt, model string) ([]byte, string, error) {
	if prompt == "" {
		return nil, "", ErrEmptyPrompt
	}

	primary := c.imageModel
	if model != "" {
		primary = model
	}

	var data []byte
	var mimeType string
	err := c.callWithResilience(ctx, "generate_image", primary, func(ctx context.Context, m string) error {
		bytes, mime, err := c.provider.generateImage(ctx, m, prompt)
		if err != nil {
			return err
		}
		data = bytes
		mimeType = mime
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return data, mimeType, nil
}

// callWithResilience runs one logical provider call: breaker admission,
// retry budget against the primary model, then the same budget against
// the fallback model if one is configured. Every call, success or
// failure, emits a latency observation and a status-labeled count.
func (c *ResilientClient) callWithResilience(
	ctx context.Context,
	operation string,
	primaryModel string,
	attempt func(ctx context.Context, model string) error,
) error {
	start := time.Now()
	err := c.doCall(ctx, operation, primaryModel, attempt)

	c.recorder.ObserveLatency("model_call_duration",
		telemetry.Labels{"operation": operation}, time.Since(start))
	status := "success"
	if err != nil {
		status = "error"
	}
	c.recorder.IncrCounter("model_calls",
		telemetry.Labels{"operation": operation, "status": status}, 1)

	return err
}

func (c *ResilientClient) doCall(
	ctx context.Context,
	operation string,
	primaryModel string,
	attempt func(ctx context.Context, model string) error,
) error {
	if !c.breaker.allow() {
		c.logger.Warn("circuit breaker rejected call",
			slog.String("operation", operation),
			slog.String("state", c.breaker.currentState().String()))
		return generation.ErrCircuitOpen
	}

	err := c.tryModel(ctx, operation, primaryModel, attempt)
	if err != nil && c.fallbackModel != "" && c.fallbackModel != primaryModel && !isPermanent(err) {
		c.logger.Warn("primary model exhausted, trying fallback",
			slog.String("operation", operation),
			slog.String("primary_model", primaryModel),
			slog.String("fallback_model", c.fallbackModel),
			slog.String("error", err.Error()))
		err = c.tryModel(ctx, operation, c.fallbackModel, attempt)
	}

	if err != nil {
		c.breaker.recordFailure()
		return err
	}

	c.breaker.recordSuccess()
	return nil
}

// tryModel runs the per-model retry budget: maxRetries attempts with
// exponential backoff (initialBackoff * 2^attempt) between them, each
// attempt under the configured call timeout.
func (c *ResilientClient) tryModel(
	ctx context.Context,
	operation string,
	model string,
	attempt func(ctx context.Context, model string) error,
) error {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		err := attempt(attemptCtx, model)
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err

		c.logger.Warn("model call attempt failed",
			slog.String("operation", operation),
			slog.String("model", model),
			slog.Int("attempt", i+1),
			slog.Int("max_attempts", c.maxRetries),
			slog.String("error", err.Error()))

		// Permanent failures (safety blocks, malformed responses) will not
		// improve on retry.
		if isPermanent(err) {
			return err
		}

		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}

		if i < c.maxRetries-1 {
			delay := c.initialBackoff * (1 << i)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
			}
		}
	}

	return fmt.Errorf("%w: %s exhausted %d attempts against %s: %v",
		generation.ErrTransientFailure, operation, c.maxRetries, model, lastErr)
}

// isPermanent reports whether the error is one retrying cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, generation.ErrContentBlocked) ||
		errors.Is(err, generation.ErrInvalidResponse)
}
