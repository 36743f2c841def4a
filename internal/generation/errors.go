package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate content")

	// ErrInvalidResponse is returned when the model response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by model safety filters")

	// ErrTransientFailure is returned when retries, fallback and the circuit
	// breaker budget are all exhausted without a successful call
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrCircuitOpen is returned immediately, without a network attempt,
	// while the circuit breaker is open
	ErrCircuitOpen = errors.New("model circuit breaker is open")

	// ErrInvalidConfig is returned when the client configuration is invalid,
	// for example when no credential is supplied at construction
	ErrInvalidConfig = errors.New("invalid model client configuration")
)
