// Package gemini implements the generation.ModelClient interface on top of
// Google's Gemini API, wrapping every call with a per-call timeout,
// retry with exponential backoff, optional model fallback, and a
// circuit breaker that isolates the rest of the system from a failing
// provider.
package gemini
