// Package generation provides the interface boundary to external AI
// generative-model services (text and image). It abstracts the details of
// provider integration (Gemini) so the pipeline stages can enrich their
// heuristic drafts without coupling to a specific external service.
package generation
