// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between external clients
// and the scene store, artifact store, and job queue, translating HTTP
// concerns to pipeline operations.
package api
