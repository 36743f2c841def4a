// Package postgres provides PostgreSQL implementations of the store
// interfaces, plus the embedded goose migrations that create their schema.
package postgres
