// Package config loads configuration structs from environment variables,
// with optional .env file support for local development. Each component
// declares its own Config struct with `env` tags; see pkg/pg, pkg/redis,
// pkg/mongo, and pkg/session for examples.
package config
