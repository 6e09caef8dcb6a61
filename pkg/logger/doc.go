// Package logger builds configured slog loggers: JSON for production, text
// for development, with static service attributes. Components accept a
// *slog.Logger via their options and default to discarding output.
package logger
