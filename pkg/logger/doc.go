// Package logger builds the relay's log/slog logger: text output for local
// environments, JSON in prod, with service and environment attached to
// every record.
package logger
