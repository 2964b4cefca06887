// Package logger configures the process-wide log/slog JSON logger and carries
// request-scoped loggers (tagged with trace and request IDs) through
// context.Context. Test helpers capture and inspect log output.
package logger
