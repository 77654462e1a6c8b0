// Package logger builds slog loggers with environment-driven level and
// format selection. Stores and the resolver log through slog so hosts can
// route engine output into their own aggregation.
package logger
