// Package logging provides structured logging utilities for the autoreply bot.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (sender address anonymization)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "gmail.list")
//	logger.Info("listing messages", logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("reply sent", logging.SenderHash(msg.From))
//
// # Security Considerations
//
// Sender addresses are hashed to prevent PII leakage while still allowing
// correlation across log entries. API keys and OAuth tokens are never logged
// directly; use SanitizeToken when a token must be referenced.
package logging
