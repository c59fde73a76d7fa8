// Package instrumentation provides OpenTelemetry instrumentation for the
// autoreply bot.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for poll cycles, reply generation, and Gmail API calls
//   - Distributed tracing for poll cycles and API calls
//   - Prometheus metrics export via /metrics endpoint on a dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// The package exposes the following metric categories:
//
// Poll Loop Metrics:
//   - poll_cycles_total: Counter of poll cycles by status
//   - poll_cycle_duration_seconds: Histogram of poll cycle durations
//   - messages_processed_total: Counter of processed messages by result
//
// Reply Metrics:
//   - replies_sent_total: Counter of replies sent by generator kind
//   - reply_generation_duration_seconds: Histogram of reply generation durations
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Gmail API operations by operation, status
//   - google_api_operation_duration_seconds: Histogram of Gmail API operation durations
//
// # Tracing
//
// Distributed tracing spans are created for:
//   - Poll cycles (bot.cycle)
//   - Per-message processing (bot.message)
//   - Gmail API calls (google.gmail.<operation>)
//   - Reply generation (reply.generate)
//
// # Configuration
//
// Instrumentation is configured through environment variables; see Config
// and DefaultConfig for the full list. Set INSTRUMENTATION_ENABLED=false to
// disable metrics and tracing entirely.
package instrumentation
