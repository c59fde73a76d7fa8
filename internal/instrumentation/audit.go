package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ReplyEvent captures all information about one auto-reply for audit logging.
// This provides an audit trail for every message the bot acted on.
//
// # Privacy Considerations
//
// The Sender field contains PII. When logging, consider:
//   - Using SenderDomain() to get only the domain for metrics/general logs
//   - Only logging the full address in audit-specific log streams
//   - Ensuring audit logs have appropriate access controls
type ReplyEvent struct {
	// Source message identity
	MessageID string
	ThreadID  string
	Sender    string
	Subject   string

	// Account is the Google account name the bot runs as (default, work, ...)
	Account string

	// Generator is the reply generator kind ("llm" or "template")
	Generator string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// SenderDomain returns the domain portion of the sender address for
// lower-cardinality logging.
func (re *ReplyEvent) SenderDomain() string {
	return ExtractUserDomain(re.Sender)
}

// Status returns "success" or "error" based on the Success field.
func (re *ReplyEvent) Status() string {
	if re.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging.
// This uses cardinality-controlled values (sender_domain) suitable for
// general operational logging. For full audit logging, use LogAuditAttrs.
func (re *ReplyEvent) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("message_id", re.MessageID),
		slog.String("thread_id", re.ThreadID),
		slog.String("sender_domain", re.SenderDomain()),
		slog.String("generator", re.Generator),
		slog.Duration("duration", re.Duration),
		slog.Bool("success", re.Success),
	}

	// Add optional fields only if present
	if re.Account != "" && re.Account != "default" {
		attrs = append(attrs, slog.String("account", re.Account))
	}
	if re.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", re.TraceID))
	}
	if re.Error != "" {
		attrs = append(attrs, slog.String("error", re.Error))
	}

	return attrs
}

// LogAuditAttrs returns slog attributes for full audit logging.
// This includes the full sender address for compliance/audit purposes.
//
// # Security Warning
//
// This method includes PII (full address and subject). Ensure audit logs are:
//   - Stored securely with appropriate access controls
//   - Not exposed to general monitoring dashboards
//   - Retained according to compliance requirements
func (re *ReplyEvent) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("message_id", re.MessageID),
		slog.String("thread_id", re.ThreadID),
		slog.String("sender", re.Sender),
		slog.String("subject", re.Subject),
		slog.String("generator", re.Generator),
		slog.Duration("duration", re.Duration),
		slog.Bool("success", re.Success),
	}

	if re.Account != "" {
		attrs = append(attrs, slog.String("account", re.Account))
	}
	if re.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", re.TraceID))
	}
	if re.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", re.SpanID))
	}
	if re.Error != "" {
		attrs = append(attrs, slog.String("error", re.Error))
	}

	return attrs
}

// NewReplyEvent creates a new ReplyEvent with timing started.
// Call Complete() when the reply attempt finishes.
func NewReplyEvent(messageID, threadID string) *ReplyEvent {
	return &ReplyEvent{
		MessageID: messageID,
		ThreadID:  threadID,
		StartTime: time.Now(),
	}
}

// WithSender sets the sender address and subject of the source message.
func (re *ReplyEvent) WithSender(sender, subject string) *ReplyEvent {
	re.Sender = sender
	re.Subject = subject
	return re
}

// WithAccount sets the Google account name.
func (re *ReplyEvent) WithAccount(account string) *ReplyEvent {
	re.Account = account
	return re
}

// WithGenerator sets the reply generator kind.
func (re *ReplyEvent) WithGenerator(generator string) *ReplyEvent {
	re.Generator = generator
	return re
}

// WithSpanContext extracts trace context from the current span.
func (re *ReplyEvent) WithSpanContext(ctx context.Context) *ReplyEvent {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		re.TraceID = span.SpanContext().TraceID().String()
		re.SpanID = span.SpanContext().SpanID().String()
	}
	return re
}

// Complete marks the reply attempt as completed and calculates duration.
// Returns the same ReplyEvent for method chaining.
func (re *ReplyEvent) Complete(success bool, err error) *ReplyEvent {
	re.Duration = time.Since(re.StartTime)
	re.Success = success
	if err != nil {
		re.Error = err.Error()
	}
	return re
}

// AuditLogger provides structured audit logging for reply events.
// It wraps slog.Logger with convenience methods for logging reply attempts.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given slog.Logger.
// By default, PII is not included in logs (anonymized identifiers are used instead).
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: false,
		enabled:    true,
	}
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// SetIncludePII sets whether to include full sender addresses in audit logs.
func (al *AuditLogger) SetIncludePII(include bool) {
	al.includePII = include
}

// SetEnabled sets whether audit logging is enabled.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogReply logs a reply event using the standard log attributes.
// If the logger is configured with IncludePII, full sender addresses are
// logged; otherwise, only domain-based identifiers are used.
func (al *AuditLogger) LogReply(re *ReplyEvent) {
	if al == nil || !al.enabled {
		return
	}

	// Choose between PII and anonymized logging based on configuration
	var attrs []slog.Attr
	if al.includePII {
		attrs = re.LogAuditAttrs()
	} else {
		attrs = re.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if re.Success {
		al.logger.Info("reply_sent", args...)
	} else {
		al.logger.Warn("reply_failed", args...)
	}
}
