package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	// Common attributes (reused across metrics)
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrGenerator = "generator"
	attrDomain    = "sender_domain"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// Poll loop metrics
	pollCyclesTotal        metric.Int64Counter
	pollCycleDuration      metric.Float64Histogram
	messagesProcessedTotal metric.Int64Counter

	// Reply metrics
	repliesSentTotal        metric.Int64Counter
	replyGenerationDuration metric.Float64Histogram

	// Google API metrics
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	// Seen-set size gauge
	seenSetSize metric.Int64UpDownCounter

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// Poll loop metrics
	m.pollCyclesTotal, err = meter.Int64Counter(
		"poll_cycles_total",
		metric.WithDescription("Total number of poll cycles"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create poll_cycles_total counter: %w", err)
	}

	m.pollCycleDuration, err = meter.Float64Histogram(
		"poll_cycle_duration_seconds",
		metric.WithDescription("Poll cycle duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create poll_cycle_duration_seconds histogram: %w", err)
	}

	m.messagesProcessedTotal, err = meter.Int64Counter(
		"messages_processed_total",
		metric.WithDescription("Total number of messages considered by the poll loop"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages_processed_total counter: %w", err)
	}

	// Reply metrics
	m.repliesSentTotal, err = meter.Int64Counter(
		"replies_sent_total",
		metric.WithDescription("Total number of replies sent"),
		metric.WithUnit("{reply}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create replies_sent_total counter: %w", err)
	}

	m.replyGenerationDuration, err = meter.Float64Histogram(
		"reply_generation_duration_seconds",
		metric.WithDescription("Reply generation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reply_generation_duration_seconds histogram: %w", err)
	}

	// Google API metrics
	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	m.seenSetSize, err = meter.Int64UpDownCounter(
		"seen_set_size",
		metric.WithDescription("Number of message ids recorded in the seen-set"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create seen_set_size gauge: %w", err)
	}

	return m, nil
}

// RecordPollCycle records a completed poll cycle with status and duration.
// Status should be one of: "success", "error".
func (m *Metrics) RecordPollCycle(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.pollCyclesTotal == nil || m.pollCycleDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrStatus, status),
	}

	m.pollCyclesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.pollCycleDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordMessageProcessed records the outcome of processing one message.
// Result should be one of: "replied", "skipped_seen", "skipped_filtered", "error".
// The sender is reduced to its domain, and only recorded when detailed labels
// are enabled.
func (m *Metrics) RecordMessageProcessed(ctx context.Context, result, sender string) {
	if m == nil || m.messagesProcessedTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrResult, result),
	}
	if m.detailedLabels && sender != "" {
		attrs = append(attrs, attribute.String(attrDomain, ExtractUserDomain(sender)))
	}

	m.messagesProcessedTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordReplySent records a sent reply, labeled by the generator kind that
// produced it ("llm" or "template").
func (m *Metrics) RecordReplySent(ctx context.Context, generator string) {
	if m == nil || m.repliesSentTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrGenerator, generator),
	}

	m.repliesSentTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordReplyGeneration records a reply generation attempt with generator
// kind, status, and duration.
func (m *Metrics) RecordReplyGeneration(ctx context.Context, generator, status string, duration time.Duration) {
	if m == nil || m.replyGenerationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrGenerator, generator),
		attribute.String(attrStatus, status),
	}

	m.replyGenerationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordGoogleAPIOperation records a Google API operation with service,
// operation, status, and duration.
//
// Parameters:
//   - service: Google service name (gmail)
//   - operation: Operation type (list, get, send, modify)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.googleAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// AddSeenSetSize adjusts the seen-set size gauge by delta. Pass the initial
// store size at startup and +1 for every id added afterwards.
func (m *Metrics) AddSeenSetSize(ctx context.Context, delta int64) {
	if m == nil || m.seenSetSize == nil {
		return // Instrumentation not initialized
	}
	m.seenSetSize.Add(ctx, delta)
}
