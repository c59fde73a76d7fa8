package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, ctx context.Context) *Provider {
	t.Helper()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	return provider
}

func TestMetrics_RecordPollCycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider := newTestProvider(t, ctx)

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// Should not panic
	metrics.RecordPollCycle(ctx, StatusSuccess, 250*time.Millisecond)
	metrics.RecordPollCycle(ctx, StatusError, 50*time.Millisecond)
}

func TestMetrics_RecordMessageProcessed(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	metrics.RecordMessageProcessed(ctx, ResultReplied, "jane@example.com")
	metrics.RecordMessageProcessed(ctx, ResultSkippedSeen, "")
	metrics.RecordMessageProcessed(ctx, ResultError, "Bob <bob@example.org>")
}

func TestMetrics_RecordReply(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	metrics.RecordReplySent(ctx, GeneratorLLM)
	metrics.RecordReplySent(ctx, GeneratorTemplate)
	metrics.RecordReplyGeneration(ctx, GeneratorLLM, StatusSuccess, 2*time.Second)
	metrics.RecordReplyGeneration(ctx, GeneratorLLM, StatusError, 100*time.Millisecond)
}

func TestMetrics_RecordGoogleAPIOperation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	metrics.RecordGoogleAPIOperation(ctx, ServiceGmail, OperationList, StatusSuccess, 120*time.Millisecond)
	metrics.RecordGoogleAPIOperation(ctx, ServiceGmail, OperationSend, StatusError, 40*time.Millisecond)
}

func TestMetrics_SeenSetSize(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	metrics.AddSeenSetSize(ctx, 42)
	metrics.AddSeenSetSize(ctx, 1)
}

func TestMetrics_NoopWhenUninitialized(t *testing.T) {
	ctx := context.Background()

	// A zero-value Metrics is returned when instrumentation is disabled;
	// all recorders must be safe to call.
	m := &Metrics{}
	m.RecordPollCycle(ctx, StatusSuccess, time.Second)
	m.RecordMessageProcessed(ctx, ResultReplied, "a@b.com")
	m.RecordReplySent(ctx, GeneratorTemplate)
	m.RecordReplyGeneration(ctx, GeneratorTemplate, StatusSuccess, time.Second)
	m.RecordGoogleAPIOperation(ctx, ServiceGmail, OperationGet, StatusSuccess, time.Second)
	m.AddSeenSetSize(ctx, 1)
}

func TestProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create disabled provider: %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected no-op metrics recorder, got nil")
	}
	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() on disabled provider returned %v", err)
	}
}
