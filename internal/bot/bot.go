package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/teemow/autoreply/internal/gmail"
	"github.com/teemow/autoreply/internal/instrumentation"
	"github.com/teemow/autoreply/internal/logging"
	"github.com/teemow/autoreply/internal/reply"
	"github.com/teemow/autoreply/internal/seen"
)

// backoffCap limits the backoff after repeated list failures to this
// multiple of the poll interval.
const backoffCap = 10

// MailClient is the mailbox surface the bot needs. *gmail.Client
// implements it; tests use fakes.
type MailClient interface {
	Account() string
	ListMessages(query string, maxResults int64) ([]*gmailapi.Message, error)
	FetchMessage(messageID string) (*gmail.Message, error)
	ReplyToMessage(msg *gmail.Message, body string) (string, error)
	MarkReplied(messageID string) error
}

// Filter decides whether a message must not be answered at all.
type Filter interface {
	ShouldIgnore(from, subject string) bool
}

// Options carries the loop configuration and ambient dependencies.
type Options struct {
	Query      string
	MaxResults int64
	Interval   time.Duration
	Filter     Filter
	Logger     *slog.Logger
	Metrics    *instrumentation.Metrics
	Audit      *instrumentation.AuditLogger
}

// Bot polls a mailbox and answers each matching message exactly once.
type Bot struct {
	client    MailClient
	generator reply.Generator
	store     seen.Store

	query      string
	maxResults int64
	interval   time.Duration
	filter     Filter

	logger  *slog.Logger
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger

	cycle int64
}

// New creates a Bot. client, generator, and store are required.
func New(client MailClient, generator reply.Generator, store seen.Store, opts Options) (*Bot, error) {
	if client == nil {
		return nil, fmt.Errorf("mail client is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("reply generator is required")
	}
	if store == nil {
		return nil, fmt.Errorf("seen store is required")
	}

	query := opts.Query
	if query == "" {
		query = "is:unread"
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 60 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Bot{
		client:     client,
		generator:  generator,
		store:      store,
		query:      query,
		maxResults: maxResults,
		interval:   interval,
		filter:     opts.Filter,
		logger:     logging.WithAccount(logger, client.Account()),
		metrics:    opts.Metrics,
		audit:      opts.Audit,
	}, nil
}

// Run executes poll cycles until ctx is cancelled. The first cycle runs
// immediately. A cycle that fails to list messages doubles the sleep
// before the next cycle, capped at backoffCap times the interval; the
// next successful cycle resets it.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("bot started",
		slog.String("query", b.query),
		slog.Duration("interval", b.interval))

	sleep := b.interval
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopped")
			return ctx.Err()
		case <-timer.C:
		}

		if err := b.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				b.logger.Info("bot stopped")
				return ctx.Err()
			}
			sleep = min(sleep*2, backoffCap*b.interval)
			b.logger.Warn("poll cycle failed, backing off",
				logging.Err(err),
				slog.Duration("next_cycle_in", sleep))
		} else {
			sleep = b.interval
		}

		timer.Reset(sleep)
	}
}

// RunOnce executes a single poll cycle.
func (b *Bot) RunOnce(ctx context.Context) error {
	b.cycle++
	logger := b.logger.With(slog.Int64(logging.KeyCycle, b.cycle))
	start := time.Now()

	ctx, span := instrumentation.StartCycleSpan(ctx,
		instrumentation.NewSpanAttributeBuilder().
			WithAccount(b.client.Account()).
			Build()...)
	defer span.End()

	messages, err := b.listMessages(ctx)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		b.metrics.RecordPollCycle(ctx, instrumentation.StatusError, time.Since(start))
		return fmt.Errorf("failed to list messages: %w", err)
	}

	var replied, skipped, failed int
	for _, m := range messages {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch b.processMessage(ctx, logger, m.Id) {
		case instrumentation.ResultReplied:
			replied++
		case instrumentation.ResultError:
			failed++
		default:
			skipped++
		}
	}

	instrumentation.SetSpanSuccess(span)
	b.metrics.RecordPollCycle(ctx, instrumentation.StatusSuccess, time.Since(start))
	logger.Info("poll cycle complete",
		slog.Int("messages", len(messages)),
		slog.Int("replied", replied),
		slog.Int("skipped", skipped),
		slog.Int("failed", failed),
		slog.Duration(logging.KeyDuration, time.Since(start)))
	return nil
}

func (b *Bot) listMessages(ctx context.Context) ([]*gmailapi.Message, error) {
	start := time.Now()
	messages, err := b.client.ListMessages(b.query, b.maxResults)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	b.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail,
		instrumentation.OperationList, status, time.Since(start))
	return messages, err
}

// processMessage handles one listed message end to end and returns the
// processing result. Errors are logged here, never propagated; one bad
// message must not stall the cycle.
func (b *Bot) processMessage(ctx context.Context, logger *slog.Logger, messageID string) string {
	logger = logger.With(logging.MessageID(messageID))

	handled, err := b.store.Contains(ctx, messageID)
	if err != nil {
		logger.Error("failed to check replied-to set", logging.Err(err))
		b.metrics.RecordMessageProcessed(ctx, instrumentation.ResultError, "")
		return instrumentation.ResultError
	}
	if handled {
		logger.Debug("message already handled")
		b.metrics.RecordMessageProcessed(ctx, instrumentation.ResultSkippedSeen, "")
		return instrumentation.ResultSkippedSeen
	}

	ctx, span := instrumentation.StartMessageSpan(ctx, messageID)
	defer span.End()

	msg, err := b.fetchMessage(ctx, messageID)
	if err != nil {
		logger.Error("failed to fetch message", logging.Err(err))
		instrumentation.SetSpanError(span, err)
		b.metrics.RecordMessageProcessed(ctx, instrumentation.ResultError, "")
		return instrumentation.ResultError
	}
	logger = logger.With(logging.ThreadID(msg.ThreadID), logging.SenderHash(msg.From))

	if b.filter != nil && b.filter.ShouldIgnore(msg.From, msg.Subject) {
		logger.Info("message matches ignore rules",
			logging.Status(logging.StatusSkipped))
		instrumentation.SetSpanSuccess(span)
		b.metrics.RecordMessageProcessed(ctx, instrumentation.ResultSkippedFiltered, msg.From)
		return instrumentation.ResultSkippedFiltered
	}

	event := instrumentation.NewReplyEvent(messageID, msg.ThreadID).
		WithSender(msg.From, msg.Subject).
		WithAccount(b.client.Account()).
		WithGenerator(b.generator.Name()).
		WithSpanContext(ctx)

	body, err := b.generateReply(ctx, msg)
	if err != nil {
		logger.Error("failed to generate reply", logging.Err(err))
		instrumentation.SetSpanError(span, err)
		b.metrics.RecordMessageProcessed(ctx, instrumentation.ResultError, msg.From)
		b.audit.LogReply(event.Complete(false, err))
		return instrumentation.ResultError
	}

	if err := b.sendReply(ctx, msg, body); err != nil {
		logger.Error("failed to send reply", logging.Err(err))
		instrumentation.SetSpanError(span, err)
		b.metrics.RecordMessageProcessed(ctx, instrumentation.ResultError, msg.From)
		b.audit.LogReply(event.Complete(false, err))
		return instrumentation.ResultError
	}

	if err := b.markReplied(ctx, messageID); err != nil {
		// The reply went out; a label failure alone must not cause a
		// second reply, so fall through to recording the id.
		logger.Warn("failed to mark message replied", logging.Err(err))
	}

	if err := b.store.Add(ctx, messageID); err != nil {
		logger.Error("reply sent but recording failed, message may be answered again after restart",
			logging.Err(err))
	} else {
		b.metrics.AddSeenSetSize(ctx, 1)
	}

	instrumentation.SetSpanSuccess(span)
	b.metrics.RecordMessageProcessed(ctx, instrumentation.ResultReplied, msg.From)
	b.metrics.RecordReplySent(ctx, b.generator.Name())
	b.audit.LogReply(event.Complete(true, nil))
	logger.Info("reply sent", logging.Status(logging.StatusSuccess))
	return instrumentation.ResultReplied
}

func (b *Bot) fetchMessage(ctx context.Context, messageID string) (*gmail.Message, error) {
	start := time.Now()
	msg, err := b.client.FetchMessage(messageID)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	b.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail,
		instrumentation.OperationGet, status, time.Since(start))
	return msg, err
}

func (b *Bot) generateReply(ctx context.Context, msg *gmail.Message) (string, error) {
	start := time.Now()
	body, err := b.generator.Generate(ctx, msg)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	b.metrics.RecordReplyGeneration(ctx, b.generator.Name(), status, time.Since(start))
	if err == nil && body == "" {
		return "", fmt.Errorf("generator returned an empty reply")
	}
	return body, err
}

func (b *Bot) sendReply(ctx context.Context, msg *gmail.Message, body string) error {
	start := time.Now()
	_, err := b.client.ReplyToMessage(msg, body)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	b.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail,
		instrumentation.OperationSend, status, time.Since(start))
	return err
}

func (b *Bot) markReplied(ctx context.Context, messageID string) error {
	start := time.Now()
	err := b.client.MarkReplied(messageID)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	b.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail,
		instrumentation.OperationModify, status, time.Since(start))
	return err
}
