package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/teemow/autoreply/internal/gmail"
	"github.com/teemow/autoreply/internal/seen"
)

// fakeMailbox simulates a mailbox whose query results stay stable until
// the test changes them. Sent replies and label changes are recorded.
type fakeMailbox struct {
	messages map[string]*gmail.Message
	order    []string

	listErr     error
	sendErrFor  map[string]error
	listCalls   int
	sentReplies []string
	marked      []string
}

func newFakeMailbox(msgs ...*gmail.Message) *fakeMailbox {
	m := &fakeMailbox{
		messages:   make(map[string]*gmail.Message),
		sendErrFor: make(map[string]error),
	}
	for _, msg := range msgs {
		m.add(msg)
	}
	return m
}

func (f *fakeMailbox) add(msg *gmail.Message) {
	f.messages[msg.ID] = msg
	f.order = append(f.order, msg.ID)
}

func (f *fakeMailbox) Account() string {
	return "test"
}

func (f *fakeMailbox) ListMessages(string, int64) ([]*gmailapi.Message, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*gmailapi.Message
	for _, id := range f.order {
		msg := f.messages[id]
		out = append(out, &gmailapi.Message{Id: msg.ID, ThreadId: msg.ThreadID})
	}
	return out, nil
}

func (f *fakeMailbox) FetchMessage(messageID string) (*gmail.Message, error) {
	msg, ok := f.messages[messageID]
	if !ok {
		return nil, errors.New("message not found")
	}
	return msg, nil
}

func (f *fakeMailbox) ReplyToMessage(msg *gmail.Message, _ string) (string, error) {
	if err := f.sendErrFor[msg.ID]; err != nil {
		return "", err
	}
	f.sentReplies = append(f.sentReplies, msg.ID)
	return "sent-" + msg.ID, nil
}

func (f *fakeMailbox) MarkReplied(messageID string) error {
	f.marked = append(f.marked, messageID)
	return nil
}

type fakeGenerator struct {
	err error
}

func (g *fakeGenerator) Generate(_ context.Context, msg *gmail.Message) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "Thanks for your email about " + msg.Subject + ".", nil
}

func (g *fakeGenerator) Name() string {
	return "fake"
}

func message(id string) *gmail.Message {
	return &gmail.Message{
		ID:       id,
		ThreadID: "thread-" + id,
		From:     "sender@example.com",
		Subject:  "Subject " + id,
		Body:     "Body " + id,
	}
}

func newTestBot(t *testing.T, mailbox *fakeMailbox, gen *fakeGenerator) (*Bot, seen.Store) {
	t.Helper()
	store := seen.NewMemoryStore()
	b, err := New(mailbox, gen, store, Options{Interval: 10 * time.Millisecond})
	require.NoError(t, err)
	return b, store
}

func TestNewValidation(t *testing.T) {
	mailbox := newFakeMailbox()
	gen := &fakeGenerator{}
	store := seen.NewMemoryStore()

	_, err := New(nil, gen, store, Options{})
	assert.Error(t, err)
	_, err = New(mailbox, nil, store, Options{})
	assert.Error(t, err)
	_, err = New(mailbox, gen, nil, Options{})
	assert.Error(t, err)
}

func TestCycleRepliesToEveryUnseenMessage(t *testing.T) {
	mailbox := newFakeMailbox(message("a"), message("b"))
	b, store := newTestBot(t, mailbox, &fakeGenerator{})

	require.NoError(t, b.RunOnce(context.Background()))

	assert.Equal(t, []string{"a", "b"}, mailbox.sentReplies)
	assert.Equal(t, []string{"a", "b"}, mailbox.marked)

	for _, id := range []string{"a", "b"} {
		ok, err := store.Contains(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestNoNewMessagesSendsNothing(t *testing.T) {
	mailbox := newFakeMailbox(message("a"))
	b, _ := newTestBot(t, mailbox, &fakeGenerator{})

	require.NoError(t, b.RunOnce(context.Background()))
	require.NoError(t, b.RunOnce(context.Background()))

	assert.Equal(t, []string{"a"}, mailbox.sentReplies)
}

func TestSeenMessageStillInResultsIsNotRepliedTwice(t *testing.T) {
	// The query keeps returning the message even after it was handled,
	// e.g. another client marked it unread again.
	mailbox := newFakeMailbox(message("a"))
	b, store := newTestBot(t, mailbox, &fakeGenerator{})

	require.NoError(t, store.Add(context.Background(), "a"))
	require.NoError(t, b.RunOnce(context.Background()))

	assert.Empty(t, mailbox.sentReplies)
}

func TestNewMessageBetweenCyclesGetsOneReply(t *testing.T) {
	mailbox := newFakeMailbox(message("a"))
	b, _ := newTestBot(t, mailbox, &fakeGenerator{})

	require.NoError(t, b.RunOnce(context.Background()))
	mailbox.add(message("b"))
	require.NoError(t, b.RunOnce(context.Background()))
	require.NoError(t, b.RunOnce(context.Background()))

	assert.Equal(t, []string{"a", "b"}, mailbox.sentReplies)
}

func TestSendFailureSkipsMessageAndContinues(t *testing.T) {
	mailbox := newFakeMailbox(message("c"), message("d"))
	mailbox.sendErrFor["c"] = errors.New("smtp boom")
	b, store := newTestBot(t, mailbox, &fakeGenerator{})

	require.NoError(t, b.RunOnce(context.Background()))

	// d was still answered
	assert.Equal(t, []string{"d"}, mailbox.sentReplies)

	// c stays out of the replied-to set so the next cycle retries it
	ok, err := store.Contains(context.Background(), "c")
	require.NoError(t, err)
	assert.False(t, ok)

	mailbox.sendErrFor = map[string]error{}
	require.NoError(t, b.RunOnce(context.Background()))
	assert.Equal(t, []string{"d", "c"}, mailbox.sentReplies)
}

func TestGenerationFailureLeavesMessageEligible(t *testing.T) {
	mailbox := newFakeMailbox(message("a"))
	gen := &fakeGenerator{err: errors.New("model down")}
	b, store := newTestBot(t, mailbox, gen)

	require.NoError(t, b.RunOnce(context.Background()))
	assert.Empty(t, mailbox.sentReplies)

	ok, err := store.Contains(context.Background(), "a")
	require.NoError(t, err)
	assert.False(t, ok)

	gen.err = nil
	require.NoError(t, b.RunOnce(context.Background()))
	assert.Equal(t, []string{"a"}, mailbox.sentReplies)
}

func TestListFailureReturnsError(t *testing.T) {
	mailbox := newFakeMailbox(message("a"))
	mailbox.listErr = errors.New("gmail unavailable")
	b, _ := newTestBot(t, mailbox, &fakeGenerator{})

	err := b.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Empty(t, mailbox.sentReplies)
}

type ignoreAllFilter struct{}

func (ignoreAllFilter) ShouldIgnore(string, string) bool { return true }

func TestFilteredMessageIsSkippedAndNotRecorded(t *testing.T) {
	mailbox := newFakeMailbox(message("a"))
	store := seen.NewMemoryStore()
	b, err := New(mailbox, &fakeGenerator{}, store, Options{Filter: ignoreAllFilter{}})
	require.NoError(t, err)

	require.NoError(t, b.RunOnce(context.Background()))

	assert.Empty(t, mailbox.sentReplies)
	// Filtered messages are not added to the replied-to set; the filter
	// keeps suppressing them on later cycles.
	n, err := store.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	mailbox := newFakeMailbox(message("a"))
	b, _ := newTestBot(t, mailbox, &fakeGenerator{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx)
	}()

	// Let at least the immediate first cycle run
	assert.Eventually(t, func() bool {
		return len(mailbox.sentReplies) > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}

func TestRunBacksOffAfterListFailure(t *testing.T) {
	mailbox := newFakeMailbox(message("a"))
	mailbox.listErr = errors.New("gmail unavailable")
	store := seen.NewMemoryStore()
	b, err := New(mailbox, &fakeGenerator{}, store, Options{Interval: 5 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = b.Run(ctx)

	// With doubling sleeps (10ms, 20ms, 40ms, 80ms...) far fewer cycles
	// fit into the window than the plain interval would allow.
	assert.Greater(t, mailbox.listCalls, 1)
	assert.Less(t, mailbox.listCalls, 10)
}
