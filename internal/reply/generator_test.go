package reply

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/autoreply/internal/gmail"
)

func TestTemplateGenerator(t *testing.T) {
	ctx := context.Background()
	gen := NewTemplateGenerator()

	tests := []struct {
		name     string
		msg      *gmail.Message
		expected string
	}{
		{
			name:     "greeting",
			msg:      &gmail.Message{Subject: "Hello there"},
			expected: "Hello!",
		},
		{
			name:     "urgent",
			msg:      &gmail.Message{Subject: "Need this ASAP", Body: "please respond"},
			expected: "urgent",
		},
		{
			name:     "thanks",
			msg:      &gmail.Message{Body: "thank you for the update"},
			expected: "welcome",
		},
		{
			name:     "meeting",
			msg:      &gmail.Message{Subject: "Schedule a sync"},
			expected: "calendar",
		},
		{
			name:     "question",
			msg:      &gmail.Message{Body: "does this work on linux?"},
			expected: "question",
		},
		{
			name:     "default",
			msg:      &gmail.Message{Subject: "FYI", Body: "status update attached"},
			expected: "received",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := gen.Generate(ctx, tt.msg)
			require.NoError(t, err)
			assert.Contains(t, reply, tt.expected)
		})
	}
}

func TestTemplateGeneratorPrecedence(t *testing.T) {
	// Urgent beats question when both keywords are present
	gen := NewTemplateGenerator()
	reply, err := gen.Generate(context.Background(), &gmail.Message{
		Subject: "Urgent question",
		Body:    "can you fix this asap?",
	})
	require.NoError(t, err)
	assert.Contains(t, reply, "urgent")
}

func TestPostprocess(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "first sentence only",
			input:    "Thanks for your email. I will reply in detail tomorrow.",
			expected: "Thanks for your email.",
		},
		{
			name:     "exclamation terminator",
			input:    "Got it! More soon.",
			expected: "Got it!",
		},
		{
			name:     "no terminator returned whole",
			input:    "Thanks, talking soon",
			expected: "Thanks, talking soon",
		},
		{
			name:     "whitespace trimmed",
			input:    "  \n Thanks for writing. \n",
			expected: "Thanks for writing.",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Postprocess(tt.input))
		})
	}
}

func TestPostprocessCapsLength(t *testing.T) {
	long := strings.Repeat("a", 500)
	result := Postprocess(long)
	assert.Equal(t, maxReplyRunes, len([]rune(result)))
}

// failingChatModel implements model.ChatModel and always errors.
type failingChatModel struct{}

func (f *failingChatModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	return nil, errors.New("model unavailable")
}

func (f *failingChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("model unavailable")
}

func (f *failingChatModel) BindTools([]*schema.ToolInfo) error {
	return nil
}

func TestLLMGeneratorFallsBackOnModelFailure(t *testing.T) {
	ctx := context.Background()

	gen, err := NewLLMGenerator(ctx, &failingChatModel{}, nil)
	require.NoError(t, err)

	reply, err := gen.Generate(ctx, &gmail.Message{Subject: "Hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
}

func TestNewLLMGeneratorRequiresModel(t *testing.T) {
	_, err := NewLLMGenerator(context.Background(), nil, nil)
	assert.Error(t, err)
}
