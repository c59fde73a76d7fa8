package reply

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/teemow/autoreply/internal/gmail"
)

// maxReplyRunes caps generated replies. Auto-replies should be a short
// acknowledgement, not a conversation.
const maxReplyRunes = 200

// Generator produces the reply body for an incoming message.
type Generator interface {
	// Generate returns the reply text for msg.
	Generate(ctx context.Context, msg *gmail.Message) (string, error)
	// Name identifies the generator in logs and metrics.
	Name() string
}

// TemplateGenerator picks a canned reply based on keywords in the
// subject and body. It never fails.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a keyword-based template generator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Name() string {
	return "template"
}

func (g *TemplateGenerator) Generate(_ context.Context, msg *gmail.Message) (string, error) {
	text := strings.ToLower(msg.Subject + " " + msg.Body)

	var reply string
	switch {
	case containsAny(text, "hello", "hi ", "hey"):
		reply = "Hello! Thanks for reaching out. I'll get back to you with a proper answer soon."
	case containsAny(text, "urgent", "asap", "immediately"):
		reply = "Thanks for flagging this as urgent. I'm looking into it and will respond as soon as possible."
	case containsAny(text, "thanks", "thank you"):
		reply = "You're very welcome! Let me know if there's anything else I can help with."
	case containsAny(text, "meeting", "schedule", "call"):
		reply = "Thanks for the invite. I'll check my calendar and confirm a time shortly."
	case containsAny(text, "question", "?"):
		reply = "Thanks for your question. I'll look into it and send you a detailed answer soon."
	default:
		reply = "Thanks for your email. I've received it and will reply in more detail soon."
	}

	return reply, nil
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Postprocess normalizes a model-generated reply. It trims whitespace,
// keeps only the first sentence, and caps the result at maxReplyRunes
// runes. Model output is unpredictable; template replies skip this.
func Postprocess(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	s = firstSentence(s)

	if utf8.RuneCountInString(s) > maxReplyRunes {
		runes := []rune(s)
		s = strings.TrimSpace(string(runes[:maxReplyRunes]))
	}
	return s
}

// firstSentence returns s up to and including the first sentence
// terminator. Text without a terminator is returned whole.
func firstSentence(s string) string {
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			return s[:i+utf8.RuneLen(r)]
		}
	}
	return s
}
