package reply

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/teemow/autoreply/internal/gmail"
)

const replySystemPrompt = "You are an email assistant. Write a brief, friendly, " +
	"professional one-sentence acknowledgement reply to the email below. " +
	"Do not include a subject line, greeting headers, or a signature. " +
	"Reply in the same language as the email."

const replyUserPrompt = "From: {from}\nSubject: {subject}\n\n{body}"

// LLMGenerator asks a chat model for the reply text, falling back to the
// template generator when the model call fails or returns nothing.
type LLMGenerator struct {
	chain    compose.Runnable[map[string]any, *schema.Message]
	fallback Generator
	logger   *slog.Logger
}

// NewLLMGenerator builds the prompt/model chain. chatModel must not be
// nil; callers decide between LLM and template via config.
func NewLLMGenerator(ctx context.Context, chatModel model.ChatModel, logger *slog.Logger) (*LLMGenerator, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(replySystemPrompt),
		schema.UserMessage(replyUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reply chain: %w", err)
	}

	return &LLMGenerator{
		chain:    runnable,
		fallback: NewTemplateGenerator(),
		logger:   logger,
	}, nil
}

func (g *LLMGenerator) Name() string {
	return "llm"
}

func (g *LLMGenerator) Generate(ctx context.Context, msg *gmail.Message) (string, error) {
	input := map[string]any{
		"from":    msg.From,
		"subject": msg.Subject,
		"body":    msg.Body,
	}

	out, err := g.chain.Invoke(ctx, input)
	if err != nil {
		g.logger.Warn("model invoke failed, using template reply",
			slog.String("error", err.Error()))
		return g.fallback.Generate(ctx, msg)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		g.logger.Warn("model returned empty reply, using template reply")
		return g.fallback.Generate(ctx, msg)
	}

	return Postprocess(out.Content), nil
}
