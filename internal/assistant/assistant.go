// Package assistant answers free-form chat messages from quiz takers.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quizgen/quizgen/internal/llm/prompts"
)

// Chatter sends a system instruction and one user message to a model.
type Chatter interface {
	Chat(ctx context.Context, system, message string) (string, error)
}

// CategoryLister supplies category names for the system prompt.
type CategoryLister interface {
	CategoryNames() ([]string, error)
}

// Assistant produces chat replies. It never returns an error: any failure
// yields the fallback reply.
type Assistant struct {
	llm        Chatter
	categories CategoryLister
	timeout    time.Duration

	// Fallback returns the reply used when the model fails or replies with
	// nothing. A nil Fallback yields DefaultFallback.
	Fallback func(ctx context.Context) string
}

// DefaultFallback is the canned reply used when no model answer is available.
const DefaultFallback = "Sorry, I couldn't generate a response right now."

// New creates an assistant. categories may be nil.
func New(llm Chatter, categories CategoryLister, timeout time.Duration) *Assistant {
	return &Assistant{
		llm:        llm,
		categories: categories,
		timeout:    timeout,
	}
}

func (a *Assistant) fallback(ctx context.Context) string {
	if a.Fallback == nil {
		return DefaultFallback
	}
	return a.Fallback(ctx)
}

// Reply answers msg in the given language.
func (a *Assistant) Reply(ctx context.Context, lang, msg string) string {
	wrapped := prompts.WrapMessage(msg)
	if wrapped == "" {
		return a.fallback(ctx)
	}

	reply, err := a.ask(ctx, lang, wrapped)
	if err != nil {
		slog.Warn("assistant reply failed", "error", err)
		return a.fallback(ctx)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return a.fallback(ctx)
	}
	return reply
}

func (a *Assistant) ask(ctx context.Context, lang, message string) (reply string, err error) {
	if a.llm == nil {
		return "", fmt.Errorf("no chat model configured")
	}

	data := prompts.ChatData{Lang: lang}
	if a.categories != nil {
		names, err := a.categories.CategoryNames()
		if err != nil {
			slog.Warn("list categories for assistant", "error", err)
		}
		data.Categories = names
	}
	system, err := prompts.BuildChatSystemPrompt(data)
	if err != nil {
		return "", fmt.Errorf("build system prompt: %w", err)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chat model panicked: %v", r)
		}
	}()
	return a.llm.Chat(ctx, system, message)
}
