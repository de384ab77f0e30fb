package quizgen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quizgen/quizgen/internal/model"
)

// DefaultTimeout bounds the text-generation call when none is configured.
const DefaultTimeout = 30 * time.Second

// Generator runs the generation pipeline: build the prompt, call the model
// once, parse and validate the reply, and fall back to placeholders when the
// call fails or yields nothing usable.
type Generator struct {
	llm     TextGenerator
	audit   AuditLog
	timeout time.Duration
	now     func() time.Time
}

// NewGenerator creates a Generator. llm may be nil, in which case every
// request is served from the fallback. audit may be nil to skip logging.
func NewGenerator(llm TextGenerator, audit AuditLog, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{
		llm:     llm,
		audit:   audit,
		timeout: timeout,
		now:     time.Now,
	}
}

// Generate returns questions for req. It never fails: when the model call
// errors or no question validates, it returns req.Count fallback questions.
// A successful generation returns at most req.Count questions.
func (g *Generator) Generate(ctx context.Context, req Request) []Question {
	if req.Count <= 0 {
		req.Count = 1
	}
	genID := uuid.NewString()
	log := slog.With(
		"generation_id", genID,
		"category", req.Category,
		"subcategory", req.Subcategory,
		"difficulty", req.Difficulty,
		"count", req.Count,
	)

	prompt := BuildPrompt(req.Category, req.Subcategory, req.Difficulty, req.Count)

	reply, err := g.call(ctx, prompt)
	if err != nil {
		log.Warn("text generation failed, using fallback questions", "error", err)
		return FallbackQuestions(req.Count, req.Category, req.Subcategory, req.Difficulty)
	}
	log.Debug("text generation reply", "raw", reply)

	questions, dropped := validateAll(parseResponse(reply, req.Count))
	for _, d := range dropped {
		log.Debug("dropped parsed question", "reason", d)
	}
	if len(questions) == 0 {
		log.Debug("using fallback questions", "reason", ErrEmptyGeneration)
		return FallbackQuestions(req.Count, req.Category, req.Subcategory, req.Difficulty)
	}
	log.Debug("parsed generated questions", "parsed", len(questions))

	if err := g.record(ctx, genID, req, prompt); err != nil {
		log.Error("failed to record generation", "error", err)
	}
	return questions
}

// call performs the single text-generation request under the configured
// timeout. Errors and panics from the client both surface as
// ErrExternalService.
func (g *Generator) call(ctx context.Context, prompt string) (reply string, err error) {
	if g.llm == nil {
		return "", fmt.Errorf("%w: no client configured", ErrExternalService)
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			reply, err = "", fmt.Errorf("%w: panic: %v", ErrExternalService, r)
		}
	}()

	reply, err = g.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExternalService, err)
	}
	return reply, nil
}

func (g *Generator) record(ctx context.Context, genID string, req Request, prompt string) (err error) {
	if g.audit == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrAuditWrite, r)
		}
	}()

	entry := model.GenerationLog{
		GenerationID:       genID,
		Category:           req.Category,
		Subcategory:        req.Subcategory,
		Difficulty:         req.Difficulty,
		QuestionsGenerated: req.Count,
		GeneratedBy:        req.UserID,
		PromptUsed:         prompt,
		CreatedAt:          g.now(),
	}
	if err := g.audit.LogGeneration(ctx, entry); err != nil {
		return fmt.Errorf("%w: %w", ErrAuditWrite, err)
	}
	return nil
}
