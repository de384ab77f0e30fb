// Package quizgen turns a category, subcategory and difficulty into a set of
// multiple-choice questions, asking an external text-generation service first
// and falling back to deterministic placeholders when that fails.
package quizgen

import (
	"context"
	"errors"

	"github.com/quizgen/quizgen/internal/model"
)

var (
	// ErrExternalService wraps any failure of the text-generation call,
	// including timeouts and a missing client.
	ErrExternalService = errors.New("text generation service failed")
	// ErrEmptyGeneration means the call succeeded but no question survived
	// parsing and validation.
	ErrEmptyGeneration = errors.New("no valid questions in generated text")
	// ErrIncompleteQuestion marks a single parsed record that is missing a
	// required field.
	ErrIncompleteQuestion = errors.New("incomplete question")
	// ErrAuditWrite wraps a failed generation log write.
	ErrAuditWrite = errors.New("generation log write failed")
)

// Letters are the option labels in display order.
var Letters = [4]string{"A", "B", "C", "D"}

// TextGenerator sends a single prompt to a text-generation model and returns
// its raw reply.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AuditLog records successful generations.
type AuditLog interface {
	LogGeneration(ctx context.Context, entry model.GenerationLog) error
}

// Request holds the parameters of one generation.
type Request struct {
	Category    string
	Subcategory string
	Difficulty  model.Difficulty
	Count       int
	UserID      *int64
}

// Question is a parsed question that passed validation. Options are indexed
// A through D and CorrectAnswer is always one of Letters.
type Question struct {
	Text          string    `json:"text"`
	Options       [4]string `json:"options"`
	CorrectAnswer string    `json:"correct_answer"`
}

// Option returns the option text for a letter, or "" for an unknown letter.
func (q Question) Option(letter string) string {
	if i := letterIndex(letter); i >= 0 {
		return q.Options[i]
	}
	return ""
}

func letterIndex(letter string) int {
	for i, l := range Letters {
		if l == letter {
			return i
		}
	}
	return -1
}
