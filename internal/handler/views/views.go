// Package views holds the HTML pages as templ components. Edit the .templ
// files and regenerate; the *_templ.go files are generated.
package views

//go:generate templ generate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	appI18n "github.com/quizgen/quizgen/internal/i18n"
	"github.com/quizgen/quizgen/internal/model"
)

// Flash is a one-time message shown at the top of the next page.
type Flash struct {
	Kind string // "success" or "error"
	Text string
}

type flashCtxKey struct{}

// ContextWithFlashes stores pending flash messages for the layout.
func ContextWithFlashes(ctx context.Context, flashes []Flash) context.Context {
	return context.WithValue(ctx, flashCtxKey{}, flashes)
}

func flashesFromContext(ctx context.Context) []Flash {
	f, _ := ctx.Value(flashCtxKey{}).([]Flash)
	return f
}

var (
	letters      = []string{"A", "B", "C", "D"}
	difficulties = []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard}
)

// href prefixes p with the base path from the context.
func href(ctx context.Context, p string) templ.SafeURL {
	return templ.SafeURL(model.BasePathFromContext(ctx) + p)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func toggleLabel(u model.User) string {
	if u.Active {
		return "Deactivate"
	}
	return "Activate"
}

func answerResult(a model.UserAnswer) string {
	if a.IsCorrect {
		return "correct"
	}
	return "wrong"
}

func scoreSummary(ctx context.Context, h model.QuizHistory) string {
	return appI18n.Td(ctx, "ScoreSummary", map[string]any{
		"Correct": h.CorrectAnswers,
		"Total":   h.TotalQuestions,
		"Score":   fmt.Sprintf("%.1f", h.Score),
	})
}
