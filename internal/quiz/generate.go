package quiz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quizgen/quizgen/internal/model"
	"github.com/quizgen/quizgen/internal/quizgen"
)

// GenerateRequest asks for a new AI-generated quiz.
type GenerateRequest struct {
	CategoryID    int64
	SubCategoryID int64
	Difficulty    model.Difficulty
	Count         int
	UserID        *int64
}

// Generated describes a stored AI-generated quiz.
type Generated struct {
	QuizID    int64
	Questions int
}

// Generate runs the question pipeline for the requested subcategory and
// stores the result as a new quiz. Missing categories or subcategories, or a
// subcategory outside the category, yield ErrNotFound.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Generated, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("quiz generation is not configured")
	}

	cat, err := s.store.GetCategory(req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if cat == nil {
		return nil, fmt.Errorf("category %d: %w", req.CategoryID, ErrNotFound)
	}
	sub, err := s.store.GetSubCategory(req.SubCategoryID)
	if err != nil {
		return nil, fmt.Errorf("get subcategory: %w", err)
	}
	if sub == nil || sub.CategoryID != cat.ID {
		return nil, fmt.Errorf("subcategory %d: %w", req.SubCategoryID, ErrNotFound)
	}

	generated := s.generator.Generate(ctx, quizgen.Request{
		Category:    cat.Name,
		Subcategory: sub.Name,
		Difficulty:  req.Difficulty,
		Count:       req.Count,
		UserID:      req.UserID,
	})

	questions := make([]model.Question, 0, len(generated))
	for _, q := range generated {
		questions = append(questions, model.Question{
			Text:          q.Text,
			Option1:       q.Options[0],
			Option2:       q.Options[1],
			Option3:       q.Options[2],
			Option4:       q.Options[3],
			CorrectAnswer: q.CorrectAnswer,
			Difficulty:    req.Difficulty,
			IsAIGenerated: true,
		})
	}

	quizID, err := s.store.CreateQuiz(model.Quiz{
		Title:         "AI Generated Quiz - " + sub.Name,
		Description:   "Automatically generated quiz about " + sub.Name,
		CategoryID:    cat.ID,
		SubCategoryID: sub.ID,
		Difficulty:    req.Difficulty,
		IsAIGenerated: true,
	}, questions)
	if err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}

	slog.Info("generated quiz", "quiz_id", quizID, "category", cat.Name,
		"subcategory", sub.Name, "difficulty", req.Difficulty, "questions", len(questions))
	return &Generated{QuizID: quizID, Questions: len(questions)}, nil
}
