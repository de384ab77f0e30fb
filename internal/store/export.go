package store

import (
	"fmt"

	"github.com/quizgen/quizgen/internal/model"
)

// ExportAllHistories builds export-ready results from every quiz attempt.
func (s *Store) ExportAllHistories() ([]model.AttemptResult, error) {
	histories, err := s.ListAllHistories()
	if err != nil {
		return nil, fmt.Errorf("list histories: %w", err)
	}

	var results []model.AttemptResult
	for _, h := range histories {
		view, err := s.GetHistoryView(h.ID)
		if err != nil {
			return nil, fmt.Errorf("get history %d: %w", h.ID, err)
		}

		user, err := s.GetUserByID(h.UserID)
		if err != nil {
			return nil, fmt.Errorf("get user %d: %w", h.UserID, err)
		}

		var username, displayName string
		if user != nil {
			username = user.Username
			displayName = user.DisplayName
		}

		var answers []model.AnswerResult
		for _, aq := range view.Answers {
			answers = append(answers, model.AnswerResult{
				Text:           aq.Question.Text,
				SelectedOption: aq.Answer.SelectedOption,
				CorrectAnswer:  aq.Question.CorrectAnswer,
				IsCorrect:      aq.Answer.IsCorrect,
				TimeTaken:      aq.Answer.TimeTaken,
			})
		}

		results = append(results, model.AttemptResult{
			Username:       username,
			DisplayName:    displayName,
			QuizTitle:      view.Quiz.Title,
			Difficulty:     h.SelectedDifficulty,
			IsAIGenerated:  view.Quiz.IsAIGenerated,
			Score:          h.Score,
			CorrectAnswers: h.CorrectAnswers,
			TotalQuestions: h.TotalQuestions,
			StartedAt:      h.StartedAt,
			CompletedAt:    h.CompletedAt,
			Answers:        answers,
		})
	}

	return results, nil
}
