// Package quiz runs quiz attempts: starting them, serving questions one at a
// time, scoring submissions and building AI-generated quizzes.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quizgen/quizgen/internal/model"
	"github.com/quizgen/quizgen/internal/quizgen"
	"github.com/quizgen/quizgen/internal/store"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrNoQuestions = errors.New("quiz has no questions")
	ErrCompleted   = errors.New("quiz attempt already completed")
)

// Store is the persistence the service needs.
type Store interface {
	GetCategory(id int64) (*model.Category, error)
	GetSubCategory(id int64) (*model.SubCategory, error)
	CreateQuiz(qz model.Quiz, questions []model.Question) (int64, error)
	GetQuiz(id int64) (*model.Quiz, error)
	ListQuestions(quizID int64) ([]model.Question, error)
	CreateHistory(h model.QuizHistory) (int64, error)
	GetHistory(id int64) (*model.QuizHistory, error)
	ListHistories(userID int64) ([]model.QuizHistory, error)
	NextUnansweredQuestion(historyID int64) (*model.Question, error)
	CompleteHistory(h model.QuizHistory, answers []model.UserAnswer) error
	GetHistoryView(historyID int64) (*model.HistoryView, error)
}

// Generator produces questions for a generation request. It always returns
// the requested number of questions.
type Generator interface {
	Generate(ctx context.Context, req quizgen.Request) []quizgen.Question
}

// Service implements quiz taking on top of a Store.
type Service struct {
	store     Store
	generator Generator
	now       func() time.Time
}

// NewService creates a quiz service. generator may be nil when AI
// generation is not needed.
func NewService(s Store, g Generator) *Service {
	return &Service{store: s, generator: g, now: time.Now}
}

// Attempt is a freshly started quiz attempt.
type Attempt struct {
	HistoryID        int64                `json:"quiz_history_id"`
	TimeLimitSeconds int                  `json:"time_limit_seconds"`
	Questions        []model.QuestionView `json:"questions"`
}

// Answer is one submitted answer.
type Answer struct {
	SelectedOption string `json:"selected_option"`
	TimeTaken      int    `json:"time_taken"`
}

// Submission holds all answers of an attempt keyed by question ID.
type Submission struct {
	HistoryID int64            `json:"quiz_history_id"`
	Answers   map[int64]Answer `json:"answers"`
	TimeTaken int              `json:"time_taken"`
}

// Score returns the percentage of correct answers, or 0 when total is 0.
func Score(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// Start creates a new attempt of quizID for userID.
func (s *Service) Start(userID, quizID int64) (*Attempt, error) {
	qz, err := s.store.GetQuiz(quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if qz == nil {
		return nil, ErrNotFound
	}

	questions, err := s.store.ListQuestions(quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	historyID, err := s.store.CreateHistory(model.QuizHistory{
		UserID:             userID,
		QuizID:             quizID,
		TotalQuestions:     len(questions),
		SelectedDifficulty: qz.Difficulty,
		StartedAt:          s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create history: %w", err)
	}

	views := make([]model.QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, q.View())
	}
	return &Attempt{
		HistoryID:        historyID,
		TimeLimitSeconds: qz.TimeLimitMinutes * 60,
		Questions:        views,
	}, nil
}

// history loads an attempt owned by userID. Attempts of other users are
// reported as missing.
func (s *Service) history(userID, historyID int64) (*model.QuizHistory, error) {
	h, err := s.store.GetHistory(historyID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	if h == nil || h.UserID != userID {
		return nil, ErrNotFound
	}
	return h, nil
}

// NextQuestion returns the first question of the attempt without a recorded
// answer, or nil once every question is answered.
func (s *Service) NextQuestion(userID, historyID int64) (*model.QuestionView, error) {
	if _, err := s.history(userID, historyID); err != nil {
		return nil, err
	}
	q, err := s.store.NextUnansweredQuestion(historyID)
	if err != nil {
		return nil, fmt.Errorf("next question: %w", err)
	}
	if q == nil {
		return nil, nil
	}
	v := q.View()
	return &v, nil
}

// Submit scores the answers of an attempt and completes it.
func (s *Service) Submit(userID int64, sub Submission) (*model.QuizHistory, error) {
	h, err := s.history(userID, sub.HistoryID)
	if err != nil {
		return nil, err
	}
	if h.CompletedAt != nil {
		return nil, ErrCompleted
	}

	questions, err := s.store.ListQuestions(h.QuizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	byID := make(map[int64]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	for id := range sub.Answers {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("question %d: %w", id, ErrNotFound)
		}
	}

	answers := make([]model.UserAnswer, 0, len(sub.Answers))
	correct := 0
	// Iterate questions rather than the map for a stable insert order.
	for _, q := range questions {
		a, ok := sub.Answers[q.ID]
		if !ok {
			continue
		}
		selected := strings.ToUpper(strings.TrimSpace(a.SelectedOption))
		isCorrect := selected != "" && selected == q.CorrectAnswer
		if isCorrect {
			correct++
		}
		answers = append(answers, model.UserAnswer{
			HistoryID:      h.ID,
			QuestionID:     q.ID,
			SelectedOption: selected,
			IsCorrect:      isCorrect,
			TimeTaken:      a.TimeTaken,
		})
	}
	completedAt := s.now()
	h.CorrectAnswers = correct
	h.Score = Score(correct, h.TotalQuestions)
	h.TimeTaken = sub.TimeTaken
	h.CompletedAt = &completedAt

	if err := s.store.CompleteHistory(*h, answers); err != nil {
		if errors.Is(err, store.ErrHistoryCompleted) {
			return nil, ErrCompleted
		}
		return nil, fmt.Errorf("complete history: %w", err)
	}
	slog.Info("quiz submitted", "history_id", h.ID, "user_id", userID,
		"correct", correct, "total", h.TotalQuestions, "score", h.Score)
	return h, nil
}

// Results returns an attempt with its answers and the correct letters.
func (s *Service) Results(userID, historyID int64) (*model.HistoryView, error) {
	if _, err := s.history(userID, historyID); err != nil {
		return nil, err
	}
	view, err := s.store.GetHistoryView(historyID)
	if err != nil {
		return nil, fmt.Errorf("get history view: %w", err)
	}
	if view == nil {
		return nil, ErrNotFound
	}
	return view, nil
}

// History returns the user's attempts, newest first.
func (s *Service) History(userID int64) ([]model.QuizHistory, error) {
	return s.store.ListHistories(userID)
}
