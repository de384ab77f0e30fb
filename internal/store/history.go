package store

import (
	"database/sql"
	"time"

	"github.com/quizgen/quizgen/internal/model"
)

const historyColumns = `id, user_id, quiz_id, score, correct_answers, total_questions, selected_difficulty, time_taken, started_at, completed_at, created_at`

func scanHistory(row interface{ Scan(...any) error }) (model.QuizHistory, error) {
	var h model.QuizHistory
	err := row.Scan(&h.ID, &h.UserID, &h.QuizID, &h.Score, &h.CorrectAnswers, &h.TotalQuestions,
		&h.SelectedDifficulty, &h.TimeTaken, &h.StartedAt, &h.CompletedAt, &h.CreatedAt)
	return h, err
}

// CreateHistory starts a quiz attempt.
func (s *Store) CreateHistory(h model.QuizHistory) (int64, error) {
	now := time.Now()
	if h.StartedAt.IsZero() {
		h.StartedAt = now
	}
	res, err := s.db.Exec(
		`INSERT INTO quiz_histories (user_id, quiz_id, total_questions, selected_difficulty, started_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		h.UserID, h.QuizID, h.TotalQuestions, h.SelectedDifficulty, h.StartedAt, now,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetHistory returns an attempt by ID, or nil if it does not exist.
func (s *Store) GetHistory(id int64) (*model.QuizHistory, error) {
	h, err := scanHistory(s.db.QueryRow(`SELECT `+historyColumns+` FROM quiz_histories WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListHistories returns a user's attempts, newest first.
func (s *Store) ListHistories(userID int64) ([]model.QuizHistory, error) {
	return s.queryHistories(`SELECT `+historyColumns+` FROM quiz_histories WHERE user_id = ? ORDER BY id DESC`, userID)
}

// ListAllHistories returns every attempt, oldest first.
func (s *Store) ListAllHistories() ([]model.QuizHistory, error) {
	return s.queryHistories(`SELECT ` + historyColumns + ` FROM quiz_histories ORDER BY id`)
}

func (s *Store) queryHistories(query string, args ...any) ([]model.QuizHistory, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var histories []model.QuizHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		histories = append(histories, h)
	}
	return histories, rows.Err()
}

// NextUnansweredQuestion returns the first question of the attempt's quiz
// with no answer recorded in that attempt, or nil when all are answered.
func (s *Store) NextUnansweredQuestion(historyID int64) (*model.Question, error) {
	q, err := scanQuestion(s.db.QueryRow(
		`SELECT q.id, q.quiz_id, q.text, q.option1, q.option2, q.option3, q.option4, q.correct_answer, q.difficulty, q.is_ai_generated
		 FROM questions q
		 JOIN quiz_histories h ON h.quiz_id = q.quiz_id
		 WHERE h.id = ?
		   AND q.id NOT IN (SELECT question_id FROM user_answers WHERE history_id = ?)
		 ORDER BY q.id
		 LIMIT 1`, historyID, historyID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// CompleteHistory records the answers of an attempt and its final score in
// one transaction. It returns ErrHistoryCompleted if the attempt was already
// completed, leaving the stored answers untouched.
func (s *Store) CompleteHistory(h model.QuizHistory, answers []model.UserAnswer) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	completedAt := time.Now()
	if h.CompletedAt != nil {
		completedAt = *h.CompletedAt
	}
	res, err := tx.Exec(
		`UPDATE quiz_histories SET score = ?, correct_answers = ?, time_taken = ?, completed_at = ?
		 WHERE id = ? AND completed_at IS NULL`,
		h.Score, h.CorrectAnswers, h.TimeTaken, completedAt, h.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrHistoryCompleted
	}

	for _, a := range answers {
		_, err := tx.Exec(
			`INSERT INTO user_answers (history_id, question_id, selected_option, is_correct, time_taken)
			 VALUES (?, ?, ?, ?, ?)`,
			h.ID, a.QuestionID, a.SelectedOption, a.IsCorrect, a.TimeTaken,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListAnswers returns the answers of an attempt in the order they were stored.
func (s *Store) ListAnswers(historyID int64) ([]model.UserAnswer, error) {
	rows, err := s.db.Query(
		`SELECT id, history_id, question_id, selected_option, is_correct, time_taken
		 FROM user_answers WHERE history_id = ? ORDER BY id`, historyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.UserAnswer
	for rows.Next() {
		var a model.UserAnswer
		if err := rows.Scan(&a.ID, &a.HistoryID, &a.QuestionID, &a.SelectedOption, &a.IsCorrect, &a.TimeTaken); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// GetHistoryView builds a full view of an attempt with its quiz and answered
// questions.
func (s *Store) GetHistoryView(historyID int64) (*model.HistoryView, error) {
	h, err := s.GetHistory(historyID)
	if err != nil || h == nil {
		return nil, err
	}
	qz, err := s.GetQuiz(h.QuizID)
	if err != nil {
		return nil, err
	}
	if qz == nil {
		return nil, sql.ErrNoRows
	}
	answers, err := s.ListAnswers(historyID)
	if err != nil {
		return nil, err
	}

	view := &model.HistoryView{History: *h, Quiz: *qz}
	for _, a := range answers {
		q, err := s.GetQuestion(a.QuestionID)
		if err != nil {
			return nil, err
		}
		view.Answers = append(view.Answers, model.AnsweredQuestion{Question: q, Answer: a})
	}
	return view, nil
}
