package store

import (
	"database/sql"
	"time"

	"github.com/quizgen/quizgen/internal/model"
)

const questionColumns = `id, quiz_id, text, option1, option2, option3, option4, correct_answer, difficulty, is_ai_generated`

func scanQuestion(row interface{ Scan(...any) error }) (model.Question, error) {
	var q model.Question
	err := row.Scan(&q.ID, &q.QuizID, &q.Text, &q.Option1, &q.Option2, &q.Option3, &q.Option4,
		&q.CorrectAnswer, &q.Difficulty, &q.IsAIGenerated)
	return q, err
}

// CreateQuiz stores a quiz and its questions in one transaction. Question
// QuizID fields are ignored.
func (s *Store) CreateQuiz(qz model.Quiz, questions []model.Question) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if qz.TimeLimitMinutes <= 0 {
		qz.TimeLimitMinutes = model.DefaultTimeLimitMinutes
	}
	res, err := tx.Exec(
		`INSERT INTO quizzes (title, description, category_id, subcategory_id, difficulty, time_limit_minutes, is_ai_generated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		qz.Title, qz.Description, qz.CategoryID, qz.SubCategoryID, qz.Difficulty, qz.TimeLimitMinutes, qz.IsAIGenerated, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	quizID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, q := range questions {
		_, err := tx.Exec(
			`INSERT INTO questions (quiz_id, text, option1, option2, option3, option4, correct_answer, difficulty, is_ai_generated)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			quizID, q.Text, q.Option1, q.Option2, q.Option3, q.Option4, q.CorrectAnswer, q.Difficulty, q.IsAIGenerated,
		)
		if err != nil {
			return 0, err
		}
	}

	return quizID, tx.Commit()
}

// GetQuiz returns a quiz by ID, or nil if it does not exist.
func (s *Store) GetQuiz(id int64) (*model.Quiz, error) {
	var qz model.Quiz
	err := s.db.QueryRow(
		`SELECT id, title, description, category_id, subcategory_id, difficulty, time_limit_minutes, is_ai_generated, created_at
		 FROM quizzes WHERE id = ?`, id,
	).Scan(&qz.ID, &qz.Title, &qz.Description, &qz.CategoryID, &qz.SubCategoryID, &qz.Difficulty,
		&qz.TimeLimitMinutes, &qz.IsAIGenerated, &qz.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &qz, nil
}

// ListQuizzes returns the quizzes of a subcategory, newest first.
func (s *Store) ListQuizzes(subCategoryID int64) ([]model.Quiz, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, category_id, subcategory_id, difficulty, time_limit_minutes, is_ai_generated, created_at
		 FROM quizzes WHERE subcategory_id = ? ORDER BY id DESC`, subCategoryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var quizzes []model.Quiz
	for rows.Next() {
		var qz model.Quiz
		if err := rows.Scan(&qz.ID, &qz.Title, &qz.Description, &qz.CategoryID, &qz.SubCategoryID, &qz.Difficulty,
			&qz.TimeLimitMinutes, &qz.IsAIGenerated, &qz.CreatedAt); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, qz)
	}
	return quizzes, rows.Err()
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(id int64) (model.Question, error) {
	return scanQuestion(s.db.QueryRow(`SELECT `+questionColumns+` FROM questions WHERE id = ?`, id))
}

// ListQuestions returns the questions of a quiz in insertion order.
func (s *Store) ListQuestions(quizID int64) ([]model.Question, error) {
	rows, err := s.db.Query(`SELECT `+questionColumns+` FROM questions WHERE quiz_id = ? ORDER BY id`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// QuestionCount returns the number of questions in a quiz.
func (s *Store) QuestionCount(quizID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions WHERE quiz_id = ?`, quizID).Scan(&count)
	return count, err
}
