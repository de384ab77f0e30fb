package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/quizgen/quizgen/internal/model"
)

// LogGeneration appends a generation log entry. Category and subcategory IDs
// are resolved by name when not set; unknown names are stored without IDs.
func (s *Store) LogGeneration(ctx context.Context, e model.GenerationLog) error {
	if e.CategoryID == nil {
		var id int64
		err := s.db.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, e.Category).Scan(&id)
		switch {
		case err == nil:
			e.CategoryID = &id
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}
	}
	if e.SubCategoryID == nil && e.CategoryID != nil {
		var id int64
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM subcategories WHERE category_id = ? AND name = ?`, *e.CategoryID, e.Subcategory,
		).Scan(&id)
		switch {
		case err == nil:
			e.SubCategoryID = &id
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generation_logs (generation_id, category, subcategory, category_id, subcategory_id, difficulty,
		 questions_generated, generated_by, prompt_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.GenerationID, e.Category, e.Subcategory, e.CategoryID, e.SubCategoryID, e.Difficulty,
		e.QuestionsGenerated, e.GeneratedBy, e.PromptUsed, e.CreatedAt,
	)
	return err
}

// ListGenerationLogs returns the most recent generation log entries, newest
// first. A non-positive limit returns all entries.
func (s *Store) ListGenerationLogs(limit int) ([]model.GenerationLog, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT id, generation_id, category, subcategory, category_id, subcategory_id, difficulty,
		 questions_generated, generated_by, prompt_used, created_at
		 FROM generation_logs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []model.GenerationLog
	for rows.Next() {
		var e model.GenerationLog
		if err := rows.Scan(&e.ID, &e.GenerationID, &e.Category, &e.Subcategory, &e.CategoryID, &e.SubCategoryID,
			&e.Difficulty, &e.QuestionsGenerated, &e.GeneratedBy, &e.PromptUsed, &e.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}
