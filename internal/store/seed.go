package store

import (
	"fmt"
	"strings"

	"github.com/quizgen/quizgen/internal/model"
)

// ImportStats counts the records created by ImportCategories.
type ImportStats struct {
	Categories    int
	Subcategories int
	Quizzes       int
	Questions     int
}

// ImportCategories creates the given categories, subcategories and authored
// quizzes. Existing categories and subcategories are reused by name; quizzes
// are always added.
func (s *Store) ImportCategories(items []model.CategoryImport) (ImportStats, error) {
	var stats ImportStats
	for _, ci := range items {
		if strings.TrimSpace(ci.Name) == "" {
			return stats, fmt.Errorf("category with empty name")
		}
		catID, err := s.CreateCategory(model.Category{Name: ci.Name, Description: ci.Description})
		if err != nil {
			return stats, fmt.Errorf("create category %q: %w", ci.Name, err)
		}
		stats.Categories++

		for _, si := range ci.Subcategories {
			subID, err := s.CreateSubCategory(model.SubCategory{CategoryID: catID, Name: si.Name})
			if err != nil {
				return stats, fmt.Errorf("create subcategory %q: %w", si.Name, err)
			}
			stats.Subcategories++

			for _, qi := range si.Quizzes {
				difficulty, ok := model.ParseDifficulty(qi.Difficulty)
				if !ok {
					difficulty = model.DifficultyMedium
				}
				questions := make([]model.Question, 0, len(qi.Questions))
				for _, q := range qi.Questions {
					questions = append(questions, model.Question{
						Text:          q.Text,
						Option1:       q.Options[0],
						Option2:       q.Options[1],
						Option3:       q.Options[2],
						Option4:       q.Options[3],
						CorrectAnswer: strings.ToUpper(strings.TrimSpace(q.CorrectAnswer)),
						Difficulty:    difficulty,
					})
				}
				if _, err := s.CreateQuiz(model.Quiz{
					Title:            qi.Title,
					Description:      qi.Description,
					CategoryID:       catID,
					SubCategoryID:    subID,
					Difficulty:       difficulty,
					TimeLimitMinutes: qi.TimeLimitMinutes,
				}, questions); err != nil {
					return stats, fmt.Errorf("create quiz %q: %w", qi.Title, err)
				}
				stats.Quizzes++
				stats.Questions += len(questions)
			}
		}
	}
	return stats, nil
}
