package quizgen

import (
	"fmt"

	"github.com/quizgen/quizgen/internal/model"
)

var fallbackOptions = [4]string{
	"Primary subject matter",
	"Secondary topic",
	"Related concept",
	"Unrelated theme",
}

// FallbackQuestions returns count placeholder questions. The output depends
// only on the arguments and the correct answer is always "A".
func FallbackQuestions(count int, category, subcategory string, difficulty model.Difficulty) []Question {
	questions := make([]Question, 0, count)
	for i := range count {
		questions = append(questions, Question{
			Text:          fmt.Sprintf("%s question %d about %s: What is the main topic?", difficulty, i+1, subcategory),
			Options:       fallbackOptions,
			CorrectAnswer: Letters[0],
		})
	}
	return questions
}
