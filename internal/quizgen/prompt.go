package quizgen

import (
	"fmt"
	"strings"

	"github.com/quizgen/quizgen/internal/model"
)

// Line markers shared by BuildPrompt and the response parser. Changing one
// side without the other breaks parsing.
const (
	questionMarker = "Question:"
	correctMarker  = "Correct:"
)

var optionMarkers = [4]string{"A)", "B)", "C)", "D)"}

// BuildPrompt returns the instruction sent to the model for the given
// category, subcategory, difficulty and question count.
func BuildPrompt(category, subcategory string, difficulty model.Difficulty, count int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generate exactly %d multiple-choice quiz questions about %s under %s category. Difficulty: %s.\n",
		count, subcategory, category, difficulty))
	sb.WriteString("FORMAT REQUIREMENTS:\n")
	sb.WriteString("- Each question must follow this EXACT format:\n")
	sb.WriteString(questionMarker + " [question text here]\n")
	for i, m := range optionMarkers {
		sb.WriteString(fmt.Sprintf("%s [option %s text]\n", m, Letters[i]))
	}
	sb.WriteString(correctMarker + " [letter A-D]\n")
	sb.WriteString(fmt.Sprintf("- Questions should be diverse and appropriate for %s level\n", difficulty))
	sb.WriteString("- Each question must have exactly 4 options\n")
	sb.WriteString("- The correct answer must be one of A, B, C, or D\n")
	sb.WriteString("- Do not include any additional text, explanations, or numbering\n")
	sb.WriteString("- Make sure each option is a complete, meaningful answer\n")
	return sb.String()
}
