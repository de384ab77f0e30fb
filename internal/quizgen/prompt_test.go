package quizgen

import (
	"strings"
	"testing"

	"github.com/quizgen/quizgen/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("History", "Ancient Rome", model.DifficultyHard, 7)

	for _, want := range []string{
		"Generate exactly 7 multiple-choice quiz questions about Ancient Rome under History category.",
		"Difficulty: Hard.",
		"appropriate for Hard level",
		"Question: [question text here]",
		"C) [option C text]",
		"Correct: [letter A-D]",
		"Do not include any additional text, explanations, or numbering",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	a := BuildPrompt("Science", "Physics", model.DifficultyEasy, 3)
	b := BuildPrompt("Science", "Physics", model.DifficultyEasy, 3)
	if a != b {
		t.Error("BuildPrompt should be a pure function of its inputs")
	}
	if a == BuildPrompt("Science", "Physics", model.DifficultyEasy, 4) {
		t.Error("count should change the prompt")
	}
}
