package quizgen

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     rawQuestion
		wantErr bool
	}{
		{"complete", rawQuestion{text: "Q?", options: [4]string{"a", "b", "c", "d"}, correct: "C"}, false},
		{"empty options allowed", rawQuestion{text: "Q?", correct: "A"}, false},
		{"missing text", rawQuestion{options: [4]string{"a", "b", "c", "d"}, correct: "A"}, true},
		{"missing correct", rawQuestion{text: "Q?", options: [4]string{"a", "b", "c", "d"}}, true},
		{"bad correct", rawQuestion{text: "Q?", correct: "E"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := validate(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrIncompleteQuestion) {
					t.Fatalf("expected ErrIncompleteQuestion, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if q.Text != tt.raw.text || q.CorrectAnswer != tt.raw.correct || q.Options != tt.raw.options {
				t.Errorf("validate() = %+v, does not match %+v", q, tt.raw)
			}
		})
	}
}

func TestValidateAllKeepsOrder(t *testing.T) {
	records := []rawQuestion{
		{text: "one", correct: "A"},
		{text: "", correct: "A"},
		{text: "two", correct: "B"},
		{text: "three", correct: "X"},
	}
	got, dropped := validateAll(records)
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}
	if got[0].Text != "one" || got[1].Text != "two" {
		t.Errorf("unexpected order: %q, %q", got[0].Text, got[1].Text)
	}
	if len(dropped) != 2 {
		t.Errorf("expected 2 dropped, got %d", len(dropped))
	}
}

func TestQuestionOption(t *testing.T) {
	q := Question{Options: [4]string{"a", "b", "c", "d"}}
	if q.Option("C") != "c" {
		t.Errorf("Option(C) = %q", q.Option("C"))
	}
	if q.Option("Z") != "" {
		t.Errorf("Option(Z) = %q, want empty", q.Option("Z"))
	}
}
