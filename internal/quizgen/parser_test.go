package quizgen

import (
	"fmt"
	"strings"
	"testing"
)

const threeBlocks = `Question: Capital of France?
A) Paris
B) London
C) Rome
D) Berlin
Correct: A

Question: Largest planet?
A) Mars
B) Jupiter
C) Venus
D) Earth
Correct: B

Question: Boiling point of water at sea level?
A) 50 C
B) 90 C
C) 100 C
D) 120 C
Correct: C
`

func blocks(n int) string {
	var sb strings.Builder
	for i := range n {
		fmt.Fprintf(&sb, "Question: Q%d?\nA) a\nB) b\nC) c\nD) d\nCorrect: D\n\n", i+1)
	}
	return sb.String()
}

func TestParseResponseWellFormed(t *testing.T) {
	got := parseResponse(threeBlocks, 10)
	if len(got) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(got))
	}

	first := got[0]
	if first.text != "Capital of France?" {
		t.Errorf("text = %q, want 'Capital of France?'", first.text)
	}
	want := [4]string{"Paris", "London", "Rome", "Berlin"}
	if first.options != want {
		t.Errorf("options = %v, want %v", first.options, want)
	}
	if first.correct != "A" {
		t.Errorf("correct = %q, want 'A'", first.correct)
	}
	if got[1].correct != "B" || got[2].correct != "C" {
		t.Errorf("unexpected correct answers %q, %q", got[1].correct, got[2].correct)
	}
}

func TestParseResponseDropsIncomplete(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  int
	}{
		{"trailing question without options", threeBlocks + "Question: Unfinished?\n", 3},
		{"block without correct line", "Question: Q?\nA) a\nB) b\nC) c\nD) d\n", 0},
		{"block without text", "Question:\nA) a\nB) b\nC) c\nD) d\nCorrect: A\n", 0},
		{"options before any question", "A) a\nB) b\nCorrect: A\n" + blocks(1), 1},
		{"empty reply", "", 0},
		{"commentary only", "Sure! Here are your questions.\n\nEnjoy.", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseResponse(tt.reply, 10)
			if len(got) != tt.want {
				t.Errorf("expected %d questions, got %d", tt.want, len(got))
			}
		})
	}
}

func TestParseResponseCorrectLine(t *testing.T) {
	tests := []struct {
		name  string
		lines string
		want  string
	}{
		{"invalid then valid", "Correct: E\nCorrect: B", "B"},
		{"valid then invalid keeps valid", "Correct: C\nCorrect: E", "C"},
		{"last valid wins", "Correct: A\nCorrect: D", "D"},
		{"lowercase ignored", "Correct: b\nCorrect: A", "A"},
		{"extra text ignored", "Correct: B) London\nCorrect: A", "A"},
		{"surrounding spaces trimmed", "   Correct:    B   ", "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := "Question: Q?\nA) a\nB) b\nC) c\nD) d\n" + tt.lines + "\n"
			got := parseResponse(reply, 1)
			if len(got) != 1 {
				t.Fatalf("expected 1 question, got %d", len(got))
			}
			if got[0].correct != tt.want {
				t.Errorf("correct = %q, want %q", got[0].correct, tt.want)
			}
		})
	}

	t.Run("only invalid drops the block", func(t *testing.T) {
		got := parseResponse("Question: Q?\nA) a\nB) b\nC) c\nD) d\nCorrect: E\n", 1)
		if len(got) != 0 {
			t.Errorf("expected no questions, got %d", len(got))
		}
	})
}

func TestParseResponseTruncates(t *testing.T) {
	got := parseResponse(blocks(12), 10)
	if len(got) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(got))
	}
	if got[0].text != "Q1?" || got[9].text != "Q10?" {
		t.Errorf("expected the first 10 blocks in order, got %q..%q", got[0].text, got[9].text)
	}
}

func TestParseResponseTolerance(t *testing.T) {
	reply := "Here you go:\n\n" +
		"  Question:   Spaced out?  \n" +
		"\tA)   one\n" +
		"B) two\n" +
		"B) two again\n" +
		"C) three\n" +
		"D)\n" +
		"Explanation: this line is not part of the format\n" +
		"Correct: A\n"
	got := parseResponse(reply, 5)
	if len(got) != 1 {
		t.Fatalf("expected 1 question, got %d", len(got))
	}
	q := got[0]
	if q.text != "Spaced out?" {
		t.Errorf("text = %q", q.text)
	}
	if q.options[0] != "one" {
		t.Errorf("option A = %q, want 'one'", q.options[0])
	}
	if q.options[1] != "two again" {
		t.Errorf("option B = %q, want the last occurrence", q.options[1])
	}
	if q.options[3] != "" {
		t.Errorf("option D = %q, want empty", q.options[3])
	}
}

func TestParseResponseMissingOptionLines(t *testing.T) {
	got := parseResponse("Question: Q?\nA) only one\nCorrect: A\n", 1)
	if len(got) != 1 {
		t.Fatalf("expected 1 question, got %d", len(got))
	}
	if got[0].options[1] != "" || got[0].options[2] != "" || got[0].options[3] != "" {
		t.Errorf("expected unset options to be empty, got %v", got[0].options)
	}
}

func TestPromptAndParserAgree(t *testing.T) {
	prompt := BuildPrompt("Science", "Physics", "Medium", 2)
	for _, m := range []string{questionMarker, correctMarker, "A)", "B)", "C)", "D)"} {
		if !strings.Contains(prompt, m) {
			t.Errorf("prompt does not mention marker %q", m)
		}
	}
}
