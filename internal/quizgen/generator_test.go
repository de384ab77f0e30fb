package quizgen

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/quizgen/quizgen/internal/model"
)

type fakeLLM struct {
	reply   string
	err     error
	panics  bool
	block   bool
	calls   int
	prompts []string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.panics {
		panic("boom")
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

type fakeAudit struct {
	entries []model.GenerationLog
	err     error
}

func (f *fakeAudit) LogGeneration(_ context.Context, e model.GenerationLog) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

const twoBlocks = `Question: What is the SI unit of force?
A) Newton
B) Joule
C) Watt
D) Pascal
Correct: A

Question: What does a voltmeter measure?
A) Current
B) Potential difference
C) Resistance
D) Power
Correct: B
`

func physicsRequest(count int) Request {
	return Request{
		Category:    "Science",
		Subcategory: "Physics",
		Difficulty:  model.DifficultyMedium,
		Count:       count,
	}
}

func TestGenerateEndToEnd(t *testing.T) {
	llm := &fakeLLM{reply: twoBlocks}
	audit := &fakeAudit{}
	g := NewGenerator(llm, audit, time.Second)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	uid := int64(7)
	req := physicsRequest(2)
	req.UserID = &uid
	got := g.Generate(context.Background(), req)

	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}
	if got[0].Text != "What is the SI unit of force?" || got[0].CorrectAnswer != "A" {
		t.Errorf("unexpected first question %+v", got[0])
	}
	if got[1].Options[1] != "Potential difference" || got[1].CorrectAnswer != "B" {
		t.Errorf("unexpected second question %+v", got[1])
	}
	if llm.calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", llm.calls)
	}

	if len(audit.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(audit.entries))
	}
	e := audit.entries[0]
	if e.QuestionsGenerated != 2 {
		t.Errorf("questions generated = %d, want 2", e.QuestionsGenerated)
	}
	if e.Category != "Science" || e.Subcategory != "Physics" || e.Difficulty != model.DifficultyMedium {
		t.Errorf("unexpected audit entry %+v", e)
	}
	if e.GeneratedBy == nil || *e.GeneratedBy != 7 {
		t.Errorf("generated by = %v, want 7", e.GeneratedBy)
	}
	if e.PromptUsed != llm.prompts[0] {
		t.Error("audit entry should carry the prompt that was sent")
	}
	if !e.CreatedAt.Equal(fixed) {
		t.Errorf("created at = %v, want %v", e.CreatedAt, fixed)
	}
	if e.GenerationID == "" {
		t.Error("expected a generation ID")
	}
}

func TestGenerateFallback(t *testing.T) {
	tests := []struct {
		name string
		llm  TextGenerator
	}{
		{"call error", &fakeLLM{err: errors.New("quota exceeded")}},
		{"call panics", &fakeLLM{panics: true}},
		{"call times out", &fakeLLM{block: true}},
		{"no parsable blocks", &fakeLLM{reply: "I cannot help with that."}},
		{"only incomplete blocks", &fakeLLM{reply: "Question: Q?\nA) a\nCorrect: Z\n"}},
		{"no client", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := &fakeAudit{}
			g := NewGenerator(tt.llm, audit, 10*time.Millisecond)

			got := g.Generate(context.Background(), physicsRequest(4))
			want := FallbackQuestions(4, "Science", "Physics", model.DifficultyMedium)
			if len(got) != 4 {
				t.Fatalf("expected 4 questions, got %d", len(got))
			}
			for i := range got {
				if got[i] != want[i] {
					t.Errorf("question %d = %+v, want fallback %+v", i, got[i], want[i])
				}
			}
			if len(audit.entries) != 0 {
				t.Errorf("expected no audit entry, got %d", len(audit.entries))
			}
		})
	}
}

func TestGenerateAuditFailureIgnored(t *testing.T) {
	audit := &fakeAudit{err: errors.New("disk full")}
	g := NewGenerator(&fakeLLM{reply: twoBlocks}, audit, time.Second)

	got := g.Generate(context.Background(), physicsRequest(2))
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}
	if got[0].Text == FallbackQuestions(1, "Science", "Physics", model.DifficultyMedium)[0].Text {
		t.Error("audit failure must not trigger the fallback")
	}
}

func TestGenerateFewerThanRequested(t *testing.T) {
	audit := &fakeAudit{}
	g := NewGenerator(&fakeLLM{reply: twoBlocks}, audit, time.Second)

	got := g.Generate(context.Background(), physicsRequest(5))
	if len(got) != 2 {
		t.Fatalf("expected the 2 parsed questions, got %d", len(got))
	}
	if len(audit.entries) != 1 || audit.entries[0].QuestionsGenerated != 5 {
		t.Errorf("expected one audit entry recording the requested count, got %+v", audit.entries)
	}
}

func TestGenerateTotal(t *testing.T) {
	difficulties := []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard}
	for _, d := range difficulties {
		for _, n := range []int{1, 3, 10, 25} {
			g := NewGenerator(&fakeLLM{err: errors.New("down")}, nil, time.Second)
			got := g.Generate(context.Background(), Request{Category: "History", Subcategory: "Rome", Difficulty: d, Count: n})
			if len(got) != n {
				t.Errorf("difficulty %s count %d: got %d questions", d, n, len(got))
			}
		}
	}
}

func TestGenerateNonPositiveCount(t *testing.T) {
	g := NewGenerator(nil, nil, time.Second)
	if got := g.Generate(context.Background(), physicsRequest(0)); len(got) != 1 {
		t.Errorf("expected count 0 to be treated as 1, got %d", len(got))
	}
}

func TestGenerateSendsBuiltPrompt(t *testing.T) {
	llm := &fakeLLM{reply: twoBlocks}
	g := NewGenerator(llm, nil, time.Second)
	g.Generate(context.Background(), physicsRequest(2))

	want := BuildPrompt("Science", "Physics", model.DifficultyMedium, 2)
	if len(llm.prompts) != 1 || llm.prompts[0] != want {
		t.Errorf("prompt sent = %q, want %q", llm.prompts, want)
	}
	if !strings.Contains(want, "Generate exactly 2 multiple-choice quiz questions about Physics under Science category") {
		t.Errorf("prompt does not request the count and topic: %q", want)
	}
}

func TestCallWrapsExternalError(t *testing.T) {
	g := NewGenerator(&fakeLLM{err: errors.New("401")}, nil, time.Second)
	_, err := g.call(context.Background(), "p")
	if !errors.Is(err, ErrExternalService) {
		t.Errorf("expected ErrExternalService, got %v", err)
	}
}

func TestRecordWrapsAuditError(t *testing.T) {
	g := NewGenerator(nil, &fakeAudit{err: errors.New("locked")}, time.Second)
	err := g.record(context.Background(), "id", physicsRequest(1), "p")
	if !errors.Is(err, ErrAuditWrite) {
		t.Errorf("expected ErrAuditWrite, got %v", err)
	}
}
