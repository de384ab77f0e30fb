package model

import "time"

// HistoryExport is the top-level JSON structure for quiz history export.
type HistoryExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	Results    []AttemptResult `json:"results"`
}

// AttemptResult holds one quiz attempt for export.
type AttemptResult struct {
	Username       string         `json:"username"`
	DisplayName    string         `json:"display_name"`
	QuizTitle      string         `json:"quiz_title"`
	Difficulty     Difficulty     `json:"difficulty"`
	IsAIGenerated  bool           `json:"is_ai_generated"`
	Score          float64        `json:"score"`
	CorrectAnswers int            `json:"correct_answers"`
	TotalQuestions int            `json:"total_questions"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	Answers        []AnswerResult `json:"answers"`
}

// AnswerResult holds per-question data for export.
type AnswerResult struct {
	Text           string `json:"text"`
	SelectedOption string `json:"selected_option"`
	CorrectAnswer  string `json:"correct_answer"`
	IsCorrect      bool   `json:"is_correct"`
	TimeTaken      int    `json:"time_taken"`
}
