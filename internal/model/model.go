package model

import (
	"context"
	"strings"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a regular quiz taker.
	UserRoleStudent UserRole = "student"
	// UserRoleAdmin can manage users, categories and generation logs.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

// Difficulty represents quiz and question difficulty.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty accepts a one-letter code (E, M, H) or a full name,
// case-insensitively.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "e", "easy":
		return DifficultyEasy, true
	case "m", "medium":
		return DifficultyMedium, true
	case "h", "hard":
		return DifficultyHard, true
	}
	return "", false
}

// Code returns the one-letter code of the difficulty.
func (d Difficulty) Code() string {
	if d == "" {
		return ""
	}
	return string(d[0])
}

// Category is a top-level quiz subject.
type Category struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	CreatedAt     time.Time     `json:"created_at"`
	Subcategories []SubCategory `json:"subcategories,omitempty"`
}

// SubCategory narrows a category.
type SubCategory struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// DefaultTimeLimitMinutes is used for quizzes created without a time limit.
const DefaultTimeLimitMinutes = 10

// Quiz is an ordered set of questions, authored or generated.
type Quiz struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	CategoryID       int64      `json:"category_id"`
	SubCategoryID    int64      `json:"subcategory_id"`
	Difficulty       Difficulty `json:"difficulty"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	IsAIGenerated    bool       `json:"is_ai_generated"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Question is a stored multiple-choice question. CorrectAnswer is a letter
// A-D and is never sent to a client before the attempt is scored.
type Question struct {
	ID            int64      `json:"id"`
	QuizID        int64      `json:"quiz_id"`
	Text          string     `json:"text"`
	Option1       string     `json:"option1"`
	Option2       string     `json:"option2"`
	Option3       string     `json:"option3"`
	Option4       string     `json:"option4"`
	CorrectAnswer string     `json:"correct_answer"`
	Difficulty    Difficulty `json:"difficulty"`
	IsAIGenerated bool       `json:"is_ai_generated"`
}

// QuestionView is the wire form of a question handed to a quiz taker.
type QuestionView struct {
	ID      int64             `json:"id"`
	Text    string            `json:"text"`
	Options map[string]string `json:"options"`
}

// View returns the question without its correct answer.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:   q.ID,
		Text: q.Text,
		Options: map[string]string{
			"A": q.Option1,
			"B": q.Option2,
			"C": q.Option3,
			"D": q.Option4,
		},
	}
}

// QuizHistory is one attempt of a user at a quiz.
type QuizHistory struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"user_id"`
	QuizID             int64      `json:"quiz_id"`
	Score              float64    `json:"score"`
	CorrectAnswers     int        `json:"correct_answers"`
	TotalQuestions     int        `json:"total_questions"`
	SelectedDifficulty Difficulty `json:"selected_difficulty"`
	TimeTaken          int        `json:"time_taken"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// UserAnswer is the answer to a single question within an attempt.
type UserAnswer struct {
	ID             int64  `json:"id"`
	HistoryID      int64  `json:"history_id"`
	QuestionID     int64  `json:"question_id"`
	SelectedOption string `json:"selected_option"`
	IsCorrect      bool   `json:"is_correct"`
	TimeTaken      int    `json:"time_taken"`
}

// GenerationLog records one successful AI generation. Entries are never
// updated after they are written.
type GenerationLog struct {
	ID                 int64      `json:"id"`
	GenerationID       string     `json:"generation_id"`
	Category           string     `json:"category"`
	Subcategory        string     `json:"subcategory"`
	CategoryID         *int64     `json:"category_id,omitempty"`
	SubCategoryID      *int64     `json:"subcategory_id,omitempty"`
	Difficulty         Difficulty `json:"difficulty"`
	QuestionsGenerated int        `json:"questions_generated"`
	GeneratedBy        *int64     `json:"generated_by,omitempty"`
	PromptUsed         string     `json:"prompt_used"`
	CreatedAt          time.Time  `json:"created_at"`
}

// AnsweredQuestion pairs a stored answer with its question for result pages.
type AnsweredQuestion struct {
	Question Question   `json:"question"`
	Answer   UserAnswer `json:"answer"`
}

// HistoryView combines an attempt with its quiz and answers.
type HistoryView struct {
	History QuizHistory        `json:"history"`
	Quiz    Quiz               `json:"quiz"`
	Answers []AnsweredQuestion `json:"answers"`
}

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	DefaultQuestions int    // used when a request omits num_questions
	MaxQuestions     int    // upper bound on num_questions
	BasePath         string // URL prefix for sub-path deployments (e.g. "/quiz")
	SecureCookies    bool   // Set Secure flag on cookies (disable for local dev)
	SessionSecret    string // key for flash message cookies
}

// CategoryImport is used for loading categories, subcategories and authored
// quizzes from JSON.
type CategoryImport struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Subcategories []SubCategoryImport `json:"subcategories"`
}

// SubCategoryImport is a subcategory with optional authored quizzes.
type SubCategoryImport struct {
	Name    string       `json:"name"`
	Quizzes []QuizImport `json:"quizzes"`
}

// QuizImport is an authored quiz.
type QuizImport struct {
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Difficulty       string           `json:"difficulty"`
	TimeLimitMinutes int              `json:"time_limit_minutes"`
	Questions        []QuestionImport `json:"questions"`
}

// QuestionImport is an authored question; Options are A-D in order.
type QuestionImport struct {
	Text          string    `json:"text"`
	Options       [4]string `json:"options"`
	CorrectAnswer string    `json:"correct_answer"`
}
