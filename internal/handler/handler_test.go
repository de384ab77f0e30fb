package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/quizgen/quizgen/internal/assistant"
	appI18n "github.com/quizgen/quizgen/internal/i18n"
	"github.com/quizgen/quizgen/internal/model"
	"github.com/quizgen/quizgen/internal/quiz"
	"github.com/quizgen/quizgen/internal/quizgen"
	"github.com/quizgen/quizgen/internal/store"
)

const testCSRFToken = "test-csrf-token"

const twoBlocks = `Question: Unit of force?
A) Newton
B) Joule
C) Watt
D) Pascal
Correct: A

Question: Unit of energy?
A) Newton
B) Joule
C) Watt
D) Pascal
Correct: B`

type fakeLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type fakeChatter struct {
	reply string
	err   error
}

func (f *fakeChatter) Chat(context.Context, string, string) (string, error) {
	return f.reply, f.err
}

type testEnv struct {
	t      *testing.T
	store  *store.Store
	router http.Handler
	llm    *fakeLLM
	chat   *fakeChatter
	cat    int64
	sub    int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	e := &testEnv{t: t, store: s, llm: &fakeLLM{reply: twoBlocks}, chat: &fakeChatter{reply: "Try Physics!"}}
	gen := quizgen.NewGenerator(e.llm, s, time.Second)
	a := assistant.New(e.chat, s, time.Second)
	a.Fallback = func(ctx context.Context) string { return appI18n.T(ctx, "ChatFallback") }

	h, err := New(s, quiz.NewService(s, gen), a, model.AppConfig{
		DefaultQuestions: 3,
		MaxQuestions:     5,
		SessionSecret:    "0123456789abcdef0123456789abcdef",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r := chi.NewRouter()
	r.Use(appI18n.Middleware("en"))
	r.Use(h.BasePathMiddleware)
	h.Routes(r)
	e.router = r

	e.cat, _ = s.CreateCategory(model.Category{Name: "Science"})
	e.sub, _ = s.CreateSubCategory(model.SubCategory{CategoryID: e.cat, Name: "Physics"})
	return e
}

func (e *testEnv) createUser(username, password string, role model.UserRole) *model.User {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		e.t.Fatalf("hash: %v", err)
	}
	id, err := e.store.CreateUser(model.User{
		Username:     username,
		DisplayName:  username,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	})
	if err != nil {
		e.t.Fatalf("CreateUser: %v", err)
	}
	u, _ := e.store.GetUserByID(id)
	return u
}

func (e *testEnv) login(u *model.User) *http.Cookie {
	e.t.Helper()
	token, err := e.store.CreateAuthSession(u.ID)
	if err != nil {
		e.t.Fatalf("CreateAuthSession: %v", err)
	}
	return &http.Cookie{Name: sessionCookieName, Value: token}
}

func (e *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// jsonRequest builds a request carrying a valid CSRF cookie and header.
func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if method != http.MethodGet {
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testCSRFToken})
		req.Header.Set(csrfHeaderName, testCSRFToken)
	}
	return req
}

// formRequest builds a form POST with the CSRF token in the body.
func formRequest(target string, values url.Values) *http.Request {
	values.Set("csrf_token", testCSRFToken)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testCSRFToken})
	return req
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestRequireAuth(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for API, got %d", rec.Code)
	}

	inactive := e.createUser("ghost", "password123", model.UserRoleStudent)
	cookie := e.login(inactive)
	_ = e.store.ToggleUserActive(inactive.ID)
	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/history", nil), cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for inactive user, got %d", rec.Code)
	}
}

func TestCSRF(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(e.createUser("alice", "password123", model.UserRoleStudent))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	if rec := e.do(req, cookie); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 without CSRF cookie, got %d", rec.Code)
	}

	req = jsonRequest(http.MethodPost, "/api/chat", map[string]string{"message": "hi"})
	req.Header.Set(csrfHeaderName, "wrong-token-wrong-token")
	if rec := e.do(req, cookie); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for mismatched token, got %d", rec.Code)
	}

	rec := e.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	if c := findCookie(rec, csrfCookieName); c == nil || c.Value == "" {
		t.Error("GET should issue a CSRF cookie")
	}
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	e.createUser("alice", "password123", model.UserRoleStudent)

	rec := e.do(formRequest("/login", url.Values{"username": {"alice"}, "password": {"wrong"}}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid username or password.") {
		t.Error("expected localized login error")
	}

	rec = e.do(formRequest("/login", url.Values{"username": {"alice"}, "password": {"password123"}}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	session := findCookie(rec, sessionCookieName)
	if session == nil || session.Value == "" {
		t.Fatal("expected session cookie")
	}

	rec = e.do(httptest.NewRequest(http.MethodGet, "/", nil), session)
	if rec.Code != http.StatusOK {
		t.Errorf("expected dashboard, got %d", rec.Code)
	}

	rec = e.do(formRequest("/logout", url.Values{}), session)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after logout, got %d", rec.Code)
	}
	sess, _ := e.store.GetAuthSession(session.Value)
	if sess != nil {
		t.Error("logout should delete the auth session")
	}
}

func TestRegister(t *testing.T) {
	e := newTestEnv(t)
	e.createUser("taken", "password123", model.UserRoleStudent)

	tests := []struct {
		name   string
		values url.Values
		status int
	}{
		{"short password", url.Values{"username": {"bob"}, "password": {"short"}, "password_confirm": {"short"}}, http.StatusBadRequest},
		{"bad username", url.Values{"username": {"b o"}, "password": {"password123"}, "password_confirm": {"password123"}}, http.StatusBadRequest},
		{"mismatch", url.Values{"username": {"bob"}, "password": {"password123"}, "password_confirm": {"password124"}}, http.StatusBadRequest},
		{"taken", url.Values{"username": {"taken"}, "password": {"password123"}, "password_confirm": {"password123"}}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := e.do(formRequest("/register", tt.values)); rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}

	rec := e.do(formRequest("/register", url.Values{
		"username": {"bob"}, "display_name": {"Bob B."},
		"password": {"password123"}, "password_confirm": {"password123"},
	}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", rec.Code, rec.Body.String())
	}
	u, _ := e.store.GetUserByUsername("bob")
	if u == nil || u.Role != model.UserRoleStudent || u.DisplayName != "Bob B." {
		t.Fatalf("unexpected user %+v", u)
	}

	// The welcome flash shows up once on the next page.
	session := findCookie(rec, sessionCookieName)
	flash := findCookie(rec, flashSessionName)
	if flash == nil {
		t.Fatal("expected flash cookie")
	}
	rec = e.do(httptest.NewRequest(http.MethodGet, "/", nil), session, flash)
	if !strings.Contains(rec.Body.String(), "Welcome, Bob B.!") {
		t.Error("expected welcome flash on dashboard")
	}
	cleared := findCookie(rec, flashSessionName)
	rec = e.do(httptest.NewRequest(http.MethodGet, "/", nil), session, cleared)
	if strings.Contains(rec.Body.String(), "Welcome, Bob B.!") {
		t.Error("flash should be shown only once")
	}
}

func TestGenerateQuizAPI(t *testing.T) {
	e := newTestEnv(t)
	user := e.createUser("alice", "password123", model.UserRoleStudent)
	cookie := e.login(user)

	rec := e.do(jsonRequest(http.MethodPost, "/api/generate-quiz", map[string]any{
		"category_id":    e.cat,
		"subcategory_id": e.sub,
		"difficulty":     "e",
		"num_questions":  2,
	}), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[struct {
		Success bool   `json:"success"`
		QuizID  int64  `json:"quiz_id"`
		Message string `json:"message"`
	}](t, rec)
	if !resp.Success || resp.Message != "Generated 2 questions" {
		t.Errorf("unexpected response %+v", resp)
	}

	qz, _ := e.store.GetQuiz(resp.QuizID)
	if qz == nil || qz.Title != "AI Generated Quiz - Physics" || qz.Difficulty != model.DifficultyEasy {
		t.Errorf("unexpected quiz %+v", qz)
	}
	qs, _ := e.store.ListQuestions(resp.QuizID)
	if len(qs) != 2 || qs[1].CorrectAnswer != "B" || !qs[0].IsAIGenerated {
		t.Errorf("unexpected questions %+v", qs)
	}

	logs, _ := e.store.ListGenerationLogs(0)
	if len(logs) != 1 {
		t.Fatalf("expected 1 generation log, got %d", len(logs))
	}
	if logs[0].QuestionsGenerated != 2 || *logs[0].GeneratedBy != user.ID || *logs[0].SubCategoryID != e.sub {
		t.Errorf("unexpected generation log %+v", logs[0])
	}
}

func TestGenerateQuizAPIDefaultsAndClamp(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(e.createUser("alice", "password123", model.UserRoleStudent))

	rec := e.do(jsonRequest(http.MethodPost, "/api/generate-quiz", map[string]any{
		"category_id":    e.cat,
		"subcategory_id": e.sub,
		"num_questions":  500,
	}), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(e.llm.prompts[0], "Generate exactly 5 ") {
		t.Errorf("expected count clamped to 5 in prompt: %q", e.llm.prompts[0])
	}
	if !strings.Contains(e.llm.prompts[0], "Difficulty: Medium.") {
		t.Errorf("expected default difficulty Medium in prompt: %q", e.llm.prompts[0])
	}

	e.do(jsonRequest(http.MethodPost, "/api/generate-quiz", map[string]any{
		"category_id": e.cat, "subcategory_id": e.sub,
	}), cookie)
	if !strings.Contains(e.llm.prompts[1], "Generate exactly 3 ") {
		t.Errorf("expected default count 3 in prompt: %q", e.llm.prompts[1])
	}

	e.do(jsonRequest(http.MethodPost, "/api/generate-quiz", map[string]any{
		"category_id": e.cat, "subcategory_id": e.sub, "num_questions": 0,
	}), cookie)
	if !strings.Contains(e.llm.prompts[2], "Generate exactly 1 ") {
		t.Errorf("expected count raised to 1 in prompt: %q", e.llm.prompts[2])
	}
}

func TestGenerateQuizAPIFallback(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(e.createUser("alice", "password123", model.UserRoleStudent))
	e.llm.err = errors.New("service down")

	rec := e.do(jsonRequest(http.MethodPost, "/api/generate-quiz", map[string]any{
		"category_id": e.cat, "subcategory_id": e.sub, "difficulty": "H", "num_questions": 4,
	}), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[struct {
		QuizID  int64  `json:"quiz_id"`
		Message string `json:"message"`
	}](t, rec)
	if resp.Message != "Generated 4 questions" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	qs, _ := e.store.ListQuestions(resp.QuizID)
	if len(qs) != 4 || qs[0].Text != "Hard question 1 about Physics: What is the main topic?" {
		t.Errorf("expected fallback questions, got %+v", qs)
	}
	if logs, _ := e.store.ListGenerationLogs(0); len(logs) != 0 {
		t.Errorf("fallback must not write a generation log, got %d", len(logs))
	}
}

func TestGenerateQuizAPIErrors(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(e.createUser("alice", "password123", model.UserRoleStudent))

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"missing category", map[string]any{"category_id": 999, "subcategory_id": e.sub}, http.StatusNotFound},
		{"missing subcategory", map[string]any{"category_id": e.cat, "subcategory_id": 999}, http.StatusNotFound},
		{"bad difficulty", map[string]any{"category_id": e.cat, "subcategory_id": e.sub, "difficulty": "X"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(jsonRequest(http.MethodPost, "/api/generate-quiz", tt.body), cookie)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
	if len(e.llm.prompts) != 0 {
		t.Errorf("the model should not be called for rejected requests")
	}
}

func TestCategoriesAPI(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(e.createUser("alice", "password123", model.UserRoleStudent))
	_, _ = e.store.CreateSubCategory(model.SubCategory{CategoryID: e.cat, Name: "Chemistry"})

	rec := e.do(httptest.NewRequest(http.MethodGet, "/api/subcategories/"+itoa(e.cat), nil), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	subs := decode[[]subcategoryResponse](t, rec)
	if len(subs) != 2 || subs[0].Name != "Chemistry" || subs[1].ID != e.sub {
		t.Errorf("unexpected subcategories %+v", subs)
	}

	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/subcategories/999", nil), cookie)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/categories", nil), cookie)
	cats := decode[[]model.Category](t, rec)
	if len(cats) != 1 || len(cats[0].Subcategories) != 2 {
		t.Errorf("unexpected categories %+v", cats)
	}
}

func TestQuizFlowAPI(t *testing.T) {
	e := newTestEnv(t)
	alice := e.login(e.createUser("alice", "password123", model.UserRoleStudent))
	bob := e.login(e.createUser("bob", "password123", model.UserRoleStudent))

	rec := e.do(jsonRequest(http.MethodPost, "/api/generate-quiz", map[string]any{
		"category_id": e.cat, "subcategory_id": e.sub, "num_questions": 2,
	}), alice)
	quizID := decode[struct {
		QuizID int64 `json:"quiz_id"`
	}](t, rec).QuizID

	rec = e.do(jsonRequest(http.MethodPost, "/api/quizzes/"+itoa(quizID)+"/start", nil), alice)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "correct_answer") {
		t.Error("start response must not reveal correct answers")
	}
	attempt := decode[quiz.Attempt](t, rec)
	if len(attempt.Questions) != 2 || attempt.TimeLimitSeconds != 600 {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
	if attempt.Questions[0].Options["A"] != "Newton" {
		t.Errorf("unexpected options %v", attempt.Questions[0].Options)
	}
	hid := itoa(attempt.HistoryID)

	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/next-question/"+hid, nil), alice)
	next := decode[model.QuestionView](t, rec)
	if next.ID != attempt.Questions[0].ID || next.Text != "Unit of force?" {
		t.Errorf("unexpected next question %+v", next)
	}

	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/next-question/"+hid, nil), bob)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another user's attempt, got %d", rec.Code)
	}

	rec = e.do(jsonRequest(http.MethodPost, "/api/submit-quiz", map[string]any{
		"quiz_history_id": attempt.HistoryID,
		"time_taken":      42,
		"answers": map[string]any{
			itoa(attempt.Questions[0].ID): map[string]any{"selected_option": "A", "time_taken": 20},
			itoa(attempt.Questions[1].ID): map[string]any{"selected_option": "C", "time_taken": 22},
		},
	}), alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	h := decode[model.QuizHistory](t, rec)
	if h.CorrectAnswers != 1 || h.Score != 50 || h.CompletedAt == nil {
		t.Errorf("unexpected result %+v", h)
	}

	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/next-question/"+hid, nil), alice)
	if got := decode[map[string]bool](t, rec); !got["completed"] {
		t.Errorf("expected completed, got %s", rec.Body.String())
	}

	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/results/"+hid, nil), alice)
	view := decode[model.HistoryView](t, rec)
	if len(view.Answers) != 2 || view.Answers[1].Question.CorrectAnswer != "B" {
		t.Errorf("unexpected results %+v", view)
	}

	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/history", nil), alice)
	if list := decode[[]model.QuizHistory](t, rec); len(list) != 1 {
		t.Errorf("expected 1 attempt, got %d", len(list))
	}
	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/history", nil), bob)
	if rec.Body.String() != "[]\n" {
		t.Errorf("expected empty list for bob, got %q", rec.Body.String())
	}

	rec = e.do(jsonRequest(http.MethodPost, "/api/submit-quiz", map[string]any{"quiz_history_id": attempt.HistoryID}), alice)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 on second submit, got %d", rec.Code)
	}
}

func TestChatAPI(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(e.createUser("alice", "password123", model.UserRoleStudent))

	chat := func(msg string) string {
		rec := e.do(jsonRequest(http.MethodPost, "/api/chat", map[string]string{"message": msg}), cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		return decode[map[string]string](t, rec)["reply"]
	}

	if got := chat("   "); got != "Please type something." {
		t.Errorf("blank message reply = %q", got)
	}
	if got := chat("what next?"); got != "Try Physics!" {
		t.Errorf("reply = %q", got)
	}

	e.chat.err = errors.New("down")
	if got := chat("what next?"); got != "Sorry, I couldn't generate a response right now." {
		t.Errorf("fallback reply = %q", got)
	}

	req := jsonRequest(http.MethodPost, "/api/chat?lang=ru", map[string]string{"message": "  "})
	rec := e.do(req, cookie)
	if got := decode[map[string]string](t, rec)["reply"]; got != "Пожалуйста, введите сообщение." {
		t.Errorf("localized blank reply = %q", got)
	}
}

func TestAdminAccess(t *testing.T) {
	e := newTestEnv(t)
	student := e.login(e.createUser("alice", "password123", model.UserRoleStudent))
	admin := e.login(e.createUser("root", "password123", model.UserRoleAdmin))

	rec := e.do(httptest.NewRequest(http.MethodGet, "/admin/generation-logs", nil), student)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for student, got %d", rec.Code)
	}

	e.do(jsonRequest(http.MethodPost, "/api/generate-quiz", map[string]any{
		"category_id": e.cat, "subcategory_id": e.sub, "num_questions": 2,
	}), student)

	rec = e.do(httptest.NewRequest(http.MethodGet, "/admin/generation-logs", nil), admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
	logs := decode[[]model.GenerationLog](t, rec)
	if len(logs) != 1 || logs[0].Category != "Science" || logs[0].Subcategory != "Physics" {
		t.Errorf("unexpected logs %+v", logs)
	}

	rec = e.do(httptest.NewRequest(http.MethodGet, "/admin/generation-logs?limit=-1", nil), admin)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative limit, got %d", rec.Code)
	}

	rec = e.do(httptest.NewRequest(http.MethodGet, "/admin/users", nil), admin)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "alice") {
		t.Errorf("expected user list, got %d", rec.Code)
	}
}

func TestAdminToggleUser(t *testing.T) {
	e := newTestEnv(t)
	target := e.createUser("alice", "password123", model.UserRoleStudent)
	targetSession := e.login(target)
	admin := e.login(e.createUser("root", "password123", model.UserRoleAdmin))

	rec := e.do(formRequest("/admin/users/"+itoa(target.ID)+"/toggle", url.Values{}), admin)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	u, _ := e.store.GetUserByID(target.ID)
	if u.Active {
		t.Error("expected user to be deactivated")
	}
	if sess, _ := e.store.GetAuthSession(targetSession.Value); sess != nil {
		t.Error("deactivation should end the user's sessions")
	}
}

func TestUploadCategories(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(e.createUser("root", "password123", model.UserRoleAdmin))

	upload := func(content string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		_ = mw.WriteField("csrf_token", testCSRFToken)
		fw, _ := mw.CreateFormFile("categories_file", "seed.json")
		_, _ = fw.Write([]byte(content))
		_ = mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/admin/categories", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testCSRFToken})
		return e.do(req, admin)
	}

	seed := `[{"name": "History", "subcategories": [{"name": "Rome", "quizzes": [
		{"title": "Emperors", "difficulty": "M", "questions": [
			{"text": "First emperor?", "options": ["Augustus", "Nero", "Caesar", "Trajan"], "correct_answer": "A"}
		]}
	]}]}]`

	rec := upload(seed)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", rec.Code, rec.Body.String())
	}
	cats, _ := e.store.ListCategories()
	if len(cats) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(cats))
	}
	hash, _ := e.store.GetImportedFileHash("seed.json")
	if hash == "" {
		t.Error("expected import hash to be recorded")
	}

	// Re-uploading the same file imports nothing.
	upload(seed)
	rome := cats[0].Subcategories[0]
	quizzes, _ := e.store.ListQuizzes(rome.ID)
	if len(quizzes) != 1 {
		t.Errorf("expected 1 quiz after duplicate upload, got %d", len(quizzes))
	}

	rec = upload("not json")
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected redirect for invalid file, got %d", rec.Code)
	}
}

func TestPages(t *testing.T) {
	e := newTestEnv(t)
	user := e.createUser("alice", "password123", model.UserRoleStudent)
	cookie := e.login(user)
	quizID, _ := e.store.CreateQuiz(model.Quiz{
		Title: "Forces <basics>", CategoryID: e.cat, SubCategoryID: e.sub, Difficulty: model.DifficultyEasy,
	}, []model.Question{
		{Text: "Unit of force?", Option1: "Newton", Option2: "Joule", Option3: "Watt", Option4: "Pascal", CorrectAnswer: "A", Difficulty: model.DifficultyEasy},
	})

	rec := e.do(httptest.NewRequest(http.MethodGet, "/", nil), cookie)
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, "Physics") || !strings.Contains(body, "Generate a quiz with AI") {
		t.Errorf("unexpected dashboard %d", rec.Code)
	}
	if !strings.Contains(body, "Forces &lt;basics&gt;") {
		t.Error("quiz titles must be escaped")
	}

	rec = e.do(formRequest("/quiz/"+itoa(quizID)+"/start", url.Values{}), cookie)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Unit of force?") {
		t.Errorf("unexpected quiz page %d", rec.Code)
	}

	emptyID, _ := e.store.CreateQuiz(model.Quiz{Title: "Empty", CategoryID: e.cat, SubCategoryID: e.sub, Difficulty: model.DifficultyEasy}, nil)
	rec = e.do(formRequest("/quiz/"+itoa(emptyID)+"/start", url.Values{}), cookie)
	if rec.Code != http.StatusSeeOther || findCookie(rec, flashSessionName) == nil {
		t.Errorf("expected redirect with flash for empty quiz, got %d", rec.Code)
	}

	rec = e.do(httptest.NewRequest(http.MethodGet, "/history", nil), cookie)
	if rec.Code != http.StatusOK {
		t.Errorf("unexpected history page %d", rec.Code)
	}

	rec = e.do(formRequest("/profile", url.Values{"display_name": {"Alice A."}}), cookie)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected redirect after profile update, got %d", rec.Code)
	}
	u, _ := e.store.GetUserByID(user.ID)
	if u.DisplayName != "Alice A." {
		t.Errorf("expected display name updated, got %q", u.DisplayName)
	}

	rec = e.do(httptest.NewRequest(http.MethodGet, "/results/9999", nil), cookie)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing results, got %d", rec.Code)
	}
}
