package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/quizgen/quizgen/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestUser(t *testing.T, s *Store, username string) int64 {
	t.Helper()
	id, err := s.CreateUser(model.User{
		Username:     username,
		DisplayName:  username,
		PasswordHash: "hash",
		Role:         model.UserRoleStudent,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("insertTestUser: %v", err)
	}
	return id
}

// insertTestQuiz creates Science/Physics and a quiz with n questions whose
// correct answers cycle through A-D.
func insertTestQuiz(t *testing.T, s *Store, n int) (quizID int64, questionIDs []int64) {
	t.Helper()
	catID, err := s.CreateCategory(model.Category{Name: "Science"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	subID, err := s.CreateSubCategory(model.SubCategory{CategoryID: catID, Name: "Physics"})
	if err != nil {
		t.Fatalf("CreateSubCategory: %v", err)
	}

	letters := []string{"A", "B", "C", "D"}
	var questions []model.Question
	for i := range n {
		questions = append(questions, model.Question{
			Text:          "Q" + string(rune('1'+i)),
			Option1:       "a",
			Option2:       "b",
			Option3:       "c",
			Option4:       "d",
			CorrectAnswer: letters[i%4],
			Difficulty:    model.DifficultyEasy,
		})
	}
	quizID, err = s.CreateQuiz(model.Quiz{
		Title:         "Physics basics",
		CategoryID:    catID,
		SubCategoryID: subID,
		Difficulty:    model.DifficultyEasy,
	}, questions)
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}

	qs, err := s.ListQuestions(quizID)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	for _, q := range qs {
		questionIDs = append(questionIDs, q.ID)
	}
	return quizID, questionIDs
}

func TestCategories(t *testing.T) {
	s := newTestStore(t)

	list, err := s.ListCategories()
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}

	sciID, err := s.CreateCategory(model.Category{Name: "Science", Description: "Natural sciences"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	again, err := s.CreateCategory(model.Category{Name: "Science"})
	if err != nil {
		t.Fatalf("CreateCategory duplicate: %v", err)
	}
	if again != sciID {
		t.Errorf("expected duplicate name to return id %d, got %d", sciID, again)
	}
	histID, _ := s.CreateCategory(model.Category{Name: "History"})

	for _, name := range []string{"Physics", "Chemistry"} {
		if _, err := s.CreateSubCategory(model.SubCategory{CategoryID: sciID, Name: name}); err != nil {
			t.Fatalf("CreateSubCategory: %v", err)
		}
	}
	if _, err := s.CreateSubCategory(model.SubCategory{CategoryID: histID, Name: "Rome"}); err != nil {
		t.Fatalf("CreateSubCategory: %v", err)
	}

	list, err = s.ListCategories()
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(list))
	}
	// Ordered by name.
	if list[0].Name != "History" || list[1].Name != "Science" {
		t.Errorf("unexpected order: %q, %q", list[0].Name, list[1].Name)
	}
	if len(list[1].Subcategories) != 2 || list[1].Subcategories[0].Name != "Chemistry" {
		t.Errorf("unexpected subcategories %+v", list[1].Subcategories)
	}

	names, err := s.CategoryNames()
	if err != nil {
		t.Fatalf("CategoryNames: %v", err)
	}
	if len(names) != 2 || names[0] != "History" {
		t.Errorf("unexpected names %v", names)
	}

	cat, err := s.GetCategory(sciID)
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if cat == nil || cat.Description != "Natural sciences" {
		t.Errorf("unexpected category %+v", cat)
	}
	cat, err = s.GetCategory(9999)
	if err != nil || cat != nil {
		t.Errorf("expected nil, nil for missing category, got %+v, %v", cat, err)
	}

	sub, err := s.GetSubCategory(9999)
	if err != nil || sub != nil {
		t.Errorf("expected nil, nil for missing subcategory, got %+v, %v", sub, err)
	}
}

func TestQuizCRUD(t *testing.T) {
	s := newTestStore(t)
	quizID, ids := insertTestQuiz(t, s, 3)

	qz, err := s.GetQuiz(quizID)
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if qz.Title != "Physics basics" {
		t.Errorf("expected title 'Physics basics', got %q", qz.Title)
	}
	if qz.TimeLimitMinutes != model.DefaultTimeLimitMinutes {
		t.Errorf("expected default time limit, got %d", qz.TimeLimitMinutes)
	}

	count, err := s.QuestionCount(quizID)
	if err != nil {
		t.Fatalf("QuestionCount: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 questions, got %d", count)
	}

	q, err := s.GetQuestion(ids[1])
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if q.CorrectAnswer != "B" || q.QuizID != quizID {
		t.Errorf("unexpected question %+v", q)
	}

	_, err = s.GetQuestion(9999)
	if err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}

	missing, err := s.GetQuiz(9999)
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing quiz, got %+v, %v", missing, err)
	}

	quizzes, err := s.ListQuizzes(qz.SubCategoryID)
	if err != nil {
		t.Fatalf("ListQuizzes: %v", err)
	}
	if len(quizzes) != 1 {
		t.Errorf("expected 1 quiz, got %d", len(quizzes))
	}
}

func TestHistoryLifecycle(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "alice")
	quizID, ids := insertTestQuiz(t, s, 3)

	histID, err := s.CreateHistory(model.QuizHistory{
		UserID:             userID,
		QuizID:             quizID,
		TotalQuestions:     3,
		SelectedDifficulty: model.DifficultyEasy,
	})
	if err != nil {
		t.Fatalf("CreateHistory: %v", err)
	}

	h, err := s.GetHistory(histID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if h.CompletedAt != nil {
		t.Error("expected nil completed_at")
	}

	next, err := s.NextUnansweredQuestion(histID)
	if err != nil {
		t.Fatalf("NextUnansweredQuestion: %v", err)
	}
	if next == nil || next.ID != ids[0] {
		t.Fatalf("expected first question, got %+v", next)
	}

	h.Score = 200.0 / 3
	h.CorrectAnswers = 2
	h.TimeTaken = 42
	err = s.CompleteHistory(*h, []model.UserAnswer{
		{QuestionID: ids[0], SelectedOption: "A", IsCorrect: true, TimeTaken: 10},
		{QuestionID: ids[1], SelectedOption: "B", IsCorrect: true, TimeTaken: 12},
	})
	if err != nil {
		t.Fatalf("CompleteHistory: %v", err)
	}

	next, err = s.NextUnansweredQuestion(histID)
	if err != nil {
		t.Fatalf("NextUnansweredQuestion: %v", err)
	}
	if next == nil || next.ID != ids[2] {
		t.Fatalf("expected third question, got %+v", next)
	}

	h, _ = s.GetHistory(histID)
	if h.CorrectAnswers != 2 || h.CompletedAt == nil || h.TimeTaken != 42 {
		t.Errorf("unexpected history after completion %+v", h)
	}

	view, err := s.GetHistoryView(histID)
	if err != nil {
		t.Fatalf("GetHistoryView: %v", err)
	}
	if len(view.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(view.Answers))
	}
	if view.Answers[1].Question.ID != ids[1] || !view.Answers[1].Answer.IsCorrect {
		t.Errorf("unexpected answer %+v", view.Answers[1])
	}

	h, _ = s.GetHistory(histID)
	err = s.CompleteHistory(*h, []model.UserAnswer{
		{QuestionID: ids[2], SelectedOption: "C", IsCorrect: true, TimeTaken: 5},
	})
	if !errors.Is(err, ErrHistoryCompleted) {
		t.Errorf("expected ErrHistoryCompleted on second completion, got %v", err)
	}
	answers, _ := s.ListAnswers(histID)
	if len(answers) != 2 {
		t.Errorf("expected 2 answers after rejected completion, got %d", len(answers))
	}

	missing, err := s.GetHistoryView(9999)
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing history, got %+v, %v", missing, err)
	}
}

func TestListHistoriesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	alice := insertTestUser(t, s, "alice")
	bob := insertTestUser(t, s, "bob")
	quizID, _ := insertTestQuiz(t, s, 1)

	var ids []int64
	for _, uid := range []int64{alice, alice, bob} {
		id, err := s.CreateHistory(model.QuizHistory{UserID: uid, QuizID: quizID, SelectedDifficulty: model.DifficultyEasy})
		if err != nil {
			t.Fatalf("CreateHistory: %v", err)
		}
		ids = append(ids, id)
	}

	list, err := s.ListHistories(alice)
	if err != nil {
		t.Fatalf("ListHistories: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 histories, got %d", len(list))
	}
	if list[0].ID != ids[1] {
		t.Errorf("expected newest first, got %d", list[0].ID)
	}

	all, err := s.ListAllHistories()
	if err != nil {
		t.Fatalf("ListAllHistories: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 histories, got %d", len(all))
	}
}

func TestGenerationLogs(t *testing.T) {
	s := newTestStore(t)
	catID, _ := s.CreateCategory(model.Category{Name: "Science"})
	subID, _ := s.CreateSubCategory(model.SubCategory{CategoryID: catID, Name: "Physics"})
	uid := insertTestUser(t, s, "carol")
	ctx := context.Background()

	err := s.LogGeneration(ctx, model.GenerationLog{
		GenerationID:       "gen-1",
		Category:           "Science",
		Subcategory:        "Physics",
		Difficulty:         model.DifficultyMedium,
		QuestionsGenerated: 2,
		GeneratedBy:        &uid,
		PromptUsed:         "prompt",
		CreatedAt:          time.Now(),
	})
	if err != nil {
		t.Fatalf("LogGeneration: %v", err)
	}
	err = s.LogGeneration(ctx, model.GenerationLog{
		GenerationID:       "gen-2",
		Category:           "Unknown",
		Subcategory:        "Nothing",
		Difficulty:         model.DifficultyHard,
		QuestionsGenerated: 5,
		PromptUsed:         "prompt 2",
		CreatedAt:          time.Now(),
	})
	if err != nil {
		t.Fatalf("LogGeneration unknown category: %v", err)
	}

	logs, err := s.ListGenerationLogs(0)
	if err != nil {
		t.Fatalf("ListGenerationLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	// Newest first.
	if logs[0].GenerationID != "gen-2" {
		t.Errorf("expected gen-2 first, got %q", logs[0].GenerationID)
	}
	if logs[0].CategoryID != nil {
		t.Errorf("expected no category ID for unknown category, got %v", *logs[0].CategoryID)
	}
	first := logs[1]
	if first.CategoryID == nil || *first.CategoryID != catID {
		t.Errorf("expected category ID %d, got %v", catID, first.CategoryID)
	}
	if first.SubCategoryID == nil || *first.SubCategoryID != subID {
		t.Errorf("expected subcategory ID %d, got %v", subID, first.SubCategoryID)
	}
	if first.GeneratedBy == nil || *first.GeneratedBy != uid {
		t.Errorf("expected generated_by %d, got %v", uid, first.GeneratedBy)
	}
	if first.QuestionsGenerated != 2 {
		t.Errorf("expected 2 questions generated, got %d", first.QuestionsGenerated)
	}

	limited, _ := s.ListGenerationLogs(1)
	if len(limited) != 1 {
		t.Errorf("expected 1 log with limit, got %d", len(limited))
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	// Missing file returns empty string.
	hash, err := s.GetImportedFileHash("/some/path.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	if err := s.SetImportedFileHash("/some/path.json", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/path.json")
	if hash != "abc123" {
		t.Errorf("expected 'abc123', got %q", hash)
	}

	if err := s.SetImportedFileHash("/some/path.json", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/path.json")
	if hash != "def456" {
		t.Errorf("expected 'def456', got %q", hash)
	}
}

func TestImportCategories(t *testing.T) {
	s := newTestStore(t)

	items := []model.CategoryImport{{
		Name: "Science",
		Subcategories: []model.SubCategoryImport{
			{Name: "Physics", Quizzes: []model.QuizImport{{
				Title:      "Forces",
				Difficulty: "e",
				Questions: []model.QuestionImport{
					{Text: "Unit of force?", Options: [4]string{"Newton", "Joule", "Watt", "Pascal"}, CorrectAnswer: "a"},
				},
			}}},
			{Name: "Chemistry"},
		},
	}}

	stats, err := s.ImportCategories(items)
	if err != nil {
		t.Fatalf("ImportCategories: %v", err)
	}
	if stats.Categories != 1 || stats.Subcategories != 2 || stats.Quizzes != 1 || stats.Questions != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	cats, _ := s.ListCategories()
	if len(cats) != 1 || len(cats[0].Subcategories) != 2 {
		t.Fatalf("unexpected categories %+v", cats)
	}
	var physicsID int64
	for _, sc := range cats[0].Subcategories {
		if sc.Name == "Physics" {
			physicsID = sc.ID
		}
	}
	quizzes, _ := s.ListQuizzes(physicsID)
	if len(quizzes) != 1 || quizzes[0].Difficulty != model.DifficultyEasy {
		t.Fatalf("unexpected quizzes %+v", quizzes)
	}
	qs, _ := s.ListQuestions(quizzes[0].ID)
	if len(qs) != 1 || qs[0].CorrectAnswer != "A" || qs[0].Option1 != "Newton" {
		t.Errorf("unexpected questions %+v", qs)
	}

	if _, err := s.ImportCategories([]model.CategoryImport{{Name: " "}}); err == nil {
		t.Error("expected error for empty category name")
	}
}

func TestUsersAndSessions(t *testing.T) {
	s := newTestStore(t)

	count, _ := s.UserCount()
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}
	id := insertTestUser(t, s, "dave")

	if _, err := s.CreateUser(model.User{Username: "dave", PasswordHash: "x", Role: model.UserRoleStudent}); err == nil {
		t.Error("expected duplicate username to fail")
	}

	u, err := s.GetUserByUsername("dave")
	if err != nil || u == nil || u.ID != id {
		t.Fatalf("GetUserByUsername: %+v, %v", u, err)
	}
	missing, err := s.GetUserByUsername("nobody")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing user, got %+v, %v", missing, err)
	}

	if err := s.UpdateDisplayName(id, "Dave D."); err != nil {
		t.Fatalf("UpdateDisplayName: %v", err)
	}
	if err := s.ToggleUserActive(id); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	u, _ = s.GetUserByID(id)
	if u.DisplayName != "Dave D." || u.Active {
		t.Errorf("unexpected user after update %+v", u)
	}

	token, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	sess, err := s.GetAuthSession(token)
	if err != nil || sess == nil || sess.UserID != id {
		t.Fatalf("GetAuthSession: %+v, %v", sess, err)
	}
	if err := s.DeleteUserSessions(id); err != nil {
		t.Fatalf("DeleteUserSessions: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil || sess != nil {
		t.Errorf("expected session to be gone, got %+v, %v", sess, err)
	}
}

func TestExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	id := insertTestUser(t, s, "erin")

	live, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	past := time.Now().UTC().Add(-time.Hour)
	for _, token := range []string{"expired-1", "expired-2"} {
		if _, err := s.db.Exec(
			`INSERT INTO auth_sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
			token, id, past.Add(-AuthSessionTTL), past,
		); err != nil {
			t.Fatalf("insert expired session: %v", err)
		}
	}

	sess, err := s.GetAuthSession("expired-1")
	if err != nil || sess != nil {
		t.Errorf("expected nil for expired session, got %+v, %v", sess, err)
	}

	n, err := s.CleanupExpiredSessions()
	if err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired session removed, got %d", n)
	}
	if sess, _ := s.GetAuthSession(live); sess == nil {
		t.Error("live session should survive cleanup")
	}
}

func TestExportAllHistories(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "erin")
	quizID, ids := insertTestQuiz(t, s, 2)

	histID, _ := s.CreateHistory(model.QuizHistory{UserID: userID, QuizID: quizID, TotalQuestions: 2, SelectedDifficulty: model.DifficultyEasy})
	h, _ := s.GetHistory(histID)
	h.Score = 50
	h.CorrectAnswers = 1
	if err := s.CompleteHistory(*h, []model.UserAnswer{
		{QuestionID: ids[0], SelectedOption: "A", IsCorrect: true},
		{QuestionID: ids[1], SelectedOption: "C", IsCorrect: false},
	}); err != nil {
		t.Fatalf("CompleteHistory: %v", err)
	}

	results, err := s.ExportAllHistories()
	if err != nil {
		t.Fatalf("ExportAllHistories: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Username != "erin" || r.QuizTitle != "Physics basics" || r.Score != 50 {
		t.Errorf("unexpected result %+v", r)
	}
	if len(r.Answers) != 2 || r.Answers[1].CorrectAnswer != "B" || r.Answers[1].IsCorrect {
		t.Errorf("unexpected answers %+v", r.Answers)
	}
	if r.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}

func TestUserAnswersUniquePerQuestion(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "alice")
	quizID, ids := insertTestQuiz(t, s, 2)
	histID, _ := s.CreateHistory(model.QuizHistory{UserID: userID, QuizID: quizID, TotalQuestions: 2})

	h, _ := s.GetHistory(histID)
	err := s.CompleteHistory(*h, []model.UserAnswer{
		{QuestionID: ids[0], SelectedOption: "A"},
		{QuestionID: ids[0], SelectedOption: "B"},
	})
	if err == nil {
		t.Fatal("expected duplicate answer to be rejected")
	}

	h, _ = s.GetHistory(histID)
	if h.CompletedAt != nil {
		t.Error("expected failed completion to roll back")
	}
	if answers, _ := s.ListAnswers(histID); len(answers) != 0 {
		t.Errorf("expected no answers after rollback, got %d", len(answers))
	}
}
