package main

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/quizgen/quizgen/internal/model"
	"github.com/quizgen/quizgen/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSeedAdmin(t *testing.T) {
	s := newTestStore(t)

	if err := seedAdmin(s, ""); err == nil {
		t.Fatal("expected error without admin password")
	}
	if err := seedAdmin(s, "secret-pass"); err != nil {
		t.Fatalf("seedAdmin: %v", err)
	}
	u, err := s.GetUserByUsername("admin")
	if err != nil || u == nil {
		t.Fatalf("admin not created: %v", err)
	}
	if u.Role != model.UserRoleAdmin {
		t.Errorf("expected admin role, got %q", u.Role)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret-pass")); err != nil {
		t.Error("password hash does not match")
	}

	// Existing users skip seeding, even without a password.
	if err := seedAdmin(s, ""); err != nil {
		t.Errorf("expected no error once users exist, got %v", err)
	}
}

func TestLoadCategories(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(t.TempDir(), "categories.json")
	seed := `[{"name": "Science", "subcategories": [
		{"name": "Physics", "quizzes": [{"title": "Forces", "difficulty": "E", "questions": [
			{"text": "Unit of force?", "options": ["Newton", "Joule", "Watt", "Pascal"], "correct_answer": "A"}
		]}]},
		{"name": "Chemistry"}
	]}]`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := loadCategories(s, []string{path}); err != nil {
		t.Fatalf("loadCategories: %v", err)
	}
	// A second run with the same content is a no-op.
	if err := loadCategories(s, []string{path}); err != nil {
		t.Fatalf("loadCategories again: %v", err)
	}

	cats, _ := s.ListCategories()
	if len(cats) != 1 || len(cats[0].Subcategories) != 2 {
		t.Fatalf("unexpected categories %+v", cats)
	}
	physics := cats[0].Subcategories[1]
	quizzes, _ := s.ListQuizzes(physics.ID)
	if len(quizzes) != 1 {
		t.Errorf("expected 1 quiz after two loads, got %d", len(quizzes))
	}

	hash, _ := s.GetImportedFileHash(path)
	if hash != sha256sum([]byte(seed)) {
		t.Errorf("unexpected stored hash %q", hash)
	}

	if err := loadCategories(s, []string{filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Error("expected error for missing file")
	}
}
