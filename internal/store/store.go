package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quizgen/quizgen/internal/model"

	_ "modernc.org/sqlite"
)

// ErrHistoryCompleted is returned when completing an attempt that already
// has a completion time.
var ErrHistoryCompleted = errors.New("quiz history already completed")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'student',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS subcategories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (category_id, name),
		FOREIGN KEY (category_id) REFERENCES categories(id)
	);

	CREATE TABLE IF NOT EXISTS quizzes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category_id INTEGER NOT NULL,
		subcategory_id INTEGER NOT NULL,
		difficulty TEXT NOT NULL,
		time_limit_minutes INTEGER NOT NULL DEFAULT 10,
		is_ai_generated BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (category_id) REFERENCES categories(id),
		FOREIGN KEY (subcategory_id) REFERENCES subcategories(id)
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quiz_id INTEGER NOT NULL,
		text TEXT NOT NULL,
		option1 TEXT NOT NULL DEFAULT '',
		option2 TEXT NOT NULL DEFAULT '',
		option3 TEXT NOT NULL DEFAULT '',
		option4 TEXT NOT NULL DEFAULT '',
		correct_answer TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		is_ai_generated BOOLEAN NOT NULL DEFAULT 0,
		FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
	);

	CREATE TABLE IF NOT EXISTS quiz_histories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		quiz_id INTEGER NOT NULL,
		score REAL NOT NULL DEFAULT 0,
		correct_answers INTEGER NOT NULL DEFAULT 0,
		total_questions INTEGER NOT NULL DEFAULT 0,
		selected_difficulty TEXT NOT NULL,
		time_taken INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
	);

	CREATE TABLE IF NOT EXISTS user_answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		history_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		selected_option TEXT NOT NULL DEFAULT '',
		is_correct BOOLEAN NOT NULL DEFAULT 0,
		time_taken INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (history_id) REFERENCES quiz_histories(id),
		FOREIGN KEY (question_id) REFERENCES questions(id),
		UNIQUE (history_id, question_id)
	);

	CREATE TABLE IF NOT EXISTS generation_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		generation_id TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT NOT NULL,
		category_id INTEGER,
		subcategory_id INTEGER,
		difficulty TEXT NOT NULL,
		questions_generated INTEGER NOT NULL,
		generated_by INTEGER,
		prompt_used TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (category_id) REFERENCES categories(id),
		FOREIGN KEY (subcategory_id) REFERENCES subcategories(id)
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateCategory inserts a category, or returns the ID of the existing one
// with the same name.
func (s *Store) CreateCategory(c model.Category) (int64, error) {
	_, err := s.db.Exec(
		`INSERT INTO categories (name, description, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO NOTHING`,
		c.Name, c.Description, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRow(`SELECT id FROM categories WHERE name = ?`, c.Name).Scan(&id)
	return id, err
}

// GetCategory returns a category by ID, or nil if it does not exist.
func (s *Store) GetCategory(id int64) (*model.Category, error) {
	var c model.Category
	err := s.db.QueryRow(
		`SELECT id, name, description, created_at FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories returns all categories with their subcategories, ordered by name.
func (s *Store) ListCategories() ([]model.Category, error) {
	rows, err := s.db.Query(`SELECT id, name, description, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		categories = append(categories, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range categories {
		subs, err := s.ListSubCategories(categories[i].ID)
		if err != nil {
			return nil, err
		}
		categories[i].Subcategories = subs
	}
	return categories, nil
}

// CategoryNames returns all category names in alphabetical order.
func (s *Store) CategoryNames() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CreateSubCategory inserts a subcategory, or returns the ID of the existing
// one with the same name in the same category.
func (s *Store) CreateSubCategory(sc model.SubCategory) (int64, error) {
	_, err := s.db.Exec(
		`INSERT INTO subcategories (category_id, name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(category_id, name) DO NOTHING`,
		sc.CategoryID, sc.Name, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRow(
		`SELECT id FROM subcategories WHERE category_id = ? AND name = ?`, sc.CategoryID, sc.Name,
	).Scan(&id)
	return id, err
}

// GetSubCategory returns a subcategory by ID, or nil if it does not exist.
func (s *Store) GetSubCategory(id int64) (*model.SubCategory, error) {
	var sc model.SubCategory
	err := s.db.QueryRow(
		`SELECT id, category_id, name, created_at FROM subcategories WHERE id = ?`, id,
	).Scan(&sc.ID, &sc.CategoryID, &sc.Name, &sc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// ListSubCategories returns the subcategories of a category, ordered by name.
func (s *Store) ListSubCategories(categoryID int64) ([]model.SubCategory, error) {
	rows, err := s.db.Query(
		`SELECT id, category_id, name, created_at FROM subcategories WHERE category_id = ? ORDER BY name`, categoryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []model.SubCategory
	for rows.Next() {
		var sc model.SubCategory
		if err := rows.Scan(&sc.ID, &sc.CategoryID, &sc.Name, &sc.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sc)
	}
	return subs, rows.Err()
}
