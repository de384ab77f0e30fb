package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/quizgen/quizgen/internal/assistant"
	"github.com/quizgen/quizgen/internal/handler"
	appI18n "github.com/quizgen/quizgen/internal/i18n"
	"github.com/quizgen/quizgen/internal/llm"
	"github.com/quizgen/quizgen/internal/llm/prompts"
	"github.com/quizgen/quizgen/internal/model"
	"github.com/quizgen/quizgen/internal/quiz"
	"github.com/quizgen/quizgen/internal/quizgen"
	"github.com/quizgen/quizgen/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quizgen",
		Short: "Quiz platform with AI-generated questions",
	}

	serve := serveCmd()
	root.AddCommand(serve, generateCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `quizgen --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addLLMFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("llm-provider", "openai", "Text generation provider (openai, gemini)")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for the LLM provider")
	f.String("llm-model", "", "LLM model name (provider default when empty)")
	f.Duration("llm-timeout", quizgen.DefaultTimeout, "Timeout for a single LLM call")
}

func addLogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP quiz server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "quizgen.db", "SQLite database path")
	f.StringSliceP("categories", "c", nil, "Paths to categories JSON files (repeatable)")
	addLLMFlags(cmd)
	f.Int("default-questions", 10, "Questions per generated quiz when the request omits num_questions")
	f.Int("max-questions", 50, "Upper bound on questions per generated quiz")
	f.StringP("lang", "l", "en", "Default UI language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /quiz)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("session-secret", "", "Key for flash message cookies (random when empty)")
	f.String("admin-password", "", "Initial admin password (or set QUIZGEN_ADMIN_PASSWORD)")
	addLogFlags(cmd)
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate questions once and print them as JSON",
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	f.String("category", "", "Category name (required)")
	f.String("subcategory", "", "Subcategory name (required)")
	f.StringP("difficulty", "d", "M", "Difficulty (E, M, H or Easy, Medium, Hard)")
	f.IntP("count", "n", 5, "Number of questions")
	addLLMFlags(cmd)
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd)

	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("subcategory")

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export quiz histories as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "quizgen.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd)
	return cmd
}

// setupLogging installs the default slog logger from --log-level and
// --log-format. Unknown levels fall back to info.
func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if strings.EqualFold(v.GetString("log-format"), "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QUIZGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizgen")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizgen")
	v.AddConfigPath("/etc/quizgen")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func openLLM(ctx context.Context, v *viper.Viper) (llm.Provider, error) {
	return llm.Open(ctx, llm.Config{
		Provider: v.GetString("llm-provider"),
		BaseURL:  v.GetString("llm-url"),
		APIKey:   v.GetString("llm-key"),
		Model:    v.GetString("llm-model"),
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := context.Background()

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Seed default admin user if no users exist.
	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if err := loadCategories(db, v.GetStringSlice("categories")); err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	if n, err := db.CleanupExpiredSessions(); err != nil {
		slog.Warn("failed to clean up expired sessions", "error", err)
	} else if n > 0 {
		slog.Info("removed expired sessions", "count", n)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	if err := prompts.Load(); err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}

	provider, err := openLLM(ctx, v)
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}
	defer provider.Close()

	// Generation falls back to placeholder questions, so an unreachable
	// provider only degrades the server.
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := provider.Ping(pingCtx); err != nil {
		slog.Warn("LLM health check failed, generated quizzes will use fallback questions", "error", err)
	} else {
		slog.Info("LLM endpoint OK", "provider", v.GetString("llm-provider"), "model", v.GetString("llm-model"))
	}
	cancel()

	timeout := v.GetDuration("llm-timeout")
	generator := quizgen.NewGenerator(provider, db, timeout)
	chat := assistant.New(provider, db, timeout)
	chat.Fallback = func(ctx context.Context) string { return appI18n.T(ctx, "ChatFallback") }

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	appCfg := model.AppConfig{
		DefaultQuestions: v.GetInt("default-questions"),
		MaxQuestions:     v.GetInt("max-questions"),
		BasePath:         basePath,
		SecureCookies:    v.GetBool("secure-cookies"),
		SessionSecret:    v.GetString("session-secret"),
	}

	h, err := handler.New(db, quiz.NewService(db, generator), chat, appCfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"llm_provider", v.GetString("llm-provider"),
		"llm_model", v.GetString("llm-model"),
		"llm_timeout", timeout,
		"lang", lang,
		"default_questions", appCfg.DefaultQuestions,
		"max_questions", appCfg.MaxQuestions,
		"base_path", basePath,
	)
	return http.ListenAndServe(addr, r)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := context.Background()

	difficulty, ok := model.ParseDifficulty(v.GetString("difficulty"))
	if !ok {
		return fmt.Errorf("invalid difficulty %q", v.GetString("difficulty"))
	}

	provider, err := openLLM(ctx, v)
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}
	defer provider.Close()

	questions := quizgen.NewGenerator(provider, nil, v.GetDuration("llm-timeout")).Generate(ctx, quizgen.Request{
		Category:    v.GetString("category"),
		Subcategory: v.GetString("subcategory"),
		Difficulty:  difficulty,
		Count:       v.GetInt("count"),
	})
	return writeJSONOutput(v.GetString("output"), questions)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	results, err := db.ExportAllHistories()
	if err != nil {
		return fmt.Errorf("export histories: %w", err)
	}
	if results == nil {
		results = []model.AttemptResult{}
	}

	return writeJSONOutput(v.GetString("output"), model.HistoryExport{
		ExportedAt: time.Now().UTC(),
		Results:    results,
	})
}

func writeJSONOutput(outPath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func loadCategories(db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}

		if storedHash == hash {
			slog.Info("categories file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("categories file changed since last import, skipping to avoid duplicating quizzes",
				"path", path)
			continue
		}

		var items []model.CategoryImport
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		stats, err := db.ImportCategories(items)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}

		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported categories", "path", path,
			"categories", stats.Categories,
			"subcategories", stats.Subcategories,
			"quizzes", stats.Quizzes,
			"questions", stats.Questions,
		)
	}

	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or QUIZGEN_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
