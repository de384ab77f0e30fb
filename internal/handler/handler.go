package handler

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/quizgen/quizgen/internal/assistant"
	"github.com/quizgen/quizgen/internal/model"
	"github.com/quizgen/quizgen/internal/quiz"
	"github.com/quizgen/quizgen/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	quiz      *quiz.Service
	assistant *assistant.Assistant
	flashes   *sessions.CookieStore
	config    model.AppConfig
}

// New creates a new Handler. An empty session secret gets a random one, so
// flash messages do not survive a restart.
func New(s *store.Store, q *quiz.Service, a *assistant.Assistant, cfg model.AppConfig) (*Handler, error) {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		slog.Warn("no session secret configured, using a random one")
	}
	if cfg.DefaultQuestions < 1 {
		cfg.DefaultQuestions = 10
	}
	if cfg.MaxQuestions < cfg.DefaultQuestions {
		cfg.MaxQuestions = cfg.DefaultQuestions
	}

	h := &Handler{store: s, quiz: q, assistant: a, config: cfg}
	h.flashes = sessions.NewCookieStore(secret)
	h.flashes.Options = &sessions.Options{
		Path:     h.cookiePath(),
		MaxAge:   3600,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	return h, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Use(h.csrfMiddleware)
	r.Use(h.flashMiddleware)

	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Get("/register", h.handleRegisterPage)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.requireAuthAPI)
		r.Get("/categories", h.handleAPICategories)
		r.Get("/subcategories/{categoryID}", h.handleAPISubcategories)
		r.Post("/generate-quiz", h.handleAPIGenerateQuiz)
		r.Post("/quizzes/{quizID}/start", h.handleAPIStartQuiz)
		r.Get("/next-question/{historyID}", h.handleAPINextQuestion)
		r.Post("/submit-quiz", h.handleAPISubmitQuiz)
		r.Get("/results/{historyID}", h.handleAPIResults)
		r.Get("/history", h.handleAPIHistory)
		r.Post("/chat", h.handleAPIChat)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/", h.handleDashboard)
		r.Post("/quiz/{quizID}/start", h.handleStartQuizPage)
		r.Get("/results/{historyID}", h.handleResultsPage)
		r.Get("/history", h.handleHistoryPage)
		r.Get("/profile", h.handleProfilePage)
		r.Post("/profile", h.handleUpdateProfile)

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/users", h.handleAdminUsersPage)
			r.Post("/users", h.handleCreateUser)
			r.Post("/users/{userID}/toggle", h.handleToggleUserActive)
			r.Get("/categories", h.handleAdminCategoriesPage)
			r.Post("/categories", h.handleUploadCategories)
			r.Get("/generation-logs", h.handleGenerationLogs)
		})
	})
}

// BasePathMiddleware stores the configured base path in the request context.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// path prefixes p with the base path.
func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

func urlParamInt(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// writeServiceError maps quiz service errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, quiz.ErrNoQuestions), errors.Is(err, quiz.ErrCompleted):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}
