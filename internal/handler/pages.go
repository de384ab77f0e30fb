package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/quizgen/quizgen/internal/handler/views"
	appI18n "github.com/quizgen/quizgen/internal/i18n"
	"github.com/quizgen/quizgen/internal/model"
	"github.com/quizgen/quizgen/internal/quiz"
)

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	quizzes := make(map[int64][]model.Quiz)
	for _, c := range categories {
		for _, sc := range c.Subcategories {
			list, err := h.store.ListQuizzes(sc.ID)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			quizzes[sc.ID] = list
		}
	}

	render(w, r, http.StatusOK, views.DashboardPage(categories, quizzes, h.config))
}

func (h *Handler) handleStartQuizPage(w http.ResponseWriter, r *http.Request) {
	quizID, err := urlParamInt(r, "quizID")
	if err != nil {
		http.Error(w, "invalid quiz ID", http.StatusBadRequest)
		return
	}
	user := model.UserFromContext(r.Context())

	attempt, err := h.quiz.Start(user.ID, quizID)
	switch {
	case errors.Is(err, quiz.ErrNoQuestions):
		h.addFlash(w, r, flashError, appI18n.T(r.Context(), "QuizNoQuestions"))
		http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
		return
	case errors.Is(err, quiz.ErrNotFound):
		h.addFlash(w, r, flashError, appI18n.T(r.Context(), "QuizNotFound"))
		http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
		return
	case err != nil:
		slog.Error("failed to start quiz", "quiz_id", quizID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	qz, err := h.store.GetQuiz(quizID)
	if err != nil || qz == nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	render(w, r, http.StatusOK, views.QuizPage(*qz, attempt.HistoryID, attempt.TimeLimitSeconds, attempt.Questions))
}

func (h *Handler) handleResultsPage(w http.ResponseWriter, r *http.Request) {
	historyID, err := urlParamInt(r, "historyID")
	if err != nil {
		http.Error(w, "invalid quiz history ID", http.StatusBadRequest)
		return
	}
	user := model.UserFromContext(r.Context())
	view, err := h.quiz.Results(user.ID, historyID)
	if errors.Is(err, quiz.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render(w, r, http.StatusOK, views.ResultsPage(*view))
}

func (h *Handler) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	histories, err := h.quiz.History(user.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render(w, r, http.StatusOK, views.HistoryPage(histories))
}

func (h *Handler) handleProfilePage(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	histories, err := h.quiz.History(user.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render(w, r, http.StatusOK, views.ProfilePage(*user, len(histories)))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	displayName := strings.TrimSpace(r.FormValue("display_name"))
	if displayName == "" {
		http.Error(w, "display name required", http.StatusBadRequest)
		return
	}
	if err := h.store.UpdateDisplayName(user.ID, displayName); err != nil {
		slog.Error("failed to update display name", "user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.addFlash(w, r, flashSuccess, appI18n.T(r.Context(), "ProfileSaved"))
	http.Redirect(w, r, h.path("/profile"), http.StatusSeeOther)
}
