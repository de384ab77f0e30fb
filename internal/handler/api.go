package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	appI18n "github.com/quizgen/quizgen/internal/i18n"
	"github.com/quizgen/quizgen/internal/model"
	"github.com/quizgen/quizgen/internal/quiz"
)

// maxJSONBody bounds API request bodies.
const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

type subcategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) handleAPICategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) handleAPISubcategories(w http.ResponseWriter, r *http.Request) {
	categoryID, err := urlParamInt(r, "categoryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category ID")
		return
	}
	cat, err := h.store.GetCategory(categoryID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if cat == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	subs, err := h.store.ListSubCategories(categoryID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]subcategoryResponse, 0, len(subs))
	for _, sc := range subs {
		resp = append(resp, subcategoryResponse{ID: sc.ID, Name: sc.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

type generateQuizRequest struct {
	CategoryID    int64  `json:"category_id"`
	SubCategoryID int64  `json:"subcategory_id"`
	Difficulty    string `json:"difficulty"`
	NumQuestions  *int   `json:"num_questions"`
}

// numQuestions applies the default and clamps to [1, MaxQuestions].
func (h *Handler) numQuestions(n *int) int {
	if n == nil {
		return h.config.DefaultQuestions
	}
	return max(1, min(*n, h.config.MaxQuestions))
}

func (h *Handler) handleAPIGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req generateQuizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	code := req.Difficulty
	if strings.TrimSpace(code) == "" {
		code = model.DifficultyMedium.Code()
	}
	difficulty, ok := model.ParseDifficulty(code)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid difficulty "+req.Difficulty)
		return
	}

	user := model.UserFromContext(r.Context())
	res, err := h.quiz.Generate(r.Context(), quiz.GenerateRequest{
		CategoryID:    req.CategoryID,
		SubCategoryID: req.SubCategoryID,
		Difficulty:    difficulty,
		Count:         h.numQuestions(req.NumQuestions),
		UserID:        &user.ID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"quiz_id": res.QuizID,
		"message": fmt.Sprintf("Generated %d questions", res.Questions),
	})
}

func (h *Handler) handleAPIStartQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := urlParamInt(r, "quizID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid quiz ID")
		return
	}
	user := model.UserFromContext(r.Context())
	attempt, err := h.quiz.Start(user.ID, quizID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, attempt)
}

func (h *Handler) handleAPINextQuestion(w http.ResponseWriter, r *http.Request) {
	historyID, err := urlParamInt(r, "historyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid quiz history ID")
		return
	}
	user := model.UserFromContext(r.Context())
	q, err := h.quiz.NextQuestion(user.ID, historyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if q == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"completed": true})
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) handleAPISubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var sub quiz.Submission
	if err := decodeJSON(w, r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user := model.UserFromContext(r.Context())
	result, err := h.quiz.Submit(user.ID, sub)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAPIResults(w http.ResponseWriter, r *http.Request) {
	historyID, err := urlParamInt(r, "historyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid quiz history ID")
		return
	}
	user := model.UserFromContext(r.Context())
	view, err := h.quiz.Results(user.ID, historyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	histories, err := h.quiz.History(user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if histories == nil {
		histories = []model.QuizHistory{}
	}
	writeJSON(w, http.StatusOK, histories)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) handleAPIChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusOK, map[string]string{"reply": appI18n.T(ctx, "ChatEmpty")})
		return
	}

	reply := appI18n.T(ctx, "ChatFallback")
	if h.assistant != nil {
		reply = h.assistant.Reply(ctx, appI18n.Lang(ctx), req.Message)
	} else {
		slog.Warn("chat requested but no assistant is configured")
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
