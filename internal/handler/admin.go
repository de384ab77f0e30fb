package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/quizgen/quizgen/internal/handler/views"
	appI18n "github.com/quizgen/quizgen/internal/i18n"
	"github.com/quizgen/quizgen/internal/model"
)

// recentGenerationLogs is how many audit entries the admin page lists.
const recentGenerationLogs = 50

func (h *Handler) handleAdminUsersPage(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render(w, r, http.StatusOK, views.AdminUsersPage(users))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	displayName := strings.TrimSpace(r.FormValue("display_name"))
	password := r.FormValue("password")
	role := model.UserRole(r.FormValue("role"))

	if username == "" || password == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}
	if role != model.UserRoleAdmin {
		role = model.UserRoleStudent
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if displayName == "" {
		displayName = username
	}

	_, err = h.store.CreateUser(model.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	})
	if err != nil {
		http.Error(w, "failed to create user: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.addFlash(w, r, flashSuccess, appI18n.Td(r.Context(), "UserCreated", map[string]any{"Name": username}))
	http.Redirect(w, r, h.path("/admin/users"), http.StatusSeeOther)
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "userID")
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.store.ToggleUserActive(id); err != nil {
		slog.Error("failed to toggle user active", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	u, err := h.store.GetUserByID(id)
	if err == nil && u != nil && !u.Active {
		if err := h.store.DeleteUserSessions(id); err != nil {
			slog.Error("failed to delete sessions of deactivated user", "id", id, "error", err)
		}
	}

	http.Redirect(w, r, h.path("/admin/users"), http.StatusSeeOther)
}

func (h *Handler) handleAdminCategoriesPage(w http.ResponseWriter, r *http.Request) {
	logs, err := h.store.ListGenerationLogs(recentGenerationLogs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render(w, r, http.StatusOK, views.AdminCategoriesPage(logs))
}

func (h *Handler) handleUploadCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "file too large", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("categories_file")
	if err != nil {
		http.Error(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	hashBytes := sha256.Sum256(data)
	hash := hex.EncodeToString(hashBytes[:])

	storedHash, err := h.store.GetImportedFileHash(header.Filename)
	if err != nil {
		slog.Error("failed to check import status", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if storedHash == hash {
		h.addFlash(w, r, flashError, appI18n.T(ctx, "UploadDuplicate"))
		http.Redirect(w, r, h.path("/admin/categories"), http.StatusSeeOther)
		return
	}

	var items []model.CategoryImport
	if err := json.Unmarshal(data, &items); err != nil {
		h.addFlash(w, r, flashError, appI18n.T(ctx, "UploadInvalid"))
		http.Redirect(w, r, h.path("/admin/categories"), http.StatusSeeOther)
		return
	}

	stats, err := h.store.ImportCategories(items)
	if err != nil {
		slog.Error("failed to import categories", "filename", header.Filename, "error", err)
		h.addFlash(w, r, flashError, appI18n.T(ctx, "UploadInvalid"))
		http.Redirect(w, r, h.path("/admin/categories"), http.StatusSeeOther)
		return
	}

	if err := h.store.SetImportedFileHash(header.Filename, hash); err != nil {
		slog.Error("failed to record import", "error", err)
	}

	slog.Info("uploaded categories via admin", "filename", header.Filename,
		"categories", stats.Categories, "quizzes", stats.Quizzes, "questions", stats.Questions)
	h.addFlash(w, r, flashSuccess, appI18n.Td(ctx, "UploadSuccess", map[string]any{
		"Categories":    stats.Categories,
		"Subcategories": stats.Subcategories,
		"Quizzes":       stats.Quizzes,
		"Questions":     stats.Questions,
	}))
	http.Redirect(w, r, h.path("/admin/categories"), http.StatusSeeOther)
}

func (h *Handler) handleGenerationLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	logs, err := h.store.ListGenerationLogs(limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if logs == nil {
		logs = []model.GenerationLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}
