package handler

import (
	"log/slog"
	"net/http"

	"github.com/quizgen/quizgen/internal/handler/views"
)

const flashSessionName = "flash"

const (
	flashSuccess = "success"
	flashError   = "error"
)

// addFlash queues a message for the next rendered page. It must be called
// before the response header is written.
func (h *Handler) addFlash(w http.ResponseWriter, r *http.Request, kind, text string) {
	sess, err := h.flashes.Get(r, flashSessionName)
	if err != nil {
		slog.Warn("invalid flash session, starting a new one", "error", err)
	}
	sess.AddFlash(text, kind)
	if err := sess.Save(r, w); err != nil {
		slog.Error("save flash session", "error", err)
	}
}

// flashMiddleware moves pending flash messages into the context of GET
// requests so the layout can show them once.
func (h *Handler) flashMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		if _, err := r.Cookie(flashSessionName); err != nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := h.flashes.Get(r, flashSessionName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		var flashes []views.Flash
		for _, kind := range []string{flashSuccess, flashError} {
			for _, f := range sess.Flashes(kind) {
				if text, ok := f.(string); ok {
					flashes = append(flashes, views.Flash{Kind: kind, Text: text})
				}
			}
		}
		if len(flashes) > 0 {
			if err := sess.Save(r, w); err != nil {
				slog.Error("save flash session", "error", err)
			}
		}
		next.ServeHTTP(w, r.WithContext(views.ContextWithFlashes(r.Context(), flashes)))
	})
}
