package api

import (
	"log/slog"
	"net/http"

	"github.com/eventosumss/api/internal/middleware"
	"github.com/eventosumss/api/internal/topic"
)

// TopicHandlers serves the topic vocabulary.
type TopicHandlers struct {
	topics topic.Repository
	logger *slog.Logger
}

// NewTopicHandlers creates handlers for the topic endpoints.
func NewTopicHandlers(topics topic.Repository, logger *slog.Logger) *TopicHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &TopicHandlers{topics: topics, logger: logger}
}

// List handles GET /temas.
func (h *TopicHandlers) List(w http.ResponseWriter, r *http.Request) {
	topics, err := h.topics.List(r.Context())
	if err != nil {
		h.logger.Error("topic listing failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al listar temas")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, topics)
}
