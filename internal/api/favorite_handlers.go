package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/eventosumss/api/internal/favorite"
	"github.com/eventosumss/api/internal/middleware"
)

// FavoriteHandlers serves the favorites endpoints. The acting user is
// always the bearer token's subject.
type FavoriteHandlers struct {
	favorites favorite.Repository
	logger    *slog.Logger
}

// NewFavoriteHandlers creates handlers for the favorites endpoints.
func NewFavoriteHandlers(favorites favorite.Repository, logger *slog.Logger) *FavoriteHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &FavoriteHandlers{favorites: favorites, logger: logger}
}

// List handles GET /favoritos: the caller's favorited events.
func (h *FavoriteHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "se requiere autenticación")
		return
	}

	events, err := h.favorites.ListEvents(r.Context(), userID)
	if err != nil {
		h.logger.Error("favorite listing failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al listar favoritos")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, events)
}

type favoriteRequest struct {
	EventoID int64 `json:"evento_id"`
}

type toggleResponse struct {
	EventoID int64  `json:"evento_id"`
	Action   string `json:"action"`
}

// Toggle handles POST /favoritos: marks the event when unmarked,
// unmarks it when marked. Concurrent duplicates collapse into one
// marked row.
func (h *FavoriteHandlers) Toggle(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "se requiere autenticación")
		return
	}

	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EventoID <= 0 {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "se requiere evento_id")
		return
	}

	result, err := h.favorites.Toggle(r.Context(), userID, req.EventoID)
	if err != nil {
		h.logger.Error("favorite toggle failed", "error", err, "evento_id", req.EventoID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al actualizar favorito")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, toggleResponse{
		EventoID: req.EventoID,
		Action:   string(result),
	})
}

// Remove handles DELETE /favoritos: explicit unmark. Removing an
// absent favorite is a no-op success.
func (h *FavoriteHandlers) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "se requiere autenticación")
		return
	}

	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EventoID <= 0 {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "se requiere evento_id")
		return
	}

	if _, err := h.favorites.Remove(r.Context(), userID, req.EventoID); err != nil {
		h.logger.Error("favorite removal failed", "error", err, "evento_id", req.EventoID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al eliminar favorito")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
