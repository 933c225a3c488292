package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/eventosumss/api/internal/middleware"
	"github.com/eventosumss/api/internal/upload"
)

// UploadHandlers serves presigned upload URLs for event images.
type UploadHandlers struct {
	uploads *upload.Service
	logger  *slog.Logger
}

// NewUploadHandlers creates handlers for the upload endpoints.
func NewUploadHandlers(uploads *upload.Service, logger *slog.Logger) *UploadHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandlers{uploads: uploads, logger: logger}
}

type signRequest struct {
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// Sign handles POST /uploads/sign: a presigned PUT URL the client
// uploads the image to directly.
func (h *UploadHandlers) Sign(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUserID(r.Context()) == 0 {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "se requiere autenticación")
		return
	}

	var req signRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "cuerpo JSON inválido")
		return
	}

	resp, err := h.uploads.GenerateSignedURL(r.Context(), upload.SignedURLRequest{
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrUnsupportedType):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "tipo de contenido no soportado, solo JPEG o PNG")
		case errors.Is(err, upload.ErrFileTooLarge):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "el archivo excede el tamaño máximo")
		default:
			h.logger.Error("presign failed", "error", err)
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al firmar la subida")
		}
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, resp)
}
