package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eventosumss/api/internal/auth"
	"github.com/eventosumss/api/internal/middleware"
	"github.com/eventosumss/api/internal/topic"
	"github.com/eventosumss/api/internal/user"
	"github.com/eventosumss/api/internal/validate"
)

// AuthHandlers serves registration and login.
type AuthHandlers struct {
	users  user.Repository
	topics topic.Repository
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthHandlers creates handlers for the auth endpoints.
func NewAuthHandlers(users user.Repository, topics topic.Repository, tokens *auth.TokenService, logger *slog.Logger) *AuthHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandlers{users: users, topics: topics, tokens: tokens, logger: logger}
}

type registerRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Tema1    int64  `json:"tema1"`
	Tema2    int64  `json:"tema2"`
	Tema3    int64  `json:"tema3"`
}

type registerResponse struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
}

// Register handles POST /auth/register. It creates the user and its
// three topic subscriptions in one transaction.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "cuerpo JSON inválido")
		return
	}

	nombre, err := validate.Nombre(req.Nombre)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "nombre inválido")
		return
	}

	email, err := validate.Email(req.Email)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "email inválido")
		return
	}

	if err := validate.Password(req.Password); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "la contraseña debe tener entre 8 y 72 caracteres")
		return
	}

	topicIDs := []int64{req.Tema1, req.Tema2, req.Tema3}
	reg := &user.Registration{
		Nombre:   nombre,
		Email:    email,
		TopicIDs: topicIDs,
	}
	if err := reg.Validate(); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "se requieren exactamente 3 temas distintos")
		return
	}

	exists, err := h.topics.Exists(r.Context(), topicIDs)
	if err != nil {
		h.logger.Error("topic lookup failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al registrar el usuario")
		return
	}
	if !exists {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "uno o más temas no existen")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hash failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al registrar el usuario")
		return
	}
	reg.Password = hashed

	id, err := h.users.Register(r.Context(), reg)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeConflict)
			WriteError(w, ctx, http.StatusConflict, ErrCodeConflict, "el correo electrónico ya está registrado")
			return
		}
		h.logger.Error("user registration failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al registrar el usuario")
		return
	}

	writeJSON(w, r.Context(), http.StatusCreated, registerResponse{
		ID:     id,
		Nombre: nombre,
		Email:  email,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /login. A wrong password never yields a token.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "cuerpo JSON inválido")
		return
	}

	email, err := validate.Email(req.Email)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "email inválido")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "usuario no encontrado")
			return
		}
		h.logger.Error("user lookup failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al iniciar sesión")
		return
	}

	if !auth.CheckPassword(u.Password, req.Password) {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "contraseña incorrecta")
		return
	}

	token, err := h.tokens.Generate(strconv.FormatInt(u.ID, 10), u.Email, u.Role)
	if err != nil {
		h.logger.Error("token generation failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al iniciar sesión")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, loginResponse{Token: token})
}
