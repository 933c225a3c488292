package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/eventosumss/api/internal/event"
	"github.com/eventosumss/api/internal/geo"
	"github.com/eventosumss/api/internal/middleware"
	"github.com/eventosumss/api/internal/upload"
	"github.com/eventosumss/api/internal/validate"
)

// maxEventFormMemory bounds the in-memory portion of a multipart event
// submission; larger file parts spill to disk.
const maxEventFormMemory = 8 << 20

// EventHandlers serves event listing, creation, and the ranked
// retrieval endpoints.
type EventHandlers struct {
	events    event.Repository
	locations event.LocationRepository
	uploads   *upload.Service // nil when object storage is not configured
	logger    *slog.Logger
}

// NewEventHandlers creates handlers for the event endpoints.
func NewEventHandlers(events event.Repository, locations event.LocationRepository, uploads *upload.Service, logger *slog.Logger) *EventHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandlers{events: events, locations: locations, uploads: uploads, logger: logger}
}

// List handles GET /eventos.
func (h *EventHandlers) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		h.logger.Error("event listing failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al listar eventos")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, events)
}

// Create handles POST /eventos. The body is a multipart form with the
// event fields and an optional image file; the creator is the
// authenticated user, never a form field.
func (h *EventHandlers) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "se requiere autenticación")
		return
	}

	if err := r.ParseMultipartForm(maxEventFormMemory); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "se espera un formulario multipart")
		return
	}

	title, err := validate.EventTitle(r.FormValue("title"))
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "título inválido")
		return
	}

	category := r.FormValue("category")
	if category == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "categoría requerida")
		return
	}

	date, err := time.Parse("2006-01-02", r.FormValue("date"))
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "fecha inválida, se espera AAAA-MM-DD")
		return
	}

	eventTime := r.FormValue("time")
	if _, err := time.Parse("15:04", eventTime); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "hora inválida, se espera HH:MM")
		return
	}

	description, err := validate.Description(r.FormValue("description"))
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "descripción demasiado larga")
		return
	}

	e := &event.Event{
		Title:       title,
		Category:    category,
		Date:        date,
		Time:        eventTime,
		Location:    r.FormValue("location"),
		Description: description,
		Image:       r.FormValue("image_url"),
		UsuarioID:   userID,
	}

	if v := r.FormValue("tema_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "tema_id inválido")
			return
		}
		e.TemaID = &id
	}
	if v := r.FormValue("ubicacion_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "ubicacion_id inválido")
			return
		}
		e.UbicacionID = &id
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		if h.uploads == nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "el almacenamiento de imágenes no está configurado")
			return
		}
		url, err := h.uploads.Store(r.Context(), header.Header.Get("Content-Type"), header.Size, file)
		if err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "imagen inválida: solo JPEG o PNG dentro del límite de tamaño")
			return
		}
		e.Image = url
	}

	if err := h.events.Insert(r.Context(), e); err != nil {
		h.logger.Error("event insert failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al crear el evento")
		return
	}

	writeJSON(w, r.Context(), http.StatusCreated, e)
}

// Filter handles GET /eventos/filtrar. Absent or "all" query values
// leave that dimension unfiltered.
func (h *EventHandlers) Filter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := event.Filter{
		Ubicacion: q.Get("ubicacion"),
		Categoria: q.Get("categoria"),
		Interes:   q.Get("interes"),
	}

	events, err := h.events.Search(r.Context(), f)
	if err != nil {
		h.logger.Error("event filter failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al filtrar eventos")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, events)
}

type nearbyRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Nearby handles POST /eventos/cercanos: the five events closest to
// the given point, each annotated with its distance in km.
func (h *EventHandlers) Nearby(w http.ResponseWriter, r *http.Request) {
	var req nearbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "cuerpo JSON inválido")
		return
	}

	if req.Latitude == nil || req.Longitude == nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "se requieren latitude y longitude")
		return
	}
	if !geo.ValidLatitude(*req.Latitude) || !geo.ValidLongitude(*req.Longitude) {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "coordenadas fuera de rango")
		return
	}

	events, err := h.events.Nearby(r.Context(), *req.Latitude, *req.Longitude, event.NearbyLimit)
	if err != nil {
		h.logger.Error("nearby query failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al buscar eventos cercanos")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, events)
}

// Recommended handles GET /eventos/recomendados: upcoming events
// ranked by the caller's topic subscriptions. Requires a bearer token;
// there is no anonymous variant.
func (h *EventHandlers) Recommended(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "se requiere autenticación")
		return
	}

	events, err := h.events.Recommended(r.Context(), userID, event.RecommendedLimit)
	if err != nil {
		h.logger.Error("recommendation query failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al recomendar eventos")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, events)
}

// Locations handles GET /ubicaciones: the seeded campus coordinates.
func (h *EventHandlers) Locations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.locations.List(r.Context())
	if err != nil {
		h.logger.Error("location listing failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "error al listar ubicaciones")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, locations)
}
