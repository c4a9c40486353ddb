package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/streamerhub/hub-server-go/internal/errors"
	"github.com/streamerhub/hub-server-go/internal/httputil"
	"github.com/streamerhub/hub-server-go/internal/middleware"
	"github.com/streamerhub/hub-server-go/internal/model"
	"github.com/streamerhub/hub-server-go/internal/service"
)

type GiveawayHandler struct {
	giveawayService *service.GiveawayService
}

func NewGiveawayHandler(giveawayService *service.GiveawayService) *GiveawayHandler {
	return &GiveawayHandler{giveawayService: giveawayService}
}

func (h *GiveawayHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(middleware.RequireUser).Post("/{id}/enter", h.Enter)

	return r
}

// AdminRoutes are mounted behind RequireAdmin.
func (h *GiveawayHandler) AdminRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)

	return r
}

func (h *GiveawayHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	giveaways, err := h.giveawayService.List(r.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list giveaways")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch giveaways"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"giveaways": giveaways})
}

func (h *GiveawayHandler) Get(w http.ResponseWriter, r *http.Request) {
	giveaway, err := h.giveawayService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if err == service.ErrGiveawayNotFound {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Giveaway not found"})
			return
		}
		log.Error().Err(err).Msg("failed to get giveaway")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"giveaway": giveaway})
}

func (h *GiveawayHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title           string    `json:"title"`
		Description     string    `json:"description"`
		Prize           string    `json:"prize"`
		ImageURL        *string   `json:"imageUrl"`
		PointsCost      int       `json:"pointsCost"`
		NumberOfWinners int       `json:"numberOfWinners"`
		MaxEntries      *int      `json:"maxEntries"`
		StartsAt        time.Time `json:"startsAt"`
		EndsAt          time.Time `json:"endsAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if body.Title == "" || body.Prize == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Title and prize are required"})
		return
	}
	if body.PointsCost < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Points cost must not be negative"})
		return
	}
	if !body.EndsAt.After(body.StartsAt) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "End time must be after start time"})
		return
	}
	if body.NumberOfWinners <= 0 {
		body.NumberOfWinners = 1
	}

	giveaway, err := h.giveawayService.Create(r.Context(), model.CreateGiveawayParams{
		Title:           body.Title,
		Description:     body.Description,
		Prize:           body.Prize,
		ImageURL:        body.ImageURL,
		PointsCost:      body.PointsCost,
		NumberOfWinners: body.NumberOfWinners,
		MaxEntries:      body.MaxEntries,
		StartsAt:        body.StartsAt,
		EndsAt:          body.EndsAt,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create giveaway")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create giveaway"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"giveaway": giveaway})
}

func (h *GiveawayHandler) Enter(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	entry, updated, err := h.giveawayService.Enter(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		switch err {
		case service.ErrGiveawayNotFound:
			httputil.WriteError(w, apperrors.NotFound("Giveaway"))
		case service.ErrGiveawayClosed:
			httputil.WriteError(w, apperrors.EntriesClosed())
		case service.ErrAlreadyEntered:
			httputil.WriteError(w, apperrors.AlreadyExists("Giveaway entry"))
		case service.ErrNotEnoughPoints:
			httputil.WriteError(w, apperrors.New(apperrors.ErrCodeInsufficientPoints, "Not enough points to enter"))
		case service.ErrGiveawayFull:
			httputil.WriteError(w, apperrors.EntryLimitReached())
		default:
			log.Error().Err(err).Msg("failed to enter giveaway")
			httputil.WriteError(w, apperrors.Internal("Failed to enter giveaway"))
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"entry":   entry,
		"points":  updated.Points,
	})
}
