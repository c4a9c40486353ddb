package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/streamerhub/hub-server-go/internal/model"
	"github.com/streamerhub/hub-server-go/internal/service"
)

type TournamentHandler struct {
	tournamentService *service.TournamentService
}

func NewTournamentHandler(tournamentService *service.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: tournamentService}
}

func (h *TournamentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	return r
}

// AdminRoutes are mounted behind RequireAdmin.
func (h *TournamentHandler) AdminRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)

	return r
}

func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	tournaments, err := h.tournamentService.List(r.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list tournaments")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch tournaments"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tournaments": tournaments})
}

func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if err == service.ErrTournamentNotFound {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Tournament not found"})
			return
		}
		log.Error().Err(err).Msg("failed to get tournament")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tournament": tournament})
}

func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title          string    `json:"title"`
		Description    string    `json:"description"`
		Prize          string    `json:"prize"`
		TournamentType int       `json:"tournamentType"`
		StartsAt       time.Time `json:"startsAt"`
		EndsAt         time.Time `json:"endsAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if body.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Title is required"})
		return
	}
	if !body.EndsAt.After(body.StartsAt) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "End time must be after start time"})
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), model.CreateTournamentParams{
		Title:          body.Title,
		Description:    body.Description,
		Prize:          body.Prize,
		TournamentType: body.TournamentType,
		StartsAt:       body.StartsAt,
		EndsAt:         body.EndsAt,
	})
	if err != nil {
		if err == service.ErrInvalidBracketSize {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Tournament type must be 8 or 16"})
			return
		}
		log.Error().Err(err).Msg("failed to create tournament")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create tournament"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"tournament": tournament})
}
