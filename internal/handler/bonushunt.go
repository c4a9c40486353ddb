package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/streamerhub/hub-server-go/internal/middleware"
	"github.com/streamerhub/hub-server-go/internal/model"
	"github.com/streamerhub/hub-server-go/internal/service"
)

type BonusHuntHandler struct {
	huntService *service.BonusHuntService
}

func NewBonusHuntHandler(huntService *service.BonusHuntService) *BonusHuntHandler {
	return &BonusHuntHandler{huntService: huntService}
}

func (h *BonusHuntHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(middleware.RequireUser).Post("/{id}/guess", h.SubmitGuess)

	return r
}

// AdminRoutes are mounted behind RequireAdmin.
func (h *BonusHuntHandler) AdminRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Post("/{id}/bonuses", h.AddBonus)
	r.Post("/{id}/bonuses/{bonusId}/open", h.OpenBonus)
	r.Patch("/{id}/status", h.UpdateStatus)

	return r
}

func (h *BonusHuntHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	hunts, err := h.huntService.List(r.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list bonus hunts")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch bonus hunts"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bonusHunts": hunts})
}

func (h *BonusHuntHandler) Get(w http.ResponseWriter, r *http.Request) {
	hunt, err := h.huntService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if err == service.ErrHuntNotFound {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Bonus hunt not found"})
			return
		}
		log.Error().Err(err).Msg("failed to get bonus hunt")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bonusHunt": hunt})
}

func (h *BonusHuntHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name         string  `json:"name"`
		StartBalance float64 `json:"startBalance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if body.Name == "" || body.StartBalance <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Name and a positive start balance are required"})
		return
	}

	hunt, err := h.huntService.Create(r.Context(), model.CreateBonusHuntParams{
		Name:         body.Name,
		StartBalance: body.StartBalance,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create bonus hunt")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create bonus hunt"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"bonusHunt": hunt})
}

func (h *BonusHuntHandler) AddBonus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SlotName   string  `json:"slotName"`
		Provider   string  `json:"provider"`
		BetSize    float64 `json:"betSize"`
		OrderIndex int     `json:"orderIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if body.SlotName == "" || body.BetSize <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Slot name and a positive bet size are required"})
		return
	}

	bonus, err := h.huntService.AddBonus(r.Context(), model.AddBonusParams{
		BonusHuntID: chi.URLParam(r, "id"),
		SlotName:    body.SlotName,
		Provider:    body.Provider,
		BetSize:     body.BetSize,
		OrderIndex:  body.OrderIndex,
	})
	if err != nil {
		if err == service.ErrHuntNotFound {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Bonus hunt not found"})
			return
		}
		log.Error().Err(err).Msg("failed to add bonus")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to add bonus"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"bonus": bonus})
}

func (h *BonusHuntHandler) OpenBonus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Result     float64 `json:"result"`
		Multiplier float64 `json:"multiplier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if body.Result < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Result must not be negative"})
		return
	}

	bonus, err := h.huntService.OpenBonus(
		r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "bonusId"), body.Result, body.Multiplier,
	)
	if err != nil {
		switch err {
		case service.ErrHuntNotFound:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Bonus hunt not found"})
		case service.ErrBonusNotFound:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Bonus not found or already opened"})
		default:
			log.Error().Err(err).Msg("failed to open bonus")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to open bonus"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bonus": bonus})
}

func (h *BonusHuntHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status model.BonusHuntStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	switch body.Status {
	case model.BonusHuntStatusOpen, model.BonusHuntStatusStarted, model.BonusHuntStatusCompleted:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid status"})
		return
	}

	hunt, err := h.huntService.UpdateStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		if err == service.ErrHuntNotFound {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Bonus hunt not found"})
			return
		}
		log.Error().Err(err).Msg("failed to update bonus hunt status")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update status"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bonusHunt": hunt})
}

func (h *BonusHuntHandler) SubmitGuess(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var body struct {
		GuessedBalance float64 `json:"guessedBalance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if body.GuessedBalance <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid guess value"})
		return
	}

	guess, err := h.huntService.SubmitGuess(r.Context(), chi.URLParam(r, "id"), user.ID, body.GuessedBalance)
	if err != nil {
		switch err {
		case service.ErrHuntNotFound:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Bonus hunt not found"})
		case service.ErrGuessingClosed:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Predictions are closed for this hunt"})
		default:
			log.Error().Err(err).Msg("failed to save guess")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save prediction"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "guess": guess})
}
