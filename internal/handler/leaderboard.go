package handler

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/streamerhub/hub-server-go/internal/repository"
)

const defaultLeaderboardSize = 25

type LeaderboardHandler struct {
	userRepo repository.UserRepository
}

func NewLeaderboardHandler(userRepo repository.UserRepository) *LeaderboardHandler {
	return &LeaderboardHandler{userRepo: userRepo}
}

func (h *LeaderboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxPageSize {
			limit = n
		}
	}

	entries, err := h.userRepo.Leaderboard(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch leaderboard")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch leaderboard"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}
