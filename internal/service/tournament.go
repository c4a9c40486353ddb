package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/streamerhub/hub-server-go/internal/model"
	"github.com/streamerhub/hub-server-go/internal/redis"
	"github.com/streamerhub/hub-server-go/internal/repository"
	"github.com/streamerhub/hub-server-go/internal/sse"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrInvalidBracketSize = errors.New("tournament type must be 8 or 16")
)

type TournamentService struct {
	tournamentRepo repository.TournamentRepository
	broker         *sse.Broker
}

func NewTournamentService(tournamentRepo repository.TournamentRepository, broker *sse.Broker) *TournamentService {
	return &TournamentService{tournamentRepo: tournamentRepo, broker: broker}
}

func (s *TournamentService) List(ctx context.Context, limit, offset int) ([]model.Tournament, error) {
	return s.tournamentRepo.FindAll(ctx, limit, offset)
}

func (s *TournamentService) Get(ctx context.Context, id string) (*model.Tournament, error) {
	tournament, err := s.tournamentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament == nil {
		return nil, ErrTournamentNotFound
	}
	return tournament, nil
}

func (s *TournamentService) Create(ctx context.Context, params model.CreateTournamentParams) (*model.Tournament, error) {
	if params.TournamentType != model.TournamentSize8 && params.TournamentType != model.TournamentSize16 {
		return nil, ErrInvalidBracketSize
	}

	tournament, err := s.tournamentRepo.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	event := sse.NewEvent(sse.EventTournamentCreated, tournament)
	if err := s.broker.Publish(ctx, redis.GlobalTopic, event); err != nil {
		log.Warn().Err(err).Msg("failed to publish tournament event")
	}

	log.Info().Str("tournamentId", tournament.ID).Str("title", tournament.Title).Msg("tournament created")
	return tournament, nil
}
