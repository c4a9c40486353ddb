package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/streamerhub/hub-server-go/internal/model"
	"github.com/streamerhub/hub-server-go/internal/redis"
	"github.com/streamerhub/hub-server-go/internal/repository"
	"github.com/streamerhub/hub-server-go/internal/sse"
)

var (
	ErrHuntNotFound   = errors.New("bonus hunt not found")
	ErrGuessingClosed = errors.New("predictions are closed for this hunt")
	ErrBonusNotFound  = errors.New("bonus not found or already opened")
)

type BonusHuntService struct {
	huntRepo repository.BonusHuntRepository
	broker   *sse.Broker
}

func NewBonusHuntService(huntRepo repository.BonusHuntRepository, broker *sse.Broker) *BonusHuntService {
	return &BonusHuntService{huntRepo: huntRepo, broker: broker}
}

func (s *BonusHuntService) List(ctx context.Context, limit, offset int) ([]model.BonusHunt, error) {
	hunts, err := s.huntRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	for i := range hunts {
		if err := s.attachDetails(ctx, &hunts[i]); err != nil {
			return nil, err
		}
	}
	return hunts, nil
}

func (s *BonusHuntService) Get(ctx context.Context, id string) (*model.BonusHunt, error) {
	hunt, err := s.huntRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if hunt == nil {
		return nil, ErrHuntNotFound
	}

	if err := s.attachDetails(ctx, hunt); err != nil {
		return nil, err
	}
	return hunt, nil
}

func (s *BonusHuntService) attachDetails(ctx context.Context, hunt *model.BonusHunt) error {
	bonuses, err := s.huntRepo.FindBonuses(ctx, hunt.ID)
	if err != nil {
		return fmt.Errorf("find bonuses: %w", err)
	}
	guesses, err := s.huntRepo.FindGuesses(ctx, hunt.ID)
	if err != nil {
		return fmt.Errorf("find guesses: %w", err)
	}
	hunt.Bonuses = bonuses
	hunt.Guesses = guesses
	return nil
}

func (s *BonusHuntService) Create(ctx context.Context, params model.CreateBonusHuntParams) (*model.BonusHunt, error) {
	hunt, err := s.huntRepo.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	hunt.Bonuses = []model.Bonus{}
	hunt.Guesses = []model.BonusHuntGuess{}

	s.publish(ctx, sse.EventBonusHuntCreated, hunt)

	log.Info().Str("huntId", hunt.ID).Str("name", hunt.Name).Msg("bonus hunt created")
	return hunt, nil
}

func (s *BonusHuntService) AddBonus(ctx context.Context, params model.AddBonusParams) (*model.Bonus, error) {
	hunt, err := s.huntRepo.FindByID(ctx, params.BonusHuntID)
	if err != nil {
		return nil, err
	}
	if hunt == nil {
		return nil, ErrHuntNotFound
	}

	return s.huntRepo.AddBonus(ctx, params)
}

// OpenBonus records a bonus result, rolls it into the hunt balance and
// pushes the reveal to connected clients. The ownership check and the
// balance update happen in the repository's single statement, so a bonus id
// from another hunt never mutates anything.
func (s *BonusHuntService) OpenBonus(ctx context.Context, huntID, bonusID string, result, multiplier float64) (*model.Bonus, error) {
	hunt, err := s.huntRepo.FindByID(ctx, huntID)
	if err != nil {
		return nil, err
	}
	if hunt == nil {
		return nil, ErrHuntNotFound
	}

	bonus, newBalance, err := s.huntRepo.OpenBonus(ctx, huntID, bonusID, result, multiplier)
	if err != nil {
		return nil, err
	}
	if bonus == nil {
		return nil, ErrBonusNotFound
	}

	s.publish(ctx, sse.EventBonusOpened, map[string]any{
		"huntId":         huntID,
		"bonus":          bonus,
		"currentBalance": newBalance,
	})

	return bonus, nil
}

func (s *BonusHuntService) UpdateStatus(ctx context.Context, id string, status model.BonusHuntStatus) (*model.BonusHunt, error) {
	hunt, err := s.huntRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if hunt == nil {
		return nil, ErrHuntNotFound
	}
	return hunt, nil
}

// SubmitGuess upserts a balance prediction while the hunt is still open.
func (s *BonusHuntService) SubmitGuess(ctx context.Context, huntID, userID string, guessedBalance float64) (*model.BonusHuntGuess, error) {
	hunt, err := s.huntRepo.FindByID(ctx, huntID)
	if err != nil {
		return nil, err
	}
	if hunt == nil {
		return nil, ErrHuntNotFound
	}
	if hunt.Status != model.BonusHuntStatusOpen {
		return nil, ErrGuessingClosed
	}

	guess, err := s.huntRepo.UpsertGuess(ctx, huntID, userID, guessedBalance)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, sse.EventGuessSubmitted, guess)

	return guess, nil
}

func (s *BonusHuntService) publish(ctx context.Context, eventType string, payload any) {
	if err := s.broker.Publish(ctx, redis.GlobalTopic, sse.NewEvent(eventType, payload)); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("failed to publish event")
	}
}
