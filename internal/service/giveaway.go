package service

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/streamerhub/hub-server-go/internal/database"
	"github.com/streamerhub/hub-server-go/internal/model"
	"github.com/streamerhub/hub-server-go/internal/redis"
	"github.com/streamerhub/hub-server-go/internal/repository"
	"github.com/streamerhub/hub-server-go/internal/sse"
)

var (
	ErrGiveawayNotFound = errors.New("giveaway not found")
	ErrGiveawayClosed   = errors.New("giveaway is not open for entries")
	ErrAlreadyEntered   = errors.New("already entered this giveaway")
	ErrNotEnoughPoints  = errors.New("not enough points to enter")
	ErrGiveawayFull     = errors.New("giveaway entry limit reached")
)

// txRunner is the slice of *database.DB the service needs, kept narrow so
// tests can drive the transactional path without a live database.
type txRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

type GiveawayService struct {
	db           txRunner
	giveawayRepo repository.GiveawayRepository
	userRepo     repository.UserRepository
	broker       *sse.Broker
}

func NewGiveawayService(
	db txRunner,
	giveawayRepo repository.GiveawayRepository,
	userRepo repository.UserRepository,
	broker *sse.Broker,
) *GiveawayService {
	return &GiveawayService{
		db:           db,
		giveawayRepo: giveawayRepo,
		userRepo:     userRepo,
		broker:       broker,
	}
}

func (s *GiveawayService) List(ctx context.Context, limit, offset int) ([]model.Giveaway, error) {
	giveaways, err := s.giveawayRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	for i := range giveaways {
		count, err := s.giveawayRepo.CountEntries(ctx, giveaways[i].ID)
		if err != nil {
			return nil, err
		}
		giveaways[i].EntryCount = count
	}
	return giveaways, nil
}

func (s *GiveawayService) Get(ctx context.Context, id string) (*model.Giveaway, error) {
	giveaway, err := s.giveawayRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if giveaway == nil {
		return nil, ErrGiveawayNotFound
	}

	count, err := s.giveawayRepo.CountEntries(ctx, id)
	if err != nil {
		return nil, err
	}
	giveaway.EntryCount = count
	return giveaway, nil
}

func (s *GiveawayService) Create(ctx context.Context, params model.CreateGiveawayParams) (*model.Giveaway, error) {
	giveaway, err := s.giveawayRepo.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	s.publishGlobal(ctx, sse.EventGiveawayCreated, giveaway)

	log.Info().Str("giveawayId", giveaway.ID).Str("title", giveaway.Title).Msg("giveaway created")
	return giveaway, nil
}

// Enter charges the entry cost and records the entry in one transaction.
// The points deduction and the entry row must land together or not at all.
func (s *GiveawayService) Enter(ctx context.Context, giveawayID, userID string) (*model.GiveawayEntry, *model.User, error) {
	giveaway, err := s.giveawayRepo.FindByID(ctx, giveawayID)
	if err != nil {
		return nil, nil, err
	}
	if giveaway == nil {
		return nil, nil, ErrGiveawayNotFound
	}

	now := time.Now()
	if !giveaway.IsActive || now.Before(giveaway.StartsAt) || now.After(giveaway.EndsAt) {
		return nil, nil, ErrGiveawayClosed
	}

	existing, err := s.giveawayRepo.FindEntry(ctx, giveawayID, userID)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrAlreadyEntered
	}

	if giveaway.MaxEntries != nil {
		count, err := s.giveawayRepo.CountEntries(ctx, giveawayID)
		if err != nil {
			return nil, nil, err
		}
		if count >= *giveaway.MaxEntries {
			return nil, nil, ErrGiveawayFull
		}
	}

	var entry *model.GiveawayEntry
	var user *model.User

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if giveaway.PointsCost > 0 {
			user, err = s.userRepo.WithTx(tx).AddPoints(ctx, userID, -giveaway.PointsCost)
			if err != nil {
				return err
			}
			if user == nil {
				return ErrNotEnoughPoints
			}
		} else {
			user, err = s.userRepo.WithTx(tx).FindByID(ctx, userID)
			if err != nil {
				return err
			}
		}

		entry, err = s.giveawayRepo.WithTx(tx).CreateEntry(ctx, giveawayID, userID)
		if err != nil {
			return err
		}
		// A concurrent entry that landed after the pre-check surfaces here
		// as a conflict; rolling back also reverses the points charge.
		if entry == nil {
			return ErrAlreadyEntered
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.publishGlobal(ctx, sse.EventGiveawayEntry, map[string]any{
		"giveawayId": giveawayID,
		"userId":     userID,
	})
	if user != nil {
		s.publishUser(ctx, userID, sse.EventPointsUpdated, map[string]any{
			"userId": userID,
			"points": user.Points,
		})
	}

	log.Info().
		Str("giveawayId", giveawayID).
		Str("userId", userID).
		Int("pointsCost", giveaway.PointsCost).
		Msg("giveaway entry recorded")

	return entry, user, nil
}

func (s *GiveawayService) publishGlobal(ctx context.Context, eventType string, payload any) {
	if err := s.broker.Publish(ctx, redis.GlobalTopic, sse.NewEvent(eventType, payload)); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("failed to publish event")
	}
}

func (s *GiveawayService) publishUser(ctx context.Context, userID, eventType string, payload any) {
	if err := s.broker.Publish(ctx, redis.UserTopic(userID), sse.NewEvent(eventType, payload)); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("failed to publish user event")
	}
}
