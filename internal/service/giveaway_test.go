package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/streamerhub/hub-server-go/internal/database"
	"github.com/streamerhub/hub-server-go/internal/model"
	"github.com/streamerhub/hub-server-go/internal/repository"
)

// fakeTxRunner runs the transactional body directly; the mock repositories
// ignore the tx handle.
type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type mockGiveawayRepo struct {
	findByIDFunc     func(ctx context.Context, id string) (*model.Giveaway, error)
	findAllFunc      func(ctx context.Context, limit, offset int) ([]model.Giveaway, error)
	createFunc       func(ctx context.Context, params model.CreateGiveawayParams) (*model.Giveaway, error)
	createEntryFunc  func(ctx context.Context, giveawayID, userID string) (*model.GiveawayEntry, error)
	findEntryFunc    func(ctx context.Context, giveawayID, userID string) (*model.GiveawayEntry, error)
	countEntriesFunc func(ctx context.Context, giveawayID string) (int, error)
}

func (m *mockGiveawayRepo) FindByID(ctx context.Context, id string) (*model.Giveaway, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockGiveawayRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Giveaway, error) {
	return m.findAllFunc(ctx, limit, offset)
}

func (m *mockGiveawayRepo) Create(ctx context.Context, params model.CreateGiveawayParams) (*model.Giveaway, error) {
	return m.createFunc(ctx, params)
}

func (m *mockGiveawayRepo) DeactivateEnded(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockGiveawayRepo) CreateEntry(ctx context.Context, giveawayID, userID string) (*model.GiveawayEntry, error) {
	return m.createEntryFunc(ctx, giveawayID, userID)
}

func (m *mockGiveawayRepo) FindEntry(ctx context.Context, giveawayID, userID string) (*model.GiveawayEntry, error) {
	return m.findEntryFunc(ctx, giveawayID, userID)
}

func (m *mockGiveawayRepo) CountEntries(ctx context.Context, giveawayID string) (int, error) {
	return m.countEntriesFunc(ctx, giveawayID)
}

func (m *mockGiveawayRepo) WithTx(tx *sqlx.Tx) repository.GiveawayRepository {
	return m
}

func openGiveaway(id string) *model.Giveaway {
	now := time.Now()
	return &model.Giveaway{
		ID:         id,
		Title:      "Test Giveaway",
		PointsCost: 10,
		IsActive:   true,
		StartsAt:   now.Add(-time.Hour),
		EndsAt:     now.Add(time.Hour),
	}
}

func TestEnterValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown giveaway", func(t *testing.T) {
		repo := &mockGiveawayRepo{
			findByIDFunc: func(ctx context.Context, id string) (*model.Giveaway, error) {
				return nil, nil
			},
		}
		svc := NewGiveawayService(nil, repo, nil, nil)

		_, _, err := svc.Enter(ctx, "missing", "user-1")
		assert.ErrorIs(t, err, ErrGiveawayNotFound)
	})

	t.Run("inactive giveaway", func(t *testing.T) {
		repo := &mockGiveawayRepo{
			findByIDFunc: func(ctx context.Context, id string) (*model.Giveaway, error) {
				g := openGiveaway(id)
				g.IsActive = false
				return g, nil
			},
		}
		svc := NewGiveawayService(nil, repo, nil, nil)

		_, _, err := svc.Enter(ctx, "ga-1", "user-1")
		assert.ErrorIs(t, err, ErrGiveawayClosed)
	})

	t.Run("ended giveaway", func(t *testing.T) {
		repo := &mockGiveawayRepo{
			findByIDFunc: func(ctx context.Context, id string) (*model.Giveaway, error) {
				g := openGiveaway(id)
				g.EndsAt = time.Now().Add(-time.Minute)
				return g, nil
			},
		}
		svc := NewGiveawayService(nil, repo, nil, nil)

		_, _, err := svc.Enter(ctx, "ga-1", "user-1")
		assert.ErrorIs(t, err, ErrGiveawayClosed)
	})

	t.Run("not yet started giveaway", func(t *testing.T) {
		repo := &mockGiveawayRepo{
			findByIDFunc: func(ctx context.Context, id string) (*model.Giveaway, error) {
				g := openGiveaway(id)
				g.StartsAt = time.Now().Add(time.Minute)
				return g, nil
			},
		}
		svc := NewGiveawayService(nil, repo, nil, nil)

		_, _, err := svc.Enter(ctx, "ga-1", "user-1")
		assert.ErrorIs(t, err, ErrGiveawayClosed)
	})

	t.Run("duplicate entry", func(t *testing.T) {
		repo := &mockGiveawayRepo{
			findByIDFunc: func(ctx context.Context, id string) (*model.Giveaway, error) {
				return openGiveaway(id), nil
			},
			findEntryFunc: func(ctx context.Context, giveawayID, userID string) (*model.GiveawayEntry, error) {
				return &model.GiveawayEntry{ID: "entry-1", GiveawayID: giveawayID, UserID: userID}, nil
			},
		}
		svc := NewGiveawayService(nil, repo, nil, nil)

		_, _, err := svc.Enter(ctx, "ga-1", "user-1")
		assert.ErrorIs(t, err, ErrAlreadyEntered)
	})

	t.Run("entry limit reached", func(t *testing.T) {
		maxEntries := 100
		repo := &mockGiveawayRepo{
			findByIDFunc: func(ctx context.Context, id string) (*model.Giveaway, error) {
				g := openGiveaway(id)
				g.MaxEntries = &maxEntries
				return g, nil
			},
			findEntryFunc: func(ctx context.Context, giveawayID, userID string) (*model.GiveawayEntry, error) {
				return nil, nil
			},
			countEntriesFunc: func(ctx context.Context, giveawayID string) (int, error) {
				return 100, nil
			},
		}
		svc := NewGiveawayService(nil, repo, nil, nil)

		_, _, err := svc.Enter(ctx, "ga-1", "user-1")
		assert.ErrorIs(t, err, ErrGiveawayFull)
	})

	t.Run("insufficient points", func(t *testing.T) {
		repo := &mockGiveawayRepo{
			findByIDFunc: func(ctx context.Context, id string) (*model.Giveaway, error) {
				return openGiveaway(id), nil
			},
			findEntryFunc: func(ctx context.Context, giveawayID, userID string) (*model.GiveawayEntry, error) {
				return nil, nil
			},
		}
		users := &mockUserRepo{
			addPointsFunc: func(ctx context.Context, id string, delta int) (*model.User, error) {
				return nil, nil
			},
		}
		svc := NewGiveawayService(fakeTxRunner{}, repo, users, nil)

		_, _, err := svc.Enter(ctx, "ga-1", "user-1")
		assert.ErrorIs(t, err, ErrNotEnoughPoints)
	})

	t.Run("concurrent duplicate caught at insert", func(t *testing.T) {
		var charged int
		repo := &mockGiveawayRepo{
			findByIDFunc: func(ctx context.Context, id string) (*model.Giveaway, error) {
				return openGiveaway(id), nil
			},
			findEntryFunc: func(ctx context.Context, giveawayID, userID string) (*model.GiveawayEntry, error) {
				// The other request has not landed yet at pre-check time.
				return nil, nil
			},
			createEntryFunc: func(ctx context.Context, giveawayID, userID string) (*model.GiveawayEntry, error) {
				// By insert time it has, and the conflict clause returns
				// no row.
				return nil, nil
			},
		}
		users := &mockUserRepo{
			addPointsFunc: func(ctx context.Context, id string, delta int) (*model.User, error) {
				charged = delta
				return &model.User{ID: id, Points: 90}, nil
			},
		}
		svc := NewGiveawayService(fakeTxRunner{}, repo, users, nil)

		entry, user, err := svc.Enter(ctx, "ga-1", "user-1")
		assert.Nil(t, entry)
		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrAlreadyEntered)
		assert.Equal(t, -10, charged)
	})
}
