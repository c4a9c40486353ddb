package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamerhub/hub-server-go/internal/model"
)

type mockBonusHuntRepo struct {
	findByIDFunc    func(ctx context.Context, id string) (*model.BonusHunt, error)
	findAllFunc     func(ctx context.Context, limit, offset int) ([]model.BonusHunt, error)
	createFunc      func(ctx context.Context, params model.CreateBonusHuntParams) (*model.BonusHunt, error)
	updateStatus    func(ctx context.Context, id string, status model.BonusHuntStatus) (*model.BonusHunt, error)
	addBonusFunc    func(ctx context.Context, params model.AddBonusParams) (*model.Bonus, error)
	findBonusesFunc func(ctx context.Context, huntID string) ([]model.Bonus, error)
	openBonusFunc   func(ctx context.Context, huntID, bonusID string, result, multiplier float64) (*model.Bonus, float64, error)
	upsertGuessFunc func(ctx context.Context, huntID, userID string, guessedBalance float64) (*model.BonusHuntGuess, error)
	findGuessesFunc func(ctx context.Context, huntID string) ([]model.BonusHuntGuess, error)
}

func (m *mockBonusHuntRepo) FindByID(ctx context.Context, id string) (*model.BonusHunt, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockBonusHuntRepo) FindAll(ctx context.Context, limit, offset int) ([]model.BonusHunt, error) {
	return m.findAllFunc(ctx, limit, offset)
}

func (m *mockBonusHuntRepo) Create(ctx context.Context, params model.CreateBonusHuntParams) (*model.BonusHunt, error) {
	return m.createFunc(ctx, params)
}

func (m *mockBonusHuntRepo) UpdateStatus(ctx context.Context, id string, status model.BonusHuntStatus) (*model.BonusHunt, error) {
	return m.updateStatus(ctx, id, status)
}

func (m *mockBonusHuntRepo) AddBonus(ctx context.Context, params model.AddBonusParams) (*model.Bonus, error) {
	return m.addBonusFunc(ctx, params)
}

func (m *mockBonusHuntRepo) FindBonuses(ctx context.Context, huntID string) ([]model.Bonus, error) {
	return m.findBonusesFunc(ctx, huntID)
}

func (m *mockBonusHuntRepo) OpenBonus(ctx context.Context, huntID, bonusID string, result, multiplier float64) (*model.Bonus, float64, error) {
	return m.openBonusFunc(ctx, huntID, bonusID, result, multiplier)
}

func (m *mockBonusHuntRepo) UpsertGuess(ctx context.Context, huntID, userID string, guessedBalance float64) (*model.BonusHuntGuess, error) {
	return m.upsertGuessFunc(ctx, huntID, userID, guessedBalance)
}

func (m *mockBonusHuntRepo) FindGuesses(ctx context.Context, huntID string) ([]model.BonusHuntGuess, error) {
	return m.findGuessesFunc(ctx, huntID)
}

func TestSubmitGuessValidation(t *testing.T) {
	t.Run("unknown hunt", func(t *testing.T) {
		repo := &mockBonusHuntRepo{
			findByIDFunc: func(ctx context.Context, id string) (*model.BonusHunt, error) {
				return nil, nil
			},
		}
		svc := NewBonusHuntService(repo, nil)

		guess, err := svc.SubmitGuess(context.Background(), "missing", "user-1", 500)
		assert.Nil(t, guess)
		assert.ErrorIs(t, err, ErrHuntNotFound)
	})

	t.Run("guessing closed once started", func(t *testing.T) {
		for _, status := range []model.BonusHuntStatus{model.BonusHuntStatusStarted, model.BonusHuntStatusCompleted} {
			repo := &mockBonusHuntRepo{
				findByIDFunc: func(ctx context.Context, id string) (*model.BonusHunt, error) {
					return &model.BonusHunt{ID: id, Status: status}, nil
				},
			}
			svc := NewBonusHuntService(repo, nil)

			guess, err := svc.SubmitGuess(context.Background(), "hunt-1", "user-1", 500)
			assert.Nil(t, guess)
			assert.ErrorIs(t, err, ErrGuessingClosed, string(status))
		}
	})
}

func TestOpenBonusValidation(t *testing.T) {
	t.Run("unknown hunt", func(t *testing.T) {
		repo := &mockBonusHuntRepo{
			findByIDFunc: func(ctx context.Context, id string) (*model.BonusHunt, error) {
				return nil, nil
			},
		}
		svc := NewBonusHuntService(repo, nil)

		bonus, err := svc.OpenBonus(context.Background(), "missing", "bonus-1", 100, 2)
		assert.Nil(t, bonus)
		assert.ErrorIs(t, err, ErrHuntNotFound)
	})

	t.Run("already opened bonus", func(t *testing.T) {
		repo := &mockBonusHuntRepo{
			findByIDFunc: func(ctx context.Context, id string) (*model.BonusHunt, error) {
				return &model.BonusHunt{ID: id, Status: model.BonusHuntStatusStarted}, nil
			},
			openBonusFunc: func(ctx context.Context, huntID, bonusID string, result, multiplier float64) (*model.Bonus, float64, error) {
				return nil, 0, nil
			},
		}
		svc := NewBonusHuntService(repo, nil)

		bonus, err := svc.OpenBonus(context.Background(), "hunt-1", "bonus-1", 100, 2)
		assert.Nil(t, bonus)
		assert.ErrorIs(t, err, ErrBonusNotFound)
	})

	t.Run("open is scoped to the requested hunt", func(t *testing.T) {
		var gotHuntID, gotBonusID string
		repo := &mockBonusHuntRepo{
			findByIDFunc: func(ctx context.Context, id string) (*model.BonusHunt, error) {
				return &model.BonusHunt{ID: id, Status: model.BonusHuntStatusStarted}, nil
			},
			openBonusFunc: func(ctx context.Context, huntID, bonusID string, result, multiplier float64) (*model.Bonus, float64, error) {
				gotHuntID = huntID
				gotBonusID = bonusID
				// The scoped update matches nothing when the bonus belongs
				// to another hunt.
				return nil, 0, nil
			},
		}
		svc := NewBonusHuntService(repo, nil)

		bonus, err := svc.OpenBonus(context.Background(), "hunt-1", "bonus-from-other-hunt", 100, 2)
		assert.Nil(t, bonus)
		assert.ErrorIs(t, err, ErrBonusNotFound)
		assert.Equal(t, "hunt-1", gotHuntID)
		assert.Equal(t, "bonus-from-other-hunt", gotBonusID)
	})
}

func TestAddBonusUnknownHunt(t *testing.T) {
	repo := &mockBonusHuntRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.BonusHunt, error) {
			return nil, nil
		},
	}
	svc := NewBonusHuntService(repo, nil)

	bonus, err := svc.AddBonus(context.Background(), model.AddBonusParams{BonusHuntID: "missing"})
	assert.Nil(t, bonus)
	assert.ErrorIs(t, err, ErrHuntNotFound)
}
