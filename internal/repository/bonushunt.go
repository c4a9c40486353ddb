package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/streamerhub/hub-server-go/internal/model"
)

type BonusHuntRepository interface {
	FindByID(ctx context.Context, id string) (*model.BonusHunt, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.BonusHunt, error)
	Create(ctx context.Context, params model.CreateBonusHuntParams) (*model.BonusHunt, error)
	UpdateStatus(ctx context.Context, id string, status model.BonusHuntStatus) (*model.BonusHunt, error)

	AddBonus(ctx context.Context, params model.AddBonusParams) (*model.Bonus, error)
	FindBonuses(ctx context.Context, huntID string) ([]model.Bonus, error)
	OpenBonus(ctx context.Context, huntID, bonusID string, result, multiplier float64) (*model.Bonus, float64, error)

	UpsertGuess(ctx context.Context, huntID, userID string, guessedBalance float64) (*model.BonusHuntGuess, error)
	FindGuesses(ctx context.Context, huntID string) ([]model.BonusHuntGuess, error)
}

type bonusHuntRepo struct {
	db sqlxDB
}

func NewBonusHuntRepository(db *sqlx.DB) BonusHuntRepository {
	return &bonusHuntRepo{db: db}
}

func (r *bonusHuntRepo) FindByID(ctx context.Context, id string) (*model.BonusHunt, error) {
	var hunt model.BonusHunt
	err := r.db.GetContext(ctx, &hunt, `
		SELECT * FROM bonus_hunts WHERE id = $1
	`, id)
	return HandleNotFound(&hunt, err)
}

func (r *bonusHuntRepo) FindAll(ctx context.Context, limit, offset int) ([]model.BonusHunt, error) {
	var hunts []model.BonusHunt
	err := r.db.SelectContext(ctx, &hunts, `
		SELECT * FROM bonus_hunts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return hunts, nil
}

func (r *bonusHuntRepo) Create(ctx context.Context, params model.CreateBonusHuntParams) (*model.BonusHunt, error) {
	var hunt model.BonusHunt
	err := r.db.GetContext(ctx, &hunt, `
		INSERT INTO bonus_hunts (name, start_balance, current_balance, status)
		VALUES ($1, $2, $2, $3)
		RETURNING *
	`, params.Name, params.StartBalance, model.BonusHuntStatusOpen)
	if err != nil {
		return nil, err
	}
	return &hunt, nil
}

func (r *bonusHuntRepo) UpdateStatus(ctx context.Context, id string, status model.BonusHuntStatus) (*model.BonusHunt, error) {
	var hunt model.BonusHunt
	err := r.db.GetContext(ctx, &hunt, `
		UPDATE bonus_hunts SET
			status = $2,
			started_at = CASE WHEN $2 = 'started' THEN NOW() ELSE started_at END,
			completed_at = CASE WHEN $2 = 'completed' THEN NOW() ELSE completed_at END,
			final_balance = CASE WHEN $2 = 'completed' THEN current_balance ELSE final_balance END
		WHERE id = $1
		RETURNING *
	`, id, status)
	return HandleNotFound(&hunt, err)
}

func (r *bonusHuntRepo) AddBonus(ctx context.Context, params model.AddBonusParams) (*model.Bonus, error) {
	var bonus model.Bonus
	err := r.db.GetContext(ctx, &bonus, `
		INSERT INTO bonuses (bonus_hunt_id, slot_name, provider, bet_size, order_index)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.BonusHuntID, params.SlotName, params.Provider, params.BetSize, params.OrderIndex)
	if err != nil {
		return nil, err
	}
	return &bonus, nil
}

func (r *bonusHuntRepo) FindBonuses(ctx context.Context, huntID string) ([]model.Bonus, error) {
	var bonuses []model.Bonus
	err := r.db.SelectContext(ctx, &bonuses, `
		SELECT * FROM bonuses
		WHERE bonus_hunt_id = $1
		ORDER BY order_index ASC
	`, huntID)
	if err != nil {
		return nil, err
	}
	return bonuses, nil
}

type openedBonusRow struct {
	model.Bonus
	CurrentBalance float64 `db:"current_balance"`
}

// OpenBonus records the result for an unopened bonus belonging to the given
// hunt and rolls it into the hunt balance in one statement, so a mismatched
// hunt id cannot consume the bonus and concurrent opens cannot lose a result.
// Returns nil when the bonus does not exist, is already opened, or belongs to
// a different hunt.
func (r *bonusHuntRepo) OpenBonus(ctx context.Context, huntID, bonusID string, result, multiplier float64) (*model.Bonus, float64, error) {
	var row openedBonusRow
	err := r.db.GetContext(ctx, &row, `
		WITH opened AS (
			UPDATE bonuses SET
				result = $3,
				multiplier = $4,
				is_opened = TRUE,
				opened_at = NOW()
			WHERE id = $2 AND bonus_hunt_id = $1 AND is_opened = FALSE
			RETURNING *
		)
		UPDATE bonus_hunts h SET current_balance = h.current_balance + $3
		FROM opened o
		WHERE h.id = o.bonus_hunt_id
		RETURNING o.id, o.bonus_hunt_id, o.slot_name, o.provider, o.bet_size,
			o.result, o.multiplier, o.is_opened, o.opened_at, o.order_index,
			h.current_balance
	`, huntID, bonusID, result, multiplier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return &row.Bonus, row.CurrentBalance, nil
}

func (r *bonusHuntRepo) UpsertGuess(ctx context.Context, huntID, userID string, guessedBalance float64) (*model.BonusHuntGuess, error) {
	var guess model.BonusHuntGuess
	err := r.db.GetContext(ctx, &guess, `
		INSERT INTO bonus_hunt_guesses (bonus_hunt_id, user_id, guessed_balance, guessed_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (bonus_hunt_id, user_id) DO UPDATE SET
			guessed_balance = EXCLUDED.guessed_balance,
			guessed_at = NOW()
		RETURNING bonus_hunt_id, user_id, guessed_balance, guessed_at,
			(SELECT username FROM users WHERE id = $2) AS username
	`, huntID, userID, guessedBalance)
	if err != nil {
		return nil, err
	}
	return &guess, nil
}

func (r *bonusHuntRepo) FindGuesses(ctx context.Context, huntID string) ([]model.BonusHuntGuess, error) {
	var guesses []model.BonusHuntGuess
	err := r.db.SelectContext(ctx, &guesses, `
		SELECT g.bonus_hunt_id, g.user_id, g.guessed_balance, g.guessed_at, u.username
		FROM bonus_hunt_guesses g
		JOIN users u ON u.id = g.user_id
		WHERE g.bonus_hunt_id = $1
		ORDER BY g.guessed_at ASC
	`, huntID)
	if err != nil {
		return nil, err
	}
	return guesses, nil
}
