package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/streamerhub/hub-server-go/internal/model"
)

type GiveawayRepository interface {
	FindByID(ctx context.Context, id string) (*model.Giveaway, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Giveaway, error)
	Create(ctx context.Context, params model.CreateGiveawayParams) (*model.Giveaway, error)
	DeactivateEnded(ctx context.Context) (int64, error)

	CreateEntry(ctx context.Context, giveawayID, userID string) (*model.GiveawayEntry, error)
	FindEntry(ctx context.Context, giveawayID, userID string) (*model.GiveawayEntry, error)
	CountEntries(ctx context.Context, giveawayID string) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) GiveawayRepository
}

type giveawayRepo struct {
	db sqlxDB
}

func NewGiveawayRepository(db *sqlx.DB) GiveawayRepository {
	return &giveawayRepo{db: db}
}

func (r *giveawayRepo) WithTx(tx *sqlx.Tx) GiveawayRepository {
	return &giveawayRepo{db: tx}
}

func (r *giveawayRepo) FindByID(ctx context.Context, id string) (*model.Giveaway, error) {
	var giveaway model.Giveaway
	err := r.db.GetContext(ctx, &giveaway, `
		SELECT * FROM giveaways WHERE id = $1
	`, id)
	return HandleNotFound(&giveaway, err)
}

func (r *giveawayRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Giveaway, error) {
	var giveaways []model.Giveaway
	err := r.db.SelectContext(ctx, &giveaways, `
		SELECT * FROM giveaways
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return giveaways, nil
}

func (r *giveawayRepo) Create(ctx context.Context, params model.CreateGiveawayParams) (*model.Giveaway, error) {
	var giveaway model.Giveaway
	err := r.db.GetContext(ctx, &giveaway, `
		INSERT INTO giveaways (title, description, prize, image_url, points_cost, number_of_winners, max_entries, starts_at, ends_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		RETURNING *
	`, params.Title, params.Description, params.Prize, params.ImageURL, params.PointsCost,
		params.NumberOfWinners, params.MaxEntries, params.StartsAt, params.EndsAt)
	if err != nil {
		return nil, err
	}
	return &giveaway, nil
}

func (r *giveawayRepo) DeactivateEnded(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE giveaways SET is_active = FALSE
		WHERE is_active = TRUE AND ends_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CreateEntry inserts an entry unless one already exists for the pair.
// Returns nil on a duplicate so concurrent entry attempts resolve at the
// unique constraint instead of racing a prior existence check.
func (r *giveawayRepo) CreateEntry(ctx context.Context, giveawayID, userID string) (*model.GiveawayEntry, error) {
	var entry model.GiveawayEntry
	err := r.db.GetContext(ctx, &entry, `
		INSERT INTO giveaway_entries (giveaway_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (giveaway_id, user_id) DO NOTHING
		RETURNING *
	`, giveawayID, userID)
	return HandleNotFound(&entry, err)
}

func (r *giveawayRepo) FindEntry(ctx context.Context, giveawayID, userID string) (*model.GiveawayEntry, error) {
	var entry model.GiveawayEntry
	err := r.db.GetContext(ctx, &entry, `
		SELECT * FROM giveaway_entries
		WHERE giveaway_id = $1 AND user_id = $2
	`, giveawayID, userID)
	return HandleNotFound(&entry, err)
}

func (r *giveawayRepo) CountEntries(ctx context.Context, giveawayID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM giveaway_entries WHERE giveaway_id = $1
	`, giveawayID)
	return count, err
}
