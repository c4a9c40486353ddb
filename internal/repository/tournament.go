package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/streamerhub/hub-server-go/internal/model"
)

type TournamentRepository interface {
	FindByID(ctx context.Context, id string) (*model.Tournament, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Tournament, error)
	Create(ctx context.Context, params model.CreateTournamentParams) (*model.Tournament, error)
	DeactivateEnded(ctx context.Context) (int64, error)
}

type tournamentRepo struct {
	db sqlxDB
}

func NewTournamentRepository(db *sqlx.DB) TournamentRepository {
	return &tournamentRepo{db: db}
}

func (r *tournamentRepo) FindByID(ctx context.Context, id string) (*model.Tournament, error) {
	var tournament model.Tournament
	err := r.db.GetContext(ctx, &tournament, `
		SELECT * FROM tournaments WHERE id = $1
	`, id)
	return HandleNotFound(&tournament, err)
}

func (r *tournamentRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Tournament, error) {
	var tournaments []model.Tournament
	err := r.db.SelectContext(ctx, &tournaments, `
		SELECT * FROM tournaments
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *tournamentRepo) Create(ctx context.Context, params model.CreateTournamentParams) (*model.Tournament, error) {
	var tournament model.Tournament
	err := r.db.GetContext(ctx, &tournament, `
		INSERT INTO tournaments (title, description, prize, tournament_type, starts_at, ends_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING *
	`, params.Title, params.Description, params.Prize, params.TournamentType, params.StartsAt, params.EndsAt)
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (r *tournamentRepo) DeactivateEnded(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tournaments SET is_active = FALSE
		WHERE is_active = TRUE AND ends_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
