package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/streamerhub/hub-server-go/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByKickID(ctx context.Context, kickID string) (*model.User, error)
	Upsert(ctx context.Context, params model.UpsertUserParams) (*model.User, error)
	AddPoints(ctx context.Context, id string, delta int) (*model.User, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) UserRepository
}

type userRepo struct {
	db sqlxDB
}

// sqlxDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type sqlxDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) WithTx(tx *sqlx.Tx) UserRepository {
	return &userRepo{db: tx}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByKickID(ctx context.Context, kickID string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE kick_id = $1
	`, kickID)
	return HandleNotFound(&user, err)
}

// Upsert creates the user on first login and refreshes mutable profile
// fields plus last_login_at afterwards. Points, level and role flags are
// never touched on update. Atomicity rides on the unique kick_id column.
func (r *userRepo) Upsert(ctx context.Context, params model.UpsertUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (kick_id, username, display_name, avatar, email, is_subscriber, is_moderator, points, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (kick_id) DO UPDATE SET
			username = EXCLUDED.username,
			display_name = EXCLUDED.display_name,
			avatar = EXCLUDED.avatar,
			email = EXCLUDED.email,
			is_subscriber = EXCLUDED.is_subscriber,
			is_moderator = EXCLUDED.is_moderator,
			last_login_at = NOW(),
			updated_at = NOW()
		RETURNING *
	`, params.KickID, params.Username, params.DisplayName, params.Avatar, params.Email,
		params.IsSubscriber, params.IsModerator, model.StartingPoints)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) AddPoints(ctx context.Context, id string, delta int) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET
			points = points + $2,
			updated_at = NOW()
		WHERE id = $1 AND points + $2 >= 0
		RETURNING *
	`, id, delta)
	return HandleNotFound(&user, err)
}

func (r *userRepo) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, username, display_name, points,
			RANK() OVER (ORDER BY points DESC) AS rank
		FROM users
		ORDER BY points DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
