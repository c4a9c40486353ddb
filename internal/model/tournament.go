package model

import (
	"time"
)

// Tournament brackets come in two fixed sizes.
const (
	TournamentSize8  = 8
	TournamentSize16 = 16
)

type Tournament struct {
	ID             string     `db:"id" json:"id"`
	Title          string     `db:"title" json:"title"`
	Description    string     `db:"description" json:"description"`
	Prize          string     `db:"prize" json:"prize"`
	TournamentType int        `db:"tournament_type" json:"tournamentType"`
	StartsAt       time.Time  `db:"starts_at" json:"startsAt"`
	EndsAt         time.Time  `db:"ends_at" json:"endsAt"`
	IsActive       bool       `db:"is_active" json:"isActive"`
	WinnerID       *string    `db:"winner_id" json:"winnerId"`
	CompletedAt    *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

type CreateTournamentParams struct {
	Title          string
	Description    string
	Prize          string
	TournamentType int
	StartsAt       time.Time
	EndsAt         time.Time
}
