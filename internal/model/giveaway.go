package model

import (
	"time"
)

type Giveaway struct {
	ID              string    `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	Prize           string    `db:"prize" json:"prize"`
	ImageURL        *string   `db:"image_url" json:"imageUrl"`
	PointsCost      int       `db:"points_cost" json:"pointsCost"`
	NumberOfWinners int       `db:"number_of_winners" json:"numberOfWinners"`
	MaxEntries      *int      `db:"max_entries" json:"maxEntries"`
	StartsAt        time.Time `db:"starts_at" json:"startsAt"`
	EndsAt          time.Time `db:"ends_at" json:"endsAt"`
	IsActive        bool      `db:"is_active" json:"isActive"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`

	EntryCount int `db:"-" json:"entryCount"`
}

type GiveawayEntry struct {
	ID         string    `db:"id" json:"id"`
	GiveawayID string    `db:"giveaway_id" json:"giveawayId"`
	UserID     string    `db:"user_id" json:"userId"`
	EnteredAt  time.Time `db:"entered_at" json:"enteredAt"`
}

type CreateGiveawayParams struct {
	Title           string
	Description     string
	Prize           string
	ImageURL        *string
	PointsCost      int
	NumberOfWinners int
	MaxEntries      *int
	StartsAt        time.Time
	EndsAt          time.Time
}
