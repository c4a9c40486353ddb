package model

import (
	"time"
)

// StartingPoints is the balance granted on first login.
const StartingPoints = 20

type User struct {
	ID           string     `db:"id" json:"id"`
	KickID       string     `db:"kick_id" json:"providerId"`
	Username     string     `db:"username" json:"username"`
	DisplayName  string     `db:"display_name" json:"displayName"`
	Avatar       *string    `db:"avatar" json:"avatar"`
	Email        *string    `db:"email" json:"email"`
	Points       int        `db:"points" json:"points"`
	Level        int        `db:"level" json:"level"`
	IsVIP        bool       `db:"is_vip" json:"isVip"`
	IsModerator  bool       `db:"is_moderator" json:"isModerator"`
	IsSubscriber bool       `db:"is_subscriber" json:"isSubscriber"`
	IsAdmin      bool       `db:"is_admin" json:"isAdmin"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
}

// UpsertUserParams carries the normalized profile fields written on every login.
// Points, level and role flags are only set on first insert.
type UpsertUserParams struct {
	KickID       string
	Username     string
	DisplayName  string
	Avatar       *string
	Email        *string
	IsSubscriber bool
	IsModerator  bool
}

type LeaderboardEntry struct {
	UserID      string `db:"id" json:"userId"`
	Username    string `db:"username" json:"username"`
	DisplayName string `db:"display_name" json:"displayName"`
	Points      int    `db:"points" json:"points"`
	Rank        int    `db:"rank" json:"rank"`
}
