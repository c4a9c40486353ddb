package model

import (
	"time"
)

type BonusHuntStatus string

const (
	BonusHuntStatusOpen      BonusHuntStatus = "open"
	BonusHuntStatusStarted   BonusHuntStatus = "started"
	BonusHuntStatusCompleted BonusHuntStatus = "completed"
)

type BonusHunt struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	StartBalance   float64         `db:"start_balance" json:"startBalance"`
	CurrentBalance float64         `db:"current_balance" json:"currentBalance"`
	FinalBalance   *float64        `db:"final_balance" json:"finalBalance"`
	Status         BonusHuntStatus `db:"status" json:"status"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	StartedAt      *time.Time      `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt    *time.Time      `db:"completed_at" json:"completedAt,omitempty"`

	Bonuses []Bonus          `db:"-" json:"bonuses"`
	Guesses []BonusHuntGuess `db:"-" json:"guesses"`
}

type Bonus struct {
	ID          string     `db:"id" json:"id"`
	BonusHuntID string     `db:"bonus_hunt_id" json:"-"`
	SlotName    string     `db:"slot_name" json:"slotName"`
	Provider    string     `db:"provider" json:"provider"`
	BetSize     float64    `db:"bet_size" json:"betSize"`
	Result      *float64   `db:"result" json:"result"`
	Multiplier  *float64   `db:"multiplier" json:"multiplier"`
	IsOpened    bool       `db:"is_opened" json:"isOpened"`
	OpenedAt    *time.Time `db:"opened_at" json:"openedAt,omitempty"`
	OrderIndex  int        `db:"order_index" json:"orderIndex"`
}

type BonusHuntGuess struct {
	BonusHuntID    string    `db:"bonus_hunt_id" json:"-"`
	UserID         string    `db:"user_id" json:"userId"`
	Username       string    `db:"username" json:"username"`
	GuessedBalance float64   `db:"guessed_balance" json:"guessedBalance"`
	GuessedAt      time.Time `db:"guessed_at" json:"guessedAt"`
}

type CreateBonusHuntParams struct {
	Name         string
	StartBalance float64
}

type AddBonusParams struct {
	BonusHuntID string
	SlotName    string
	Provider    string
	BetSize     float64
	OrderIndex  int
}
