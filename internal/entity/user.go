package entity

import "time"

type User struct {
	ID        string    `json:"id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

type EntryReason string

const (
	ReasonEscrow EntryReason = "escrow"
	ReasonPayout EntryReason = "payout"
	ReasonRefund EntryReason = "refund"
)

// LedgerEntry - a single balance movement caused by a game transition.
type LedgerEntry struct {
	GameID string      `json:"game_id"`
	UserID string      `json:"user_id"`
	Delta  int64       `json:"delta"`
	Reason EntryReason `json:"reason"`
}

// Commit - a transition to store atomically.
// ExpectedState is empty when the game is created, then no record with that id may exist yet.
type Commit struct {
	Game            *Game
	ExpectedState   State
	ExpectedVersion int64
	Entries         []LedgerEntry
}

func (that *Commit) IsCreate() bool {
	return that.ExpectedState == ""
}
