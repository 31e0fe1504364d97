package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-bet/internal/apperror"
)

type State string

const (
	StatePending      State = "pending"
	StateStarted      State = "started"
	StateWinnerFirst  State = "winner_first"
	StateWinnerSecond State = "winner_second"
	StateNoWinner     State = "no_winner"
	StateCanceled     State = "canceled"
	StateRejected     State = "rejected"
)

func (that State) IsTerminal() bool {
	switch that {
	case StateWinnerFirst, StateWinnerSecond, StateNoWinner, StateCanceled, StateRejected:
		return true
	default:
		return false
	}
}

// Actor - the user who submits an action, together with the name shown to the other player.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type Game struct {
	ID  string `json:"id"`
	Bet int64  `json:"bet"`

	FirstPlayer      string `json:"first_player"`
	FirstPlayerName  string `json:"first_player_name,omitempty"`
	SecondPlayer     string `json:"second_player,omitempty"`
	SecondPlayerName string `json:"second_player_name,omitempty"`

	Board Board  `json:"board"`
	Turn  string `json:"turn,omitempty"`
	State State  `json:"state"`

	// Version grows by one with every committed transition.
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (that *Game) IsPending() bool {
	return that.State == StatePending
}

func (that *Game) IsStarted() bool {
	return that.State == StateStarted
}

func (that *Game) IsFinished() bool {
	return that.State.IsTerminal()
}

// ConfirmState - returns ErrNotFound when the game is not in the expected state.
func (that *Game) ConfirmState(expected State) error {
	if that.State != expected {
		return fmt.Errorf("%w: game %s is %s, not %s", apperror.ErrNotFound, that.ID, that.State, expected)
	}

	return nil
}

func (that *Game) IsParticipant(userID string) bool {
	if userID == "" {
		return false
	}

	return userID == that.FirstPlayer || userID == that.SecondPlayer
}

// MarkOf - the creator always plays X, the second player O.
func (that *Game) MarkOf(userID string) Mark {
	switch userID {
	case "":
		return EmptyCell
	case that.FirstPlayer:
		return PlayerX
	case that.SecondPlayer:
		return PlayerO
	default:
		return EmptyCell
	}
}

// Opponent - returns the other participant, or an empty string for outsiders.
func (that *Game) Opponent(userID string) string {
	switch userID {
	case "":
		return ""
	case that.FirstPlayer:
		return that.SecondPlayer
	case that.SecondPlayer:
		return that.FirstPlayer
	default:
		return ""
	}
}

func (that *Game) NameOf(userID string) string {
	switch userID {
	case "":
		return ""
	case that.FirstPlayer:
		return that.FirstPlayerName
	case that.SecondPlayer:
		return that.SecondPlayerName
	default:
		return ""
	}
}

func (that *Game) TurnName() string {
	return that.NameOf(that.Turn)
}

// PrizeFund - the whole pot paid out to the winner.
func (that *Game) PrizeFund() int64 {
	return 2 * that.Bet
}

// Winner - id of the winning player, empty unless the game finished with a winner.
func (that *Game) Winner() string {
	switch that.State {
	case StateWinnerFirst:
		return that.FirstPlayer
	case StateWinnerSecond:
		return that.SecondPlayer
	default:
		return ""
	}
}

// WinnerState - the terminal state that declares the given participant the winner.
func (that *Game) WinnerState(userID string) State {
	if userID == that.FirstPlayer {
		return StateWinnerFirst
	}

	return StateWinnerSecond
}

// Outcome - the committed game together with the balance movements it caused.
type Outcome struct {
	Game    *Game         `json:"game"`
	Entries []LedgerEntry `json:"entries,omitempty"`
}
