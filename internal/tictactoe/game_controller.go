package tictactoe

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rocketscienceinc/tictactoe-bet/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
	"github.com/rocketscienceinc/tictactoe-bet/internal/ledger"
)

// Coin decides who moves first once a game is accepted.
type Coin interface {
	// Flip - true means the creator moves first.
	Flip() bool
}

type RandomCoin struct{}

func (RandomCoin) Flip() bool {
	return rand.IntN(2) == 0 //nolint: gosec // fairness only, not security
}

// FixedCoin always lands on the same side.
type FixedCoin bool

func (that FixedCoin) Flip() bool {
	return bool(that)
}

// Create - a new pending game, the creator's bet goes to escrow right away.
func Create(gameID string, creator entity.Actor, bet, balance int64, now time.Time) (*entity.Commit, error) {
	if creator.ID == "" {
		return nil, fmt.Errorf("%w: creator is required", apperror.ErrForbidden)
	}

	if bet <= 0 {
		return nil, fmt.Errorf("%w: bet must be positive, got %d", apperror.ErrInvalidBet, bet)
	}

	if balance < bet {
		return nil, fmt.Errorf("%w: balance %d, bet %d", apperror.ErrInsufficientFunds, balance, bet)
	}

	game := &entity.Game{
		ID:              gameID,
		Bet:             bet,
		FirstPlayer:     creator.ID,
		FirstPlayerName: creator.Name,
		Turn:            creator.ID,
		State:           entity.StatePending,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	return &entity.Commit{
		Game:    game,
		Entries: []entity.LedgerEntry{ledger.Escrow(game, creator.ID)},
	}, nil
}

// Accept - the second player joins with the same bet, the coin picks who starts.
func Accept(game *entity.Game, acceptor entity.Actor, balance int64, creatorFirst bool) (*entity.Commit, error) {
	if err := game.ConfirmState(entity.StatePending); err != nil {
		return nil, err
	}

	if acceptor.ID == "" {
		return nil, fmt.Errorf("%w: acceptor is required", apperror.ErrForbidden)
	}

	if acceptor.ID == game.FirstPlayer {
		return nil, fmt.Errorf("%w: cannot accept own game", apperror.ErrForbidden)
	}

	if balance < game.Bet {
		return nil, fmt.Errorf("%w: balance %d, bet %d", apperror.ErrInsufficientFunds, balance, game.Bet)
	}

	next := transit(game)
	next.SecondPlayer = acceptor.ID
	next.SecondPlayerName = acceptor.Name
	next.Board = entity.Board{}
	next.State = entity.StateStarted

	next.Turn = acceptor.ID
	if creatorFirst {
		next.Turn = game.FirstPlayer
	}

	return commit(game, next, ledger.Escrow(next, acceptor.ID)), nil
}

// Reject - the creator cancels the invitation or somebody else declines it.
// Either way only the creator gets the bet back.
func Reject(game *entity.Game, actor entity.Actor) (*entity.Commit, error) {
	if err := game.ConfirmState(entity.StatePending); err != nil {
		return nil, err
	}

	if actor.ID == "" {
		return nil, fmt.Errorf("%w: actor is required", apperror.ErrForbidden)
	}

	next := transit(game)
	if actor.ID == game.FirstPlayer {
		return finish(game, next, entity.StateCanceled)
	}

	next.SecondPlayer = actor.ID
	next.SecondPlayerName = actor.Name

	return finish(game, next, entity.StateRejected)
}

// Move - puts the actor's mark into the cell and decides whether the game is over.
func Move(game *entity.Game, actorID string, cell int) (*entity.Commit, error) {
	if err := game.ConfirmState(entity.StateStarted); err != nil {
		return nil, err
	}

	if !game.IsParticipant(actorID) {
		return nil, fmt.Errorf("%w: not a member of game %s", apperror.ErrForbidden, game.ID)
	}

	if game.Turn != actorID {
		return nil, apperror.ErrOutOfTurn
	}

	next := transit(game)
	if err := next.Board.Place(cell, game.MarkOf(actorID)); err != nil {
		return nil, err
	}

	switch winner := entity.FindWinner(next.Board); {
	case winner == entity.PlayerX:
		return finish(game, next, entity.StateWinnerFirst)
	case winner == entity.PlayerO:
		return finish(game, next, entity.StateWinnerSecond)
	case next.Board.IsFull() || entity.IsDraw(next.Board):
		return finish(game, next, entity.StateNoWinner)
	}

	next.Turn = game.Opponent(actorID)

	return commit(game, next), nil
}

// Surrender - the actor gives up and the opponent takes the whole pot.
func Surrender(game *entity.Game, actorID string) (*entity.Commit, error) {
	if err := game.ConfirmState(entity.StateStarted); err != nil {
		return nil, err
	}

	if !game.IsParticipant(actorID) {
		return nil, fmt.Errorf("%w: not a member of game %s", apperror.ErrForbidden, game.ID)
	}

	next := transit(game)

	return finish(game, next, game.WinnerState(game.Opponent(actorID)))
}

// transit - a copy of the game one version ahead.
func transit(game *entity.Game) *entity.Game {
	next := *game
	next.Version++

	return &next
}

// finish - moves the game into a terminal state and settles the escrow.
func finish(prev, next *entity.Game, state entity.State) (*entity.Commit, error) {
	next.State = state
	next.Turn = ""

	entries, err := ledger.Settle(next)
	if err != nil {
		return nil, fmt.Errorf("failed to settle game: %w", err)
	}

	return commit(prev, next, entries...), nil
}

func commit(prev, next *entity.Game, entries ...entity.LedgerEntry) *entity.Commit {
	return &entity.Commit{
		Game:            next,
		ExpectedState:   prev.State,
		ExpectedVersion: prev.Version,
		Entries:         entries,
	}
}
