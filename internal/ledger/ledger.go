package ledger

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
)

var (
	ErrNotTerminal = errors.New("game is not finished")
	ErrMismatch    = errors.New("ledger does not match game state")
)

// Escrow - the bet taken from a player when the game is created or accepted.
func Escrow(game *entity.Game, userID string) entity.LedgerEntry {
	return entity.LedgerEntry{
		GameID: game.ID,
		UserID: userID,
		Delta:  -game.Bet,
		Reason: entity.ReasonEscrow,
	}
}

// Settle - pays the escrowed bets out according to the terminal state of the game.
func Settle(game *entity.Game) ([]entity.LedgerEntry, error) {
	switch game.State {
	case entity.StateWinnerFirst, entity.StateWinnerSecond:
		return []entity.LedgerEntry{
			{GameID: game.ID, UserID: game.Winner(), Delta: game.PrizeFund(), Reason: entity.ReasonPayout},
		}, nil
	case entity.StateNoWinner:
		return []entity.LedgerEntry{
			{GameID: game.ID, UserID: game.FirstPlayer, Delta: game.Bet, Reason: entity.ReasonRefund},
			{GameID: game.ID, UserID: game.SecondPlayer, Delta: game.Bet, Reason: entity.ReasonRefund},
		}, nil
	case entity.StateCanceled, entity.StateRejected:
		// only the creator has been charged
		return []entity.LedgerEntry{
			{GameID: game.ID, UserID: game.FirstPlayer, Delta: game.Bet, Reason: entity.ReasonRefund},
		}, nil
	default:
		return nil, fmt.Errorf("%w: game %s is %s", ErrNotTerminal, game.ID, game.State)
	}
}

// Expected - net balance change per player the game must have caused so far.
func Expected(game *entity.Game) map[string]int64 {
	net := map[string]int64{game.FirstPlayer: 0}

	switch game.State {
	case entity.StatePending:
		net[game.FirstPlayer] = -game.Bet
	case entity.StateStarted:
		net[game.FirstPlayer] = -game.Bet
		net[game.SecondPlayer] = -game.Bet
	case entity.StateWinnerFirst, entity.StateWinnerSecond:
		winner := game.Winner()
		net[winner] = game.Bet
		net[game.Opponent(winner)] = -game.Bet
	case entity.StateNoWinner:
		net[game.SecondPlayer] = 0
	}

	return net
}

// Net - sums the journal per player.
func Net(entries []entity.LedgerEntry) map[string]int64 {
	net := make(map[string]int64, 2)
	for _, entry := range entries {
		net[entry.UserID] += entry.Delta
	}

	return net
}

// Reconcile - checks that the journal of the game moved exactly the coins its state requires.
func Reconcile(game *entity.Game, entries []entity.LedgerEntry) error {
	for _, entry := range entries {
		if entry.GameID != game.ID {
			return fmt.Errorf("%w: entry of game %s in journal of %s", ErrMismatch, entry.GameID, game.ID)
		}

		if !game.IsParticipant(entry.UserID) {
			return fmt.Errorf("%w: user %s does not play game %s", ErrMismatch, entry.UserID, game.ID)
		}
	}

	actual := Net(entries)
	expected := Expected(game)

	for userID, want := range expected {
		if got := actual[userID]; got != want {
			return fmt.Errorf("%w: user %s expected %d, got %d", ErrMismatch, userID, want, got)
		}
	}

	for userID, got := range actual {
		if _, ok := expected[userID]; !ok && got != 0 {
			return fmt.Errorf("%w: user %s expected 0, got %d", ErrMismatch, userID, got)
		}
	}

	return nil
}
