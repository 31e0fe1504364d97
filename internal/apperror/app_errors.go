package apperror

import "errors"

// Every condition here is reported back to the actor, none of them is fatal for the process.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrOutOfTurn         = errors.New("it's not your turn")
	ErrInvalidMove       = errors.New("invalid move")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrStaleState        = errors.New("game state has changed")
	ErrInvalidBet        = errors.New("invalid bet")
	ErrGameAlreadyExists = errors.New("game already exists")

	// ErrUnavailable - the storage backend could not be reached.
	ErrUnavailable = errors.New("storage unavailable")
)
