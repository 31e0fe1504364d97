package repository

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-bet/internal/apperror"
)

// Replies raised by the Lua scripts with redis.error_reply.
const (
	replyExists       = "EXISTS"
	replyNotFound     = "NOTFOUND"
	replyStale        = "STALE"
	replyInsufficient = "INSUFFICIENT"
	replyNoUser       = "NOUSER"
)

// classify - turns a reply of the redis server into an application error.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%s: %w", op, apperror.ErrNotFound)
	}

	var replyErr redis.Error
	if !errors.As(err, &replyErr) {
		return fmt.Errorf("%s: %w: %w", op, apperror.ErrUnavailable, err)
	}

	switch replyErr.Error() {
	case replyExists:
		return fmt.Errorf("%s: %w", op, apperror.ErrGameAlreadyExists)
	case replyNotFound:
		return fmt.Errorf("%s: game %w", op, apperror.ErrNotFound)
	case replyNoUser:
		return fmt.Errorf("%s: user %w", op, apperror.ErrNotFound)
	case replyStale:
		return fmt.Errorf("%s: %w", op, apperror.ErrStaleState)
	case replyInsufficient:
		return fmt.Errorf("%s: %w", op, apperror.ErrInsufficientFunds)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func gameKey(id string) string {
	return "game:" + id
}

func ledgerKey(gameID string) string {
	return "ledger:" + gameID
}

func userKey(id string) string {
	return "user:" + id
}
