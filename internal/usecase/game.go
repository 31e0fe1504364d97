package usecase

import (
	"context"
	"time"

	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
)

type GameUseCase interface {
	GetOrCreateUser(ctx context.Context, userID string) (*entity.User, bool, error)
	GetUser(ctx context.Context, userID string) (*entity.User, error)

	CreateGame(ctx context.Context, actor entity.Actor, bet int64) (*entity.Outcome, error)
	AcceptGame(ctx context.Context, gameID string, actor entity.Actor) (*entity.Outcome, error)
	RejectGame(ctx context.Context, gameID string, actor entity.Actor) (*entity.Outcome, error)
	Move(ctx context.Context, gameID, actorID string, cell int) (*entity.Outcome, error)
	Surrender(ctx context.Context, gameID, actorID string) (*entity.Outcome, error)

	GetGame(ctx context.Context, gameID string) (*entity.Game, error)
	Audit(ctx context.Context, gameID string) ([]entity.LedgerEntry, error)
}

type userRepo interface {
	GetOrCreate(ctx context.Context, id string, grant int64, now time.Time) (*entity.User, bool, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

type gameRepo interface {
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	Commit(ctx context.Context, commit *entity.Commit) error
	Entries(ctx context.Context, gameID string) ([]entity.LedgerEntry, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, action string, outcome *entity.Outcome) error
}

type metricsRecorder interface {
	Committed(action string, outcome *entity.Outcome)
	Refused(action string, err error)
}

const (
	ActionCreate    = "create"
	ActionAccept    = "accept"
	ActionReject    = "reject"
	ActionMove      = "move"
	ActionSurrender = "surrender"
)
