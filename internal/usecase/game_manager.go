package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-bet/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
	"github.com/rocketscienceinc/tictactoe-bet/internal/ledger"
	"github.com/rocketscienceinc/tictactoe-bet/internal/tictactoe"
)

var _ GameUseCase = (*GameManager)(nil)

type GameManager struct {
	logger *slog.Logger

	userRepo  userRepo
	gameRepo  gameRepo
	publisher eventPublisher
	recorder  metricsRecorder

	coin            tictactoe.Coin
	startingBalance int64

	now   func() time.Time
	newID func() string
}

func NewGameManager(
	logger *slog.Logger,
	userRepo userRepo,
	gameRepo gameRepo,
	publisher eventPublisher,
	recorder metricsRecorder,
	coin tictactoe.Coin,
	startingBalance int64,
) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		userRepo:  userRepo,
		gameRepo:  gameRepo,
		publisher: publisher,
		recorder:  recorder,

		coin:            coin,
		startingBalance: startingBalance,

		now:   time.Now,
		newID: generateGameID,
	}
}

func (that *GameManager) CreateGame(ctx context.Context, actor entity.Actor, bet int64) (*entity.Outcome, error) {
	user, _, err := that.GetOrCreateUser(ctx, actor.ID)
	if err != nil {
		return nil, that.refuse(ActionCreate, err)
	}

	commit, err := tictactoe.Create(that.newID(), actor, bet, user.Balance, that.now())
	if err != nil {
		return nil, that.refuse(ActionCreate, err)
	}

	return that.commit(ctx, ActionCreate, commit)
}

func (that *GameManager) AcceptGame(ctx context.Context, gameID string, actor entity.Actor) (*entity.Outcome, error) {
	return that.transit(ctx, ActionAccept, gameID, actor.ID, entity.StatePending,
		func(game *entity.Game, user *entity.User) (*entity.Commit, error) {
			return tictactoe.Accept(game, actor, user.Balance, that.coin.Flip())
		})
}

func (that *GameManager) RejectGame(ctx context.Context, gameID string, actor entity.Actor) (*entity.Outcome, error) {
	return that.transit(ctx, ActionReject, gameID, actor.ID, entity.StatePending,
		func(game *entity.Game, _ *entity.User) (*entity.Commit, error) {
			return tictactoe.Reject(game, actor)
		})
}

func (that *GameManager) Move(ctx context.Context, gameID, actorID string, cell int) (*entity.Outcome, error) {
	return that.transit(ctx, ActionMove, gameID, actorID, entity.StateStarted,
		func(game *entity.Game, _ *entity.User) (*entity.Commit, error) {
			return tictactoe.Move(game, actorID, cell)
		})
}

func (that *GameManager) Surrender(ctx context.Context, gameID, actorID string) (*entity.Outcome, error) {
	return that.transit(ctx, ActionSurrender, gameID, actorID, entity.StateStarted,
		func(game *entity.Game, _ *entity.User) (*entity.Commit, error) {
			return tictactoe.Surrender(game, actorID)
		})
}

func (that *GameManager) GetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

// FindGame - the game, if it is in the expected state. Any other state counts as not found.
func (that *GameManager) FindGame(ctx context.Context, gameID string, expected entity.State) (*entity.Game, error) {
	game, err := that.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if err = game.ConfirmState(expected); err != nil {
		return nil, err
	}

	return game, nil
}

// Audit - the ledger journal of the game, checked against its state.
func (that *GameManager) Audit(ctx context.Context, gameID string) ([]entity.LedgerEntry, error) {
	game, err := that.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	entries, err := that.gameRepo.Entries(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}

	if err = ledger.Reconcile(game, entries); err != nil {
		that.logger.Error("ledger does not reconcile", "game_id", gameID, "error", err)

		return entries, fmt.Errorf("failed to reconcile game %s: %w", gameID, err)
	}

	return entries, nil
}

// transit - resolves the actor, loads the game in the expected state and commits what step derives from them.
func (that *GameManager) transit(
	ctx context.Context,
	action, gameID, actorID string,
	expected entity.State,
	step func(game *entity.Game, user *entity.User) (*entity.Commit, error),
) (*entity.Outcome, error) {
	user, _, err := that.GetOrCreateUser(ctx, actorID)
	if err != nil {
		return nil, that.refuse(action, err)
	}

	game, err := that.FindGame(ctx, gameID, expected)
	if err != nil {
		return nil, that.refuse(action, err)
	}

	commit, err := step(game, user)
	if err != nil {
		return nil, that.refuse(action, err)
	}

	commit.Game.UpdatedAt = that.now()

	return that.commit(ctx, action, commit)
}

func (that *GameManager) commit(ctx context.Context, action string, commit *entity.Commit) (*entity.Outcome, error) {
	log := that.logger.With("method", action, "game_id", commit.Game.ID)

	if err := that.gameRepo.Commit(ctx, commit); err != nil {
		return nil, that.refuse(action, fmt.Errorf("failed to commit game: %w", err))
	}

	outcome := &entity.Outcome{Game: commit.Game, Entries: commit.Entries}

	log.Info("game committed", "state", commit.Game.State, "version", commit.Game.Version, "entries", len(commit.Entries))

	if that.recorder != nil {
		that.recorder.Committed(action, outcome)
	}

	if that.publisher != nil {
		if err := that.publisher.Publish(ctx, action, outcome); err != nil {
			log.Error("failed to publish game event", "error", err)
		}
	}

	return outcome, nil
}

// refuse - counts and logs an action that changed nothing.
func (that *GameManager) refuse(action string, err error) error {
	if that.recorder != nil {
		that.recorder.Refused(action, err)
	}

	log := that.logger.With("method", action)
	if isActorError(err) {
		log.Debug("action refused", "error", err)
	} else {
		log.Error("action failed", "error", err)
	}

	return err
}

func isActorError(err error) bool {
	for _, target := range []error{
		apperror.ErrNotFound,
		apperror.ErrForbidden,
		apperror.ErrOutOfTurn,
		apperror.ErrInvalidMove,
		apperror.ErrInsufficientFunds,
		apperror.ErrStaleState,
		apperror.ErrInvalidBet,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

func generateGameID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
