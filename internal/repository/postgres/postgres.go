package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rocketscienceinc/tictactoe-bet/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
)

// Store keeps users, games and the ledger in postgres.
// Every commit is one transaction guarded by the expected state and version of the game row.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

func (that *Store) GetOrCreate(ctx context.Context, id string, grant int64, now time.Time) (*entity.User, bool, error) {
	query := `
		INSERT INTO users (id, balance, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`

	tag, err := that.pool.Exec(ctx, query, id, grant, now)
	if err != nil {
		return nil, false, classify(err, "can't create user")
	}

	user, err := that.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	return user, tag.RowsAffected() == 1, nil
}

func (that *Store) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT id, balance, created_at FROM users WHERE id = $1`

	var user entity.User

	err := that.pool.QueryRow(ctx, query, id).Scan(&user.ID, &user.Balance, &user.CreatedAt)
	if err != nil {
		return nil, classify(err, "can't find user "+id)
	}

	return &user, nil
}

// Games - the game side of the store, its GetByID looks up games rather than users.
func (that *Store) Games() *Games {
	return &Games{pool: that.pool}
}

type Games struct {
	pool *pgxpool.Pool
}

func (that *Games) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	query := `SELECT data FROM games WHERE id = $1`

	var game entity.Game

	if err := that.pool.QueryRow(ctx, query, id).Scan(&game); err != nil {
		return nil, classify(err, "can't find game "+id)
	}

	return &game, nil
}

func (that *Games) Commit(ctx context.Context, commit *entity.Commit) error {
	tx, err := that.pool.Begin(ctx)
	if err != nil {
		return classify(err, "can't begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if commit.IsCreate() {
		err = insertGame(ctx, tx, commit.Game)
	} else {
		err = updateGame(ctx, tx, commit)
	}

	if err != nil {
		return err
	}

	// users are locked in id order by every transaction, so two games never deadlock
	entries := slices.Clone(commit.Entries)
	slices.SortStableFunc(entries, func(a, b entity.LedgerEntry) int {
		return strings.Compare(a.UserID, b.UserID)
	})

	for _, entry := range entries {
		if err = adjustBalance(ctx, tx, entry.UserID, entry.Delta); err != nil {
			return err
		}

		query := `INSERT INTO ledger_entries (game_id, user_id, delta, reason) VALUES ($1, $2, $3, $4)`
		if _, err = tx.Exec(ctx, query, entry.GameID, entry.UserID, entry.Delta, entry.Reason); err != nil {
			return classify(err, "can't save ledger entry")
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return classify(err, "can't commit game "+commit.Game.ID)
	}

	return nil
}

func (that *Games) Entries(ctx context.Context, gameID string) ([]entity.LedgerEntry, error) {
	query := `SELECT game_id, user_id, delta, reason FROM ledger_entries WHERE game_id = $1 ORDER BY id`

	rows, err := that.pool.Query(ctx, query, gameID)
	if err != nil {
		return nil, classify(err, "can't read ledger of game "+gameID)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.LedgerEntry, error) {
		var entry entity.LedgerEntry
		err := row.Scan(&entry.GameID, &entry.UserID, &entry.Delta, &entry.Reason)

		return entry, err
	})
	if err != nil {
		return nil, classify(err, "can't read ledger of game "+gameID)
	}

	return entries, nil
}

func insertGame(ctx context.Context, tx pgx.Tx, game *entity.Game) error {
	query := `
		INSERT INTO games (id, state, version, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	tag, err := tx.Exec(ctx, query, game.ID, game.State, game.Version, game, game.CreatedAt, game.UpdatedAt)
	if err != nil {
		return classify(err, "can't create game")
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("game %s: %w", game.ID, apperror.ErrGameAlreadyExists)
	}

	return nil
}

func updateGame(ctx context.Context, tx pgx.Tx, commit *entity.Commit) error {
	game := commit.Game

	query := `
		UPDATE games SET state = $1, version = $2, data = $3, updated_at = $4
		WHERE id = $5 AND state = $6 AND version = $7`

	tag, err := tx.Exec(ctx, query,
		game.State, game.Version, game, game.UpdatedAt,
		game.ID, commit.ExpectedState, commit.ExpectedVersion,
	)
	if err != nil {
		return classify(err, "can't update game")
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`, game.ID).Scan(&exists); err != nil {
		return classify(err, "can't find game")
	}

	if !exists {
		return fmt.Errorf("game %s: %w", game.ID, apperror.ErrNotFound)
	}

	return fmt.Errorf("game %s: %w", game.ID, apperror.ErrStaleState)
}

// adjustBalance - applies one ledger entry inside the commit transaction.
func adjustBalance(ctx context.Context, tx pgx.Tx, userID string, delta int64) error {
	var balance int64

	err := tx.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		return classify(err, "can't find user "+userID)
	}

	if balance+delta < 0 {
		return fmt.Errorf("user %s has %d, needs %d: %w", userID, balance, -delta, apperror.ErrInsufficientFunds)
	}

	if _, err = tx.Exec(ctx, `UPDATE users SET balance = balance + $1 WHERE id = $2`, delta, userID); err != nil {
		return classify(err, "can't update balance")
	}

	return nil
}

// classify - server errors stay as they are, everything else means the database is out of reach.
func classify(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, apperror.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Errorf("%s: %w: %w", op, apperror.ErrUnavailable, err)
}
