package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-bet/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
)

// Store keeps users, games and the ledger in process memory.
// A single mutex makes every commit atomic.
type Store struct {
	mu sync.Mutex

	users   map[string]entity.User
	games   map[string]entity.Game
	entries map[string][]entity.LedgerEntry
}

func New() *Store {
	return &Store{
		users:   make(map[string]entity.User),
		games:   make(map[string]entity.Game),
		entries: make(map[string][]entity.LedgerEntry),
	}
}

func (that *Store) GetOrCreate(_ context.Context, id string, grant int64, now time.Time) (*entity.User, bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if user, ok := that.users[id]; ok {
		return &user, false, nil
	}

	user := entity.User{ID: id, Balance: grant, CreatedAt: now}
	that.users[id] = user

	return &user, true, nil
}

func (that *Store) GetByID(_ context.Context, id string) (*entity.User, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	user, ok := that.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, apperror.ErrNotFound)
	}

	return &user, nil
}

// Games - the game side of the store, its GetByID looks up games rather than users.
func (that *Store) Games() *Games {
	return &Games{store: that}
}

type Games struct {
	store *Store
}

func (that *Games) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.store.mu.Lock()
	defer that.store.mu.Unlock()

	game, ok := that.store.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, apperror.ErrNotFound)
	}

	return &game, nil
}

func (that *Games) Commit(_ context.Context, commit *entity.Commit) error {
	store := that.store

	store.mu.Lock()
	defer store.mu.Unlock()

	game := commit.Game
	current, exists := store.games[game.ID]

	switch {
	case commit.IsCreate() && exists:
		return fmt.Errorf("game %s: %w", game.ID, apperror.ErrGameAlreadyExists)
	case !commit.IsCreate() && !exists:
		return fmt.Errorf("game %s: %w", game.ID, apperror.ErrNotFound)
	case !commit.IsCreate() && (current.State != commit.ExpectedState || current.Version != commit.ExpectedVersion):
		return fmt.Errorf("game %s: %w", game.ID, apperror.ErrStaleState)
	}

	balances := make(map[string]int64, len(commit.Entries))
	for _, entry := range commit.Entries {
		balance, ok := balances[entry.UserID]
		if !ok {
			user, found := store.users[entry.UserID]
			if !found {
				return fmt.Errorf("user %s: %w", entry.UserID, apperror.ErrNotFound)
			}

			balance = user.Balance
		}

		balance += entry.Delta
		if balance < 0 {
			return fmt.Errorf("user %s: %w", entry.UserID, apperror.ErrInsufficientFunds)
		}

		balances[entry.UserID] = balance
	}

	for userID, balance := range balances {
		user := store.users[userID]
		user.Balance = balance
		store.users[userID] = user
	}

	store.games[game.ID] = *game
	store.entries[game.ID] = append(store.entries[game.ID], commit.Entries...)

	return nil
}

func (that *Games) Entries(_ context.Context, gameID string) ([]entity.LedgerEntry, error) {
	that.store.mu.Lock()
	defer that.store.mu.Unlock()

	return append([]entity.LedgerEntry(nil), that.store.entries[gameID]...), nil
}
