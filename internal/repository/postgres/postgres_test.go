package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-bet/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
	"github.com/rocketscienceinc/tictactoe-bet/testing/suite"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newStore(ctx context.Context, t *testing.T, st *suite.Suite, ids ...string) *Store {
	t.Helper()

	store := New(st.Postgres)
	for _, id := range ids {
		_, _, err := store.GetOrCreate(ctx, id, 1000, now)
		require.NoError(t, err)
	}

	return store
}

func pendingCommit() *entity.Commit {
	return &entity.Commit{
		Game: &entity.Game{
			ID:          "g1",
			Bet:         100,
			FirstPlayer: "alice",
			Turn:        "alice",
			State:       entity.StatePending,
			Version:     1,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		Entries: []entity.LedgerEntry{{GameID: "g1", UserID: "alice", Delta: -100, Reason: entity.ReasonEscrow}},
	}
}

func acceptCommit() *entity.Commit {
	game := *pendingCommit().Game
	game.SecondPlayer = "bob"
	game.State = entity.StateStarted
	game.Version = 2

	return &entity.Commit{
		Game:            &game,
		ExpectedState:   entity.StatePending,
		ExpectedVersion: 1,
		Entries:         []entity.LedgerEntry{{GameID: "g1", UserID: "bob", Delta: -100, Reason: entity.ReasonEscrow}},
	}
}

func TestStore_GetOrCreate(t *testing.T) {
	ctx, st := suite.NewPostgres(t)

	store := New(st.Postgres)

	// When: the same user is requested twice with different grants
	first, created, err := store.GetOrCreate(ctx, "alice", 1000, now)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := store.GetOrCreate(ctx, "alice", 5000, now)
	require.NoError(t, err)

	// Then: only the first grant is applied
	assert.False(t, created)
	assert.Equal(t, int64(1000), first.Balance)
	assert.Equal(t, int64(1000), second.Balance)
	assert.True(t, now.Equal(second.CreatedAt))

	_, err = store.GetByID(ctx, "ghost")
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGames_Commit(t *testing.T) {
	t.Run("Create and accept", func(t *testing.T) {
		ctx, st := suite.NewPostgres(t)

		store := newStore(ctx, t, st, "alice", "bob")
		games := store.Games()

		// When: a game is created and accepted
		require.NoError(t, games.Commit(ctx, pendingCommit()))
		require.NoError(t, games.Commit(ctx, acceptCommit()))

		// Then: the stored game is started and both bets are held
		game, err := games.GetByID(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, entity.StateStarted, game.State)
		assert.Equal(t, "bob", game.SecondPlayer)
		assert.Equal(t, int64(2), game.Version)

		for _, id := range []string{"alice", "bob"} {
			user, err := store.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, int64(900), user.Balance)
		}

		entries, err := games.Entries(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, append(pendingCommit().Entries, acceptCommit().Entries...), entries)
	})

	t.Run("Duplicate, stale and missing games", func(t *testing.T) {
		ctx, st := suite.NewPostgres(t)

		games := newStore(ctx, t, st, "alice", "bob").Games()
		require.NoError(t, games.Commit(ctx, pendingCommit()))

		require.ErrorIs(t, games.Commit(ctx, pendingCommit()), apperror.ErrGameAlreadyExists)

		require.NoError(t, games.Commit(ctx, acceptCommit()))
		require.ErrorIs(t, games.Commit(ctx, acceptCommit()), apperror.ErrStaleState)

		missing := acceptCommit()
		missing.Game.ID = "g2"
		require.ErrorIs(t, games.Commit(ctx, missing), apperror.ErrNotFound)

		_, err := games.GetByID(ctx, "g2")
		require.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("Insufficient funds roll the whole commit back", func(t *testing.T) {
		ctx, st := suite.NewPostgres(t)

		// Given: alice has only 50 coins
		store := New(st.Postgres)
		_, _, err := store.GetOrCreate(ctx, "alice", 50, now)
		require.NoError(t, err)

		err = store.Games().Commit(ctx, pendingCommit())

		require.ErrorIs(t, err, apperror.ErrInsufficientFunds)

		_, err = store.Games().GetByID(ctx, "g1")
		require.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("Only one of concurrent accepts is applied", func(t *testing.T) {
		ctx, st := suite.NewPostgres(t)

		store := newStore(ctx, t, st, "alice", "bob")
		games := store.Games()
		require.NoError(t, games.Commit(ctx, pendingCommit()))

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)

		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()

				if err := games.Commit(ctx, acceptCommit()); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				} else {
					assert.ErrorIs(t, err, apperror.ErrStaleState)
				}
			}()
		}

		wg.Wait()

		assert.Equal(t, 1, succeeded)

		user, err := store.GetByID(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, int64(900), user.Balance)
	})
}
