package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-bet/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-bet/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-bet/internal/repository/memory"
	"github.com/rocketscienceinc/tictactoe-bet/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-bet/internal/usecase"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	recorder := metrics.New(prometheus.NewRegistry())

	manager := usecase.NewGameManager(logger, store, store.Games(), nil, recorder, tictactoe.FixedCoin(true), 1000)

	return New(logger, "0", manager, recorder, func(context.Context) error { return nil }).Handler()
}

func do(t *testing.T, handler http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set(headerUserID, userID)
		req.Header.Set(headerUserName, strings.ToUpper(userID[:1])+userID[1:])
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func createGame(t *testing.T, handler http.Handler) string {
	t.Helper()

	rec := do(t, handler, http.MethodPost, "/v1/games", "alice", `{"bet": 100}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var response outcomeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	return response.Game.ID
}

func TestPing(t *testing.T) {
	rec := do(t, newHandler(t), http.MethodGet, "/ping", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestHandlers_User(t *testing.T) {
	handler := newHandler(t)

	// When: a user is requested twice
	first := do(t, handler, http.MethodGet, "/v1/users/alice", "alice", "")
	second := do(t, handler, http.MethodGet, "/v1/users/alice", "alice", "")

	// Then: only the first response reports a new user
	var firstUser, secondUser userResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstUser))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondUser))

	assert.True(t, firstUser.New)
	assert.False(t, secondUser.New)
	assert.Equal(t, int64(1000), secondUser.Balance)
}

func TestHandlers_UserOfSomeoneElse(t *testing.T) {
	handler := newHandler(t)

	for _, tc := range []struct {
		name   string
		userID string
	}{
		{"Other caller", "bob"},
		{"Anonymous caller", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, handler, http.MethodGet, "/v1/users/alice", tc.userID, "")

			assert.Equal(t, http.StatusForbidden, rec.Code)
		})
	}

	// Then: alice was never registered by those requests
	rec := do(t, handler, http.MethodGet, "/v1/users/alice", "alice", "")

	var user userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.True(t, user.New)
}

func TestHandlers_GameFlow(t *testing.T) {
	handler := newHandler(t)

	// Given: alice created a game and bob accepted it
	gameID := createGame(t, handler)

	rec := do(t, handler, http.MethodPost, "/v1/games/"+gameID+"/accept", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var accepted outcomeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.Equal(t, "started", accepted.Game.State)
	assert.Equal(t, "alice", accepted.Game.Turn)
	assert.Equal(t, "Alice", accepted.Game.TurnName)
	assert.Equal(t, int64(200), accepted.Game.PrizeFund)

	// When: alice plays the center
	rec = do(t, handler, http.MethodPost, "/v1/games/"+gameID+"/moves", "alice", `{"cell": 12}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Then: the snapshot shows X in the center and bob to move
	rec = do(t, handler, http.MethodGet, "/v1/games/"+gameID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var game gameResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &game))
	assert.Equal(t, "X", game.Board[12])
	assert.Equal(t, "", game.Board[0])
	assert.Equal(t, "bob", game.Turn)

	// When: bob surrenders
	rec = do(t, handler, http.MethodPost, "/v1/games/"+gameID+"/surrender", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var surrendered outcomeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &surrendered))

	// Then: alice wins the pot and the ledger reconciles
	assert.Equal(t, "winner_first", surrendered.Game.State)
	assert.Equal(t, "alice", surrendered.Game.Winner)
	assert.Equal(t, []entryResponse{{UserID: "alice", Delta: 200, Reason: "payout"}}, surrendered.Entries)

	rec = do(t, handler, http.MethodGet, "/v1/games/"+gameID+"/ledger", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []entryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 3)
}

func TestHandlers_Errors(t *testing.T) {
	handler := newHandler(t)
	gameID := createGame(t, handler)

	tests := []struct {
		name   string
		method string
		path   string
		userID string
		body   string
		status int
	}{
		{"Unknown game", http.MethodGet, "/v1/games/nope", "", "", http.StatusNotFound},
		{"Move in a pending game", http.MethodPost, "/v1/games/" + gameID + "/moves", "alice", `{"cell": 0}`, http.StatusNotFound},
		{"Creator accepts own game", http.MethodPost, "/v1/games/" + gameID + "/accept", "alice", "", http.StatusForbidden},
		{"Bet is not a number", http.MethodPost, "/v1/games", "alice", `{"bet": "ten"}`, http.StatusBadRequest},
		{"Bet is zero", http.MethodPost, "/v1/games", "alice", `{"bet": 0}`, http.StatusUnprocessableEntity},
		{"Bet above the balance", http.MethodPost, "/v1/games", "alice", `{"bet": 5000}`, http.StatusPaymentRequired},
		{"No user", http.MethodPost, "/v1/games", "", `{"bet": 10}`, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, handler, tt.method, tt.path, tt.userID, tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	t.Run("Move errors of a started game", func(t *testing.T) {
		rec := do(t, handler, http.MethodPost, "/v1/games/"+gameID+"/accept", "bob", "")
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, handler, http.MethodPost, "/v1/games/"+gameID+"/moves", "bob", `{"cell": 0}`)
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = do(t, handler, http.MethodPost, "/v1/games/"+gameID+"/moves", "alice", `{"cell": 25}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		rec = do(t, handler, http.MethodPost, "/v1/games/"+gameID+"/moves", "alice", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(t, handler, http.MethodPost, "/v1/games/"+gameID+"/moves", "eve", `{"cell": 0}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusOf(fmt.Errorf("commit: %w", apperror.ErrStaleState)))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(fmt.Errorf("redis: %w", apperror.ErrUnavailable)))
	assert.Equal(t, http.StatusInternalServerError, statusOf(io.ErrUnexpectedEOF))
}

func TestHandlers_Metrics(t *testing.T) {
	handler := newHandler(t)
	createGame(t, handler)

	rec := do(t, handler, http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tictactoe_transitions_total{action="create",state="pending"} 1`)
}
