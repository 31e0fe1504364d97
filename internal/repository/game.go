package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
)

type GameRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	Commit(ctx context.Context, commit *entity.Commit) error
	Entries(ctx context.Context, gameID string) ([]entity.LedgerEntry, error)
}

// commitScript stores the game and applies the ledger entries only if the stored
// game is still in the expected state and version.
//
// KEYS: game, ledger, one user key per entry.
// ARGV: expected state, expected version, state, version, game json, then delta and entry json per entry.
var commitScript = redis.NewScript(`
local expected = ARGV[1]
if expected == '' then
	if redis.call('EXISTS', KEYS[1]) == 1 then
		return redis.error_reply('EXISTS')
	end
else
	local current = redis.call('HMGET', KEYS[1], 'state', 'version')
	if not current[1] then
		return redis.error_reply('NOTFOUND')
	end
	if current[1] ~= expected or current[2] ~= ARGV[2] then
		return redis.error_reply('STALE')
	end
end

local entries = #KEYS - 2
local balances = {}
for i = 1, entries do
	local key = KEYS[i + 2]
	if balances[key] == nil then
		local balance = redis.call('HGET', key, 'balance')
		if not balance then
			return redis.error_reply('NOUSER')
		end
		balances[key] = tonumber(balance)
	end
	balances[key] = balances[key] + tonumber(ARGV[4 + 2 * i])
	if balances[key] < 0 then
		return redis.error_reply('INSUFFICIENT')
	end
end

for i = 1, entries do
	redis.call('HINCRBY', KEYS[i + 2], 'balance', ARGV[4 + 2 * i])
	redis.call('RPUSH', KEYS[2], ARGV[5 + 2 * i])
end

redis.call('HSET', KEYS[1], 'state', ARGV[3], 'version', ARGV[4], 'data', ARGV[5])
return 'OK'
`)

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.HGet(ctx, gameKey(id), "data").Result()
	if err != nil {
		return nil, classify(err, "failed to get game "+id)
	}

	var game entity.Game
	if err = json.Unmarshal([]byte(response), &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &game, nil
}

func (that *dbGame) Commit(ctx context.Context, commit *entity.Commit) error {
	game := commit.Game

	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	keys := make([]string, 0, 2+len(commit.Entries))
	keys = append(keys, gameKey(game.ID), ledgerKey(game.ID))

	args := make([]any, 0, 5+2*len(commit.Entries))
	args = append(args,
		string(commit.ExpectedState),
		strconv.FormatInt(commit.ExpectedVersion, 10),
		string(game.State),
		strconv.FormatInt(game.Version, 10),
		gameJSON,
	)

	for _, entry := range commit.Entries {
		entryJSON, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("could not marshal ledger entry: %w", err)
		}

		keys = append(keys, userKey(entry.UserID))
		args = append(args, entry.Delta, entryJSON)
	}

	if err = commitScript.Run(ctx, that.client, keys, args...).Err(); err != nil {
		return classify(err, "failed to commit game "+game.ID)
	}

	return nil
}

func (that *dbGame) Entries(ctx context.Context, gameID string) ([]entity.LedgerEntry, error) {
	response, err := that.client.LRange(ctx, ledgerKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, classify(err, "failed to read ledger of game "+gameID)
	}

	entries := make([]entity.LedgerEntry, 0, len(response))
	for _, item := range response {
		var entry entity.LedgerEntry
		if err = json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ledger entry: %w", err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
