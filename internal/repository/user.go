package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
)

type UserRepository interface {
	GetOrCreate(ctx context.Context, id string, grant int64, now time.Time) (*entity.User, bool, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// getOrCreateScript grants the starting balance only to a user that does not exist yet.
var getOrCreateScript = redis.NewScript(`
local created = redis.call('HSETNX', KEYS[1], 'balance', ARGV[1])
if created == 1 then
	redis.call('HSET', KEYS[1], 'created_at', ARGV[2])
end
local user = redis.call('HMGET', KEYS[1], 'balance', 'created_at')
return {created, user[1], user[2]}
`)

type dbUser struct {
	client *redis.Client
}

func NewUserRepository(client *redis.Client) UserRepository {
	return &dbUser{
		client: client,
	}
}

func (that *dbUser) GetOrCreate(ctx context.Context, id string, grant int64, now time.Time) (*entity.User, bool, error) {
	args := []any{grant, now.UTC().Format(time.RFC3339Nano)}

	response, err := getOrCreateScript.Run(ctx, that.client, []string{userKey(id)}, args...).Slice()
	if err != nil {
		return nil, false, classify(err, "failed to get or create user "+id)
	}

	if len(response) != 3 {
		return nil, false, fmt.Errorf("unexpected reply for user %s: %v", id, response)
	}

	created, _ := response[0].(int64)

	user, err := parseUser(id, response[1], response[2])
	if err != nil {
		return nil, false, err
	}

	return user, created == 1, nil
}

func (that *dbUser) GetByID(ctx context.Context, id string) (*entity.User, error) {
	response, err := that.client.HMGet(ctx, userKey(id), "balance", "created_at").Result()
	if err != nil {
		return nil, classify(err, "failed to get user "+id)
	}

	if response[0] == nil {
		return nil, classify(redis.Nil, "failed to get user "+id)
	}

	return parseUser(id, response[0], response[1])
}

func parseUser(id string, balanceReply, createdReply any) (*entity.User, error) {
	balanceStr, _ := balanceReply.(string)

	balance, err := strconv.ParseInt(balanceStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance of user %s: %w", id, err)
	}

	user := &entity.User{ID: id, Balance: balance}

	if createdStr, ok := createdReply.(string); ok && createdStr != "" {
		if user.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr); err != nil {
			return nil, fmt.Errorf("failed to parse creation time of user %s: %w", id, err)
		}
	}

	return user, nil
}
