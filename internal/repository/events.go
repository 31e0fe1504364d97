package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
)

const DefaultEventsChannel = "games:events"

// GameEvent - what the messaging transport receives after every committed transition.
type GameEvent struct {
	Action    string               `json:"action"`
	Game      *entity.Game         `json:"game"`
	TurnName  string               `json:"turn_name,omitempty"`
	PrizeFund int64                `json:"prize_fund"`
	Entries   []entity.LedgerEntry `json:"entries,omitempty"`
}

type EventPublisher struct {
	client  *redis.Client
	channel string
}

func NewEventPublisher(client *redis.Client, channel string) *EventPublisher {
	if channel == "" {
		channel = DefaultEventsChannel
	}

	return &EventPublisher{
		client:  client,
		channel: channel,
	}
}

func (that *EventPublisher) Publish(ctx context.Context, action string, outcome *entity.Outcome) error {
	event := GameEvent{
		Action:    action,
		Game:      outcome.Game,
		TurnName:  outcome.Game.TurnName(),
		PrizeFund: outcome.Game.PrizeFund(),
		Entries:   outcome.Entries,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not marshal event: %w", err)
	}

	if err = that.client.Publish(ctx, that.channel, eventJSON).Err(); err != nil {
		return classify(err, "failed to publish game event")
	}

	return nil
}

// Subscribe - an in-process listener on the events channel, used to verify what was published.
// Out-of-process consumers subscribe to the channel on Redis directly. The caller closes the subscription.
func (that *EventPublisher) Subscribe(ctx context.Context) *redis.PubSub {
	return that.client.Subscribe(ctx, that.channel)
}
