package repository

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
	"github.com/rocketscienceinc/tictactoe-bet/testing/suite"
)

func TestEventPublisher_Publish(t *testing.T) {
	ctx, st := suite.New(t)

	publisher := NewEventPublisher(st.Storage, "")

	// Given: a subscriber on the events channel
	subscription := publisher.Subscribe(ctx)
	defer subscription.Close()

	_, err := subscription.Receive(ctx)
	require.NoError(t, err)

	commit := acceptCommit()
	commit.Game.FirstPlayerName = "Alice"

	// When: an accepted game is published
	err = publisher.Publish(ctx, "accept", &entity.Outcome{Game: commit.Game, Entries: commit.Entries})
	require.NoError(t, err)

	// Then: the subscriber receives the snapshot
	message, err := subscription.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultEventsChannel, message.Channel)

	var event GameEvent
	require.NoError(t, json.Unmarshal([]byte(message.Payload), &event))
	assert.Equal(t, "accept", event.Action)
	assert.Equal(t, "g1", event.Game.ID)
	assert.Equal(t, "Alice", event.TurnName)
	assert.Equal(t, int64(200), event.PrizeFund)
	assert.Equal(t, commit.Entries, event.Entries)
}
