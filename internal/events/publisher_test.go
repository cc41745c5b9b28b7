package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohabs/stripesync/pkg/reconcile"
)

func TestNewRunCompleted(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	summary := &reconcile.Summary{
		Commit: true,
		Families: []reconcile.FamilyStats{
			{Family: "users", Stats: reconcile.Stats{Count: 3, Done: 1, Synced: 2}},
			{Family: "rooms", Stats: reconcile.Stats{Count: 1, Synced: 1}},
		},
	}

	events := NewRunCompleted("run-1", summary, now)
	require.Len(t, events, 2)
	assert.Equal(t, "users", events[0].Family)
	assert.True(t, events[0].Commit)
	assert.Equal(t, 1, events[0].Stats.Done)
	assert.Equal(t, time.UTC, events[1].Timestamp.Location())
}

func TestMessage(t *testing.T) {
	event := RunCompleted{
		RunID:     "run-1",
		Family:    "leases",
		Stats:     reconcile.Stats{Count: 2, Failed: 1, Synced: 1},
		Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	msg, err := Message(event)
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "run-1-leases", msg.MessageId)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "leases", decoded["family"])
	assert.Equal(t, false, decoded["commit"])
	stats := decoded["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["failed"])
}

func TestNewWithoutURLIsNop(t *testing.T) {
	p, err := New("")
	require.NoError(t, err)
	assert.NoError(t, p.Publish(context.Background(), RunCompleted{}))
	assert.NoError(t, p.Close())
}
