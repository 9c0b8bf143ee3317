package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/events"
)

type testEvent struct {
	Type    string `json:"type"`
	OrderID int64  `json:"order_id"`
}

func TestChannelPublisher_RoundTrip(t *testing.T) {
	pub := events.NewChannelPublisher(zerolog.Nop())
	t.Cleanup(func() { _ = pub.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pub.Subscribe(ctx, "orders")
	require.NoError(t, err)

	require.NoError(t, pub.Publish(ctx, "orders", "order-42", testEvent{Type: "order.placed", OrderID: 42}))

	select {
	case msg := <-messages:
		assert.Equal(t, "order-42", msg.Metadata.Get(events.MetadataKey))

		var got testEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, testEvent{Type: "order.placed", OrderID: 42}, got)
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestChannelPublisher_EncodeError(t *testing.T) {
	pub := events.NewChannelPublisher(zerolog.Nop())
	t.Cleanup(func() { _ = pub.Close() })

	err := pub.Publish(context.Background(), "orders", "k", make(chan int))
	require.Error(t, err)
}

func TestLogConsumer(t *testing.T) {
	pub := events.NewChannelPublisher(zerolog.Nop())
	t.Cleanup(func() { _ = pub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, events.LogConsumer(ctx, pub, "orders"))
	assert.NoError(t, pub.Publish(ctx, "orders", "order-1", testEvent{Type: "order.paid", OrderID: 1}))
}

func TestNoopPublisher(t *testing.T) {
	pub := events.NewNoopPublisher()
	assert.NoError(t, pub.Publish(context.Background(), "orders", "k", testEvent{}))
	assert.NoError(t, pub.Close())
}
