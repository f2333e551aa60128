package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestPublisherStoresMessages records payloads in order and hands out copies.
func TestPublisherStoresMessages(t *testing.T) {
	t.Parallel()

	pub := New()
	id1, err := pub.Publish(context.Background(), "progress", map[string]string{"event": "completed"})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id1)
	id2, err := pub.Publish(context.Background(), "errors", "payload")
	require.NoError(t, err)
	require.Equal(t, "memory-2", id2)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "progress", msgs[0].Topic)
	require.Equal(t, "memory-2", msgs[1].ID)

	msgs[0].Topic = "modified"
	require.Equal(t, "progress", pub.Messages()[0].Topic)
}

// TestPublisherFailures surfaces injected and context errors without recording.
func TestPublisherFailures(t *testing.T) {
	t.Parallel()

	pub := New()
	boom := errors.New("broker down")
	pub.FailWith(boom)
	_, err := pub.Publish(context.Background(), "t", 1)
	require.ErrorIs(t, err, boom)

	pub.FailWith(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pub.Publish(ctx, "t", 1)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, pub.Messages())
	require.NoError(t, pub.Close())
}
