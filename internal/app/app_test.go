package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/file2text/internal/app"
	"github.com/JakeFAU/file2text/internal/config"
	"github.com/JakeFAU/file2text/internal/progress"
	"github.com/JakeFAU/file2text/internal/progress/consumers"
	"github.com/JakeFAU/file2text/internal/publisher/memory"
)

const operationID = "0190b1f2-7a3c-7cde-8f00-0123456789ab"

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	return cfg
}

// TestNewWithoutPubSub builds the container with no publisher.
func TestNewWithoutPubSub(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	cs, err := a.Consumers(context.Background(), operationID)
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.IsType(t, &consumers.Prometheus{}, cs[0])
	assert.IsType(t, &consumers.Snapshot{}, cs[1])
}

// TestConsumersFeedServices drives an emitter and checks every service saw it.
func TestConsumersFeedServices(t *testing.T) {
	t.Parallel()

	pub := memory.New()
	a, err := app.New(context.Background(), testConfig(t), zap.NewNop(), app.WithPublisher(pub))
	require.NoError(t, err)

	cs, err := a.Consumers(context.Background(), operationID)
	require.NoError(t, err)
	require.Len(t, cs, 3)

	e, err := progress.NewEmitter(progress.Of(4), "scan")
	require.NoError(t, err)
	for _, c := range cs {
		e.AddConsumer(c)
	}
	require.NoError(t, e.Update(2))
	e.Complete()

	status, ok := a.Tracker().Get(operationID)
	require.True(t, ok)
	st, ok := status.Status()
	require.True(t, ok)
	assert.True(t, st.Completed)
	assert.Equal(t, 4, st.Current)

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "file2text-progress", msgs[0].Topic)
	notice, ok := msgs[0].Payload.(consumers.Notice)
	require.True(t, ok)
	assert.Equal(t, consumers.EventCompleted, notice.Event)

	count, err := testutil.GatherAndCount(a.Metrics().Registry(), "file2text_progress_completions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, a.Close())
}

// TestConsumersRejectDuplicateOperation refuses to register the same gauges twice.
func TestConsumersRejectDuplicateOperation(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	_, err = a.Consumers(context.Background(), operationID)
	require.NoError(t, err)
	_, err = a.Consumers(context.Background(), operationID)
	require.Error(t, err)
}

type failingPublisher struct{ memory.Publisher }

func (*failingPublisher) Close() error { return errors.New("boom") }

// TestCloseReportsPublisherError surfaces publisher shutdown failures.
func TestCloseReportsPublisherError(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), testConfig(t), zap.NewNop(), app.WithPublisher(&failingPublisher{}))
	require.NoError(t, err)
	require.ErrorContains(t, a.Close(), "boom")
}

// TestServeDisabled returns at once when no address is configured.
func TestServeDisabled(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, a.Serve(context.Background()))
}
