package consumers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/file2text/internal/progress"
	"github.com/JakeFAU/file2text/internal/publisher/memory"
)

// TestCompletionPublisherAnnouncesCompletion publishes exactly one notice for a clean run.
func TestCompletionPublisherAnnouncesCompletion(t *testing.T) {
	t.Parallel()

	pub := memory.New()
	e := newTestEmitter(t, progress.Of(3), "summarize", newFakeClock())
	e.AddConsumer(NewCompletionPublisher(context.Background(), pub, "file2text-progress", "op-1"))

	require.NoError(t, e.Update(1, progress.Detail("file", "notes.txt")))
	require.NoError(t, e.Update(2))
	e.Complete()

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "file2text-progress", msgs[0].Topic)
	notice, ok := msgs[0].Payload.(Notice)
	require.True(t, ok)
	require.Equal(t, "op-1", notice.OperationID)
	require.Equal(t, EventCompleted, notice.Event)
	require.Equal(t, 3, notice.Current)
	require.NotNil(t, notice.Total)
	require.Equal(t, 3, *notice.Total)
	require.Equal(t, map[string]any{"file": "notes.txt"}, notice.Metadata)
}

// TestCompletionPublisherAnnouncesFailure publishes ERROR updates with their cause.
func TestCompletionPublisherAnnouncesFailure(t *testing.T) {
	t.Parallel()

	pub := memory.New()
	e := newTestEmitter(t, progress.Indeterminate, "", newFakeClock())
	e.AddConsumer(NewCompletionPublisher(context.Background(), pub, "t", "op-2"))

	require.NoError(t, e.Update(1))
	e.Fail(errors.New("unsupported codec"))
	e.Complete()

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	failed := msgs[0].Payload.(Notice)
	require.Equal(t, EventFailed, failed.Event)
	require.Equal(t, "unsupported codec", failed.Error)
	require.Nil(t, failed.Total)
	require.Equal(t, EventCompleted, msgs[1].Payload.(Notice).Event)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, any) (string, error) {
	return "", errors.New("broker unavailable")
}

// TestCompletionPublisherErrorsAreContained lets the emitter log publish failures.
func TestCompletionPublisherErrorsAreContained(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	e, err := progress.NewEmitter(progress.Of(1), "", progress.WithLogger(zap.New(core)))
	require.NoError(t, err)
	e.AddConsumer(NewCompletionPublisher(context.Background(), failingPublisher{}, "t", "op-3"))

	require.NoError(t, e.Update(1))
	e.Complete()
	require.True(t, e.Completed())
	require.Equal(t, 1, logs.FilterMessage("progress consumer failed").Len())
}
