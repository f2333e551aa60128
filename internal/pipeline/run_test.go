package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/file2text/internal/progress"
)

type recorder struct {
	types     []progress.UpdateType
	completes int
}

func (r *recorder) OnProgress(u progress.Update) error {
	r.types = append(r.types, u.Type)
	return nil
}

func (r *recorder) OnComplete(progress.State) error {
	r.completes++
	return nil
}

// TestEachCompletesBatch advances once per item and completes the emitter.
func TestEachCompletesBatch(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	e, err := progress.NewEmitter(progress.Of(3), "files")
	require.NoError(t, err)
	e.AddConsumer(rec)

	var seen []string
	err = Each(context.Background(), e, []string{"a.wav", "b.png", "c.pdf"}, func(_ context.Context, name string) error {
		seen = append(seen, name)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a.wav", "b.png", "c.pdf"}, seen)
	require.True(t, e.Completed())
	require.Equal(t, 3, e.State().Current())
	require.Equal(t, 1, rec.completes)
}

// TestEachFailsAndCompletesOnError reports the failure and still releases consumers.
func TestEachFailsAndCompletesOnError(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	e, err := progress.NewEmitter(progress.Indeterminate, "")
	require.NoError(t, err)
	e.AddConsumer(rec)

	boom := errors.New("corrupt file")
	err = Each(context.Background(), e, []int{1, 2, 3}, func(_ context.Context, n int) error {
		if n == 2 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, e.State().Current())
	require.Contains(t, rec.types, progress.Errored)
	require.Equal(t, progress.Completed, rec.types[len(rec.types)-1])
	require.Equal(t, 1, rec.completes)
}

// TestEachStopsOnCancel honours context cancellation between items.
func TestEachStopsOnCancel(t *testing.T) {
	t.Parallel()

	e, err := progress.NewEmitter(progress.Of(5), "")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())

	err = Each(ctx, e, []int{1, 2, 3, 4, 5}, func(context.Context, int) error {
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, e.Completed())
	require.Equal(t, 5, e.State().Current(), "completion drives a known total to the end")
}

// TestPhasesCreatesWeightedChildren splits a document pipeline into stages.
func TestPhasesCreatesWeightedChildren(t *testing.T) {
	t.Parallel()

	root, err := progress.NewEmitter(progress.Of(100), "document")
	require.NoError(t, err)
	children, err := Phases(root,
		Phase{Label: "extract", Weight: 1, Total: progress.Of(10)},
		Phase{Label: "summarize", Weight: 3, Total: progress.Indeterminate},
	)
	require.NoError(t, err)
	require.Len(t, children, 2)
	require.Equal(t, "summarize", children[1].State().Label())

	children[0].Complete()
	require.Equal(t, 25, root.State().Current())
	children[1].Complete()
	require.Equal(t, 100, root.State().Current())
}

// TestPhasesValidatesUpFront creates nothing when a weight is invalid.
func TestPhasesValidatesUpFront(t *testing.T) {
	t.Parallel()

	root, err := progress.NewEmitter(progress.Of(1), "")
	require.NoError(t, err)
	_, err = Phases(root, Phase{Label: "ok", Weight: 1}, Phase{Label: "bad", Weight: 0})
	require.ErrorIs(t, err, progress.ErrInvalidEmitterArgument)
	require.Empty(t, root.Children())
}
