package consumers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/file2text/internal/progress"
)

// TestSnapshotTracksLatestUpdate exposes the most recent delivered state.
func TestSnapshotTracksLatestUpdate(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot()
	_, ok := snap.Status()
	require.False(t, ok)

	e := newTestEmitter(t, progress.Of(4), "images", newFakeClock())
	e.AddConsumer(snap)
	require.NoError(t, e.Update(1, progress.Detail("file", "cat.png")))

	st, ok := snap.Status()
	require.True(t, ok)
	require.Equal(t, "images", st.Label)
	require.Equal(t, 1, st.Current)
	require.Equal(t, 4, *st.Total)
	require.InDelta(t, 25.0, *st.Percentage, 1e-9)
	require.Equal(t, "STARTED", st.Type)
	require.False(t, st.Completed)
	require.Equal(t, "cat.png", st.Metadata["file"])

	e.Complete()
	st, _ = snap.Status()
	require.True(t, st.Completed)
	require.Equal(t, "COMPLETED", st.Type)
	require.Equal(t, 4, st.Current)
}

// TestSnapshotConcurrentReads allows readers while updates are delivered.
func TestSnapshotConcurrentReads(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot()
	e := newTestEmitter(t, progress.Of(200), "", newFakeClock())
	e.AddConsumer(snap)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if st, ok := snap.Status(); ok {
					assert.LessOrEqual(t, st.Current, 200)
				}
			}
		}()
	}
	for range 200 {
		require.NoError(t, e.Update(1))
	}
	wg.Wait()
	st, ok := snap.Status()
	require.True(t, ok)
	require.Equal(t, 200, st.Current)
}
