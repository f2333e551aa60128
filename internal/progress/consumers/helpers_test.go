package consumers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/file2text/internal/progress"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestEmitter(t *testing.T, total progress.Total, label string, clk *fakeClock) *progress.Emitter {
	t.Helper()
	e, err := progress.NewEmitter(total, label, progress.WithClock(clk))
	require.NoError(t, err)
	return e
}

type fakeBar struct {
	size        int64
	description string
	showCount   bool
	described   []string
	added       []int64
	finished    bool
	exited      bool
}

func (b *fakeBar) Add64(n int64) error {
	b.added = append(b.added, n)
	return nil
}

func (b *fakeBar) Describe(description string) {
	b.described = append(b.described, description)
}

func (b *fakeBar) Finish() error {
	b.finished = true
	return nil
}

func (b *fakeBar) Exit() error {
	b.exited = true
	return nil
}

func (b *fakeBar) position() int64 {
	var sum int64
	for _, n := range b.added {
		sum += n
	}
	return sum
}

// barSpy hands out fakeBars and remembers each one.
type barSpy struct {
	bars []*fakeBar
}

func (s *barSpy) factory(size int64, description string, showCount bool) renderer {
	b := &fakeBar{size: size, description: description, showCount: showCount}
	s.bars = append(s.bars, b)
	return b
}
