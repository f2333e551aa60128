package progress

import (
	"sync"
	"time"
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

// recorder captures every notification it receives.
type recorder struct {
	mu        sync.Mutex
	updates   []Update
	completes []State
}

func (r *recorder) OnProgress(u Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
	return nil
}

func (r *recorder) OnComplete(s State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completes = append(r.completes, s)
	return nil
}

func (r *recorder) Updates() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...)
}

func (r *recorder) Completes() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.completes...)
}

func (r *recorder) Last() Update {
	u := r.Updates()
	return u[len(u)-1]
}
