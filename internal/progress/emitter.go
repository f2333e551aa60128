package progress

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// Emitter owns the mutable progress state of one tracked operation. It
// notifies its consumers on every delivered change and, when it was spawned
// through CreateChild, pushes its weighted contribution up to the parent.
//
// An Emitter is not internally synchronized; see the package documentation.
type Emitter struct {
	state     State
	parent    *Emitter
	children  []weightedChild
	consumers []Consumer

	throttle   time.Duration
	lastNotify time.Time
	notified   bool
	active     bool
	completed  bool

	clock  Clock
	logger *zap.Logger
}

type weightedChild struct {
	emitter *Emitter
	weight  float64
}

type emitterConfig struct {
	throttle time.Duration
	clock    Clock
	logger   *zap.Logger
	metadata Metadata
}

// Option configures an Emitter at construction.
type Option func(*emitterConfig)

// WithThrottle sets the minimum interval between two plain PROGRESS
// notifications. Zero, the default, delivers every update.
func WithThrottle(d time.Duration) Option {
	return func(c *emitterConfig) {
		c.throttle = d
	}
}

// WithClock injects the time source used for snapshots and throttling.
func WithClock(clock Clock) Option {
	return func(c *emitterConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger that records consumer failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *emitterConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetadata seeds the initial snapshot's metadata.
func WithMetadata(metadata Metadata) Option {
	return func(c *emitterConfig) {
		c.metadata = metadata
	}
}

// NewEmitter creates a root emitter with current=0. The first update it
// delivers is tagged STARTED.
func NewEmitter(total Total, label string, opts ...Option) (*Emitter, error) {
	cfg := emitterConfig{
		clock:  monotonicClock{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.throttle < 0 {
		return nil, invalidArgument("throttle interval %s is negative", cfg.throttle)
	}
	state, err := newStateAt(cfg.clock.Now(), 0, total, label, cfg.metadata)
	if err != nil {
		return nil, err
	}
	return &Emitter{
		state:    state,
		throttle: cfg.throttle,
		clock:    cfg.clock,
		logger:   cfg.logger,
	}, nil
}

// State returns the current snapshot.
func (e *Emitter) State() State {
	return e.state
}

// Completed reports whether Complete has been called.
func (e *Emitter) Completed() bool {
	return e.completed
}

// Children returns the emitters spawned by CreateChild, in creation order.
func (e *Emitter) Children() []*Emitter {
	out := make([]*Emitter, 0, len(e.children))
	for _, c := range e.children {
		out = append(out, c.emitter)
	}
	return out
}

// AddConsumer registers c. Consumers are notified in registration order and
// may be added at any point of the emitter's life.
func (e *Emitter) AddConsumer(c Consumer) {
	if c == nil {
		return
	}
	e.consumers = append(e.consumers, c)
}

// CreateChild spawns an emitter owned by e. The child's completion fraction
// counts for weight relative to its siblings; weights need not sum to one.
// The child shares e's clock and logger unless opts override them.
func (e *Emitter) CreateChild(total Total, weight float64, label string, opts ...Option) (*Emitter, error) {
	if e.completed {
		return nil, fmt.Errorf("create child %q: %w", label, ErrEmitterCompleted)
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return nil, invalidArgument("child weight %v must be a positive finite number", weight)
	}
	inherited := []Option{WithClock(e.clock), WithLogger(e.logger)}
	child, err := NewEmitter(total, label, append(inherited, opts...)...)
	if err != nil {
		return nil, err
	}
	child.parent = e
	e.children = append(e.children, weightedChild{emitter: child, weight: weight})
	return child, nil
}

type updateConfig struct {
	force   bool
	details Metadata
}

// UpdateOption adjusts a single Update call.
type UpdateOption func(*updateConfig)

// Force bypasses the throttle for this update.
func Force() UpdateOption {
	return func(c *updateConfig) {
		c.force = true
	}
}

// Detail attaches key=value to the new snapshot's metadata.
func Detail(key string, value any) UpdateOption {
	return func(c *updateConfig) {
		c.details = append(c.details, Field{Key: key, Value: value})
	}
}

// Update advances current by delta, capped at a known total. The state always
// advances and always propagates to the parent; consumer delivery is subject to
// the throttle unless the update is forced, is the first one, or reaches the
// total.
func (e *Emitter) Update(delta int, opts ...UpdateOption) error {
	if e.completed {
		return fmt.Errorf("update %q: %w", e.state.label, ErrEmitterCompleted)
	}
	if delta < 1 {
		return invalidArgument("delta %d must be at least 1", delta)
	}
	var cfg updateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	next := e.state.current + delta
	if n, ok := e.state.total.Value(); ok && next > n {
		next = n
	}
	meta := e.state.metadata
	for _, f := range cfg.details {
		meta = meta.With(f.Key, f.Value)
	}
	state, err := e.snapshot(next, e.state.total, meta)
	if err != nil {
		return err
	}

	kind := Progressed
	if !e.active {
		kind = Started
	}
	applied := next - e.state.current
	e.state = state
	e.active = true
	e.deliver(Update{State: state, Delta: applied, Type: kind}, cfg.force || state.IsComplete())
	e.propagate(applied)
	return nil
}

// UpdateTotal replaces the denominator, clamping current when it now exceeds
// the new total. The change is always delivered and propagated.
func (e *Emitter) UpdateTotal(total Total) error {
	if e.completed {
		return fmt.Errorf("update total %q: %w", e.state.label, ErrEmitterCompleted)
	}
	n, ok := total.Value()
	if ok && n < 0 {
		return invalidArgument("total %d is negative", n)
	}
	current := e.state.current
	if ok && current > n {
		current = n
	}
	state, err := e.snapshot(current, total, e.state.metadata)
	if err != nil {
		return err
	}
	delta := current - e.state.current
	e.state = state
	e.active = true
	e.deliver(Update{State: state, Delta: delta, Type: TotalChanged}, true)
	e.propagate(delta)
	return nil
}

// Complete drives current to the total (an indeterminate emitter keeps its
// count), delivers a COMPLETED update followed by OnComplete to every
// consumer, and propagates a full contribution to the parent. Calls after the
// first are no-ops, so consumer resources are released exactly once.
func (e *Emitter) Complete() {
	if e.completed {
		return
	}
	current := e.state.current
	if n, ok := e.state.total.Value(); ok {
		current = n
	}
	state, err := e.snapshot(current, e.state.total, e.state.metadata)
	if err != nil {
		// Unreachable while the emitter upholds the State invariants.
		e.logger.Error("progress completion snapshot rejected", zap.Error(err))
		state = e.state
		current = e.state.current
	}
	delta := current - e.state.current
	e.state = state
	e.active = true
	e.completed = true

	e.deliver(Update{State: state, Delta: delta, Type: Completed}, true)
	for _, c := range e.consumers {
		e.notify(c, "complete", func() error { return c.OnComplete(state) })
	}
	e.propagate(delta)
}

// Fail delivers an ERROR update carrying cause in the "error" metadata key.
// It neither completes the emitter nor touches the parent: the caller still
// owes a Complete call to release consumer resources.
func (e *Emitter) Fail(cause error) {
	if e.completed {
		return
	}
	if cause == nil {
		cause = errors.New("unknown error")
	}
	state, err := e.snapshot(e.state.current, e.state.total, e.state.metadata.With("error", cause.Error()))
	if err != nil {
		e.logger.Error("progress error snapshot rejected", zap.Error(err))
		return
	}
	e.state = state
	e.active = true
	e.deliver(Update{State: state, Type: Errored}, true)
}

func (e *Emitter) snapshot(current int, total Total, metadata Metadata) (State, error) {
	return newStateAt(e.clock.Now(), current, total, e.state.label, metadata)
}

func (e *Emitter) deliver(u Update, force bool) {
	now := u.State.Timestamp()
	if !force && u.Type.Throttled() && e.notified && now.Sub(e.lastNotify) < e.throttle {
		return
	}
	e.lastNotify = now
	e.notified = true
	for _, c := range e.consumers {
		e.notify(c, "progress", func() error { return c.OnProgress(u) })
	}
}

func (e *Emitter) notify(c Consumer, phase string, call func() error) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		err = call()
	}()
	if err == nil {
		return
	}
	nerr := &ConsumerNotificationError{
		Consumer: fmt.Sprintf("%T", c),
		Phase:    phase,
		Err:      err,
	}
	e.logger.Warn("progress consumer failed",
		zap.String("label", e.state.label),
		zap.String("consumer", nerr.Consumer),
		zap.String("phase", phase),
		zap.Error(nerr),
	)
}

func (e *Emitter) propagate(delta int) {
	if e.parent != nil {
		e.parent.recompute(delta)
	}
}

// recompute folds the children's fractions into e. A determinate parent takes
// the weighted share of its own total and never moves backwards; an
// indeterminate parent simply counts the units its children report.
func (e *Emitter) recompute(childDelta int) {
	if e.completed {
		return
	}
	current := e.state.current
	if n, ok := e.state.total.Value(); ok {
		if target := e.weightedCurrent(n); target > current {
			current = target
		}
	} else if childDelta > 0 {
		current += childDelta
	}
	if current == e.state.current && e.active {
		return
	}

	state, err := e.snapshot(current, e.state.total, e.state.metadata)
	if err != nil {
		e.logger.Error("progress aggregate snapshot rejected", zap.Error(err))
		return
	}
	kind := Progressed
	if !e.active {
		kind = Started
	}
	applied := current - e.state.current
	e.state = state
	e.active = true
	e.deliver(Update{State: state, Delta: applied, Type: kind}, state.IsComplete())
	e.propagate(applied)
}

func (e *Emitter) weightedCurrent(total int) int {
	var weights, share float64
	for _, c := range e.children {
		weights += c.weight
		share += c.weight * c.emitter.fraction()
	}
	if weights == 0 {
		return e.state.current
	}
	v := int(math.Round(float64(total) * share / weights))
	switch {
	case v < 0:
		return 0
	case v > total:
		return total
	default:
		return v
	}
}

// fraction is the share of its own work this emitter has finished: one once
// completed, current/total when the total is known and positive, zero
// otherwise.
func (e *Emitter) fraction() float64 {
	if e.completed {
		return 1
	}
	if n, ok := e.state.total.Value(); ok && n > 0 {
		return float64(e.state.current) / float64(n)
	}
	return 0
}
