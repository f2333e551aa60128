package progress

import (
	"strconv"
	"time"
	"unicode/utf8"
)

// MaxLabelLength is the longest label, in characters, a State accepts.
const MaxLabelLength = 100

// Total is an optional progress denominator. The zero value is indeterminate.
type Total struct {
	value int
	known bool
}

// Indeterminate is the Total of an operation whose size is not known up front.
var Indeterminate = Total{}

// Of returns a determinate Total of n units.
func Of(n int) Total {
	return Total{value: n, known: true}
}

// Value returns the denominator and whether it is known.
func (t Total) Value() (int, bool) {
	return t.value, t.known
}

// Known reports whether the total is determinate.
func (t Total) Known() bool {
	return t.known
}

func (t Total) String() string {
	if !t.known {
		return "?"
	}
	return strconv.Itoa(t.value)
}

// Field is a single metadata entry.
type Field struct {
	Key   string
	Value any
}

// Metadata is an ordered mapping of free-form context, e.g. the file being
// processed. Metadata values are treated as immutable: With returns a copy.
type Metadata []Field

// Get looks up key.
func (m Metadata) Get(key string) (any, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// With returns a copy of m with key set to value. An existing key keeps its
// position; a new key is appended.
func (m Metadata) With(key string, value any) Metadata {
	out := make(Metadata, len(m), len(m)+1)
	copy(out, m)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Field{Key: key, Value: value})
}

// Map flattens the metadata for encoders that want a map.
func (m Metadata) Map() map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for _, f := range m {
		out[f.Key] = f.Value
	}
	return out
}

// State is an immutable progress snapshot. A new State is built on every
// observable change; existing values are never modified.
type State struct {
	current  int
	total    Total
	label    string
	at       time.Time
	metadata Metadata
}

// NewState validates the invariants and stamps the snapshot with the current
// monotonic time.
func NewState(current int, total Total, label string, metadata Metadata) (State, error) {
	return newStateAt(time.Now(), current, total, label, metadata)
}

func newStateAt(at time.Time, current int, total Total, label string, metadata Metadata) (State, error) {
	if current < 0 {
		return State{}, invalidState("current %d is negative", current)
	}
	if n, ok := total.Value(); ok {
		if n < 0 {
			return State{}, invalidState("total %d is negative", n)
		}
		if current > n {
			return State{}, invalidState("current %d exceeds total %d", current, n)
		}
	}
	if l := utf8.RuneCountInString(label); l > MaxLabelLength {
		return State{}, invalidState("label has %d characters, limit is %d", l, MaxLabelLength)
	}
	var meta Metadata
	if len(metadata) > 0 {
		meta = append(Metadata(nil), metadata...)
	}
	return State{
		current:  current,
		total:    total,
		label:    label,
		at:       at,
		metadata: meta,
	}, nil
}

// Current returns the number of completed units.
func (s State) Current() int { return s.current }

// Total returns the denominator.
func (s State) Total() Total { return s.total }

// Label returns the human-readable phase name.
func (s State) Label() string { return s.label }

// Timestamp is the monotonic construction time. It orders snapshots and is
// not meant for display.
func (s State) Timestamp() time.Time { return s.at }

// Metadata returns a copy of the snapshot's context.
func (s State) Metadata() Metadata {
	if len(s.metadata) == 0 {
		return nil
	}
	return append(Metadata(nil), s.metadata...)
}

// Percentage returns current/total*100. It is absent when the total is
// unknown or zero.
func (s State) Percentage() (float64, bool) {
	n, ok := s.total.Value()
	if !ok || n == 0 {
		return 0, false
	}
	return float64(s.current) / float64(n) * 100, true
}

// IsComplete reports whether a determinate total has been reached.
func (s State) IsComplete() bool {
	n, ok := s.total.Value()
	return ok && s.current == n
}

// IsIndeterminate reports whether the total is unknown.
func (s State) IsIndeterminate() bool {
	return !s.total.Known()
}

// Remaining returns total-current, absent when indeterminate.
func (s State) Remaining() (int, bool) {
	n, ok := s.total.Value()
	if !ok {
		return 0, false
	}
	return n - s.current, true
}
