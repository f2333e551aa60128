package progress

// UpdateType tags the change that produced an Update.
type UpdateType int

// Supported update types.
const (
	Started UpdateType = iota
	Progressed
	TotalChanged
	Completed
	Errored
)

func (t UpdateType) String() string {
	switch t {
	case Started:
		return "STARTED"
	case Progressed:
		return "PROGRESS"
	case TotalChanged:
		return "TOTAL_CHANGED"
	case Completed:
		return "COMPLETED"
	case Errored:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Throttled reports whether updates of this type may be suppressed by an
// emitter's throttle interval. Only plain progress is.
func (t UpdateType) Throttled() bool {
	return t == Progressed
}

// Update is the notification envelope delivered to consumers: the new
// snapshot, the signed change that produced it, and what kind of change it was.
type Update struct {
	State State
	// Delta may be negative, e.g. when a shrinking total clamps current.
	Delta int
	Type  UpdateType
}
