package progress

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidProgressState reports a State construction that violates an invariant.
	ErrInvalidProgressState = errors.New("invalid progress state")
	// ErrInvalidEmitterArgument reports a bad delta, total, or child weight.
	ErrInvalidEmitterArgument = errors.New("invalid emitter argument")
	// ErrConsumerNotification marks a consumer that failed while being notified.
	ErrConsumerNotification = errors.New("consumer notification failed")
	// ErrEmitterCompleted is returned by mutations issued after Complete.
	ErrEmitterCompleted = errors.New("emitter already completed")
)

// ConsumerNotificationError captures a consumer failure. The emitter logs it and
// moves on to the next consumer; it is never returned to the driving caller.
type ConsumerNotificationError struct {
	// Consumer is the %T of the failing consumer.
	Consumer string
	// Phase is either "progress" or "complete".
	Phase string
	// Err is the returned error or the recovered panic value.
	Err error
}

func (e *ConsumerNotificationError) Error() string {
	return fmt.Sprintf("%s: %s during %s: %v", ErrConsumerNotification, e.Consumer, e.Phase, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is.
func (e *ConsumerNotificationError) Unwrap() []error {
	return []error{ErrConsumerNotification, e.Err}
}

func invalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidProgressState, fmt.Sprintf(format, args...))
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidEmitterArgument, fmt.Sprintf(format, args...))
}
