package progress

// Consumer reacts to progress notifications. Returned errors and panics are
// contained by the emitter: they are logged as ConsumerNotificationError and
// never stop delivery to the remaining consumers.
//
// Consumers keep their own bookkeeping (last log time, open bar handle) on the
// instance; one consumer value should be attached to one emitter.
type Consumer interface {
	// OnProgress receives every update the emitter decides to deliver.
	OnProgress(update Update) error
	// OnComplete receives the final state once, after the COMPLETED update.
	OnComplete(state State) error
}

// ConsumerFuncs adapts plain functions to Consumer. Nil fields are no-ops.
type ConsumerFuncs struct {
	Progress func(Update) error
	Complete func(State) error
}

// OnProgress implements Consumer.
func (c ConsumerFuncs) OnProgress(update Update) error {
	if c.Progress == nil {
		return nil
	}
	return c.Progress(update)
}

// OnComplete implements Consumer.
func (c ConsumerFuncs) OnComplete(state State) error {
	if c.Complete == nil {
		return nil
	}
	return c.Complete(state)
}
