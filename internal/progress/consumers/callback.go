package consumers

import (
	"go.uber.org/zap"

	"github.com/JakeFAU/file2text/internal/progress"
)

// ProgressCallback is the two-argument hook older pipeline entry points accept.
// total is zero when the operation is indeterminate.
type ProgressCallback func(current, total int)

// CallbackAdapter forwards every delivered update, and the final state once
// more on completion, to a ProgressCallback. A panicking callback is logged
// and swallowed so it cannot abort the tracked work.
type CallbackAdapter struct {
	callback ProgressCallback
	logger   *zap.Logger
}

// NewCallbackAdapter wraps cb. A nil cb yields a no-op consumer.
func NewCallbackAdapter(cb ProgressCallback, logger *zap.Logger) *CallbackAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallbackAdapter{callback: cb, logger: logger}
}

// OnProgress implements progress.Consumer.
func (a *CallbackAdapter) OnProgress(u progress.Update) error {
	a.invoke(u.State)
	return nil
}

// OnComplete implements progress.Consumer.
func (a *CallbackAdapter) OnComplete(s progress.State) error {
	a.invoke(s)
	return nil
}

func (a *CallbackAdapter) invoke(s progress.State) {
	if a.callback == nil {
		return
	}
	total, _ := s.Total().Value()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("progress callback panicked",
				zap.String("label", s.Label()),
				zap.Int("current", s.Current()),
				zap.Any("panic", r),
			)
		}
	}()
	a.callback(s.Current(), total)
}
