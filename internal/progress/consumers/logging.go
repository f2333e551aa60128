package consumers

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JakeFAU/file2text/internal/progress"
)

// DefaultLogInterval is the minimum spacing between two progress log lines.
const DefaultLogInterval = 5 * time.Second

const defaultLabel = "Progress"

// ThrottledLogger writes at most one progress line per interval and always
// writes the completion line. The interval is measured on the snapshots'
// own timestamps, so it follows whatever clock drives the emitter.
type ThrottledLogger struct {
	logger   *zap.Logger
	level    zapcore.Level
	interval time.Duration

	lastLog time.Time
	logged  bool
}

// LoggerOption configures a ThrottledLogger.
type LoggerOption func(*ThrottledLogger)

// WithLevel sets the level progress lines are written at. Info by default.
func WithLevel(level zapcore.Level) LoggerOption {
	return func(l *ThrottledLogger) {
		l.level = level
	}
}

// WithInterval overrides DefaultLogInterval. Zero logs every delivered update.
func WithInterval(d time.Duration) LoggerOption {
	return func(l *ThrottledLogger) {
		if d >= 0 {
			l.interval = d
		}
	}
}

// NewThrottledLogger builds a logging consumer on top of logger.
func NewThrottledLogger(logger *zap.Logger, opts ...LoggerOption) *ThrottledLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &ThrottledLogger{
		logger:   logger,
		level:    zapcore.InfoLevel,
		interval: DefaultLogInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnProgress implements progress.Consumer.
func (l *ThrottledLogger) OnProgress(u progress.Update) error {
	now := u.State.Timestamp()
	if l.logged && now.Sub(l.lastLog) < l.interval {
		return nil
	}
	l.lastLog = now
	l.logged = true
	l.write(FormatProgress(u.State), u.State, zap.Stringer("type", u.Type), zap.Int("delta", u.Delta))
	return nil
}

// OnComplete implements progress.Consumer.
func (l *ThrottledLogger) OnComplete(s progress.State) error {
	l.write(FormatCompletion(s), s, zap.Stringer("type", progress.Completed))
	return nil
}

func (l *ThrottledLogger) write(msg string, s progress.State, extra ...zap.Field) {
	ce := l.logger.Check(l.level, msg)
	if ce == nil {
		return
	}
	fields := []zap.Field{
		zap.String("label", labelOf(s)),
		zap.Int("current", s.Current()),
		zap.Stringer("total", s.Total()),
	}
	if pct, ok := s.Percentage(); ok {
		fields = append(fields, zap.Float64("percentage", pct))
	}
	ce.Write(append(fields, extra...)...)
}

// FormatProgress renders s as "label: current/total (pct%)" or, when the
// total is unknown, "label: current items".
func FormatProgress(s progress.State) string {
	n, ok := s.Total().Value()
	if !ok {
		return fmt.Sprintf("%s: %d items", labelOf(s), s.Current())
	}
	pct, _ := s.Percentage()
	return fmt.Sprintf("%s: %d/%d (%.1f%%)", labelOf(s), s.Current(), n, pct)
}

// FormatCompletion renders the final line for s.
func FormatCompletion(s progress.State) string {
	if n, ok := s.Total().Value(); ok {
		return fmt.Sprintf("%s: completed %d/%d", labelOf(s), s.Current(), n)
	}
	return fmt.Sprintf("%s: completed %d items", labelOf(s), s.Current())
}

func labelOf(s progress.State) string {
	if s.Label() == "" {
		return defaultLabel
	}
	return s.Label()
}
