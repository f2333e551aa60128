package pipeline

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/JakeFAU/file2text/internal/progress"
	"github.com/JakeFAU/file2text/internal/progress/consumers"
)

// Mode selects how progress is rendered when Options.Progress is set.
type Mode string

// Supported render modes.
const (
	// ModeAuto renders a bar on a terminal and log lines elsewhere.
	ModeAuto Mode = "auto"
	ModeBar  Mode = "bar"
	ModeLog  Mode = "log"
	ModeNone Mode = "none"
)

// ParseMode validates s. The empty string means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeBar, ModeLog, ModeNone:
		return m, nil
	default:
		return "", fmt.Errorf("unknown progress mode %q", s)
	}
}

// Options is what an entry point knows about progress reporting.
type Options struct {
	// Progress turns on user-facing rendering.
	Progress bool
	// Verbose adds progress lines regardless of Progress. They are logged at
	// debug level when the logger enables it and at info level otherwise.
	Verbose bool
	// Mode picks the renderer when Progress is set.
	Mode Mode
	// ProgressCallback is the legacy two-argument hook; nil to skip.
	ProgressCallback consumers.ProgressCallback

	// Throttle is the root emitter's minimum notification interval.
	Throttle time.Duration
	// LogInterval spaces log-rendered progress lines. Zero means the default.
	LogInterval time.Duration
	// ShowPercentage and ShowCount shape the terminal bar.
	ShowPercentage bool
	ShowCount      bool
	// Writer receives bar output. Defaults to os.Stderr.
	Writer io.Writer

	Logger *zap.Logger
	Clock  progress.Clock
	// Extra consumers are attached after the built-in ones.
	Extra []progress.Consumer
}

// DefaultOptions returns the settings the CLI uses when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Mode:           ModeAuto,
		Throttle:       100 * time.Millisecond,
		LogInterval:    consumers.DefaultLogInterval,
		ShowPercentage: true,
		ShowCount:      true,
	}
}

// NewRoot builds the single root emitter of a pipeline run and attaches the
// consumers opts asks for. A TerminalBar, when attached, is released by the
// emitter's Complete.
func NewRoot(total progress.Total, label string, opts Options) (*progress.Emitter, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	emitterOpts := []progress.Option{
		progress.WithThrottle(opts.Throttle),
		progress.WithLogger(logger),
	}
	if opts.Clock != nil {
		emitterOpts = append(emitterOpts, progress.WithClock(opts.Clock))
	}
	root, err := progress.NewEmitter(total, label, emitterOpts...)
	if err != nil {
		return nil, fmt.Errorf("create root emitter: %w", err)
	}
	for _, c := range Consumers(opts) {
		root.AddConsumer(c)
	}
	return root, nil
}

// Consumers returns the consumer set described by opts, in attach order.
func Consumers(opts Options) []progress.Consumer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := opts.LogInterval
	if interval <= 0 {
		interval = consumers.DefaultLogInterval
	}
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	var out []progress.Consumer
	if opts.Progress {
		switch resolveMode(opts.Mode, writer) {
		case ModeBar:
			out = append(out, consumers.NewTerminalBar(consumers.TerminalBarOptions{
				ShowPercentage: opts.ShowPercentage,
				ShowCount:      opts.ShowCount,
				Writer:         writer,
			}))
		case ModeLog:
			out = append(out, consumers.NewThrottledLogger(logger, consumers.WithInterval(interval)))
		}
	}
	if opts.Verbose {
		out = append(out, consumers.NewThrottledLogger(logger,
			consumers.WithLevel(verboseLevel(logger)),
			consumers.WithInterval(interval),
		))
	}
	if opts.ProgressCallback != nil {
		out = append(out, consumers.NewCallbackAdapter(opts.ProgressCallback, logger))
	}
	return append(out, opts.Extra...)
}

// verboseLevel keeps verbose lines visible on loggers that drop debug entries.
func verboseLevel(logger *zap.Logger) zapcore.Level {
	if logger.Core().Enabled(zapcore.DebugLevel) {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func resolveMode(m Mode, w io.Writer) Mode {
	if m != ModeAuto && m != "" {
		return m
	}
	if isTerminal(w) {
		return ModeBar
	}
	return ModeLog
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
