package consumers

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/JakeFAU/file2text/internal/progress"
)

// TerminalBarOptions controls how a TerminalBar renders.
type TerminalBarOptions struct {
	// Title replaces the emitter label as the bar description.
	Title string
	// ShowPercentage draws a proportional bar for determinate totals. When
	// false the bar renders as a spinner.
	ShowPercentage bool
	// ShowCount appends "current/total" to the bar. A spinner with a known
	// total carries the count in its description.
	ShowCount bool
	// Writer receives the rendering. Defaults to os.Stderr.
	Writer io.Writer
}

// renderer is the slice of *progressbar.ProgressBar a TerminalBar drives.
type renderer interface {
	Add64(n int64) error
	Describe(description string)
	Finish() error
	Exit() error
}

// barFactory opens a renderer. size is -1 for spinner mode. showCount asks
// the renderer to draw its own count.
type barFactory func(size int64, description string, showCount bool) renderer

// TerminalBar renders progress as an interactive bar. The bar is opened on
// the first update, reopened whenever the total changes, and released exactly
// once: on completion or through Close, whichever comes first.
type TerminalBar struct {
	opts   TerminalBarOptions
	newBar barFactory

	bar         renderer
	total       progress.Total
	description string
	// countTo is the total a spinner spells out in its description, 0 when
	// the renderer counts by itself.
	countTo  int
	position int
	closed   bool
}

// NewTerminalBar returns a bar consumer. Nothing is drawn until the first
// update arrives.
func NewTerminalBar(opts TerminalBarOptions) *TerminalBar {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}
	return &TerminalBar{opts: opts, newBar: progressBarFactory(opts)}
}

func progressBarFactory(opts TerminalBarOptions) barFactory {
	return func(size int64, description string, showCount bool) renderer {
		options := []progressbar.Option{
			progressbar.OptionSetWriter(opts.Writer),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(opts.Writer, "\n")
			}),
		}
		if showCount {
			options = append(options, progressbar.OptionShowCount())
		}
		if size < 0 {
			options = append(options, progressbar.OptionSpinnerType(14))
		}
		return progressbar.NewOptions64(size, options...)
	}
}

// OnProgress implements progress.Consumer.
func (b *TerminalBar) OnProgress(u progress.Update) error {
	if b.closed {
		return nil
	}
	if b.bar == nil || u.State.Total() != b.total {
		if err := b.open(u.State); err != nil {
			return err
		}
	}
	return b.advance(u.State.Current())
}

// OnComplete drives the bar to its final position and releases it.
func (b *TerminalBar) OnComplete(s progress.State) error {
	if b.closed {
		return nil
	}
	if b.bar == nil || s.Total() != b.total {
		if err := b.open(s); err != nil {
			return err
		}
	}
	if err := b.advance(s.Current()); err != nil {
		_ = b.Close()
		return err
	}
	err := b.bar.Finish()
	b.bar = nil
	b.closed = true
	if err != nil {
		return fmt.Errorf("finish progress bar: %w", err)
	}
	return nil
}

// Close releases the bar without completing it. It is safe to call more than
// once and after OnComplete.
func (b *TerminalBar) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.bar == nil {
		return nil
	}
	err := b.bar.Exit()
	b.bar = nil
	if err != nil {
		return fmt.Errorf("close progress bar: %w", err)
	}
	return nil
}

func (b *TerminalBar) open(s progress.State) error {
	if b.bar != nil {
		if err := b.bar.Exit(); err != nil {
			return fmt.Errorf("close progress bar: %w", err)
		}
	}
	size := int64(-1)
	b.countTo = 0
	if n, ok := s.Total().Value(); ok && n > 0 {
		if b.opts.ShowPercentage {
			size = int64(n)
		} else if b.opts.ShowCount {
			b.countTo = n
		}
	}
	b.description = b.opts.Title
	if b.description == "" {
		b.description = labelOf(s)
	}
	b.bar = b.newBar(size, b.describe(0), b.opts.ShowCount && b.countTo == 0)
	b.total = s.Total()
	b.position = 0
	return nil
}

func (b *TerminalBar) describe(current int) string {
	if b.countTo == 0 {
		return b.description
	}
	return fmt.Sprintf("%s (%d/%d)", b.description, current, b.countTo)
}

func (b *TerminalBar) advance(target int) error {
	if target <= b.position {
		return nil
	}
	if b.countTo > 0 {
		b.bar.Describe(b.describe(target))
	}
	if err := b.bar.Add64(int64(target - b.position)); err != nil {
		return fmt.Errorf("advance progress bar: %w", err)
	}
	b.position = target
	return nil
}
