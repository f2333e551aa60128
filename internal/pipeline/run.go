package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/JakeFAU/file2text/internal/progress"
)

// Each runs fn over items in order, advancing e by one unit per finished
// item. It stops at the first error or when ctx is cancelled, reports the
// failure on e, and completes e on every return path.
func Each[T any](ctx context.Context, e *progress.Emitter, items []T, fn func(context.Context, T) error) (err error) {
	defer func() {
		if err != nil {
			e.Fail(err)
		}
		e.Complete()
	}()
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if err := fn(ctx, item); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if err := e.Update(1); err != nil {
			return err
		}
	}
	return nil
}

// Phase describes one weighted stage of a multi-stage pipeline.
type Phase struct {
	Label  string
	Weight float64
	Total  progress.Total
}

// Phases creates one child of parent per phase, in order. Nothing is created
// when any phase is invalid.
func Phases(parent *progress.Emitter, phases ...Phase) ([]*progress.Emitter, error) {
	for _, p := range phases {
		if math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0) || p.Weight <= 0 {
			return nil, fmt.Errorf("phase %q: %w: weight %v", p.Label, progress.ErrInvalidEmitterArgument, p.Weight)
		}
	}
	children := make([]*progress.Emitter, 0, len(phases))
	for _, p := range phases {
		child, err := parent.CreateChild(p.Total, p.Weight, p.Label)
		if err != nil {
			return nil, fmt.Errorf("phase %q: %w", p.Label, err)
		}
		children = append(children, child)
	}
	return children, nil
}
