package inventory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/file2text/internal/hash/sha256"
	"github.com/JakeFAU/file2text/internal/pipeline"
	"github.com/JakeFAU/file2text/internal/progress"
)

// ErrNoInputs reports that a scan found nothing it could analyse.
var ErrNoInputs = errors.New("no supported inputs found")

const (
	tracerName = "github.com/JakeFAU/file2text/internal/inventory"

	discoverWeight = 1
	analyzeWeight  = 4
)

// Recorder receives per-file counters. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveFile(kind string, size int64)
	ObserveScanError()
}

type nopRecorder struct{}

func (nopRecorder) ObserveFile(string, int64) {}
func (nopRecorder) ObserveScanError()         {}

// Failure records an input that could not be analysed.
type Failure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Report is the outcome of a Scan. Files are sorted by path. Duplicates
// groups the paths of files with identical content.
type Report struct {
	Files      []File       `json:"files"`
	Failures   []Failure    `json:"failures,omitempty"`
	Duplicates [][]string   `json:"duplicates,omitempty"`
	Skipped    int          `json:"skipped"`
	ByKind     map[Kind]int `json:"by_kind"`
	Bytes      int64        `json:"bytes"`
}

// Scanner walks input paths and analyses what it finds.
type Scanner struct {
	concurrency  int
	followHidden bool
	logger       *zap.Logger
	recorder     Recorder
	tracer       trace.Tracer
	hasher       *sha256.Hasher
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithConcurrency bounds the number of files analysed at once.
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithHidden includes dot-files and dot-directories.
func WithHidden(follow bool) Option {
	return func(s *Scanner) {
		s.followHidden = follow
	}
}

// WithLogger sets the scanner logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder attaches per-file counters.
func WithRecorder(r Recorder) Option {
	return func(s *Scanner) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithTracerProvider records spans on tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Scanner) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// New returns a Scanner analysing four files at a time by default.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		concurrency: 4,
		logger:      zap.NewNop(),
		recorder:    nopRecorder{},
		tracer:      otel.Tracer(tracerName),
		hasher:      sha256.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan discovers the supported files under paths and analyses them. Progress
// is reported on two children of root: "discover" (weight 1, one unit per
// input path) and "analyze" (weight 4, one unit per file). Both children are completed before Scan returns; root is left
// to the caller. Per-file analysis errors are collected in the report and do
// not fail the scan.
func (s *Scanner) Scan(ctx context.Context, root *progress.Emitter, paths ...string) (report Report, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.Scan",
		trace.WithAttributes(attribute.StringSlice("inventory.paths", paths)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.Int("inventory.files", len(report.Files)),
				attribute.Int("inventory.failures", len(report.Failures)),
				attribute.Int64("inventory.bytes", report.Bytes),
			)
		}
		span.End()
	}()

	phases, err := pipeline.Phases(root,
		pipeline.Phase{Label: "discover", Weight: discoverWeight, Total: progress.Of(len(paths))},
		pipeline.Phase{Label: "analyze", Weight: analyzeWeight, Total: progress.Indeterminate},
	)
	if err != nil {
		return Report{}, err
	}
	discover, analyzePhase := phases[0], phases[1]

	found, skipped, err := s.discover(ctx, discover, paths)
	if err != nil {
		analyzePhase.Complete()
		return Report{}, err
	}

	report = Report{Skipped: skipped, ByKind: make(map[Kind]int, len(Kinds))}
	if err := analyzePhase.UpdateTotal(progress.Of(len(found))); err != nil {
		return Report{}, err
	}
	files, failures, err := s.analyzeAll(ctx, analyzePhase, found)
	if err != nil {
		return Report{}, err
	}
	for _, f := range files {
		report.ByKind[f.Kind]++
		report.Bytes += f.Size
	}
	report.Files = files
	report.Failures = failures
	report.Duplicates = duplicates(files)
	return report, nil
}

func duplicates(files []File) [][]string {
	byDigest := make(map[string][]string, len(files))
	var order []string
	for _, f := range files {
		if _, ok := byDigest[f.SHA256]; !ok {
			order = append(order, f.SHA256)
		}
		byDigest[f.SHA256] = append(byDigest[f.SHA256], f.Path)
	}
	var out [][]string
	for _, digest := range order {
		if paths := byDigest[digest]; len(paths) > 1 {
			out = append(out, paths)
		}
	}
	return out
}

type candidate struct {
	path string
	kind Kind
}

// discover walks each input path in turn and completes e, failing it on the
// first walk error.
func (s *Scanner) discover(ctx context.Context, e *progress.Emitter, paths []string) ([]candidate, int, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.discover")
	defer span.End()

	var (
		found   []candidate
		skipped int
		seen    = make(map[string]struct{})
	)
	err := pipeline.Each(ctx, e, paths, func(ctx context.Context, root string) error {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if path != root && !s.followHidden && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if _, dup := seen[path]; dup {
				return nil
			}
			seen[path] = struct{}{}
			kind, ok := Classify(path)
			if !ok {
				skipped++
				s.logger.Debug("skipping unsupported input", zap.String("path", path))
				return nil
			}
			found = append(found, candidate{path: path, kind: kind})
			s.logger.Debug("discovered input", zap.String("path", path), zap.String("kind", string(kind)))
			return nil
		})
		if err != nil {
			return fmt.Errorf("discover %s: %w", root, err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(found, func(i, j int) bool { return found[i].path < found[j].path })
	return found, skipped, nil
}

func (s *Scanner) analyzeAll(ctx context.Context, e *progress.Emitter, found []candidate) ([]File, []Failure, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.analyze",
		trace.WithAttributes(attribute.Int("inventory.candidates", len(found))))
	defer span.End()

	m := pipeline.NewMediator(pipeline.MediatorConfig{Logger: s.logger})
	defer func() {
		if err := m.Close(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("close progress mediator", zap.Error(err))
		}
	}()

	results := make([]File, len(found))
	errs := make([]error, len(found))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, c := range found {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := analyze(s.hasher, c.path, c.kind)
			if err != nil {
				errs[i] = err
				s.recorder.ObserveScanError()
				s.logger.Warn("analyse input failed", zap.String("path", c.path), zap.Error(err))
			} else {
				results[i] = f
				s.recorder.ObserveFile(string(f.Kind), f.Size)
			}
			return m.Update(gctx, e, 1, progress.Detail("file", c.path))
		})
	}
	waitErr := g.Wait()
	if err := m.Do(context.WithoutCancel(ctx), func() error {
		if waitErr != nil {
			e.Fail(waitErr)
		}
		e.Complete()
		return nil
	}); err != nil {
		return nil, nil, err
	}
	if waitErr != nil {
		return nil, nil, fmt.Errorf("analyse inputs: %w", waitErr)
	}

	files := make([]File, 0, len(found))
	var failures []Failure
	for i := range found {
		if errs[i] != nil {
			failures = append(failures, Failure{Path: found[i].path, Err: errs[i].Error()})
			continue
		}
		files = append(files, results[i])
	}
	return files, failures, nil
}
