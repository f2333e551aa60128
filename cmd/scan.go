package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/file2text/internal/clock/system"
	"github.com/JakeFAU/file2text/internal/id/uuid"
	"github.com/JakeFAU/file2text/internal/inventory"
	"github.com/JakeFAU/file2text/internal/pipeline"
	"github.com/JakeFAU/file2text/internal/progress"
)

// scanTotal is the resolution of the root emitter; phases report fractions of it.
const scanTotal = 100

// newScanCmd creates the 'scan' subcommand.
func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path...]",
		Short: "Inventory convertible inputs",
		Long: `Walks the given paths (the working directory by default), classifies every
file by the pipeline that would convert it, and analyses text and PDF inputs.
Progress is reported for the discovery and analysis phases.`,
		RunE: runScan,
	}
	cmd.Flags().Int("concurrency", 4, "files analysed in parallel")
	cmd.Flags().Bool("hidden", false, "include dot-files and dot-directories")
	cmd.Flags().Bool("json", false, "print the report as JSON")
	return cmd
}

type scanResult struct {
	OperationID string           `json:"operation_id"`
	Report      inventory.Report `json:"report"`
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg, logger := a.Config(), a.Logger()
	if len(args) == 0 {
		args = []string{"."}
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	mode, err := pipeline.ParseMode(cfg.Progress.Mode)
	if err != nil {
		return err
	}
	operationID, err := uuid.New().NewID()
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("operation_id", operationID))
	spanCtx, span := otel.Tracer("github.com/JakeFAU/file2text/cmd").Start(cmd.Context(), "file2text.scan",
		trace.WithAttributes(attribute.String("file2text.operation_id", operationID)))
	defer span.End()

	// Notices about a cancelled scan must still go out.
	extra, err := a.Consumers(context.WithoutCancel(spanCtx), operationID)
	if err != nil {
		return fmt.Errorf("build progress consumers: %w", err)
	}
	root, err := pipeline.NewRoot(progress.Of(scanTotal), "scan", pipeline.Options{
		Progress:       cfg.Progress.Enabled,
		Verbose:        cfg.Progress.Verbose,
		Mode:           mode,
		Throttle:       cfg.Progress.Throttle,
		LogInterval:    cfg.Progress.LogInterval,
		ShowPercentage: cfg.Progress.ShowPercentage,
		ShowCount:      cfg.Progress.ShowCount,
		Writer:         cmd.ErrOrStderr(),
		Logger:         logger.Named("progress"),
		Clock:          system.New(),
		Extra:          extra,
	})
	if err != nil {
		return err
	}

	scanner := inventory.New(
		inventory.WithConcurrency(cfg.Scan.Concurrency),
		inventory.WithHidden(cfg.Scan.FollowHidden),
		inventory.WithLogger(logger.Named("inventory")),
		inventory.WithRecorder(a.Metrics()),
	)

	ctx, cancel := context.WithCancel(spanCtx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Serve(gctx) })

	var report inventory.Report
	g.Go(func() error {
		// The status server only outlives the scan on error.
		defer cancel()
		r, err := scanner.Scan(gctx, root, args...)
		if err != nil {
			root.Fail(err)
			root.Complete()
			return fmt.Errorf("scan: %w", err)
		}
		root.Complete()
		report = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("scan finished",
		zap.Int("files", len(report.Files)),
		zap.Int("failed", len(report.Failures)),
		zap.Int("skipped", report.Skipped),
		zap.Int64("bytes", report.Bytes),
	)
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(scanResult{OperationID: operationID, Report: report}); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else if err := printSummary(out, operationID, report); err != nil {
		return err
	}
	if len(report.Files) == 0 && len(report.Failures) == 0 {
		return inventory.ErrNoInputs
	}
	return nil
}

func printSummary(w io.Writer, operationID string, report inventory.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "KIND\tFILES\tBYTES\t")
	bytesByKind := make(map[inventory.Kind]int64, len(inventory.Kinds))
	for _, f := range report.Files {
		bytesByKind[f.Kind] += f.Size
	}
	for _, kind := range inventory.Kinds {
		fmt.Fprintf(tw, "%s\t%d\t%d\t\n", kind, report.ByKind[kind], bytesByKind[kind])
	}
	fmt.Fprintf(tw, "total\t%d\t%d\t\n", len(report.Files), report.Bytes)
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	warn := color.New(color.FgYellow)
	for _, f := range report.Failures {
		color.New(color.FgRed).Fprintf(w, "✗ failed: %s: %s\n", f.Path, f.Err)
	}
	for _, group := range report.Duplicates {
		warn.Fprintf(w, "⚠ identical content: %s\n", strings.Join(group, ", "))
	}
	if report.Skipped > 0 {
		warn.Fprintf(w, "⚠ skipped %d unsupported files\n", report.Skipped)
	}
	color.New(color.FgGreen).Fprintf(w, "✓ operation %s\n", operationID)
	return nil
}
