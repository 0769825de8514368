package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/raphaelgruber/targetdiff/internal/diff"
	"github.com/raphaelgruber/targetdiff/internal/export"
	"github.com/raphaelgruber/targetdiff/internal/metrics"
	"github.com/raphaelgruber/targetdiff/internal/models"
	"github.com/raphaelgruber/targetdiff/internal/service"
	"github.com/raphaelgruber/targetdiff/internal/source"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
	formatXLSX  = "xlsx"
)

const noDifferences = "No significant differences found."

var errUnknownFormat = errors.New("unknown format")

var (
	compareKind     string
	compareNew      string
	compareOld      string
	compareFormat   string
	compareOutput   string
	compareItem     string
	compareVariable string
	compareSort     string
	compareDesc     bool
	compareWatch    bool
	compareStats    bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare declarations between a new and an old program set",
	Long: `Compare the declarations of one kind between two folders of program files.

Files are paired by item key, declarations are matched by name and value,
and every difference is reported as Changed, Added or Deleted.

Examples:
  targetdiff compare --kind jointtarget --new ./new --old ./old
  targetdiff compare --kind robtarget --new ./new --old ./old --format csv --output diff.csv
  targetdiff compare --kind tooldata --new ./new --old ./old --variable gripper --sort newline
  targetdiff compare --kind jointtarget --new ./new --old ./old --watch`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVarP(&compareKind, "kind", "k", "", "declaration kind: jointtarget, robtarget or tooldata")
	compareCmd.Flags().StringVar(&compareNew, "new", "", "folder (or afs URL) with the new program files")
	compareCmd.Flags().StringVar(&compareOld, "old", "", "folder (or afs URL) with the old program files")
	compareCmd.Flags().StringVarP(&compareFormat, "format", "f", "", "output format: table, json, csv or xlsx (default from --output extension, else table)")
	compareCmd.Flags().StringVarP(&compareOutput, "output", "o", "", "write the report to this file instead of stdout")
	compareCmd.Flags().StringVar(&compareItem, "item", "", "keep rows whose item key contains this text")
	compareCmd.Flags().StringVar(&compareVariable, "variable", "", "keep rows whose variable name contains this text")
	compareCmd.Flags().StringVar(&compareSort, "sort", "", "sort rows by "+strings.Join(export.Columns(), ", "))
	compareCmd.Flags().BoolVar(&compareDesc, "desc", false, "sort descending")
	compareCmd.Flags().BoolVarP(&compareWatch, "watch", "w", false, "re-run when files change (local folders only)")
	compareCmd.Flags().BoolVar(&compareStats, "stats", false, "print stage timings to stderr")

	_ = compareCmd.MarkFlagRequired("kind")
	_ = compareCmd.MarkFlagRequired("new")
	_ = compareCmd.MarkFlagRequired("old")
}

func runCompare(cmd *cobra.Command, args []string) error {
	kind, err := models.ParseKind(compareKind)
	if err != nil {
		return err
	}
	format, err := resolveFormat(compareFormat, compareOutput)
	if err != nil {
		return err
	}
	if err := validateSort(compareSort); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()
	svc := newService(collector)
	req := service.CompareRequest{Kind: kind, NewURL: compareNew, OldURL: compareOld}

	run := func(ctx context.Context) error {
		report, err := compareOnce(ctx, svc, req)
		if err != nil {
			return err
		}
		if err := writeReport(report, format, collector); err != nil {
			return err
		}
		if compareStats {
			return printStats(os.Stderr, collector)
		}
		return nil
	}

	if !compareWatch {
		return run(ctx)
	}
	return watchCompare(ctx, svc, req, run)
}

func compareOnce(ctx context.Context, svc *service.CompareService, req service.CompareRequest) (*diff.Report, error) {
	if !interactive() || compareWatch {
		return svc.Compare(ctx, req)
	}
	var report *diff.Report
	err := runWithProgress(ctx, func(ctx context.Context, progress source.ProgressFunc) error {
		r := req
		r.Progress = progress
		var err error
		report, err = svc.Compare(ctx, r)
		return err
	})
	return report, err
}

// resolveFormat picks the explicit format, else one implied by the output
// file extension, else the terminal table.
func resolveFormat(format, output string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".json":
			return formatJSON, nil
		case ".csv":
			return formatCSV, nil
		case ".xlsx":
			return formatXLSX, nil
		}
		return formatTable, nil
	}
	switch f := strings.ToLower(format); f {
	case formatTable, formatJSON, formatCSV, formatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q (want table, json, csv or xlsx)", errUnknownFormat, format)
}

func validateSort(column string) error {
	return export.SortRows(nil, column, false)
}

// applyView returns a copy of the report holding the filtered, sorted rows.
func applyView(report *diff.Report) (*diff.Report, error) {
	filter := export.Filter{Item: compareItem, Variable: compareVariable}
	view := *report
	view.Rows = filter.Apply(report.Rows)
	if err := export.SortRows(view.Rows, compareSort, compareDesc); err != nil {
		return nil, err
	}
	return &view, nil
}

func writeReport(report *diff.Report, format string, collector *metrics.Collector) error {
	view, err := applyView(report)
	if err != nil {
		return err
	}
	done := collector.Track(metrics.StageRender)
	defer func() { done(len(view.Rows)) }()

	if view.Empty() {
		if format == formatTable && compareOutput == "" {
			fmt.Println(noDifferences)
			return nil
		}
		fmt.Fprintln(os.Stderr, noDifferences)
	}

	if format == formatXLSX && compareOutput == "" && term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("refusing to write xlsx to a terminal, use --output")
	}
	render := func(w io.Writer) error {
		switch format {
		case formatJSON:
			return export.JSON(w, view)
		case formatCSV:
			return export.CSV(w, view)
		case formatXLSX:
			return export.XLSX(w, view)
		}
		return export.Table(w, view, export.TableOptions{Color: compareOutput == "" && term.IsTerminal(int(os.Stdout.Fd()))})
	}

	if compareOutput == "" {
		return render(os.Stdout)
	}
	if err := writeFile(compareOutput, render); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %d rows to %s\n", len(view.Rows), compareOutput)
	return nil
}

// writeFile creates path and hands it to write. A failed close is returned
// like a failed write.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

func printStats(w io.Writer, collector *metrics.Collector) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(collector.Snapshot())
}

// watchCompare runs once, then again after every settled change to a
// relevant file, until ctx is cancelled.
func watchCompare(ctx context.Context, svc *service.CompareService, req service.CompareRequest, run func(context.Context) error) error {
	if !source.IsLocal(req.NewURL) || !source.IsLocal(req.OldURL) {
		return errors.New("--watch needs local folders")
	}
	profile, err := svc.Profile(req.Kind)
	if err != nil {
		return err
	}
	watcher, err := source.NewWatcher([]string{req.NewURL, req.OldURL}, profile.Accepts, source.DefaultDebounce)
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := run(ctx); err != nil {
		reportRunError(err)
	}
	fmt.Fprintln(os.Stderr, "Watching for changes. Press Ctrl+C to stop.")

	err = watcher.Run(ctx, func(paths []string) {
		slog.Info("files changed", "count", len(paths))
		fmt.Fprintf(os.Stderr, "\n%s: %d file(s) changed, re-running\n", time.Now().Format(time.TimeOnly), len(paths))
		if err := run(ctx); err != nil {
			reportRunError(err)
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// reportRunError keeps watch mode alive across failed runs.
func reportRunError(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
