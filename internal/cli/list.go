package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raphaelgruber/targetdiff/internal/export"
	"github.com/raphaelgruber/targetdiff/internal/metrics"
	"github.com/raphaelgruber/targetdiff/internal/models"
	"github.com/raphaelgruber/targetdiff/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	listKind   string
	listNew    string
	listOld    string
	listOutput string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List how the files of two program sets pair up",
	Long: `List the candidate files of both folders, paired by item key.

Matched pairs come first, then files found only in the new folder, then
files found only in the old folder. Either folder may be omitted.

Examples:
  targetdiff list --kind jointtarget --new ./new --old ./old
  targetdiff list --kind tooldata --new ./new --old ./old --output tooldata_file_list.csv`,
	RunE: runList,
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "Show the declaration kinds and their file rules",
	RunE:  runKinds,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("targetdiff %s\n", Version)
	},
}

func init() {
	listCmd.Flags().StringVarP(&listKind, "kind", "k", "", "declaration kind: jointtarget, robtarget or tooldata")
	listCmd.Flags().StringVar(&listNew, "new", "", "folder (or afs URL) with the new program files")
	listCmd.Flags().StringVar(&listOld, "old", "", "folder (or afs URL) with the old program files")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "", "write the listing as CSV to this file")

	_ = listCmd.MarkFlagRequired("kind")
}

func runList(cmd *cobra.Command, args []string) error {
	kind, err := models.ParseKind(listKind)
	if err != nil {
		return err
	}

	svc := newService(metrics.NewCollector())
	listing, err := svc.List(context.Background(), service.ListRequest{Kind: kind, NewURL: listNew, OldURL: listOld})
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	if listOutput == "" {
		return export.FileListTable(os.Stdout, listing.PairResult, export.TableOptions{Color: term.IsTerminal(int(os.Stdout.Fd()))})
	}

	err = writeFile(listOutput, func(w io.Writer) error {
		return export.FileListCSV(w, listing.PairResult)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %d matched, %d new only, %d old only to %s\n",
		len(listing.Pairs), len(listing.NewOnly), len(listing.OldOnly), listOutput)
	return nil
}

func runKinds(cmd *cobra.Command, args []string) error {
	svc := newService(nil)
	fmt.Printf("Kinds (%d):\n\n", len(models.Kinds()))
	for _, kind := range models.Kinds() {
		p, err := svc.Profile(kind)
		if err != nil {
			return err
		}
		fmt.Printf("- %s [%s]\n", p.Kind, strings.Join(p.Qualifiers, "|"))
		fmt.Printf("  files:  %s*%s, keyed by %s\n", strings.Join(p.FilePrefixes, "*, "), p.Extension, p.ItemLabel)
		if p.NamePrefix != "" {
			fmt.Printf("  names:  %s*\n", p.NamePrefix)
		}
		if verbose {
			fmt.Printf("  numeric: %v, fixed arity: %v\n", p.Numeric, p.FixedArity)
		}
	}
	return nil
}
