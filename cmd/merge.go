package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
)

var flagMergeOut string

var mergeCmd = &cobra.Command{
	Use:   "merge [files...]",
	Short: "Write the deduplicated, date-sorted records as one JSON array",
	RunE:  runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&flagMergeOut, "out", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	result, err := loadData(cmd, args)
	if err != nil {
		return err
	}
	defer warnFileErrors(result)

	ds := pipeline.FilterUsers(result.Dataset, selectedUsers())

	if err := writeMerged(flagMergeOut, ds.Records()); err != nil {
		return err
	}

	stats := pipeline.Stats(ds)
	fmt.Fprintf(os.Stderr, "  Merged %d records: %d users across %d days",
		stats.TotalRecords, stats.UniqueUsers, stats.UniqueDates)
	if stats.DateRange != nil {
		fmt.Fprintf(os.Stderr, " (%s .. %s)", stats.DateRange.Start, stats.DateRange.End)
	}
	fmt.Fprintln(os.Stderr)
	return nil
}

// writeMerged encodes recs as an indented JSON array to path, or to stdout
// when path is empty.
func writeMerged(path string, recs []model.Record) error {
	if recs == nil {
		recs = []model.Record{}
	}
	if path == "" {
		return encodeMerged(os.Stdout, recs)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := encodeMerged(f, recs); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func encodeMerged(w io.Writer, recs []model.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("writing merged records: %w", err)
	}
	return nil
}
