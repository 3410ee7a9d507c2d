package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/tvimport/internal/catalog"
	"github.com/JonMunkholm/tvimport/internal/importer"
)

// The failure table is bounded; the log has every entry in full.
const (
	maxListedFailures = 20
	maxReasonWidth    = 100
)

func printSummary(w io.Writer, res *importer.Result) {
	fmt.Fprintf(w, "Import %s finished in %s\n\n", res.RunID, res.Duration.Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Total\t%d\n", res.Total)
	fmt.Fprintf(tw, "  Imported\t%d\n", res.Imported)
	fmt.Fprintf(tw, "  Skipped\t%d\n", res.Skipped)
	fmt.Fprintf(tw, "  Failed\t%d\n", res.Failed)
	fmt.Fprintf(tw, "  Discarded\t%d\n", res.Discarded)
	fmt.Fprintf(tw, "  Commits\t%d\n", res.Commits)
	tw.Flush()

	if len(res.Failures) > 0 {
		fmt.Fprintf(w, "\nFailures:\n")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  LINE\tID\tPHASE\tCODE\tREASON")
		for i, f := range res.Failures {
			if i == maxListedFailures {
				break
			}
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\n", f.Line, f.Key, f.Phase, f.Code, truncate(f.Reason, maxReasonWidth))
		}
		tw.Flush()
		if extra := len(res.Failures) - maxListedFailures; extra > 0 {
			fmt.Fprintf(w, "  ... and %d more (see log)\n", extra)
		}
	}

	if res.Discarded > 0 {
		fmt.Fprintf(w, "\n%d records were discarded with their batch; run the import again to load them.\n", res.Discarded)
	}

	if res.Counts != nil {
		fmt.Fprintf(w, "\nTable counts:\n")
		printCounts(w, res.Counts)
	}
}

func printCounts(w io.Writer, counts catalog.Counts) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, c := range counts {
		fmt.Fprintf(tw, "  %s\t%d\t\n", c.Table, c.Rows)
	}
	tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
