package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/raphaelgruber/humanizer-go/internal/metrics"
)

// printStats displays session statistics.
func printStats(w io.Writer, stats metrics.Snapshot) {
	fmt.Fprintf(w, "\nSession Statistics\n")
	fmt.Fprintf(w, "══════════════════\n")
	fmt.Fprintf(w, "Uptime: %.1f seconds\n", stats.UptimeSeconds)

	if stats.Humanize != nil {
		fmt.Fprintf(w, "\nHumanize:\n")
		printOpStats(w, stats.Humanize)
	}

	if stats.TokenRefresh != nil {
		fmt.Fprintf(w, "\nToken Refresh:\n")
		printOpStats(w, stats.TokenRefresh)
	}

	if stats.Health != nil {
		fmt.Fprintf(w, "\nHealth:\n")
		printOpStats(w, stats.Health)
	}

	if len(stats.Outcomes) > 0 {
		kinds := make([]string, 0, len(stats.Outcomes))
		for k := range stats.Outcomes {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)

		fmt.Fprintf(w, "\nOutcomes:\n")
		for _, k := range kinds {
			fmt.Fprintf(w, "  %-18s %d\n", k, stats.Outcomes[k])
		}
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op *metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Failures: %d, Total: %dms\n", op.Count, op.Failures, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
