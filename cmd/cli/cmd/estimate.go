// Package cmd - estimate command
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"cloud-architect-sim/core/architecture"
	"cloud-architect-sim/core/engine"
	"cloud-architect-sim/core/types"
)

var (
	estimateLevel int
	showDetails   bool
)

// estimateCmd represents the estimate command
var estimateCmd = &cobra.Command{
	Use:   "estimate [file]",
	Short: "Estimate cost and latency of an architecture",
	Long: `Estimate the monthly cost, the critical path latency and the security
issues of an architecture file, without scoring it.

The file is json, yaml or hcl and lists services and connections.
Without --level the standard pricing tier applies.

Examples:
  archsim estimate blog.yaml
  archsim estimate --level 1 blog.yaml
  archsim estimate --format json blog.json`,
	Args: cobra.ExactArgs(1),
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().IntVarP(&estimateLevel, "level", "l", types.NoLevel, "level whose pricing tier applies")
	estimateCmd.Flags().BoolVarP(&showDetails, "details", "d", true, "show per-service cost breakdown")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	spec, err := architecture.LoadSpec(args[0])
	if err != nil {
		return err
	}

	e, err := buildEngine()
	if err != nil {
		return err
	}

	if estimateLevel != types.NoLevel {
		if _, err := e.Level(estimateLevel); err != nil {
			return err
		}
	}

	est := e.Estimate(spec, estimateLevel)
	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), est)
	}
	printEstimate(cmd.OutOrStdout(), est, showDetails)
	return nil
}

func printEstimate(w io.Writer, est engine.Estimate, details bool) {
	fmt.Fprintln(w, "┌─────────────────────────────────────────────────────────────────────────┐")
	fmt.Fprintln(w, "│                         ARCHITECTURE ESTIMATE                           │")
	fmt.Fprintln(w, "├─────────────────────────────────────────────────────────────────────────┤")

	if details {
		for _, line := range est.Cost.Lines {
			fmt.Fprintf(w, "│ %-50s %20s │\n",
				truncate(line.ServiceID, 50),
				fmt.Sprintf("$%.2f/month", line.Amount.InexactFloat64()))
			for _, f := range line.Factors {
				fmt.Fprintf(w, "│   └─ %-46s %20s │\n",
					truncate(f.Reason, 46),
					"x"+f.Multiplier.String())
			}
		}
		if est.Cost.Transfer.Billable > 0 {
			fmt.Fprintf(w, "│ %-50s %20s │\n",
				fmt.Sprintf("data transfer (%d connections)", est.Cost.Transfer.Billable),
				fmt.Sprintf("$%.2f/month", est.Cost.Transfer.Amount.InexactFloat64()))
		}
		fmt.Fprintln(w, "├─────────────────────────────────────────────────────────────────────────┤")
	}

	fmt.Fprintf(w, "│ %-50s %20s │\n", "TOTAL MONTHLY ESTIMATE", fmt.Sprintf("$%.2f", est.MonthlyCost))
	fmt.Fprintf(w, "│ %-50s %20s │\n", "CRITICAL PATH LATENCY", fmt.Sprintf("%.2fms", est.Latency.Latency))
	fmt.Fprintln(w, "└─────────────────────────────────────────────────────────────────────────┘")

	if len(est.Latency.CriticalPath) > 0 {
		fmt.Fprintf(w, "\nCritical path: %s\n", strings.Join(est.Latency.CriticalPath, " -> "))
	}
	if est.Latency.Truncated {
		fmt.Fprintf(w, "Latency search stopped after %d paths\n", est.Latency.PathsExplored)
	}
	if len(est.Cost.Skipped) > 0 {
		fmt.Fprintf(w, "Not priced: %s\n", types.JoinIDs(est.Cost.Skipped))
	}
	if len(est.Issues) > 0 {
		fmt.Fprintln(w, "\nSecurity issues:")
		for _, issue := range est.Issues {
			fmt.Fprintf(w, "  - %s\n", issue)
		}
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
