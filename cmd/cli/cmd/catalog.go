// Package cmd - catalog, levels and connect commands
package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cloud-architect-sim/core/catalog"
	"cloud-architect-sim/core/connection"
	"cloud-architect-sim/core/level"
	"cloud-architect-sim/internal/errors"
)

var catalogCategory string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the service catalog",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List services",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEngine()
		if err != nil {
			return err
		}
		defs := e.Catalog.All()
		if catalogCategory != "" {
			defs = e.Catalog.ByCategory(catalogCategory)
		}
		if jsonOutput() {
			return writeJSON(cmd.OutOrStdout(), defs)
		}
		printServices(cmd.OutOrStdout(), defs)
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show [service]",
	Short: "Show a service and its connection rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEngine()
		if err != nil {
			return err
		}
		def, err := e.Catalog.Lookup(args[0])
		if err != nil {
			return err
		}
		if jsonOutput() {
			return writeJSON(cmd.OutOrStdout(), def)
		}
		printService(cmd.OutOrStdout(), def)
		return nil
	},
}

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Browse the game levels",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var levelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List levels",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEngine()
		if err != nil {
			return err
		}
		specs := e.Levels.All()
		if jsonOutput() {
			return writeJSON(cmd.OutOrStdout(), specs)
		}
		for _, s := range specs {
			fmt.Fprintf(cmd.OutOrStdout(), "%3d  %-40s $%-8.2f %6.0fms  %s\n",
				s.ID, truncate(s.Title, 40), s.Budget, s.MaxLatency, s.Tier())
		}
		return nil
	},
}

var levelsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a level's requirements and tutorial",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.Newf(errors.TypeInput, "invalid level id: %s", args[0])
		}
		e, err := buildEngine()
		if err != nil {
			return err
		}
		spec, err := e.Level(id)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return writeJSON(cmd.OutOrStdout(), spec)
		}
		printLevel(cmd.OutOrStdout(), spec)
		return nil
	},
}

// connectCmd checks a single connection between two service types
var connectCmd = &cobra.Command{
	Use:   "connect [source] [target]",
	Short: "Check whether one service may connect to another",
	Long: `Check a connection between two service types against the catalog rules.

Examples:
  archsim connect api_gateway lambda
  archsim connect lambda rds`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEngine()
		if err != nil {
			return err
		}
		result := e.CheckConnection(args[0], args[1])
		if jsonOutput() {
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
		} else {
			printConnection(cmd.OutOrStdout(), result)
		}
		if !result.Valid {
			return errors.InvalidConnection(result.Message)
		}
		return nil
	},
}

func init() {
	catalogListCmd.Flags().StringVarP(&catalogCategory, "category", "c", "", "only list services of a category")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	levelsCmd.AddCommand(levelsListCmd)
	levelsCmd.AddCommand(levelsShowCmd)

	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(connectCmd)
}

func printServices(w io.Writer, defs []catalog.ServiceDefinition) {
	for _, d := range defs {
		fmt.Fprintf(w, "%-20s %-24s %-12s $%.4f/h %6.0fms\n",
			d.ID, truncate(d.DisplayName, 24), d.Category, d.CostPerHour, d.LatencyMS)
	}
}

func printService(w io.Writer, d catalog.ServiceDefinition) {
	fmt.Fprintf(w, "%s (%s)\n", d.DisplayName, d.ID)
	if d.Description != "" {
		fmt.Fprintf(w, "%s\n", d.Description)
	}
	fmt.Fprintf(w, "Category:  %s\n", d.Category)
	fmt.Fprintf(w, "Cost:      $%.4f/hour\n", d.CostPerHour)
	fmt.Fprintf(w, "Latency:   %.0fms\n", d.LatencyMS)
	fmt.Fprintf(w, "Connects:  %s\n", strings.Join(d.Rules.Direct, ", "))
	for _, req := range d.Rules.Requires {
		fmt.Fprintf(w, "Needs %s to reach %s\n", strings.Join(req.Intermediate, ", "), req.Target)
	}
}

func printLevel(w io.Writer, s level.Spec) {
	fmt.Fprintf(w, "Level %d: %s\n", s.ID, s.Title)
	if s.Description != "" {
		fmt.Fprintf(w, "%s\n", s.Description)
	}
	if s.Objective != "" {
		fmt.Fprintf(w, "Objective: %s\n", s.Objective)
	}
	fmt.Fprintf(w, "\nRequired:  %s\n", strings.Join(s.Required, ", "))
	fmt.Fprintf(w, "Optional:  %s\n", strings.Join(s.Optional, ", "))
	fmt.Fprintf(w, "Available: %s\n", strings.Join(s.Available, ", "))
	fmt.Fprintf(w, "Budget:    $%.2f/month\n", s.Budget)
	fmt.Fprintf(w, "Latency:   %.0fms max\n", s.MaxLatency)
	fmt.Fprintf(w, "Pricing:   %s tier\n", s.Tier())

	if len(s.Tutorial) > 0 {
		fmt.Fprintln(w, "\nTutorial:")
		for i, step := range s.Tutorial {
			fmt.Fprintf(w, "  %d. %s\n", i+1, step.Text)
		}
	}
}

func printConnection(w io.Writer, r connection.Result) {
	status := "allowed"
	if !r.Valid {
		status = "rejected"
	}
	fmt.Fprintf(w, "%s: %s\n", status, r.Message)
	if len(r.RequiredServices) > 0 {
		fmt.Fprintf(w, "Add: %s\n", strings.Join(r.RequiredServices, ", "))
	}
}
