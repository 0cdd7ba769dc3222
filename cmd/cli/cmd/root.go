// Package cmd provides the CLI commands for archsim.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cloud-architect-sim/core/engine"
	"cloud-architect-sim/internal/config"
	"cloud-architect-sim/internal/logging"
)

// Version is the CLI and API version
const Version = "0.1.0"

var (
	cfgFile      string
	verbose      bool
	outputFormat string

	// cfg is loaded once by initConfig
	cfg = config.Default()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "archsim",
	Short: "Evaluate cloud architectures for the architecture game",
	Long: `archsim evaluates player-built cloud architectures against game levels.

It checks connections, estimates monthly cost and request latency, audits
security and scores an architecture the same way the game does.

Examples:
  archsim levels list
  archsim validate --level 1 blog.yaml
  archsim estimate --format json blog.json
  archsim play --level 1 --mode time_trial blog.yaml
  archsim serve`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (json, yaml or toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded

	// Initialize logging
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

func buildEngine() (*engine.Engine, error) {
	return engine.Build(cfg)
}

// writeJSON prints v indented; used by every command for --format json
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func jsonOutput() bool {
	return outputFormat == "json"
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "archsim version %s\n", Version)
	},
}

// configCmd manages configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeJSON(cmd.OutOrStdout(), cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Default().Save(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
