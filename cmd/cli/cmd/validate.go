// Package cmd - validate and play commands
package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"cloud-architect-sim/core/architecture"
	"cloud-architect-sim/core/engine"
	"cloud-architect-sim/core/session"
	"cloud-architect-sim/internal/errors"
)

var (
	validateLevel int

	playLevel  int
	playMode   string
	playPlayer string
)

// validateCmd scores an architecture file against a level
var validateCmd = &cobra.Command{
	Use:   "validate [file]...",
	Short: "Validate architectures against a level",
	Long: `Run the full level validation over architecture files and print the
score breakdown. Several files are evaluated concurrently and summarised.
The command exits non-zero when any architecture does not pass.

Examples:
  archsim validate --level 1 blog.yaml
  archsim validate --level 3 --format json shop.hcl
  archsim validate --level 1 attempts/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

// playCmd replays an architecture file as a game session
var playCmd = &cobra.Command{
	Use:   "play [file]",
	Short: "Play a level with an architecture file and record progress",
	Long: `Start a session on a level, place every service of the file, try every
connection (each accepted one scores), validate and record a completion
in the player's progress.

Examples:
  archsim play --level 1 blog.yaml
  archsim play --level 1 --mode time_trial --player alice blog.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	validateCmd.Flags().IntVarP(&validateLevel, "level", "l", 1, "level to validate against")

	playCmd.Flags().IntVarP(&playLevel, "level", "l", 1, "level to play")
	playCmd.Flags().StringVarP(&playMode, "mode", "m", string(session.ModeNormal), "game mode (normal, tutorial, time_trial)")
	playCmd.Flags().StringVarP(&playPlayer, "player", "p", "", "player profile (default from config)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(playCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return runValidateBatch(cmd, args)
	}

	spec, err := architecture.LoadSpec(args[0])
	if err != nil {
		return err
	}

	e, err := buildEngine()
	if err != nil {
		return err
	}

	result, err := e.EvaluateSpec(validateLevel, spec)
	if err != nil {
		return err
	}

	if jsonOutput() {
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		printResult(cmd.OutOrStdout(), result)
	}
	if !result.Valid {
		return errors.Input(result.Message)
	}
	return nil
}

// batchReport is the json output of validate with several files
type batchReport struct {
	Results []engine.JobResult `json:"results"`
	Stats   engine.BatchStats  `json:"stats"`
}

func runValidateBatch(cmd *cobra.Command, files []string) error {
	jobs := make([]engine.Job, 0, len(files))
	for _, f := range files {
		spec, err := architecture.LoadSpec(f)
		if err != nil {
			return err
		}
		jobs = append(jobs, engine.Job{Name: f, LevelID: validateLevel, Spec: spec})
	}

	e, err := buildEngine()
	if err != nil {
		return err
	}

	results, stats := engine.NewBatchEvaluator(e, cfg.Engine.Workers).Run(cmd.Context(), jobs)
	if jsonOutput() {
		if err := writeJSON(cmd.OutOrStdout(), batchReport{Results: results, Stats: stats}); err != nil {
			return err
		}
	} else {
		printBatch(cmd.OutOrStdout(), results, stats)
	}

	if stats.Passed != stats.Total {
		return errors.Newf(errors.TypeInput, "%d of %d architectures did not pass", stats.Total-stats.Passed, stats.Total)
	}
	return nil
}

func printBatch(w io.Writer, results []engine.JobResult, stats engine.BatchStats) {
	for _, r := range results {
		switch {
		case r.Result == nil:
			fmt.Fprintf(w, "%-40s ERROR   %s\n", truncate(r.Name, 40), r.Error)
		case r.Result.Valid:
			fmt.Fprintf(w, "%-40s PASSED  %+d\n", truncate(r.Name, 40), r.Result.ScoreDelta)
		default:
			fmt.Fprintf(w, "%-40s FAILED  %+d  %s\n", truncate(r.Name, 40), r.Result.ScoreDelta, r.Result.Message)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d errors (%d workers, %s)\n",
		stats.Passed, stats.Failed, stats.Errored, stats.MaxConcurrency, stats.Duration.Round(time.Millisecond))
}

// playReport is the json output of the play command
type playReport struct {
	Player   string            `json:"player"`
	Mode     session.Mode      `json:"mode"`
	Attempts []session.Attempt `json:"attempts"`
	Outcome  session.Outcome   `json:"outcome"`
	Unlocked []int             `json:"unlocked_levels"`
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	mode, err := session.ParseMode(playMode)
	if err != nil {
		return err
	}
	spec, err := architecture.LoadSpec(args[0])
	if err != nil {
		return err
	}

	e, err := buildEngine()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	player := playerName(playPlayer)
	progress, err := store.Load(ctx, player)
	if err != nil {
		return err
	}

	s, err := session.New(e, cfg, progress, playLevel, mode)
	if err != nil {
		return err
	}

	attempts, err := s.Replay(spec)
	if err != nil {
		return err
	}
	outcome, err := s.Validate()
	if err != nil {
		return err
	}

	if outcome.Completed {
		if err := store.Save(ctx, player, s.Progress()); err != nil {
			return err
		}
	}

	report := playReport{
		Player:   player,
		Mode:     mode,
		Attempts: attempts,
		Outcome:  outcome,
		Unlocked: s.Progress().UnlockedLevels(),
	}
	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	printPlay(cmd.OutOrStdout(), s, report)
	return nil
}

func printResult(w io.Writer, result engine.ValidationResult) {
	status := "FAILED"
	if result.Valid {
		status = "PASSED"
	}
	fmt.Fprintf(w, "Level %d: %s\n", result.LevelID, status)
	fmt.Fprintf(w, "%s\n\n", result.Message)

	for _, item := range result.Score {
		fmt.Fprintf(w, "  %+5d  %s\n", item.Delta, item.Reason)
	}
	fmt.Fprintf(w, "  -----\n  %+5d  total\n", result.ScoreDelta)

	if result.Cost != nil {
		fmt.Fprintf(w, "\nMonthly cost: $%.2f\n", *result.Cost)
	}
	if result.Latency != nil {
		fmt.Fprintf(w, "Latency: %.2fms\n", *result.Latency)
	}
	if len(result.Hints) > 0 {
		fmt.Fprintln(w, "\nHints:")
		for _, hint := range result.Hints {
			fmt.Fprintf(w, "  - %s\n", hint)
		}
	}
}

func printPlay(w io.Writer, s *session.Session, report playReport) {
	fmt.Fprintf(w, "%s playing level %d (%s) in %s mode\n\n", report.Player, s.Level.ID, s.Level.Title, report.Mode)

	for _, a := range report.Attempts {
		mark := "ok"
		if !a.Accepted {
			mark = "rejected"
		}
		fmt.Fprintf(w, "  %-30s %-8s %s\n", a.Connection.String(), mark, a.Message)
	}
	fmt.Fprintln(w)

	printResult(w, report.Outcome.Result)

	fmt.Fprintf(w, "\nScore: %d (%s)\n", report.Outcome.Score, report.Outcome.Rank)
	if report.Outcome.TimeTrialBonus {
		fmt.Fprintln(w, "Time trial bonus: score doubled")
	}
	if step := s.CurrentTutorialStep(); step != "" {
		fmt.Fprintf(w, "Tutorial: %s\n", step)
	}
	if report.Outcome.Completed {
		fmt.Fprintf(w, "Level completed. Unlocked levels: %v\n", report.Unlocked)
	}
}
