// Package cmd - progress commands
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cloud-architect-sim/core/session"
	"cloud-architect-sim/internal/storage"
)

var progressPlayer string

// progressCmd manages player progress
var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show or reset player progress",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var progressShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show unlocked levels, best scores and rank",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		p, err := store.Load(context.Background(), playerName(progressPlayer))
		if err != nil {
			return err
		}
		if jsonOutput() {
			return writeJSON(cmd.OutOrStdout(), p)
		}
		printProgress(cmd.OutOrStdout(), p)
		return nil
	},
}

var progressResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset a player's progress to a fresh profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		player := playerName(progressPlayer)
		if err := store.Save(context.Background(), player, session.NewProgress(player)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Progress of %s reset\n", player)
		return nil
	},
}

var progressPlayersCmd = &cobra.Command{
	Use:   "players",
	Short: "List players with stored progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Storage.DatabasePath == "" {
			return fmt.Errorf("listing players needs storage.database_path")
		}
		db, err := storage.Open(cfg.Storage.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		players, err := storage.NewProgressStore(db).Players(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput() {
			return writeJSON(cmd.OutOrStdout(), players)
		}
		for _, p := range players {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

func init() {
	progressCmd.PersistentFlags().StringVarP(&progressPlayer, "player", "p", "", "player profile (default from config)")

	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressResetCmd)
	progressCmd.AddCommand(progressPlayersCmd)
	rootCmd.AddCommand(progressCmd)
}

// openStore opens the sqlite progress store, or an in-memory store when
// no database path is configured. The returned func releases it.
func openStore() (session.Store, func(), error) {
	if cfg.Storage.DatabasePath == "" {
		return session.NewMemoryStore(), func() {}, nil
	}
	db, err := storage.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewProgressStore(db), func() { db.Close() }, nil
}

func playerName(flag string) string {
	if flag != "" {
		return flag
	}
	if cfg.Storage.Player != "" {
		return cfg.Storage.Player
	}
	return session.DefaultPlayer
}

func printProgress(w io.Writer, p *session.Progress) {
	fmt.Fprintf(w, "Player:       %s\n", p.Player)
	fmt.Fprintf(w, "Total score:  %d\n", p.TotalScore)
	fmt.Fprintf(w, "Highest rank: %s\n", p.HighestRank)
	fmt.Fprintf(w, "Unlocked:     %v\n", p.UnlockedLevels())

	completed := p.CompletedLevels()
	if len(completed) == 0 {
		return
	}
	fmt.Fprintln(w, "Best scores:")
	for _, id := range completed {
		best, _ := p.Best(id)
		fmt.Fprintf(w, "  level %2d  %d\n", id, best)
	}
}
