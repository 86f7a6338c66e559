package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"beeb/internal/history"
	"beeb/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Resume from watch history",
	RunE:  historyRun,
}

func historyRun(cmd *cobra.Command, args []string) error {
	store, err := history.Open()
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	entries, err := store.Load()
	store.Close()
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No history entries found.")
		return nil
	}

	items := history.FormatForDisplay(entries)
	idx, err := ui.Select("History", items)
	if err != nil {
		return err
	}

	selected := entries[idx]
	slog.Debug("resuming from history", "pid", selected.PID, "url", selected.URL)

	// Re-resolve from the saved portal URL and pick up the position.
	// The saved quality wins unless one was given on the command line.
	flagContinue = true
	if selected.Quality != "" && flagQuality == "" {
		cfg.Quality = selected.Quality
	}
	return resolveAndPlay(selected.URL)
}
