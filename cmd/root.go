// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"beeb/internal/config"
	"beeb/internal/logger"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagUsername string
	flagPassword string
	flagQuality  string
	flagPlayer   string
	flagJSON     bool
	flagList     bool
	flagContinue bool
	flagDownload string
	flagNoSubs   bool
	flagDebug    bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "beeb <url>",
	Short: "Resolve and play BBC iPlayer streams from the terminal",
	Long: `Beeb resolves BBC iPlayer episode and live-channel URLs into playable
stream variants and hands them to mpv/vlc, or prints them for other tools.
A TV Licence is required to watch BBC iPlayer: https://www.bbc.co.uk/iplayer/help/tvlicence`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: loadConfig,
	RunE:              resolveRun,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagUsername, "username", "u", "", "BBC account username (enables sign-in)")
	rootCmd.PersistentFlags().StringVarP(&flagPassword, "password", "p", "", "BBC account password (prompted if omitted)")
	rootCmd.PersistentFlags().StringVarP(&flagQuality, "quality", "q", "", "Stream quality: best | worst | label like 720p")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Media player: mpv | vlc | iina | celluloid")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output resolved streams as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagList, "list", "l", false, "List stream variants without playing")
	rootCmd.PersistentFlags().BoolVarP(&flagContinue, "continue", "c", false, "Resume from the saved position")
	rootCmd.PersistentFlags().StringVarP(&flagDownload, "download", "d", "", "Record the stream to this directory instead of playing")
	rootCmd.PersistentFlags().BoolVar(&flagNoSubs, "no-subs", false, "Skip caption download")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagUsername != "" {
		cfg.Username = flagUsername
	}
	if flagPassword != "" {
		cfg.Password = flagPassword
	}
	if flagQuality != "" {
		cfg.Quality = flagQuality
	}
	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Debug)

	return nil
}
