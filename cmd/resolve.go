package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"beeb/internal/download"
	"beeb/internal/history"
	"beeb/internal/media"
	"beeb/internal/player"
	"beeb/internal/resolver"
	"beeb/internal/subtitle"
	"beeb/internal/ui"
)

// resolveRun is the default command: beeb <url>
func resolveRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no URL given, see --help")
	}
	return resolveAndPlay(args[0])
}

// resolveAndPlay handles the full resolve -> select -> play flow.
func resolveAndPlay(rawURL string) error {
	if cfg.Username != "" && cfg.Password == "" {
		pw, err := promptPassword()
		if err != nil {
			return err
		}
		cfg.Password = pw
	}

	r := resolver.New(resolver.Options{
		Username: cfg.Username,
		Password: cfg.Password,
	})

	variants, prog, err := r.Resolve(rawURL)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", rawURL, err)
	}
	if len(variants) == 0 {
		fmt.Fprintln(os.Stderr, "No playable streams found.")
		return nil
	}

	title := prog.Title
	if title == "" {
		title = prog.PID
	}

	if flagJSON {
		out := map[string]interface{}{
			"pid":      prog.PID,
			"title":    prog.Title,
			"kind":     prog.Kind.String(),
			"captions": prog.Captions,
			"variants": formatVariants(variants),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if flagList {
		for _, v := range variants {
			fmt.Printf("%-8s %-4s %s\n", v.Label, v.Format, v.URL)
		}
		return nil
	}

	variant, err := pickVariant(variants, cfg.Quality)
	if err != nil {
		return err
	}
	slog.Debug("selected variant", "label", variant.Label, "format", variant.Format)

	if variant.Format == media.HDS {
		slog.Warn("hds streams need a Flash-capable downloader, most players cannot play them directly")
	}

	subFile, cleanup := fetchCaptions(prog)
	defer cleanup()

	if flagDownload != "" {
		path, err := download.Download(variant, title, flagDownload, subFile)
		if err != nil {
			return fmt.Errorf("recording failed: %w", err)
		}
		fmt.Println(path)
		return nil
	}

	// Resume position from history
	var startPos float64
	var store *history.Store
	if cfg.History {
		store, err = history.Open()
		if err != nil {
			slog.Debug("opening history failed", "error", err)
		} else {
			defer store.Close()
			if flagContinue {
				if pos, err := store.Position(prog.PID); err == nil && pos > 0 {
					startPos = pos
					slog.Debug("resuming", "position", startPos)
				}
			}
		}
	}

	p := player.New(cfg.Player)
	if !p.Available() {
		return fmt.Errorf("player %q not found in PATH", cfg.Player)
	}

	lastPos, err := p.Play(variant, title, startPos, subFile)
	if err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}

	if store != nil {
		entry := media.HistoryEntry{
			PID:      prog.PID,
			URL:      rawURL,
			Title:    prog.Title,
			Kind:     prog.Kind,
			Quality:  variant.Label,
			Position: lastPos,
		}
		if err := store.Save(entry); err != nil {
			slog.Debug("saving history failed", "error", err)
		}
	}

	return nil
}

// fetchCaptions downloads the programme's caption document to a temp
// dir. Best-effort: failures are logged and playback continues without
// captions. The returned cleanup func removes the temp dir and is
// always safe to call.
func fetchCaptions(prog *media.Programme) (string, func()) {
	if flagNoSubs || len(prog.Captions) == 0 {
		return "", func() {}
	}

	tmp, err := subtitle.NewTempDir()
	if err != nil {
		slog.Debug("creating caption temp dir failed", "error", err)
		return "", func() {}
	}

	path, err := tmp.Download(prog.Captions[0])
	if err != nil {
		slog.Debug("caption download failed", "error", err)
		tmp.Cleanup()
		return "", func() {}
	}
	slog.Debug("captions downloaded", "path", path)
	return path, tmp.Cleanup
}

// pickVariant selects a variant by the configured quality, falling back
// to the interactive picker.
func pickVariant(variants []media.Variant, quality string) (media.Variant, error) {
	switch quality {
	case "best":
		best := 0
		for i, v := range variants {
			if v.Bandwidth > variants[best].Bandwidth {
				best = i
			}
		}
		return variants[best], nil
	case "worst":
		worst := 0
		for i, v := range variants {
			if v.Bandwidth < variants[worst].Bandwidth {
				worst = i
			}
		}
		return variants[worst], nil
	case "":
		// fall through to the picker
	default:
		for _, v := range variants {
			if v.Label == quality {
				return v, nil
			}
		}
		slog.Warn("no variant matches requested quality", "quality", quality)
	}

	items := make([]string, len(variants))
	for i, v := range variants {
		items[i] = fmt.Sprintf("%s (%s)", v.Label, v.Format)
	}
	idx, err := ui.Select("Quality", items)
	if err != nil {
		return media.Variant{}, err
	}
	return variants[idx], nil
}

// formatVariants shapes variants for JSON output.
func formatVariants(variants []media.Variant) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(variants))
	for _, v := range variants {
		out = append(out, map[string]interface{}{
			"label":     v.Label,
			"format":    v.Format.String(),
			"url":       v.URL,
			"bandwidth": v.Bandwidth,
		})
	}
	return out
}

// promptPassword reads the account password without echoing it.
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "BBC account password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if len(pw) == 0 {
		return "", fmt.Errorf("no password provided")
	}
	return string(pw), nil
}
