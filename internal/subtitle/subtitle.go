// Package subtitle downloads caption documents into a temporary
// directory so they can be handed to the player or bundled with a
// download. Uses os.MkdirTemp with random suffixes instead of
// predictable /tmp paths.
package subtitle

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"beeb/internal/httputil"
)

// maxCaptionSize caps caption document downloads at 10MB.
const maxCaptionSize = 10 * 1024 * 1024

// TempDir manages a temporary directory for caption files.
type TempDir struct {
	path string
}

// NewTempDir creates a randomized temporary directory for caption files.
func NewTempDir() (*TempDir, error) {
	dir, err := os.MkdirTemp("", "beeb-subs-*")
	if err != nil {
		return nil, fmt.Errorf("creating caption temp dir: %w", err)
	}
	return &TempDir{path: dir}, nil
}

// Cleanup removes the temporary directory and all contents.
func (t *TempDir) Cleanup() {
	if t.path != "" {
		os.RemoveAll(t.path)
	}
}

// Download fetches a caption document to the temp directory and returns
// the local path.
func (t *TempDir) Download(rawURL string) (string, error) {
	if err := httputil.ValidateURL(rawURL); err != nil {
		return "", fmt.Errorf("invalid caption URL: %w", err)
	}

	// Caption documents from the media selector are TTML.
	filename := "captions.ttml"
	if parts := strings.Split(rawURL, "/"); len(parts) > 0 {
		last := parts[len(parts)-1]
		if idx := strings.Index(last, "?"); idx != -1 {
			last = last[:idx]
		}
		if last != "" {
			filename = httputil.SanitizeFilename(last)
		}
	}

	localPath := filepath.Join(t.path, filename)

	client := httputil.NewClient()
	resp, err := client.Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("downloading captions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("caption download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("creating caption file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(resp.Body, maxCaptionSize)); err != nil {
		return "", fmt.Errorf("writing caption file: %w", err)
	}

	return localPath, nil
}
