// Package download records streams to local files using ffmpeg.
// Uses exec.Command with explicit argument slices and validates output
// paths against directory traversal.
package download

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"beeb/internal/httputil"
	"beeb/internal/media"
)

// Download records a stream variant to outputDir using ffmpeg stream
// copy. When captionFile is set, the caption document is placed next to
// the recording as a sidecar with the same base name. Returns the path
// of the recording.
func Download(variant media.Variant, title, outputDir, captionFile string) (string, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	filename := httputil.SanitizeFilename(title) + ".mkv"
	outputPath, err := httputil.SafeDownloadPath(absDir, filename)
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}

	args := []string{
		"-y",
		"-i", variant.URL,
		"-c:v", "copy",
		"-c:a", "copy",
		"-metadata", fmt.Sprintf("title=%s", title),
		outputPath,
	}

	cmd := exec.Command(ffmpegPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	fmt.Fprintf(os.Stderr, "Recording to: %s\n", outputPath)

	if err := cmd.Run(); err != nil {
		// Remove the partial recording on failure
		os.Remove(outputPath)
		return "", fmt.Errorf("ffmpeg failed: %w", err)
	}

	if captionFile != "" {
		if err := copySidecar(captionFile, outputPath); err != nil {
			return outputPath, fmt.Errorf("saving captions: %w", err)
		}
	}

	return outputPath, nil
}

// copySidecar copies the caption document next to the recording,
// keeping the recording's base name and the caption file's extension.
func copySidecar(captionFile, outputPath string) error {
	ext := filepath.Ext(captionFile)
	if ext == "" {
		ext = ".ttml"
	}
	dest := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ext

	src, err := os.Open(captionFile)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
