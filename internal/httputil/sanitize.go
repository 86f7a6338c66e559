package httputil

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// validTokenPattern matches media-selector identifiers (vpid/tvip).
// These are short alphanumeric tokens; anything else never reaches a URL.
var validTokenPattern = regexp.MustCompile(`^\w+$`)

// ValidateURL checks that a URL is well-formed and uses HTTP or HTTPS.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// ValidateToken checks that a scraped identifier contains only safe
// characters before it is interpolated into an API URL.
func ValidateToken(token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if len(token) > 64 {
		return fmt.Errorf("token too long: %d characters", len(token))
	}
	if !validTokenPattern.MatchString(token) {
		return fmt.Errorf("token contains invalid characters: %q", token)
	}
	return nil
}

// unsafeFilenameChars covers path separators, shell metacharacters and
// control bytes. Programme titles come from scraped HTML.
var unsafeFilenameChars = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f]`)

// SanitizeFilename makes a scraped title safe to use as a file name.
func SanitizeFilename(name string) string {
	s := unsafeFilenameChars.ReplaceAllString(name, "_")
	s = strings.Trim(s, ". ")
	if len(s) > 150 {
		s = s[:150]
	}
	if s == "" {
		return "stream"
	}
	return s
}

// SafeDownloadPath joins dir and filename and verifies the result stays
// inside dir.
func SafeDownloadPath(dir, filename string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(absDir, filename))
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	if !strings.HasPrefix(absPath, absDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %q", filename, dir)
	}
	return absPath, nil
}
