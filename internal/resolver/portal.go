package resolver

import (
	"net/url"
	"regexp"
	"strings"

	"beeb/internal/media"
)

// Portal path forms recognized by the resolver.
var (
	episodePathRe = regexp.MustCompile(`^/iplayer/episode/(\w+)`)
	livePathRe    = regexp.MustCompile(`^/iplayer/live/(\w+)`)
)

// PortalRef is the result of matching a portal URL: either an episode PID
// or a live channel name.
type PortalRef struct {
	Kind media.Kind
	ID   string // episode PID or channel name
	URL  string // the original URL, for subsequent fetches
}

// ParsePortalURL matches rawURL against the recognized iPlayer forms for
// the given portal host. A false return is a normal outcome, not an error:
// the URL simply belongs to some other site or page type.
func ParsePortalURL(host, rawURL string) (PortalRef, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return PortalRef{}, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return PortalRef{}, false
	}
	if !hostMatches(host, u.Host) {
		return PortalRef{}, false
	}

	if m := episodePathRe.FindStringSubmatch(u.Path); m != nil {
		return PortalRef{Kind: media.Episode, ID: m[1], URL: rawURL}, true
	}
	if m := livePathRe.FindStringSubmatch(u.Path); m != nil {
		return PortalRef{Kind: media.Live, ID: m[1], URL: rawURL}, true
	}
	return PortalRef{}, false
}

// hostMatches compares hosts case-insensitively, treating a leading "www."
// on either side as optional.
func hostMatches(want, got string) bool {
	want = strings.TrimPrefix(strings.ToLower(want), "www.")
	got = strings.TrimPrefix(strings.ToLower(got), "www.")
	return want == got
}
