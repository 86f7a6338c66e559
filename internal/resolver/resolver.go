// Package resolver turns BBC iPlayer portal URLs into playable stream
// variants. Given an episode or live-channel page it scrapes the internal
// programme identifier, signs a media-selector request, and hands the
// returned manifests to the HLS and HDS parsers.
package resolver

import (
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"beeb/internal/httputil"
	"beeb/internal/media"
)

// Production endpoints. Fields on Resolver so tests can point them at
// local servers.
const (
	defaultPortalHost       = "www.bbc.co.uk"
	defaultMediaSelectorURL = "https://open.live.bbc.co.uk/mediaselector/5/select/version/2.0"
	defaultIDConfigURL      = "https://www.bbc.co.uk/idcta/config"
	defaultSignInURL        = "https://account.bbc.com/signin"
)

// Page markers for the programme identifiers.
var (
	vpidRe          = regexp.MustCompile(`"ident_id"\s*:\s*"(\w+)"`)
	tvipRe          = regexp.MustCompile(`event_master_brand=(\w+?)&`)
	accountLocalsRe = regexp.MustCompile(`window\.bbcAccount\.locals\s*=\s*(\{.*?});`)
)

// Options configures a Resolver.
type Options struct {
	Username string
	Password string

	// Overrides for tests; empty means production defaults.
	PortalHost       string
	MediaSelectorURL string
	IDConfigURL      string
	SignInURL        string
}

// Resolver resolves portal URLs into stream variants. All work is
// sequential; one Resolver should not be shared across goroutines because
// the underlying client's cookie jar carries the signed-in session.
type Resolver struct {
	client *http.Client
	opts   Options
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	if opts.PortalHost == "" {
		opts.PortalHost = defaultPortalHost
	}
	if opts.MediaSelectorURL == "" {
		opts.MediaSelectorURL = defaultMediaSelectorURL
	}
	if opts.IDConfigURL == "" {
		opts.IDConfigURL = defaultIDConfigURL
	}
	if opts.SignInURL == "" {
		opts.SignInURL = defaultSignInURL
	}
	return &Resolver{
		client: httputil.NewClient(),
		opts:   opts,
	}
}

// Resolve resolves a portal URL into its playable stream variants.
//
// Anticipated dead ends (unrecognized URL, identifier marker absent from
// the page) are logged and yield an empty slice with a nil error.
// Authentication failure and transport or decode failures return an error
// and abort the whole resolution.
func (r *Resolver) Resolve(rawURL string) ([]media.Variant, *media.Programme, error) {
	slog.Info("a TV Licence is required to watch BBC iPlayer streams, see https://www.bbc.co.uk/iplayer/help/tvlicence")

	ref, ok := ParsePortalURL(r.opts.PortalHost, rawURL)
	if !ok {
		slog.Warn("unrecognized portal URL", "url", rawURL)
		return nil, nil, nil
	}

	// A signed-in session is required up front when credentials are
	// configured; there is no fallback to anonymous resolution.
	pageBody := ""
	if r.opts.Username != "" {
		body, err := r.authenticate(rawURL)
		if err != nil {
			return nil, nil, fmt.Errorf("authenticating: %w", err)
		}
		pageBody = body
	}

	switch ref.Kind {
	case media.Episode:
		slog.Debug("loading streams for episode", "pid", ref.ID)
		if pageBody == "" {
			body, _, err := httputil.GetBody(r.client, rawURL)
			if err != nil {
				return nil, nil, fmt.Errorf("fetching episode page: %w", err)
			}
			pageBody = body
		}
		vpid := findMarker(vpidRe, pageBody)
		if vpid == "" {
			slog.Error("could not find vpid for episode", "pid", ref.ID)
			return nil, nil, nil
		}
		slog.Debug("found vpid", "vpid", vpid)
		prog := &media.Programme{PID: ref.ID, Kind: media.Episode, Title: pageTitle(pageBody)}
		variants, captions, err := r.mediaSelector(vpid)
		prog.Captions = captions
		return variants, prog, err

	case media.Live:
		slog.Debug("loading stream for live channel", "channel", ref.ID)
		body, _, err := httputil.GetBody(r.client, rawURL)
		if err != nil {
			return nil, nil, fmt.Errorf("fetching channel page: %w", err)
		}
		tvip := findMarker(tvipRe, body)
		if tvip == "" {
			slog.Debug("no tvip found on channel page", "channel", ref.ID)
			return nil, nil, nil
		}
		slog.Debug("found tvip", "tvip", tvip)
		prog := &media.Programme{PID: ref.ID, Kind: media.Live, Title: pageTitle(body)}
		variants, captions, err := r.mediaSelector(tvip)
		prog.Captions = captions
		return variants, prog, err
	}

	return nil, nil, nil
}

// findMarker returns the first capture of re in body, or "" when the
// marker is absent. Absence is a normal outcome.
func findMarker(re *regexp.Regexp, body string) string {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return m[1]
}

// pageTitle extracts a display title from page HTML, preferring the
// OpenGraph title over the document title. Best-effort: returns "" when
// the page yields nothing usable.
func pageTitle(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		return strings.TrimSpace(og)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	// Strip the site suffix the portal appends to document titles.
	if i := strings.Index(title, " - BBC"); i > 0 {
		title = title[:i]
	}
	return title
}
