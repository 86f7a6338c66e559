package resolver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"beeb/internal/media"
)

const episodePage = `<html><head>
<title>Doctor Who - BBC iPlayer</title>
<meta property="og:title" content="Doctor Who: Rose"/>
</head><body>
<script>window.mediatorData = {"ident_id": "abc123", "other": 1};</script>
</body></html>`

const livePage = `<html><head><title>BBC One - BBC iPlayer</title></head><body>
<img src="https://stats.example.com/track?event_master_brand=bbc_one&amp;foo=1"/>
</body></html>`

const masterPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-STREAM-INF:BANDWIDTH=2560000,RESOLUTION=1280x720,CODECS="avc1.64001f,mp4a.40.2"
720/playlist.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1280000,RESOLUTION=960x540,CODECS="avc1.64001f,mp4a.40.2"
540/playlist.m3u8
`

const f4mManifest = `<?xml version="1.0" encoding="UTF-8"?>
<manifest xmlns="http://ns.adobe.com/f4m/1.0">
  <id>test-stream</id>
  <media bitrate="1500" url="stream_1500"/>
</manifest>`

// portalServer simulates the portal, the media selector, and the CDN on a
// single httptest server.
type portalServer struct {
	*httptest.Server

	mu        sync.Mutex
	pageHits  int
	platforms []string
}

func newPortalServer(t *testing.T) *portalServer {
	t.Helper()
	ps := &portalServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/iplayer/episode/", func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.pageHits++
		ps.mu.Unlock()
		fmt.Fprint(w, episodePage)
	})
	mux.HandleFunc("/iplayer/live/", func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.pageHits++
		ps.mu.Unlock()
		fmt.Fprint(w, livePage)
	})
	mux.HandleFunc("/mediaselector/mediaset/", func(w http.ResponseWriter, r *http.Request) {
		// Path: /mediaselector/mediaset/<platform>/vpid/<vpid>/atk/<hash>/asn/1/
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 8 {
			http.Error(w, "bad path", http.StatusBadRequest)
			return
		}
		platform, vpid, hash := parts[2], parts[4], parts[6]
		if hash != signVPID(vpid) {
			http.Error(w, "bad token", http.StatusForbidden)
			return
		}
		ps.mu.Lock()
		ps.platforms = append(ps.platforms, platform)
		ps.mu.Unlock()

		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<mediaSelection xmlns="http://bbc.co.uk/2008/mpf/mediaselection">
  <media kind="video">
    <connection transferFormat="hls" href="%[1]s/vod/master.m3u8"/>
    <connection transferFormat="hls" href="%[1]s/vod/master.m3u8"/>
    <connection transferFormat="hds" href="%[1]s/vod/manifest.f4m"/>
  </media>
  <media kind="captions">
    <connection transferFormat="plain" href="%[1]s/vod/captions.xml"/>
  </media>
</mediaSelection>`, ps.URL)
	})
	mux.HandleFunc("/vod/master.m3u8", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, masterPlaylist)
	})
	mux.HandleFunc("/vod/manifest.f4m", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/f4m+xml")
		fmt.Fprint(w, f4mManifest)
	})

	ps.Server = httptest.NewServer(mux)
	t.Cleanup(ps.Close)
	return ps
}

func (ps *portalServer) host(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(ps.URL)
	if err != nil {
		t.Fatal(err)
	}
	return u.Host
}

func (ps *portalServer) resolver(t *testing.T, opts Options) *Resolver {
	t.Helper()
	opts.PortalHost = ps.host(t)
	opts.MediaSelectorURL = ps.URL + "/mediaselector"
	opts.IDConfigURL = ps.URL + "/idcta/config"
	opts.SignInURL = ps.URL + "/auth/signin"
	return New(opts)
}

func TestResolveEpisode(t *testing.T) {
	ps := newPortalServer(t)
	r := ps.resolver(t, Options{})

	variants, prog, err := r.Resolve(ps.URL + "/iplayer/episode/b0abcd12")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	// Per platform: 2 HLS renditions + 1 HDS rendition. Two platforms are
	// always queried and their results concatenated without cross-platform
	// dedup.
	if len(variants) != 6 {
		t.Fatalf("expected 6 variants, got %d: %+v", len(variants), variants)
	}
	if ps.platforms[0] != "pc" || ps.platforms[1] != "iptv-all" {
		t.Errorf("platforms queried = %v, want [pc iptv-all]", ps.platforms)
	}

	if variants[0].Label != "720p" || variants[0].Format != media.HLS {
		t.Errorf("variants[0] = %+v, want 720p hls", variants[0])
	}
	if variants[1].Label != "540p" {
		t.Errorf("variants[1].Label = %q, want 540p", variants[1].Label)
	}
	if variants[2].Label != "1500k" || variants[2].Format != media.HDS {
		t.Errorf("variants[2] = %+v, want 1500k hds", variants[2])
	}
	// Second platform's results repeat the first's.
	if variants[3].Label != "720p" {
		t.Errorf("variants[3].Label = %q, want 720p from second platform", variants[3].Label)
	}

	if prog == nil {
		t.Fatal("expected programme metadata")
	}
	if prog.PID != "b0abcd12" || prog.Kind != media.Episode {
		t.Errorf("programme = %+v, want episode b0abcd12", prog)
	}
	if prog.Title != "Doctor Who: Rose" {
		t.Errorf("title = %q, want og:title value", prog.Title)
	}
	// Both platforms return the same caption URL; it is kept once.
	if len(prog.Captions) != 1 || prog.Captions[0] != ps.URL+"/vod/captions.xml" {
		t.Errorf("captions = %v, want one deduplicated caption URL", prog.Captions)
	}
}

func TestResolveLive(t *testing.T) {
	ps := newPortalServer(t)
	r := ps.resolver(t, Options{})

	variants, prog, err := r.Resolve(ps.URL + "/iplayer/live/bbcone")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(variants) != 6 {
		t.Fatalf("expected 6 variants, got %d", len(variants))
	}
	if prog == nil || prog.Kind != media.Live || prog.PID != "bbcone" {
		t.Errorf("programme = %+v, want live bbcone", prog)
	}
	// The tvip marker yields the channel's master brand.
	if got := findMarker(tvipRe, livePage); got != "bbc_one" {
		t.Errorf("tvip = %q, want bbc_one", got)
	}
}

func TestResolveUnrecognizedURLNoNetwork(t *testing.T) {
	ps := newPortalServer(t)
	r := ps.resolver(t, Options{})

	for _, bad := range []string{
		ps.URL + "/news/uk-12345678",
		"https://www.example.com/iplayer/episode/b0abcd12",
		"not a url at all",
		"",
	} {
		variants, prog, err := r.Resolve(bad)
		if err != nil {
			t.Errorf("Resolve(%q) error = %v, want nil", bad, err)
		}
		if len(variants) != 0 || prog != nil {
			t.Errorf("Resolve(%q) yielded results for unrecognized URL", bad)
		}
	}

	if ps.pageHits != 0 || len(ps.platforms) != 0 {
		t.Errorf("unrecognized URLs caused network calls: pages=%d selectors=%d",
			ps.pageHits, len(ps.platforms))
	}
}

func TestResolveEpisodeMissingVPID(t *testing.T) {
	mux := http.NewServeMux()
	selectorCalls := 0
	mux.HandleFunc("/iplayer/episode/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>no identifier here</body></html>`)
	})
	mux.HandleFunc("/mediaselector/", func(w http.ResponseWriter, r *http.Request) {
		selectorCalls++
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	u, _ := url.Parse(ts.URL)
	r := New(Options{PortalHost: u.Host, MediaSelectorURL: ts.URL + "/mediaselector"})

	variants, prog, err := r.Resolve(ts.URL + "/iplayer/episode/b0abcd12")
	if err != nil {
		t.Fatalf("missing vpid should not be an error, got %v", err)
	}
	if len(variants) != 0 || prog != nil {
		t.Error("missing vpid should yield nothing")
	}
	if selectorCalls != 0 {
		t.Errorf("media selector called %d times despite missing vpid", selectorCalls)
	}
}

func TestResolveLiveMissingTVIP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/iplayer/live/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>nothing to see</body></html>`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	u, _ := url.Parse(ts.URL)
	r := New(Options{PortalHost: u.Host})

	variants, prog, err := r.Resolve(ts.URL + "/iplayer/live/bbcone")
	if err != nil {
		t.Fatalf("missing tvip should not be an error, got %v", err)
	}
	if len(variants) != 0 || prog != nil {
		t.Error("missing tvip should yield nothing")
	}
}

func TestFindMarker(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"vpid present", `"ident_id": "abc123"`, "abc123"},
		{"vpid spaced", `"ident_id"  :  "b0xyz"`, "b0xyz"},
		{"vpid absent", `"other_id": "abc123"`, ""},
		{"empty body", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findMarker(vpidRe, tt.body); got != tt.want {
				t.Errorf("findMarker = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"og title preferred", episodePage, "Doctor Who: Rose"},
		{"document title fallback", `<html><head><title>Blue Planet - BBC iPlayer</title></head></html>`, "Blue Planet"},
		{"no title", `<html><body></body></html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pageTitle(tt.body); got != tt.want {
				t.Errorf("pageTitle = %q, want %q", got, tt.want)
			}
		})
	}
}
