// Package hls parses HLS variant playlists into labeled stream variants.
package hls

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/grafov/m3u8"

	"beeb/internal/httputil"
	"beeb/internal/media"
)

// ParseVariantPlaylist fetches an m3u8 playlist and returns one variant
// per rendition, labeled by resolution height (falling back to bandwidth)
// and ordered by bandwidth descending. A media playlist yields a single
// "live" variant pointing at the playlist itself.
func ParseVariantPlaylist(client *http.Client, playlistURL string) ([]media.Variant, error) {
	resp, err := httputil.Get(client, playlistURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, playlistURL)
	}

	p, listType, err := m3u8.DecodeFrom(resp.Body, true)
	if err != nil {
		return nil, fmt.Errorf("decoding playlist: %w", err)
	}

	// Relative rendition URIs resolve against the playlist's final URL,
	// which may differ from playlistURL after redirects.
	base := resp.Request.URL

	switch listType {
	case m3u8.MASTER:
		master := p.(*m3u8.MasterPlaylist)
		variants := make([]media.Variant, 0, len(master.Variants))
		for _, v := range master.Variants {
			if v == nil || v.URI == "" {
				continue
			}
			u, err := base.Parse(v.URI)
			if err != nil {
				return nil, fmt.Errorf("resolving rendition URL %q: %w", v.URI, err)
			}
			variants = append(variants, media.Variant{
				Label:     variantLabel(v.Resolution, v.Bandwidth),
				URL:       u.String(),
				Format:    media.HLS,
				Bandwidth: v.Bandwidth,
			})
		}
		if len(variants) == 0 {
			return nil, fmt.Errorf("no renditions in master playlist %s", playlistURL)
		}
		sort.SliceStable(variants, func(i, j int) bool {
			return variants[i].Bandwidth > variants[j].Bandwidth
		})
		return variants, nil

	case m3u8.MEDIA:
		return []media.Variant{{
			Label:  "live",
			URL:    base.String(),
			Format: media.HLS,
		}}, nil

	default:
		return nil, fmt.Errorf("unsupported playlist type for %s", playlistURL)
	}
}

// variantLabel derives a quality label from a RESOLUTION attribute
// ("1280x720" -> "720p"), falling back to bandwidth ("1500k").
func variantLabel(resolution string, bandwidth uint32) string {
	if _, h, ok := strings.Cut(resolution, "x"); ok {
		if n, err := strconv.Atoi(h); err == nil && n > 0 {
			return fmt.Sprintf("%dp", n)
		}
	}
	if bandwidth > 0 {
		return fmt.Sprintf("%dk", bandwidth/1000)
	}
	return "unknown"
}
