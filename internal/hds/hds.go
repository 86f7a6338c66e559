// Package hds parses Adobe HDS (f4m) manifests into labeled stream
// variants.
package hds

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sort"

	"beeb/internal/httputil"
	"beeb/internal/media"
)

// manifest mirrors the f4m document, reduced to the elements needed to
// enumerate renditions.
type manifest struct {
	BaseURL string `xml:"baseURL"`
	Media   []struct {
		Bitrate uint32 `xml:"bitrate,attr"`
		URL     string `xml:"url,attr"`
		Href    string `xml:"href,attr"` // multi-level manifests reference nested f4m files
	} `xml:"media"`
}

// ParseManifest fetches an f4m manifest and returns one variant per media
// entry, labeled by bitrate and ordered by bitrate descending.
func ParseManifest(client *http.Client, manifestURL string) ([]media.Variant, error) {
	resp, err := httputil.Get(client, manifestURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, manifestURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var man manifest
	if err := xml.Unmarshal(body, &man); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	base := resp.Request.URL
	if man.BaseURL != "" {
		b, err := base.Parse(man.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("resolving baseURL %q: %w", man.BaseURL, err)
		}
		base = b
	}

	var variants []media.Variant
	for _, m := range man.Media {
		ref := m.URL
		if ref == "" {
			ref = m.Href
		}
		if ref == "" {
			continue
		}
		u, err := base.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("resolving media URL %q: %w", ref, err)
		}
		variants = append(variants, media.Variant{
			Label:     fmt.Sprintf("%dk", m.Bitrate),
			URL:       u.String(),
			Format:    media.HDS,
			Bandwidth: m.Bitrate * 1000,
		})
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("no media entries in manifest %s", manifestURL)
	}

	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Bandwidth > variants[j].Bandwidth
	})
	return variants, nil
}
