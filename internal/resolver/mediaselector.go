package resolver

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"log/slog"

	"beeb/internal/hds"
	"beeb/internal/hls"
	"beeb/internal/httputil"
	"beeb/internal/media"
)

// Both platforms are always queried, in this order, and their results
// concatenated. Variants duplicated across platforms are kept.
var platforms = [...]string{"pc", "iptv-all"}

// mediaSecret is prepended to the vpid before hashing to form the atk
// request token.
var mediaSecret = mustBase64("N2RmZjc2NzFkMGM2OTdmZWRiMWQ5MDVkOWExMjE3MTk5MzhiOTJiZg==")

func mustBase64(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// signVPID derives the hex-encoded access token for a media-selector
// request. Deterministic for a given identifier.
func signVPID(vpid string) string {
	h := sha1.New()
	h.Write(mediaSecret)
	h.Write([]byte(vpid))
	return hex.EncodeToString(h.Sum(nil))
}

// mediaSelection mirrors the media-selector XML response, reduced to the
// elements the resolver consumes.
type mediaSelection struct {
	Media []struct {
		Kind        string `xml:"kind,attr"`
		Connections []struct {
			TransferFormat string `xml:"transferFormat,attr"`
			Href           string `xml:"href,attr"`
		} `xml:"connection"`
	} `xml:"media"`
}

// streamURLs returns the video connection hrefs for one transfer format,
// deduplicated while preserving document order.
func (ms *mediaSelection) streamURLs(format string) []string {
	var urls []string
	seen := make(map[string]bool)
	for _, m := range ms.Media {
		if m.Kind != "video" {
			continue
		}
		for _, c := range m.Connections {
			if c.TransferFormat != format || c.Href == "" || seen[c.Href] {
				continue
			}
			seen[c.Href] = true
			urls = append(urls, c.Href)
		}
	}
	return urls
}

// captionURLs returns the caption document hrefs, deduplicated.
func (ms *mediaSelection) captionURLs() []string {
	var urls []string
	seen := make(map[string]bool)
	for _, m := range ms.Media {
		if m.Kind != "captions" {
			continue
		}
		for _, c := range m.Connections {
			if c.Href == "" || seen[c.Href] {
				continue
			}
			seen[c.Href] = true
			urls = append(urls, c.Href)
		}
	}
	return urls
}

// mediaSelector queries the media-selector API for every platform and
// parses the returned manifests into stream variants. Caption document
// URLs found along the way are returned as the second value.
func (r *Resolver) mediaSelector(vpid string) ([]media.Variant, []string, error) {
	if err := httputil.ValidateToken(vpid); err != nil {
		return nil, nil, fmt.Errorf("invalid media identifier: %w", err)
	}

	var variants []media.Variant
	var captions []string
	seenCaption := make(map[string]bool)
	for _, platform := range platforms {
		url := fmt.Sprintf("%s/mediaset/%s/vpid/%s/atk/%s/asn/1/",
			r.opts.MediaSelectorURL, platform, vpid, signVPID(vpid))
		slog.Debug("querying media selector", "platform", platform, "vpid", vpid)

		body, _, err := httputil.GetBody(r.client, url)
		if err != nil {
			return nil, nil, fmt.Errorf("querying media selector (%s): %w", platform, err)
		}

		var sel mediaSelection
		if err := xml.Unmarshal([]byte(body), &sel); err != nil {
			return nil, nil, fmt.Errorf("parsing media selector response (%s): %w", platform, err)
		}

		for _, surl := range sel.streamURLs("hls") {
			vs, err := hls.ParseVariantPlaylist(r.client, surl)
			if err != nil {
				return nil, nil, fmt.Errorf("parsing variant playlist %s: %w", surl, err)
			}
			variants = append(variants, vs...)
		}
		for _, surl := range sel.streamURLs("hds") {
			vs, err := hds.ParseManifest(r.client, surl)
			if err != nil {
				return nil, nil, fmt.Errorf("parsing manifest %s: %w", surl, err)
			}
			variants = append(variants, vs...)
		}
		for _, curl := range sel.captionURLs() {
			if seenCaption[curl] {
				continue
			}
			seenCaption[curl] = true
			captions = append(captions, curl)
		}
	}
	return variants, captions, nil
}
