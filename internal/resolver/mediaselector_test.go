package resolver

import (
	"encoding/xml"
	"os"
	"testing"
)

func TestSignVPIDDeterministic(t *testing.T) {
	first := signVPID("abc123")
	second := signVPID("abc123")
	if first != second {
		t.Errorf("signVPID not deterministic: %q != %q", first, second)
	}

	if len(first) != 40 {
		t.Errorf("digest length = %d, want 40 hex characters", len(first))
	}
	for _, r := range first {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			t.Fatalf("digest contains non-hex character %q", r)
		}
	}

	if other := signVPID("xyz789"); other == first {
		t.Error("different identifiers produced the same digest")
	}
}

func TestSignVPIDIndependentOfCallOrder(t *testing.T) {
	a1 := signVPID("aaa")
	b1 := signVPID("bbb")
	b2 := signVPID("bbb")
	a2 := signVPID("aaa")
	if a1 != a2 || b1 != b2 {
		t.Error("digest depends on call order")
	}
}

func loadSelection(t *testing.T, filename string) *mediaSelection {
	t.Helper()
	data, err := os.ReadFile("testdata/" + filename)
	if err != nil {
		t.Fatalf("reading test fixture %s: %v", filename, err)
	}
	var sel mediaSelection
	if err := xml.Unmarshal(data, &sel); err != nil {
		t.Fatalf("parsing test fixture %s: %v", filename, err)
	}
	return &sel
}

func TestStreamURLsDeduplicates(t *testing.T) {
	sel := loadSelection(t, "mediaselector.xml")

	hls := sel.streamURLs("hls")
	if len(hls) != 1 {
		t.Fatalf("expected 1 deduplicated hls URL, got %d: %v", len(hls), hls)
	}
	if hls[0] != "https://vod.example.com/master.m3u8" {
		t.Errorf("hls[0] = %q, want the master playlist URL", hls[0])
	}
}

func TestStreamURLsPartitionsByFormat(t *testing.T) {
	sel := loadSelection(t, "mediaselector.xml")

	hds := sel.streamURLs("hds")
	if len(hds) != 1 {
		t.Fatalf("expected 1 hds URL, got %d: %v", len(hds), hds)
	}
	if hds[0] != "https://vod.example.com/manifest.f4m" {
		t.Errorf("hds[0] = %q, want the f4m manifest URL", hds[0])
	}
}

func TestStreamURLsIgnoresNonVideoMedia(t *testing.T) {
	sel := loadSelection(t, "mediaselector.xml")

	// The fixture carries an audio media node with an hls connection that
	// must not leak into the video stream list.
	for _, u := range sel.streamURLs("hls") {
		if u == "https://vod.example.com/audio.m3u8" {
			t.Error("audio connection included in video stream URLs")
		}
	}
}

func TestCaptionURLs(t *testing.T) {
	sel := loadSelection(t, "mediaselector.xml")

	captions := sel.captionURLs()
	if len(captions) != 1 {
		t.Fatalf("expected 1 caption URL, got %d: %v", len(captions), captions)
	}
	if captions[0] != "https://vod.example.com/captions.xml" {
		t.Errorf("captions[0] = %q, want the caption document URL", captions[0])
	}
}

func TestStreamURLsPreservesOrder(t *testing.T) {
	data := `<mediaSelection xmlns="http://bbc.co.uk/2008/mpf/mediaselection">
		<media kind="video">
			<connection transferFormat="hls" href="https://a.example.com/1.m3u8"/>
			<connection transferFormat="hls" href="https://b.example.com/2.m3u8"/>
			<connection transferFormat="hls" href="https://a.example.com/1.m3u8"/>
		</media>
	</mediaSelection>`
	var sel mediaSelection
	if err := xml.Unmarshal([]byte(data), &sel); err != nil {
		t.Fatal(err)
	}

	urls := sel.streamURLs("hls")
	if len(urls) != 2 {
		t.Fatalf("expected 2 URLs, got %d", len(urls))
	}
	if urls[0] != "https://a.example.com/1.m3u8" || urls[1] != "https://b.example.com/2.m3u8" {
		t.Errorf("order not preserved: %v", urls)
	}
}
