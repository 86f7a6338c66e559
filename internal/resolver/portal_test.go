package resolver

import (
	"testing"

	"beeb/internal/media"
)

func TestParsePortalURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantOK   bool
		wantKind media.Kind
		wantID   string
	}{
		{"episode", "https://www.bbc.co.uk/iplayer/episode/b0abcd12", true, media.Episode, "b0abcd12"},
		{"episode with slug", "https://www.bbc.co.uk/iplayer/episode/b0abcd12/doctor-who-series-1", true, media.Episode, "b0abcd12"},
		{"episode http", "http://www.bbc.co.uk/iplayer/episode/b0abcd12", true, media.Episode, "b0abcd12"},
		{"episode no www", "https://bbc.co.uk/iplayer/episode/b0abcd12", true, media.Episode, "b0abcd12"},
		{"live channel", "https://www.bbc.co.uk/iplayer/live/bbcone", true, media.Live, "bbcone"},
		{"wrong host", "https://www.example.com/iplayer/episode/b0abcd12", false, 0, ""},
		{"wrong section", "https://www.bbc.co.uk/news/uk-12345678", false, 0, ""},
		{"no id", "https://www.bbc.co.uk/iplayer/episode/", false, 0, ""},
		{"wrong scheme", "ftp://www.bbc.co.uk/iplayer/episode/b0abcd12", false, 0, ""},
		{"not a url", "::::", false, 0, ""},
		{"empty", "", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := ParsePortalURL("www.bbc.co.uk", tt.url)
			if ok != tt.wantOK {
				t.Fatalf("ParsePortalURL(%q) ok = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if ref.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", ref.Kind, tt.wantKind)
			}
			if ref.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", ref.ID, tt.wantID)
			}
		})
	}
}

func TestHostMatches(t *testing.T) {
	tests := []struct {
		want, got string
		expect    bool
	}{
		{"www.bbc.co.uk", "www.bbc.co.uk", true},
		{"www.bbc.co.uk", "bbc.co.uk", true},
		{"bbc.co.uk", "WWW.BBC.CO.UK", true},
		{"www.bbc.co.uk", "account.bbc.com", false},
		{"127.0.0.1:8080", "127.0.0.1:8080", true},
		{"127.0.0.1:8080", "127.0.0.1:9090", false},
	}

	for _, tt := range tests {
		if got := hostMatches(tt.want, tt.got); got != tt.expect {
			t.Errorf("hostMatches(%q, %q) = %v, want %v", tt.want, tt.got, got, tt.expect)
		}
	}
}
