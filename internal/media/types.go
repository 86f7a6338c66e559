// Package media defines shared types for the beeb application.
package media

import "time"

// Format identifies the transport of a stream variant.
type Format int

const (
	HLS Format = iota // adaptive HTTP streaming (m3u8)
	HDS               // Flash dynamic streaming (f4m)
)

func (f Format) String() string {
	switch f {
	case HLS:
		return "hls"
	case HDS:
		return "hds"
	default:
		return "unknown"
	}
}

// Kind distinguishes on-demand episodes from live channels.
type Kind int

const (
	Episode Kind = iota
	Live
)

func (k Kind) String() string {
	switch k {
	case Episode:
		return "episode"
	case Live:
		return "live"
	default:
		return "unknown"
	}
}

// Variant is a single playable rendition of a programme.
type Variant struct {
	Label     string // e.g. "720p", "1500k", "live"
	URL       string // playlist or manifest-derived stream URL
	Format    Format // HLS or HDS
	Bandwidth uint32 // bits per second, 0 if the manifest omits it
}

// Programme describes what a portal URL resolved to.
type Programme struct {
	PID      string // episode PID or live channel name
	Title    string // best-effort display title scraped from the page
	Kind     Kind
	Captions []string // caption document URLs (TTML), may be empty
}

// HistoryEntry represents a single entry in the watch history.
type HistoryEntry struct {
	PID       string // episode PID or channel name
	URL       string // the portal URL that was resolved
	Title     string
	Kind      Kind
	Quality   string  // label of the variant that was played
	Position  float64 // last playback position in seconds
	WatchedAt time.Time
}
