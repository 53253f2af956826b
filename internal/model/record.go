package model

// Record is one validated candidate video from the feed.
// Records are rebuilt wholesale on every feed reload and carry no
// identity across reloads.
type Record struct {
	// URL is the original video link as it appeared in the feed.
	URL string
	// SubmittedBy is the uploader display name, "Anonymous" when the
	// feed row had none.
	SubmittedBy string
	// Title is an optional human-readable name for the video.
	Title string
	// StartHour and EndHour bound the local hours during which the
	// record may be picked. Both are -1 when the feed carries no
	// time-window columns.
	StartHour int
	EndHour   int
}

// AnonymousName is the sentinel uploader name for rows without one.
const AnonymousName = "Anonymous"

// HasHourWindow reports whether the record is restricted to a daily
// hour window.
func (r *Record) HasHourWindow() bool {
	return r.StartHour >= 0 && r.EndHour >= 0
}

// ActiveAt reports whether the record may play at the given local hour.
// Windows may wrap past midnight (e.g. 22 to 6).
func (r *Record) ActiveAt(hour int) bool {
	if !r.HasHourWindow() {
		return true
	}
	if r.StartHour <= r.EndHour {
		return hour >= r.StartHour && hour < r.EndHour
	}
	return hour >= r.StartHour || hour < r.EndHour
}
