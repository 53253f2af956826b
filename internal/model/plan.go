package model

// PlaybackPlan is the computed playback decision for one record.
// Plans are derived fresh per play request and never persisted.
type PlaybackPlan struct {
	// EmbedURL is the player-ready URL with autoplay and start offset
	// already applied.
	EmbedURL string `json:"embedUrl"`
	// StartOffsetSeconds is where playback begins inside the clip.
	StartOffsetSeconds int `json:"startOffsetSeconds"`
	// PlayDurationSeconds is how long the clip stays on screen before
	// the scheduler advances to the next one.
	PlayDurationSeconds int `json:"playDurationSeconds"`
	// SourceURL is the original feed URL the plan was built from.
	SourceURL string `json:"sourceUrl"`
	// Platform is the classified hosting platform name.
	Platform string `json:"platform"`
	// SubmittedBy is the uploader display name shown on screen.
	SubmittedBy string `json:"submittedBy"`
	// Title is the optional display title from the feed.
	Title string `json:"title,omitempty"`
}
