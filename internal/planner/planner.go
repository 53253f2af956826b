package planner

import (
	"math/rand"
	"strings"
	"time"

	"github.com/user/retro-tv-go/internal/config"
	"github.com/user/retro-tv-go/internal/model"
	"github.com/user/retro-tv-go/internal/platform"
)

// Planner turns a validated record into a playback plan: embed URL,
// start offset and on-screen duration. True media duration is unknown
// without a privileged player API, so the duration estimate is a
// coarse per-platform heuristic and the random offset exists to keep
// repeated picks of the same clip from looking identical.
type Planner struct {
	cfg *config.PlayerConfig
	rng *rand.Rand
}

// New creates a planner with a time-seeded random source.
func New(cfg *config.PlayerConfig) *Planner {
	return NewSeeded(cfg, time.Now().UnixNano())
}

// NewSeeded creates a planner with a fixed seed, for deterministic
// tests.
func NewSeeded(cfg *config.PlayerConfig, seed int64) *Planner {
	return &Planner{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Plan computes the playback decision for one record. It fails only
// when the record's platform has no embeddable form.
func (p *Planner) Plan(rec model.Record) (*model.PlaybackPlan, error) {
	estimated := p.EstimateDurationSeconds(rec)
	offset, window := p.window(estimated)

	embedURL, err := platform.BuildEmbedURL(rec.URL, offset)
	if err != nil {
		return nil, err
	}

	return &model.PlaybackPlan{
		EmbedURL:            embedURL,
		StartOffsetSeconds:  offset,
		PlayDurationSeconds: window,
		SourceURL:           rec.URL,
		Platform:            string(platform.Classify(rec.URL)),
		SubmittedBy:         rec.SubmittedBy,
		Title:               rec.Title,
	}, nil
}

// EstimateDurationSeconds returns the coarse duration guess for a
// record's platform. Short-form content (TikTok, YouTube shorts) gets
// the short estimate, direct files the direct one, everything else the
// default.
func (p *Planner) EstimateDurationSeconds(rec model.Record) int {
	switch platform.Classify(rec.URL) {
	case platform.KindTikTok:
		return p.cfg.EstShortSeconds
	case platform.KindYouTube:
		if strings.Contains(rec.URL, "/shorts/") {
			return p.cfg.EstShortSeconds
		}
		return p.cfg.EstDefaultSeconds
	case platform.KindDirect:
		return p.cfg.EstDirectSeconds
	default:
		return p.cfg.EstDefaultSeconds
	}
}

// window picks the start offset and on-screen duration for an
// estimated clip length. Short clips play whole from the start; longer
// ones get a uniformly random offset that skips the lead-in and leaves
// the trailing margin before the end, with on-screen time capped.
func (p *Planner) window(estimated int) (offset, window int) {
	if estimated <= p.cfg.ShortClipSeconds {
		return 0, estimated
	}

	maxOffset := estimated - p.cfg.TrailMarginSeconds - p.cfg.WindowCapSeconds
	if maxOffset < p.cfg.LeadInSeconds {
		// Too short to fit lead-in, margin and window; play it whole.
		return 0, estimated
	}

	offset = p.cfg.LeadInSeconds + p.rng.Intn(maxOffset-p.cfg.LeadInSeconds+1)
	return offset, p.cfg.WindowCapSeconds
}
