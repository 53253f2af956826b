package relay

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/user/retro-tv-go/internal/config"
	"github.com/user/retro-tv-go/internal/model"
	"github.com/user/retro-tv-go/internal/platform"
)

// ErrInvalidURL is returned when a submitted link fails the shared
// validity predicate. No network call is made for an invalid URL.
var ErrInvalidURL = errors.New("relay: submitted URL is not a recognized video link")

// ErrDisabled is returned when no relay endpoint is configured.
var ErrDisabled = errors.New("relay: no endpoint configured")

// Submission is one viewer-entered link with its optional metadata.
type Submission struct {
	URL         string
	DisplayName string
	Title       string
	Hour        string
}

// Relay forwards validated viewer submissions to the external form
// endpoint. Delivery is fire-and-forget: at most once, no retry, no
// confirmation. A duplicate click produces a duplicate external
// submission.
type Relay struct {
	client  *http.Client
	cfg     *config.RelayConfig
	limiter *rate.Limiter
	wg      sync.WaitGroup
}

// New creates a submission relay.
func New(cfg *config.RelayConfig) *Relay {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Relay{
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Submit validates one submission and hands it to the background
// dispatcher. Invalid URLs get ErrInvalidURL with zero network calls.
// A valid submission returns immediately as submitted; the actual POST
// runs behind the rate limiter and its outcome is never surfaced,
// since the design makes no delivery promise the viewer could act on.
func (r *Relay) Submit(ctx context.Context, sub Submission) error {
	if !platform.IsValidVideoURL(sub.URL) {
		return ErrInvalidURL
	}
	if r.cfg.Endpoint == "" {
		return ErrDisabled
	}

	name := strings.TrimSpace(sub.DisplayName)
	if name == "" {
		name = model.AnonymousName
	}

	form := url.Values{}
	form.Set(r.cfg.URLField, sub.URL)
	form.Set(r.cfg.NameField, name)
	if r.cfg.TitleField != "" && sub.Title != "" {
		form.Set(r.cfg.TitleField, sub.Title)
	}
	if r.cfg.HourField != "" && sub.Hour != "" {
		form.Set(r.cfg.HourField, sub.Hour)
	}

	r.wg.Add(1)
	go r.dispatch(form, sub.URL, name)
	return nil
}

// dispatch paces and sends one form POST. Best effort: every failure
// is logged and dropped.
func (r *Relay) dispatch(form url.Values, sourceURL, name string) {
	defer r.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
	defer cancel()

	if err := r.limiter.Wait(ctx); err != nil {
		log.Warn().Err(err).Str("url", sourceURL).Msg("Relay pacing wait expired")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		log.Warn().Err(err).Str("url", sourceURL).Msg("Relay request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", sourceURL).Msg("Relay dispatch failed")
		return
	}
	resp.Body.Close()

	log.Info().
		Str("url", sourceURL).
		Str("name", name).
		Int("status", resp.StatusCode).
		Msg("Submission relayed")
}

// Wait blocks until all queued dispatches have finished.
func (r *Relay) Wait() {
	r.wg.Wait()
}
