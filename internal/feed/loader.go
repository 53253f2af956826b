package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/retro-tv-go/internal/config"
	"github.com/user/retro-tv-go/internal/model"
)

// ErrFetch marks any failure to retrieve the feed body. Callers keep
// their previous candidate pool when they see it.
var ErrFetch = errors.New("feed: fetch failed")

// cacheBustParam is appended with a unique value on every request so
// repeated loads observe the latest published sheet data instead of an
// intermediary cache.
const cacheBustParam = "cachebust"

// Loader fetches the external feed and converts its rows into
// validated candidate records.
type Loader struct {
	client *http.Client
	cfg    *config.FeedConfig
	now    func() time.Time
}

// NewLoader creates a feed loader for the configured source.
func NewLoader(cfg *config.FeedConfig) *Loader {
	return &Loader{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		now:    time.Now,
	}
}

// Load fetches and parses the feed, returning only rows that pass the
// validity predicate. Invalid rows are dropped silently; a zero-length
// result is a valid "no signal" outcome, not an error.
func (l *Loader) Load(ctx context.Context) ([]model.Record, error) {
	body, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := ParseRows(body, l.cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	records := make([]model.Record, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		rec, ok := RecordFromRow(row, l.cfg)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}

	log.Info().
		Int("rows", len(rows)).
		Int("valid", len(records)).
		Int("dropped", dropped).
		Msg("Feed loaded")

	return records, nil
}

// fetch performs a single cache-defeating GET of the feed source.
func (l *Loader) fetch(ctx context.Context) (string, error) {
	target, err := l.bustedURL()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "text/csv,application/json,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Int("status", resp.StatusCode).
		Str("url", target).
		Msg("Feed response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: HTTP status %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}

	return string(body), nil
}

// bustedURL appends the uniquely varying cache-bust query parameter.
func (l *Loader) bustedURL() (string, error) {
	u, err := url.Parse(l.cfg.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(cacheBustParam, strconv.FormatInt(l.now().UnixNano(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
