package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// Meta is the page metadata extracted for a submitted link. Fields are
// empty when the page does not expose them.
type Meta struct {
	Title    string
	ImageURL string
}

// Prober fetches a video page and pulls its OpenGraph metadata, used
// to decorate moderation notices. Failures are expected and degrade to
// the bare URL.
type Prober struct {
	client *http.Client
}

// New creates a prober with the given request timeout.
func New(timeout time.Duration) *Prober {
	return &Prober{
		client: &http.Client{Timeout: timeout},
	}
}

// Probe fetches the page and extracts title and preview image.
func (p *Prober) Probe(ctx context.Context, pageURL string) (Meta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Meta{}, fmt.Errorf("probe request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return Meta{}, fmt.Errorf("probe fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Meta{}, fmt.Errorf("probe fetch: HTTP status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Meta{}, fmt.Errorf("probe parse: %w", err)
	}

	meta := Meta{
		Title:    extractTitle(doc),
		ImageURL: extractImage(doc),
	}

	log.Debug().
		Str("url", pageURL).
		Str("title", meta.Title).
		Msg("Probed page metadata")

	return meta, nil
}

// extractTitle prefers og:title, then twitter:title, then the page
// title element.
func extractTitle(doc *goquery.Document) string {
	selectors := []string{
		"meta[property='og:title']",
		"meta[name='twitter:title']",
	}
	for _, selector := range selectors {
		el := doc.Find(selector).First()
		if content, exists := el.Attr("content"); exists && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func extractImage(doc *goquery.Document) string {
	el := doc.Find("meta[property='og:image']").First()
	if content, exists := el.Attr("content"); exists {
		return strings.TrimSpace(content)
	}
	return ""
}
