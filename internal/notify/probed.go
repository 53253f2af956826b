package notify

import (
	"context"
	"sync"
	"time"

	"github.com/user/retro-tv-go/internal/probe"
)

// Prober fetches page metadata for a submitted link.
type Prober interface {
	Probe(ctx context.Context, url string) (probe.Meta, error)
}

// probeTimeout bounds the metadata fetch for one notice.
const probeTimeout = 10 * time.Second

// ProbedNotifier fills in a missing title by probing the submitted
// page before sending the notice. The whole lookup runs in the
// background so the submit response is never delayed by it.
type ProbedNotifier struct {
	notifier *Notifier
	prober   Prober
	wg       sync.WaitGroup
}

// NewProbed wraps notifier with metadata enrichment. prober may be
// nil, in which case notices go out as-is.
func NewProbed(notifier *Notifier, prober Prober) *ProbedNotifier {
	return &ProbedNotifier{notifier: notifier, prober: prober}
}

// SubmissionReceived probes for a title when none was given, then
// forwards the notice.
func (p *ProbedNotifier) SubmissionReceived(url, name, title string) {
	if p == nil || p.notifier == nil {
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if title == "" && p.prober != nil {
			ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
			defer cancel()

			if meta, err := p.prober.Probe(ctx, url); err == nil && meta.Title != "" {
				title = meta.Title
			}
		}

		p.notifier.SubmissionReceived(url, name, title)
	}()
}

// Wait blocks until all in-flight notices have been sent.
func (p *ProbedNotifier) Wait() {
	p.wg.Wait()
}
