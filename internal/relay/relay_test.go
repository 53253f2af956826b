package relay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/user/retro-tv-go/internal/config"
	"github.com/user/retro-tv-go/internal/model"
)

func relayCfg(endpoint string) *config.RelayConfig {
	return &config.RelayConfig{
		Endpoint:   endpoint,
		NameField:  "entry.111111",
		TitleField: "entry.222222",
		URLField:   "entry.333333",
		HourField:  "entry.444444",
		Timeout:    5 * time.Second,
		RateLimit:  100,
	}
}

func TestSubmit_InvalidURLMakesNoNetworkCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	r := New(relayCfg(srv.URL))
	err := r.Submit(context.Background(), Submission{URL: "not-a-url", DisplayName: "Alice"})
	if !errors.Is(err, ErrInvalidURL) {
		t.Errorf("Submit() error = %v, want ErrInvalidURL", err)
	}
	if calls != 0 {
		t.Errorf("invalid submission dispatched %d requests, want 0", calls)
	}
}

func TestSubmit_DispatchesExactlyOneRequest(t *testing.T) {
	var got map[string]string
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		r.ParseForm()
		got = map[string]string{}
		for k := range r.PostForm {
			got[k] = r.PostForm.Get(k)
		}
	}))
	defer srv.Close()

	r := New(relayCfg(srv.URL))
	err := r.Submit(context.Background(), Submission{
		URL:         "https://youtu.be/dQw4w9WgXcQ",
		DisplayName: "Bob",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	r.Wait()

	if calls != 1 {
		t.Fatalf("dispatched %d requests, want exactly 1", calls)
	}
	if got["entry.333333"] != "https://youtu.be/dQw4w9WgXcQ" {
		t.Errorf("url field = %q", got["entry.333333"])
	}
	if got["entry.111111"] != "Bob" {
		t.Errorf("name field = %q", got["entry.111111"])
	}
}

func TestSubmit_OptionalFields(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		got = r.PostForm
	}))
	defer srv.Close()

	r := New(relayCfg(srv.URL))
	err := r.Submit(context.Background(), Submission{
		URL:         "https://vimeo.com/76979871",
		DisplayName: "Carol",
		Title:       "Cyber Sunset",
		Hour:        "22",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	r.Wait()

	if got.Get("entry.222222") != "Cyber Sunset" {
		t.Errorf("title field = %q", got.Get("entry.222222"))
	}
	if got.Get("entry.444444") != "22" {
		t.Errorf("hour field = %q", got.Get("entry.444444"))
	}
}

func TestSubmit_EmptyNameDefaultsToAnonymous(t *testing.T) {
	var name string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		name = r.PostForm.Get("entry.111111")
	}))
	defer srv.Close()

	r := New(relayCfg(srv.URL))
	if err := r.Submit(context.Background(), Submission{URL: "https://youtu.be/dQw4w9WgXcQ"}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	r.Wait()
	if name != model.AnonymousName {
		t.Errorf("name field = %q, want %q", name, model.AnonymousName)
	}
}

func TestSubmit_ResponseStatusIgnored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := New(relayCfg(srv.URL))
	if err := r.Submit(context.Background(), Submission{URL: "https://youtu.be/dQw4w9WgXcQ"}); err != nil {
		t.Errorf("Submit() error = %v, response status must be ignored", err)
	}
	r.Wait()
}

func TestSubmit_TransportFailureStillSubmitted(t *testing.T) {
	cfg := relayCfg("http://127.0.0.1:1/formResponse")
	cfg.Timeout = time.Second

	r := New(cfg)
	if err := r.Submit(context.Background(), Submission{URL: "https://youtu.be/dQw4w9WgXcQ"}); err != nil {
		t.Errorf("Submit() error = %v, dispatch failures are best-effort", err)
	}
	r.Wait()
}

func TestSubmit_ReturnsBeforePacingInterval(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	cfg := relayCfg(srv.URL)
	cfg.RateLimit = 0.01
	cfg.Timeout = 200 * time.Millisecond

	r := New(cfg)
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := r.Submit(context.Background(), Submission{URL: "https://youtu.be/dQw4w9WgXcQ"}); err != nil {
			t.Fatalf("Submit() #%d error = %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Submit() blocked for %v, must return without waiting out the pacing interval", elapsed)
	}
	r.Wait()
}

func TestSubmit_CancelledContextStillDispatches(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(relayCfg(srv.URL))
	if err := r.Submit(ctx, Submission{URL: "https://youtu.be/dQw4w9WgXcQ"}); err != nil {
		t.Fatalf("Submit() error = %v, caller disconnect must not surface", err)
	}
	r.Wait()

	if calls != 1 {
		t.Errorf("dispatched %d requests, want 1", calls)
	}
}

func TestSubmit_NoEndpointConfigured(t *testing.T) {
	cfg := relayCfg("")
	r := New(cfg)
	err := r.Submit(context.Background(), Submission{URL: "https://youtu.be/dQw4w9WgXcQ"})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Submit() error = %v, want ErrDisabled", err)
	}
}
