package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/user/retro-tv-go/internal/config"
	"github.com/user/retro-tv-go/internal/model"
	"github.com/user/retro-tv-go/internal/platform"
)

var (
	// ErrNoSignal means the candidate pool has nothing playable right
	// now. It is a handled state, not a failure: callers surface a
	// "no signal" indicator.
	ErrNoSignal = errors.New("scheduler: no playable candidates")
	// ErrCooldown means the request arrived inside the debounce window
	// of the previous one and was ignored. Suppressed requests are not
	// queued.
	ErrCooldown = errors.New("scheduler: request within cooldown window")
)

// Loader supplies the candidate pool.
type Loader interface {
	Load(ctx context.Context) ([]model.Record, error)
}

// Planner computes a playback plan for one record.
type Planner interface {
	Plan(rec model.Record) (*model.PlaybackPlan, error)
}

// PlayRecorder persists issued plans. Optional; a nil recorder
// disables history.
type PlayRecorder interface {
	RecordPlay(ctx context.Context, event *model.PlayEvent) error
}

// Scheduler owns the single "now playing" slot. It picks random
// records on demand, arms an advance timer for each plan's on-screen
// window, and auto-advances when the timer fires. All state mutation
// happens under one mutex; the debounce limiter is the only guard
// against request mashing.
type Scheduler struct {
	loader   Loader
	planner  Planner
	recorder PlayRecorder
	feedCfg  *config.FeedConfig

	mu           sync.Mutex
	candidates   []model.Record
	current      *model.PlaybackPlan
	advanceTimer *time.Timer
	// generation identifies the currently armed timer. A fired callback
	// whose generation is stale must not touch state: time.Timer.Stop
	// cannot cancel a callback that is already queued.
	generation uint64

	cooldown *rate.Limiter
	rng      *rand.Rand
	nowFunc  func() time.Time

	// onInterstitial fires between the old plan being cleared and the
	// next one being picked, so the caller can flash static.
	onInterstitial func()
	// onPoolSize fires after every pool replacement with the new size.
	onPoolSize func(int)

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a scheduler. recorder may be nil.
func New(loader Loader, planner Planner, recorder PlayRecorder, feedCfg *config.FeedConfig, playerCfg *config.PlayerConfig) *Scheduler {
	limit := rate.Inf
	if playerCfg.Cooldown > 0 {
		limit = rate.Every(playerCfg.Cooldown)
	}
	return &Scheduler{
		loader:   loader,
		planner:  planner,
		recorder: recorder,
		feedCfg:  feedCfg,
		cooldown: rate.NewLimiter(limit, 1),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		nowFunc:  time.Now,
		stopCh:   make(chan struct{}),
	}
}

// SetInterstitial registers the hook fired on each auto-advance before
// the next plan is picked.
func (s *Scheduler) SetInterstitial(fn func()) {
	s.onInterstitial = fn
}

// SetPoolObserver registers the hook fired with the pool size after
// every reload, whether triggered by the loop or on demand.
func (s *Scheduler) SetPoolObserver(fn func(int)) {
	s.onPoolSize = fn
}

// Start runs the initial feed load and the periodic reload loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// run is the reload loop. A failed reload keeps the previous pool;
// stale-but-valid data beats an empty screen.
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	if _, err := s.ReloadFeed(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial feed load failed, starting with empty pool")
	}

	ticker := time.NewTicker(s.feedCfg.ReloadInterval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.feedCfg.ReloadInterval).Msg("Feed reload loop started")

	for {
		select {
		case <-ticker.C:
			if _, err := s.ReloadFeed(ctx); err != nil {
				log.Warn().Err(err).Msg("Periodic feed reload failed, keeping previous pool")
			}
		case <-s.stopCh:
			log.Info().Msg("Feed reload loop stopped")
			return
		case <-ctx.Done():
			log.Info().Msg("Feed reload loop context cancelled")
			return
		}
	}
}

// Stop cancels the pending advance timer and the reload loop. Safe to
// call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()

	s.mu.Lock()
	s.cancelTimerLocked()
	s.generation++
	s.current = nil
	s.mu.Unlock()

	log.Info().Msg("Scheduler stopped")
}

// ReloadFeed re-runs the loader and replaces the candidate pool
// wholesale. It never interrupts the current playback; a reload only
// affects the next pick. On error the previous pool stays in place.
func (s *Scheduler) ReloadFeed(ctx context.Context) (int, error) {
	records, err := s.loader.Load(ctx)
	if err != nil {
		return s.PoolSize(), err
	}

	s.mu.Lock()
	s.candidates = records
	size := len(s.candidates)
	s.mu.Unlock()

	if s.onPoolSize != nil {
		s.onPoolSize(size)
	}

	log.Info().Int("pool", size).Msg("Candidate pool replaced")
	return size, nil
}

// RequestPlay picks a uniformly random active candidate, plans it,
// and arms the advance timer. Manual requests inside the cooldown
// window get ErrCooldown; the debounce never applies to auto-advance,
// it only guards against button mashing. An empty pool gets
// ErrNoSignal unless a fallback URL is configured. trigger is recorded
// with the play event.
func (s *Scheduler) RequestPlay(ctx context.Context, trigger string) (*model.PlaybackPlan, error) {
	if trigger != model.TriggerAdvance && !s.cooldown.Allow() {
		return nil, ErrCooldown
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.pickLocked(trigger)
	if err != nil {
		return nil, err
	}

	s.cancelTimerLocked()
	s.generation++
	gen := s.generation
	s.current = plan
	s.advanceTimer = time.AfterFunc(
		time.Duration(plan.PlayDurationSeconds)*time.Second,
		func() { s.advance(gen) },
	)

	log.Info().
		Str("platform", plan.Platform).
		Str("url", plan.SourceURL).
		Int("offset", plan.StartOffsetSeconds).
		Int("window", plan.PlayDurationSeconds).
		Str("trigger", trigger).
		Msg("Playback plan issued")

	s.recordPlay(ctx, plan, trigger)
	return plan, nil
}

// pickLocked selects and plans one candidate. Records whose platform
// cannot embed are skipped on auto-advance and reported on manual
// requests. Caller holds the mutex.
func (s *Scheduler) pickLocked(trigger string) (*model.PlaybackPlan, error) {
	hour := s.nowFunc().Hour()

	active := make([]model.Record, 0, len(s.candidates))
	for _, rec := range s.candidates {
		if rec.ActiveAt(hour) {
			active = append(active, rec)
		}
	}

	for len(active) > 0 {
		idx := s.rng.Intn(len(active))
		plan, err := s.planner.Plan(active[idx])
		if err == nil {
			return plan, nil
		}
		if errors.Is(err, platform.ErrUnsupported) && trigger == model.TriggerAdvance {
			// Skip this record and try the rest of the pool.
			active = append(active[:idx], active[idx+1:]...)
			continue
		}
		return nil, err
	}

	if s.feedCfg.FallbackURL != "" {
		return s.planner.Plan(model.Record{
			URL:         s.feedCfg.FallbackURL,
			SubmittedBy: model.AnonymousName,
			StartHour:   -1,
			EndHour:     -1,
		})
	}

	return nil, ErrNoSignal
}

// advance fires when the on-screen window elapses: clear the current
// plan, signal the interstitial, then behave like RequestPlay. A
// callback whose generation is stale lost a race against a newer
// request (or Stop) and must leave that request's plan and timer
// alone.
func (s *Scheduler) advance(gen uint64) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.advanceTimer = nil
	s.mu.Unlock()

	if s.onInterstitial != nil {
		s.onInterstitial()
	}

	if _, err := s.RequestPlay(context.Background(), model.TriggerAdvance); err != nil {
		if errors.Is(err, ErrNoSignal) {
			log.Info().Msg("Auto-advance found no candidates, going idle")
			return
		}
		log.Warn().Err(err).Msg("Auto-advance failed")
	}
}

// cancelTimerLocked stops any pending advance timer so at most one is
// ever armed. Caller holds the mutex.
func (s *Scheduler) cancelTimerLocked() {
	if s.advanceTimer != nil {
		s.advanceTimer.Stop()
		s.advanceTimer = nil
	}
}

// Current returns the active plan, or nil when idle.
func (s *Scheduler) Current() *model.PlaybackPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// PoolSize returns the number of validated candidates.
func (s *Scheduler) PoolSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.candidates)
}

// recordPlay persists the issued plan when history is enabled.
func (s *Scheduler) recordPlay(ctx context.Context, plan *model.PlaybackPlan, trigger string) {
	if s.recorder == nil {
		return
	}
	event := &model.PlayEvent{
		URL:                 plan.SourceURL,
		Platform:            plan.Platform,
		StartOffsetSeconds:  plan.StartOffsetSeconds,
		PlayDurationSeconds: plan.PlayDurationSeconds,
		Trigger:             trigger,
		SubmittedBy:         plan.SubmittedBy,
	}
	if err := s.recorder.RecordPlay(ctx, event); err != nil {
		log.Error().Err(err).Msg("Failed to record play event")
	}
}
