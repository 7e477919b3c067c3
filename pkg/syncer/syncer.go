// Package syncer pulls recent Pinboard bookmarks into the vault: grouped
// into a section of each day's daily note, and optionally one note per
// bookmark. It also keeps the periodic sync timer armed.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bttk/pinsync/pkg/config"
	"github.com/bttk/pinsync/pkg/merge"
	"github.com/bttk/pinsync/pkg/pinboard"
	"github.com/bttk/pinsync/pkg/render"
	"github.com/bttk/pinsync/pkg/vault"
)

// MinDelay is the shortest delay before a scheduled sync.
const MinDelay = 20 * time.Millisecond

// FailureMessage is the notification shown when a sync fails.
const FailureMessage = "[Pinboard Sync] failed"

var (
	// ErrSync wraps every error that ends a sync run.
	ErrSync = errors.New("sync failed")
	// ErrDisclaimer is returned when syncing before the disclaimer has been
	// accepted.
	ErrDisclaimer = errors.New("disclaimer not accepted")
)

// Source provides recent bookmarks. *pinboard.Client implements it.
type Source interface {
	RecentPosts(ctx context.Context, tags []string, count int) (*pinboard.PostCollection, error)
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// SaveFunc persists the settings after they change.
type SaveFunc func(cfg config.Config) error

// Options configure a Syncer. Source and Store are required.
type Options struct {
	Config    config.Config
	Source    Source
	Store     vault.Store
	Daily     vault.DailyNotes
	Notifier  Notifier
	Scheduler Scheduler
	Save      SaveFunc
	// Now defaults to time.Now.
	Now func() time.Time
}

// Syncer runs syncs one at a time.
type Syncer struct {
	mu     sync.Mutex
	cfg    config.Config
	source Source
	store  vault.Store
	daily  vault.DailyNotes
	notify Notifier
	sched  Scheduler
	save   SaveFunc
	now    func() time.Time
}

// New returns a Syncer for opts.
func New(opts Options) *Syncer {
	s := &Syncer{
		cfg:    opts.Config,
		source: opts.Source,
		store:  opts.Store,
		daily:  opts.Daily,
		notify: opts.Notifier,
		sched:  opts.Scheduler,
		save:   opts.Save,
		now:    opts.Now,
	}
	if s.notify == nil {
		s.notify = NotifierFunc(func(string) {})
	}
	if s.sched == nil {
		s.sched = &TimerScheduler{}
	}
	if s.save == nil {
		s.save = func(config.Config) error { return nil }
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Config returns the current settings.
func (s *Syncer) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Sync fetches recent bookmarks and writes them to the vault. On success
// the latest sync time is recorded and saved. Failures are reported through
// the Notifier and returned wrapped in ErrSync.
func (s *Syncer) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.AcceptedDisclaimer {
		return ErrDisclaimer
	}
	cfg := s.cfg
	logger := log.With().Str("run", uuid.NewString()).Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Int("count", cfg.RecentCount).Msg("Fetching recent bookmarks")
	posts, err := s.source.RecentPosts(ctx, nil, cfg.RecentCount)
	if err != nil {
		return s.fail(logger, "fetch", err)
	}
	if err := s.distribute(ctx, cfg, posts.Posts); err != nil {
		return s.fail(logger, "merge", err)
	}

	next, _ := config.Apply(cfg, config.Diff{LatestSyncTime: config.Ptr(s.now().Unix())})
	if err := s.save(next); err != nil {
		return s.fail(logger, "save settings", err)
	}
	s.cfg = next
	logger.Info().Int("posts", len(posts.Posts)).Msg("Sync complete")
	return nil
}

func (s *Syncer) fail(logger zerolog.Logger, stage string, err error) error {
	s.notify.Notify(FailureMessage)
	logger.Error().Err(err).Str("stage", stage).Msg("Sync failed")
	return fmt.Errorf("%w: %s: %w", ErrSync, stage, err)
}

func (s *Syncer) distribute(ctx context.Context, cfg config.Config, posts []pinboard.Post) error {
	r := render.New(render.Options{
		SectionHeading:   cfg.SectionHeading,
		TagPrefix:        cfg.TagPrefix,
		NewlineSeparator: cfg.NewlineSeparator,
		PinTag:           cfg.PinNotes.Tag,
	})

	g, gctx := errgroup.WithContext(ctx)
	// Each merge starts only while the run is healthy; once started it
	// finishes against the run's own ctx.
	start := func(fn func() error) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn()
		})
	}

	if cfg.DailyNotesEnabled && s.daily != nil {
		for _, batch := range GroupByDay(posts) {
			start(func() error {
				return s.syncDay(ctx, cfg, r, batch)
			})
		}
	}
	if cfg.PinNotes.Enabled {
		for _, group := range groupByPath(posts, cfg.PinNotes) {
			start(func() error {
				for _, p := range group {
					if err := s.syncPin(ctx, cfg, r, p); err != nil {
						return err
					}
				}
				return nil
			})
		}
	}
	return g.Wait()
}

func (s *Syncer) syncDay(ctx context.Context, cfg config.Config, r *render.Renderer, batch DayBatch) error {
	path, err := vault.ResolveDaily(ctx, s.daily, batch.Day)
	if err != nil {
		return fmt.Errorf("daily note for %s: %w", batch.Day.Format(time.DateOnly), err)
	}
	log.Ctx(ctx).Debug().Str("path", path).Int("posts", len(batch.Posts)).Msg("Updating daily note")
	return merge.UpdateSection(ctx, s.store, path, cfg.SectionHeading, r.Render(batch.Posts))
}

func (s *Syncer) syncPin(ctx context.Context, cfg config.Config, r *render.Renderer, p pinboard.Post) error {
	path, err := s.pinPath(ctx, cfg.PinNotes, p)
	if err != nil {
		return err
	}
	if err := s.store.Touch(ctx, path); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	props, err := r.RenderPinProperties(p)
	if err != nil {
		return err
	}
	return merge.UpdateProperties(ctx, s.store, path, props)
}

// pinPath prefers an existing note for the bookmark's URL so moved or
// renamed notes keep being updated.
func (s *Syncer) pinPath(ctx context.Context, pn config.PinNotes, p pinboard.Post) (string, error) {
	if finder, ok := s.store.(vault.PropertyFinder); ok {
		path, found, err := finder.FindByProperty(ctx, "href", p.Href)
		if err != nil {
			return "", fmt.Errorf("find note for %s: %w", p.Href, err)
		}
		if found {
			return path, nil
		}
	}
	return render.PinPath(p, pn.Path, pn.Format), nil
}

// Run syncs now and keeps syncing on schedule until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	s.runScheduled(ctx)
	<-ctx.Done()
	s.sched.Cancel()
}

func (s *Syncer) runScheduled(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.Sync(ctx); errors.Is(err, ErrDisclaimer) {
		log.Warn().Msg("Pinboard sync is disabled until the disclaimer is accepted")
	}
	s.scheduleNext(ctx)
}

// ScheduleNext arms the timer for the next sync, or cancels it when sync
// is disabled.
func (s *Syncer) ScheduleNext(ctx context.Context) {
	s.scheduleNext(ctx)
}

func (s *Syncer) scheduleNext(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleLocked(ctx)
}

func (s *Syncer) scheduleLocked(ctx context.Context) {
	if !s.cfg.SyncEnabled || s.cfg.SyncInterval <= 0 {
		s.sched.Cancel()
		return
	}
	delay := NextDelay(s.cfg.LatestSync(), s.cfg.Interval(), s.now())
	log.Debug().Dur("delay", delay).Msg("Next sync scheduled")
	s.sched.Arm(delay, func() { s.runScheduled(ctx) })
}

// UpdateSettings applies d, saves the result and carries out the
// scheduling it requires.
func (s *Syncer) UpdateSettings(ctx context.Context, d config.Diff) (config.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, effects := config.Apply(s.cfg, d)
	if err := s.save(next); err != nil {
		return s.cfg, err
	}
	s.cfg = next
	for _, e := range effects {
		log.Debug().Stringer("effect", e).Msg("Settings changed")
		switch e {
		case config.EffectSchedule:
			s.scheduleLocked(ctx)
		case config.EffectCancel:
			s.sched.Cancel()
		}
	}
	return s.cfg, nil
}

// NextDelay returns how long to wait before the next sync:
// latest+interval-now, but never less than MinDelay.
func NextDelay(latest time.Time, interval time.Duration, now time.Time) time.Duration {
	if latest.IsZero() {
		return MinDelay
	}
	d := latest.Add(interval).Sub(now)
	if d < MinDelay {
		return MinDelay
	}
	return d
}

// DayBatch is the bookmarks of one local calendar day.
type DayBatch struct {
	Day   time.Time
	Posts []pinboard.Post
}

// GroupByDay groups posts by the local day of their timestamp. Posts
// without a timestamp are dropped. Days are returned oldest first; posts
// keep their order within a day.
func GroupByDay(posts []pinboard.Post) []DayBatch {
	index := map[time.Time]int{}
	var batches []DayBatch
	for _, p := range posts {
		if p.Time.IsZero() {
			continue
		}
		day := StartOfDay(p.Time)
		i, ok := index[day]
		if !ok {
			i = len(batches)
			index[day] = i
			batches = append(batches, DayBatch{Day: day})
		}
		batches[i].Posts = append(batches[i].Posts, p)
	}
	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].Day.Before(batches[j].Day)
	})
	return batches
}

// StartOfDay returns local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// groupByPath groups posts by their templated note path so posts sharing a
// note are merged one after another.
func groupByPath(posts []pinboard.Post, pn config.PinNotes) [][]pinboard.Post {
	index := map[string]int{}
	var groups [][]pinboard.Post
	for _, p := range posts {
		path := render.PinPath(p, pn.Path, pn.Format)
		i, ok := index[path]
		if !ok {
			i = len(groups)
			index[path] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], p)
	}
	return groups
}
