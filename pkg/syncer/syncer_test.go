package syncer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bttk/pinsync/pkg/config"
	"github.com/bttk/pinsync/pkg/pinboard"
	"github.com/bttk/pinsync/pkg/vault"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) RecentPosts(ctx context.Context, tags []string, count int) (*pinboard.PostCollection, error) {
	args := m.Called(ctx, tags, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pinboard.PostCollection), args.Error(1)
}

type fakeScheduler struct {
	mu        sync.Mutex
	delays    []time.Duration
	fn        func()
	cancelled int
}

func (f *fakeScheduler) Arm(delay time.Duration, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays = append(f.delays, delay)
	f.fn = fn
}

func (f *fakeScheduler) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled++
	f.fn = nil
}

type recorder struct {
	mu       sync.Mutex
	messages []string
	saved    []config.Config
}

func (r *recorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recorder) Save(cfg config.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, cfg)
	return nil
}

var now = time.Date(2023, 6, 16, 12, 0, 0, 0, time.Local)

type fixture struct {
	syncer *Syncer
	source *MockSource
	store  *vault.FS
	sched  *fakeScheduler
	rec    *recorder
}

func newFixture(t *testing.T, cfg config.Config) *fixture {
	t.Helper()
	f := &fixture{
		source: &MockSource{},
		store:  vault.NewFS(afero.NewMemMapFs()),
		sched:  &fakeScheduler{},
		rec:    &recorder{},
	}
	f.syncer = New(Options{
		Config:    cfg,
		Source:    f.source,
		Store:     f.store,
		Daily:     &vault.FSDailyNotes{Store: f.store, Folder: "Daily"},
		Notifier:  f.rec,
		Scheduler: f.sched,
		Save:      f.rec.Save,
		Now:       func() time.Time { return now },
	})
	return f
}

func acceptedConfig() config.Config {
	cfg := config.Defaults()
	cfg.AcceptedDisclaimer = true
	cfg.SyncEnabled = true
	return cfg
}

func post(desc, href string, at time.Time, tags ...string) pinboard.Post {
	p := pinboard.Post{Href: href, Description: desc, Time: at}
	for _, t := range tags {
		p.Tags = append(p.Tags, pinboard.Tag{Name: t})
	}
	return p
}

func (f *fixture) read(t *testing.T, path string) string {
	t.Helper()
	text, err := f.store.Read(context.Background(), path)
	require.NoError(t, err)
	return text
}

func TestSync_TwoPostsSameDay(t *testing.T) {
	f := newFixture(t, acceptedConfig())
	day := time.Date(2023, 6, 15, 0, 0, 0, 0, time.Local)
	goPost := post("Go", "https://go.dev", day.Add(18*time.Hour), "lang")
	goPost.Extended = "Docs"
	f.source.On("RecentPosts", mock.Anything, []string(nil), 20).Return(&pinboard.PostCollection{
		Posts: []pinboard.Post{
			goPost,
			post("Zed", "https://zed.dev", day.Add(9*time.Hour)),
		},
	}, nil)

	require.NoError(t, f.syncer.Sync(context.Background()))

	text := f.read(t, "Daily/2023-06-15.md")
	lines := strings.Split(strings.TrimLeft(text, "\n"), "\n")
	assert.Equal(t, []string{
		"## Pinboard",
		"- [Go](https://go.dev) Docs #pinboard/lang",
		"- [Zed](https://zed.dev)",
	}, lines)

	assert.Equal(t, now.Unix(), f.syncer.Config().LatestSyncTime)
	require.Len(t, f.rec.saved, 1)
	assert.Equal(t, now.Unix(), f.rec.saved[0].LatestSyncTime)
	assert.Empty(t, f.rec.messages)
	f.source.AssertExpectations(t)
}

func TestSync_IsIdempotent(t *testing.T) {
	f := newFixture(t, acceptedConfig())
	ctx := context.Background()
	require.NoError(t, f.store.Write(ctx, "Daily/2023-06-15.md", "# Thursday\nnotes\n## Log\nx"))
	f.source.On("RecentPosts", mock.Anything, mock.Anything, mock.Anything).Return(&pinboard.PostCollection{
		Posts: []pinboard.Post{post("Go", "https://go.dev", time.Date(2023, 6, 15, 10, 0, 0, 0, time.Local))},
	}, nil)

	require.NoError(t, f.syncer.Sync(ctx))
	first := f.read(t, "Daily/2023-06-15.md")
	require.NoError(t, f.syncer.Sync(ctx))
	assert.Equal(t, first, f.read(t, "Daily/2023-06-15.md"))
	assert.Equal(t, "# Thursday\nnotes\n## Log\nx\n\n## Pinboard\n- [Go](https://go.dev)", first)
}

func TestSync_SplitsByDay(t *testing.T) {
	f := newFixture(t, acceptedConfig())
	f.source.On("RecentPosts", mock.Anything, mock.Anything, mock.Anything).Return(&pinboard.PostCollection{
		Posts: []pinboard.Post{
			post("B", "https://b.example", time.Date(2023, 6, 15, 8, 0, 0, 0, time.Local)),
			post("Undated", "https://u.example", time.Time{}),
			post("A", "https://a.example", time.Date(2023, 6, 14, 23, 59, 0, 0, time.Local)),
		},
	}, nil)

	require.NoError(t, f.syncer.Sync(context.Background()))
	assert.Equal(t, "\n\n## Pinboard\n- [A](https://a.example)", f.read(t, "Daily/2023-06-14.md"))
	assert.Equal(t, "\n\n## Pinboard\n- [B](https://b.example)", f.read(t, "Daily/2023-06-15.md"))
}

func TestSync_PinNotes(t *testing.T) {
	cfg := acceptedConfig()
	cfg.DailyNotesEnabled = false
	cfg.PinNotes.Enabled = true
	cfg.PinNotes.Format = "YYYY-MM/[{description}]"
	f := newFixture(t, cfg)
	ctx := context.Background()
	require.NoError(t, f.store.Write(ctx, "Pinboard/2023-06/Hello World.md", "---\nhref: stale\n---\nmy thoughts"))

	at := time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)
	f.source.On("RecentPosts", mock.Anything, mock.Anything, mock.Anything).Return(&pinboard.PostCollection{
		Posts: []pinboard.Post{post("Hello, World!", "https://hello.example", at, "greeting")},
	}, nil)

	require.NoError(t, f.syncer.Sync(ctx))

	path := "Pinboard/" + at.Local().Format("2006-01") + "/Hello World.md"
	text := f.read(t, path)
	assert.True(t, strings.HasPrefix(text, "---\nhref: https://hello.example\ntags: pinboard, pinboard/greeting\n"), text)
	assert.True(t, strings.HasSuffix(text, "---\nmy thoughts"), text)
	_, err := f.store.Read(ctx, "Daily/2023-06-15.md")
	assert.ErrorIs(t, err, vault.ErrNotFound)
}

// finderStore reports every note as already existing at one path.
type finderStore struct {
	*vault.FS
	path string
}

func (s finderStore) FindByProperty(_ context.Context, key, value string) (string, bool, error) {
	if key == "href" && value == "https://hello.example" {
		return s.path, true, nil
	}
	return "", false, nil
}

func TestSync_PinNotesFoundByHref(t *testing.T) {
	cfg := acceptedConfig()
	cfg.DailyNotesEnabled = false
	cfg.PinNotes.Enabled = true
	store := vault.NewFS(afero.NewMemMapFs())
	source := &MockSource{}
	s := New(Options{
		Config: cfg,
		Source: source,
		Store:  finderStore{FS: store, path: "Elsewhere/renamed.md"},
	})
	source.On("RecentPosts", mock.Anything, mock.Anything, mock.Anything).Return(&pinboard.PostCollection{
		Posts: []pinboard.Post{post("Hello", "https://hello.example", now)},
	}, nil)

	require.NoError(t, s.Sync(context.Background()))
	text, err := store.Read(context.Background(), "Elsewhere/renamed.md")
	require.NoError(t, err)
	assert.Contains(t, text, "href: https://hello.example")
}

func TestSync_FetchFailure(t *testing.T) {
	cfg := acceptedConfig()
	cfg.LatestSyncTime = 100
	f := newFixture(t, cfg)
	f.source.On("RecentPosts", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &pinboard.TransportError{StatusCode: 500, Method: "GET", URL: "https://api.pinboard.in/v1/posts/recent"})

	err := f.syncer.Sync(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSync)
	var te *pinboard.TransportError
	assert.ErrorAs(t, err, &te)

	assert.Equal(t, []string{FailureMessage}, f.rec.messages)
	assert.Empty(t, f.rec.saved)
	assert.Equal(t, int64(100), f.syncer.Config().LatestSyncTime)
}

type brokenStore struct{ *vault.FS }

func (brokenStore) Write(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestSync_MergeFailure(t *testing.T) {
	cfg := acceptedConfig()
	store := vault.NewFS(afero.NewMemMapFs())
	require.NoError(t, store.Write(context.Background(), "Daily/2023-06-15.md", ""))
	source := &MockSource{}
	rec := &recorder{}
	s := New(Options{
		Config:   cfg,
		Source:   source,
		Store:    brokenStore{store},
		Daily:    &vault.FSDailyNotes{Store: store, Folder: "Daily"},
		Notifier: rec,
		Save:     rec.Save,
	})
	source.On("RecentPosts", mock.Anything, mock.Anything, mock.Anything).Return(&pinboard.PostCollection{
		Posts: []pinboard.Post{post("Go", "https://go.dev", time.Date(2023, 6, 15, 10, 0, 0, 0, time.Local))},
	}, nil)

	err := s.Sync(context.Background())
	assert.ErrorIs(t, err, ErrSync)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, []string{FailureMessage}, rec.messages)
	assert.Empty(t, rec.saved)
}

func TestSync_RequiresDisclaimer(t *testing.T) {
	f := newFixture(t, config.Defaults())

	err := f.syncer.Sync(context.Background())
	assert.ErrorIs(t, err, ErrDisclaimer)
	f.source.AssertNotCalled(t, "RecentPosts", mock.Anything, mock.Anything, mock.Anything)
}

func TestNextDelay(t *testing.T) {
	interval := 30 * time.Minute
	assert.Equal(t, 20*time.Minute, NextDelay(now.Add(-10*time.Minute), interval, now))
	assert.Equal(t, MinDelay, NextDelay(now.Add(-time.Hour), interval, now))
	assert.Equal(t, MinDelay, NextDelay(now.Add(-interval), interval, now))
	assert.Equal(t, MinDelay, NextDelay(time.Time{}, interval, now))
}

func TestScheduleNext(t *testing.T) {
	cfg := acceptedConfig()
	cfg.LatestSyncTime = now.Add(-10 * time.Minute).Unix()
	f := newFixture(t, cfg)

	f.syncer.ScheduleNext(context.Background())
	assert.Equal(t, []time.Duration{20 * time.Minute}, f.sched.delays)

	cfg.SyncEnabled = false
	f = newFixture(t, cfg)
	f.syncer.ScheduleNext(context.Background())
	assert.Empty(t, f.sched.delays)
	assert.Equal(t, 1, f.sched.cancelled)
}

func TestScheduledRunRearmsAfterFailure(t *testing.T) {
	f := newFixture(t, acceptedConfig())
	f.source.On("RecentPosts", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("offline")).Once()
	f.source.On("RecentPosts", mock.Anything, mock.Anything, mock.Anything).
		Return(&pinboard.PostCollection{}, nil).Once()

	f.syncer.ScheduleNext(context.Background())
	require.NotNil(t, f.sched.fn)

	f.sched.fn()
	assert.Len(t, f.sched.delays, 2, "re-armed after failed run")
	assert.Equal(t, []string{FailureMessage}, f.rec.messages)

	f.sched.fn()
	require.Len(t, f.sched.delays, 3)
	assert.Equal(t, 30*time.Minute, f.sched.delays[2])
	f.source.AssertExpectations(t)
}

func TestUpdateSettings(t *testing.T) {
	cfg := config.Defaults()
	cfg.AcceptedDisclaimer = true
	f := newFixture(t, cfg)
	ctx := context.Background()

	got, err := f.syncer.UpdateSettings(ctx, config.Diff{SyncEnabled: config.Ptr(true)})
	require.NoError(t, err)
	assert.True(t, got.SyncEnabled)
	assert.Equal(t, []time.Duration{MinDelay}, f.sched.delays)

	_, err = f.syncer.UpdateSettings(ctx, config.Diff{SyncInterval: config.Ptr(60)})
	require.NoError(t, err)
	assert.Len(t, f.sched.delays, 2)

	_, err = f.syncer.UpdateSettings(ctx, config.Diff{SyncEnabled: config.Ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, 1, f.sched.cancelled)
	assert.Len(t, f.rec.saved, 3)
	assert.Equal(t, 60, f.syncer.Config().SyncInterval)
}

func TestGroupByDay(t *testing.T) {
	d1 := time.Date(2023, 6, 14, 22, 0, 0, 0, time.Local)
	d2 := time.Date(2023, 6, 15, 1, 0, 0, 0, time.Local)
	posts := []pinboard.Post{
		post("c", "c", d2.Add(time.Hour)),
		post("a", "a", d1),
		post("b", "b", d2),
	}
	batches := GroupByDay(posts)
	require.Len(t, batches, 2)
	assert.Equal(t, StartOfDay(d1), batches[0].Day)
	assert.Equal(t, []pinboard.Post{posts[1]}, batches[0].Posts)
	assert.Equal(t, []pinboard.Post{posts[0], posts[2]}, batches[1].Posts)
}

func TestTimerScheduler(t *testing.T) {
	var s TimerScheduler
	fired := make(chan string, 2)

	s.Arm(time.Hour, func() { fired <- "first" })
	s.Arm(time.Millisecond, func() { fired <- "second" })

	select {
	case got := <-fired:
		assert.Equal(t, "second", got)
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	s.Arm(10*time.Millisecond, func() { fired <- "cancelled" })
	s.Cancel()
	select {
	case got := <-fired:
		t.Fatalf("unexpected callback %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}
