package bootstrap

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsocial/internal/config"
	"tripsocial/internal/models"
	"tripsocial/internal/notifications"
)

func testConfig(backend string) *config.Config {
	return &config.Config{
		Env:              "test",
		LogLevel:         "error",
		CurrentUserID:    "u_me",
		AutoReplyDelayMS: 10,
		PrefsBackend:     backend,
		SQLitePath:       ":memory:",
		FeatureFlags:     "auto_reply=on,group_likes=on",
		EventBufferSize:  8,
	}
}

func TestInitRuntime_MemoryBackend(t *testing.T) {
	ctx := context.Background()
	rt, err := InitRuntime(ctx, testConfig(config.PrefsBackendMemory), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })

	assert.Positive(t, rt.Seeded.Users)
	assert.Nil(t, rt.DB())
	assert.Nil(t, rt.Redis())

	feed := rt.Posts.Feed("u_me")
	require.NotEmpty(t, feed)
	assert.Equal(t, "system", rt.Prefs.Current().Theme)

	sub, err := rt.Hub.Subscribe("u_me")
	require.NoError(t, err)

	// A follow from another user reaches the notification store through the sink.
	_, err = rt.Graph.FollowUser(ctx, "u_lena", "u_me")
	require.NoError(t, err)
	found := false
	for _, n := range rt.Notifications.List() {
		if n.FromUserID == "u_lena" && n.Type == models.NotificationFollow {
			found = true
		}
	}
	assert.True(t, found)

	select {
	case e := <-sub.Events():
		assert.Equal(t, "u_me", e.UserID)
	case <-time.After(time.Second):
		t.Fatal("no event delivered to the current user")
	}
}

func TestInitRuntime_AutoReply(t *testing.T) {
	rt, err := InitRuntime(context.Background(), testConfig(config.PrefsBackendMemory), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })

	before := len(rt.Chat.Messages("conv_kai"))
	_, err = rt.Chat.SendMessage(context.Background(), "conv_kai", models.TextPayload{Text: "ready?"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(rt.Chat.Messages("conv_kai")) == before+2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestInitRuntime_SkipSeedAndFakeData(t *testing.T) {
	cfg := testConfig(config.PrefsBackendMemory)
	cfg.SeedFakeUsers = 3
	cfg.SeedFakePosts = 4

	rt, err := InitRuntime(context.Background(), cfg, Options{FakeSeed: 11})
	require.NoError(t, err)
	defer func() { _ = rt.Close(context.Background()) }()
	seeded := rt.Seeded

	empty, err := InitRuntime(context.Background(), testConfig(config.PrefsBackendMemory), Options{SkipSeed: true})
	require.NoError(t, err)
	defer func() { _ = empty.Close(context.Background()) }()

	assert.Empty(t, empty.Repos.Users.List())
	assert.Equal(t, len(rt.Repos.Users.List()), seeded.Users)
	assert.Equal(t, len(rt.Repos.Posts.List()), seeded.Posts)
}

func TestInitRuntime_PrunesExpiredStories(t *testing.T) {
	rt, err := InitRuntime(context.Background(), testConfig(config.PrefsBackendMemory), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })
	assert.Len(t, rt.Repos.Stories.List(), rt.Seeded.Stories, "fresh seed keeps every story")

	// Seed at t0, every later read is two days on.
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var calls atomic.Int32
	clock := func() time.Time {
		if calls.Add(1) == 1 {
			return t0
		}
		return t0.Add(48 * time.Hour)
	}

	stale, err := InitRuntime(context.Background(), testConfig(config.PrefsBackendMemory), Options{Now: clock})
	require.NoError(t, err)
	t.Cleanup(func() { _ = stale.Close(context.Background()) })
	assert.Positive(t, stale.Seeded.Stories)
	assert.Empty(t, stale.Repos.Stories.List())
}

func TestInitRuntime_SQLiteBackendPersists(t *testing.T) {
	cfg := testConfig(config.PrefsBackendSQLite)
	cfg.SQLitePath = t.TempDir() + "/prefs.db"
	ctx := context.Background()

	first, err := InitRuntime(ctx, cfg, Options{SkipSeed: true})
	require.NoError(t, err)
	require.NotNil(t, first.DB())
	require.NoError(t, first.Prefs.SetTheme(ctx, "dark"))
	require.NoError(t, first.Close(ctx))

	second, err := InitRuntime(ctx, cfg, Options{SkipSeed: true})
	require.NoError(t, err)
	defer func() { _ = second.Close(ctx) }()
	assert.Equal(t, "dark", second.Prefs.Current().Theme)
}

func TestInitRuntime_RedisBackendRelaysEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(config.PrefsBackendRedis)
	cfg.RedisURL = mr.Addr()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()
	watcher := notifications.NewHub(4, nil)
	defer func() { _ = watcher.Shutdown(context.Background()) }()
	require.NoError(t, watcher.StartWiring(ctx, notifications.NewNotifier(rdb)))
	sub, err := watcher.Subscribe("u_me")
	require.NoError(t, err)

	rt, err := InitRuntime(ctx, cfg, Options{SkipSeed: true})
	require.NoError(t, err)
	defer func() { _ = rt.Close(context.Background()) }()
	require.NotNil(t, rt.Redis())

	require.NoError(t, rt.Prefs.SetLanguage(ctx, "fr"))
	got, err := mr.Get("prefs:language")
	require.NoError(t, err)
	assert.Equal(t, "fr", got)

	select {
	case e := <-sub.Events():
		assert.Equal(t, notifications.EventPreferenceChanged, e.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("preference change was not relayed")
	}
}

func TestInitRuntime_Errors(t *testing.T) {
	_, err := InitRuntime(context.Background(), nil, Options{})
	assert.Error(t, err)

	cfg := testConfig(config.PrefsBackendRedis)
	cfg.RedisURL = "127.0.0.1:1"
	rt, err := InitRuntime(context.Background(), cfg, Options{})
	assert.Error(t, err)
	assert.Nil(t, rt)
}

func TestRuntime_CloseTwice(t *testing.T) {
	rt, err := InitRuntime(context.Background(), testConfig(config.PrefsBackendMemory), Options{SkipSeed: true})
	require.NoError(t, err)
	require.NoError(t, rt.Close(context.Background()))
	assert.NoError(t, rt.Close(context.Background()))

	require.NotNil(t, rt.Chat, "services stay readable after Close")
	assert.Zero(t, rt.Chat.PendingReplies())
	assert.Empty(t, rt.Chat.Conversations())
}

func TestRuntime_CloseKeepsBackendHandles(t *testing.T) {
	rt, err := InitRuntime(context.Background(), testConfig(config.PrefsBackendSQLite), Options{SkipSeed: true})
	require.NoError(t, err)
	require.NoError(t, rt.Close(context.Background()))

	assert.NotNil(t, rt.DB(), "accessors are not reset by Close")
	assert.NoError(t, rt.Close(context.Background()), "second Close does not close the database again")
}
