// Package bootstrap wires configuration, repositories, services and stores into a
// single Runtime.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"tripsocial/internal/cache"
	"tripsocial/internal/config"
	"tripsocial/internal/database"
	"tripsocial/internal/featureflags"
	"tripsocial/internal/notifications"
	"tripsocial/internal/observability"
	"tripsocial/internal/prefs"
	"tripsocial/internal/repository"
	"tripsocial/internal/seed"
	"tripsocial/internal/service"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipSeed leaves the repositories empty.
	SkipSeed bool
	// FakeSeed makes generated users and posts reproducible when non-zero.
	FakeSeed int64
	// Now overrides the clock used by services and seed timestamps.
	Now func() time.Time
}

// Runtime holds every constructed component. Close releases them.
type Runtime struct {
	Config *config.Config
	Repos  *repository.Set
	Hub    *notifications.Hub
	Flags  *featureflags.Manager

	Posts         *service.PostService
	Comments      *service.CommentService
	Stories       *service.StoryService
	Graph         *service.GraphService
	Users         *service.UserService
	Chat          *service.ChatService
	Notifications *service.NotificationService
	Prefs         *prefs.Service

	Seeded seed.Summary

	redis         *redis.Client
	db            *gorm.DB
	traceShutdown func(context.Context) error

	closeMu sync.Mutex
	closed  bool
}

// InitRuntime builds the runtime described by cfg. On error every component created so
// far is released.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (_ *Runtime, err error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	observability.Configure(cfg.Env, cfg.LogLevel)

	rt := &Runtime{
		Config: cfg,
		Repos:  repository.NewSet(),
		Flags:  featureflags.NewManager(cfg.FeatureFlags),
	}
	defer func() {
		if err != nil {
			_ = rt.Close(context.Background())
		}
	}()

	rt.traceShutdown, err = observability.InitTracing(observability.TracingConfig{
		ServiceName:    "tripsocial",
		ServiceVersion: "dev",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampler,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	var store prefs.Store
	switch cfg.PrefsBackend {
	case config.PrefsBackendRedis:
		rt.redis, err = cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		store = prefs.NewRedisStore(rt.redis)
	case config.PrefsBackendSQLite:
		rt.db, err = database.OpenSQLite(ctx, cfg.SQLitePath, cfg.Env)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		store = prefs.NewSQLStore(rt.db)
	default:
		store = prefs.NewMemoryStore()
	}

	var relay *notifications.Notifier
	if rt.redis != nil {
		relay = notifications.NewNotifier(rt.redis)
	}
	rt.Hub = notifications.NewHub(cfg.EventBufferSize, relay)

	if !opts.SkipSeed {
		if err = rt.seed(ctx, opts.FakeSeed, now()); err != nil {
			return nil, err
		}
	}

	deps := service.Deps{
		Repos:  rt.Repos,
		Events: rt.Hub,
		Flags:  rt.Flags,
		Now:    now,
	}
	rt.Notifications = service.NewNotificationService(deps, cfg.CurrentUserID)
	deps.Notify = rt.Notifications

	rt.Posts = service.NewPostService(deps)
	rt.Comments = service.NewCommentService(deps)
	rt.Stories = service.NewStoryService(deps)
	rt.Graph = service.NewGraphService(deps)
	rt.Users = service.NewUserService(deps)
	rt.Chat = service.NewChatService(ctx, deps, cfg.CurrentUserID,
		service.WithAutoReplyDelay(cfg.AutoReplyDelay()))

	expired := rt.Stories.PruneExpired(ctx, now())

	rt.Prefs = prefs.NewService(store, rt.Hub, cfg.CurrentUserID)
	if _, err = rt.Prefs.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	observability.GlobalLogger.InfoContext(ctx, "runtime ready",
		"env", cfg.Env,
		"current_user", cfg.CurrentUserID,
		"prefs_backend", cfg.PrefsBackend,
		"users", rt.Seeded.Users,
		"posts", rt.Seeded.Posts,
		"expired_stories", expired,
	)
	return rt, nil
}

func (rt *Runtime) seed(ctx context.Context, fakeSeed int64, now time.Time) error {
	snap, err := seed.Load()
	if err != nil {
		return fmt.Errorf("failed to load seed snapshot: %w", err)
	}
	sum, err := seed.Apply(ctx, rt.Repos, snap, now)
	if err != nil {
		return fmt.Errorf("failed to apply seed snapshot: %w", err)
	}
	rt.Seeded = sum

	if rt.Config.SeedFakeUsers == 0 && rt.Config.SeedFakePosts == 0 {
		return nil
	}
	fake, err := seed.NewFactory(rt.Repos, fakeSeed, seed.FactoryOptions{}).
		Populate(ctx, rt.Config.SeedFakeUsers, rt.Config.SeedFakePosts)
	if err != nil {
		return fmt.Errorf("failed to generate fake seed data: %w", err)
	}
	rt.Seeded.Users += fake.Users
	rt.Seeded.Posts += fake.Posts
	rt.Seeded.Comments += fake.Comments
	return nil
}

// DB returns the SQLite handle when the sqlite preference backend is active.
func (rt *Runtime) DB() *gorm.DB { return rt.db }

// Redis returns the client when the redis preference backend is active.
func (rt *Runtime) Redis() *redis.Client { return rt.redis }

// Close cancels pending auto-replies, closes event subscribers and releases the
// preference backend. It is safe to call more than once.
func (rt *Runtime) Close(ctx context.Context) error {
	rt.closeMu.Lock()
	defer rt.closeMu.Unlock()
	if rt.closed {
		return nil
	}
	rt.closed = true

	var errs []error
	if rt.Chat != nil {
		if err := rt.Chat.Close(); err != nil {
			errs = append(errs, fmt.Errorf("chat: %w", err))
		}
	}
	if rt.Hub != nil {
		if err := rt.Hub.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("event hub: %w", err))
		}
	}
	if rt.traceShutdown != nil {
		if err := rt.traceShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing: %w", err))
		}
	}
	if rt.db != nil {
		if err := database.Close(rt.db); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}

	return errors.Join(errs...)
}
