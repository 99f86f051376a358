package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsocial/internal/featureflags"
	"tripsocial/internal/models"
	"tripsocial/internal/repository"
)

// sinkStub is a stub for NotificationSink.
type sinkStub struct {
	mu       sync.Mutex
	notifyFn func(context.Context, models.Notification)
	got      []models.Notification
}

func (s *sinkStub) Notify(ctx context.Context, n models.Notification) {
	s.mu.Lock()
	s.got = append(s.got, n)
	s.mu.Unlock()
	if s.notifyFn != nil {
		s.notifyFn(ctx, n)
	}
}

func (s *sinkStub) received() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.got...)
}

// publisherStub is a stub for EventPublisher.
type publisherStub struct {
	mu     sync.Mutex
	events []string
}

func (p *publisherStub) Publish(_ context.Context, userID, eventType string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, userID+":"+eventType)
}

func (p *publisherStub) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// fakeClock hands out strictly increasing timestamps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	deps   Deps
	repos  *repository.Set
	sink   *sinkStub
	events *publisherStub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := repository.NewSet()
	for _, u := range []models.User{
		{ID: "u_me", Name: "Alex Rivera", Username: "alex", Followers: 10, Following: 5},
		{ID: "u_maria", Name: "Maria Lopez", Username: "maria.travels"},
		{ID: "u_kai", Name: "Kai Tanaka", Username: "kai_99"},
		{ID: "u_sam", Name: "Sam Okafor", Username: "samwanders"},
	} {
		repos.Users.Create(u)
	}

	f := &fixture{
		repos:  repos,
		sink:   &sinkStub{},
		events: &publisherStub{},
	}
	f.deps = Deps{
		Repos:  repos,
		Notify: f.sink,
		Events: f.events,
		Flags:  featureflags.NewManager("auto_reply=on,group_likes=on"),
		Now:    newFakeClock().Now,
	}
	return f
}

func (f *fixture) seedPost(t *testing.T, p models.Post) models.Post {
	t.Helper()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = f.deps.Now()
	}
	f.repos.Posts.Create(p)
	return p
}

func (f *fixture) user(t *testing.T, id string) models.User {
	t.Helper()
	u, ok := f.repos.Users.GetByID(id)
	require.True(t, ok, "user %s missing", id)
	return u
}

// duringWrite starts call while the repository write lock is held, lets it reach its
// lookups, then applies mutate before the lock is released. It returns once call has.
func duringWrite(repos *repository.Set, call, mutate func()) {
	done := make(chan struct{})
	repos.Atomic(func() {
		go func() {
			defer close(done)
			call()
		}()
		time.Sleep(20 * time.Millisecond)
		mutate()
	})
	<-done
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}
