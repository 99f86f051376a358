// Package prefs persists the two device-level preferences, theme and language.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tripsocial/internal/cache"
	"tripsocial/internal/models"
	"tripsocial/internal/observability"
)

// Store is a string key-value store. Get reports false for a key never set or deleted.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps values for the life of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// RedisStore keeps each preference under its own prefs:<key> string.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore returns a RedisStore using rdb.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	span, ctx := observability.StartKVSpan(ctx, "redis", "get")
	defer span.End()

	v, err := s.rdb.Get(ctx, cache.PrefKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		span.SetError(err)
		observability.KVErrors.WithLabelValues("get").Inc()
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	span, ctx := observability.StartKVSpan(ctx, "redis", "set")
	defer span.End()

	if err := s.rdb.Set(ctx, cache.PrefKey(key), value, 0).Err(); err != nil {
		span.SetError(err)
		observability.KVErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	span, ctx := observability.StartKVSpan(ctx, "redis", "delete")
	defer span.End()

	if err := cache.Invalidate(ctx, s.rdb, cache.PrefKey(key)); err != nil {
		span.SetError(err)
		observability.KVErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// SQLStore keeps preferences as rows of the preferences table.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLStore returns a SQLStore using db. The schema must already be applied.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	span, ctx := observability.StartKVSpan(ctx, "sqlite", "get")
	defer span.End()

	var pref models.Preference
	err := s.db.WithContext(ctx).Where(&models.Preference{Key: key}).Take(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		span.SetError(err)
		observability.KVErrors.WithLabelValues("get").Inc()
		return "", false, fmt.Errorf("sqlite get %s: %w", key, err)
	}
	return pref.Value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	span, ctx := observability.StartKVSpan(ctx, "sqlite", "set")
	defer span.End()

	pref := models.Preference{Key: key, Value: value, UpdatedAt: s.now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
	if err != nil {
		span.SetError(err)
		observability.KVErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("sqlite set %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	span, ctx := observability.StartKVSpan(ctx, "sqlite", "delete")
	defer span.End()

	err := s.db.WithContext(ctx).Where(&models.Preference{Key: key}).Delete(&models.Preference{}).Error
	if err != nil {
		span.SetError(err)
		observability.KVErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("sqlite delete %s: %w", key, err)
	}
	return nil
}
