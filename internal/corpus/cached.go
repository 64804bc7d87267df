package corpus

import (
	"context"
	"log/slog"
	"time"

	"github.com/ppiankov/incidentcheck/internal/cache"
)

// CachedStore memoizes successful reads of another store
type CachedStore struct {
	inner  Store
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedStore wraps inner; failures are never cached
func NewCachedStore(inner Store, c cache.Cache, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{inner: inner, cache: c, ttl: ttl, logger: logger}
}

// Fetch returns cached content or reads through
func (s *CachedStore) Fetch(ctx context.Context, p string) (string, error) {
	key := cache.Key("corpus-fetch", p)
	var content string
	if cache.GetJSON(s.cache, key, &content) {
		s.logger.Debug("corpus cache hit", slog.String("path", p))
		return content, nil
	}

	content, err := s.inner.Fetch(ctx, p)
	if err != nil {
		return "", err
	}
	if err := cache.SetJSON(s.cache, key, content, s.ttl); err != nil {
		s.logger.Warn("corpus cache write failed", slog.String("path", p), slog.String("error", err.Error()))
	}
	return content, nil
}

// List returns a cached listing or reads through
func (s *CachedStore) List(ctx context.Context, dir string) ([]Entry, error) {
	key := cache.Key("corpus-list", dir)
	var entries []Entry
	if cache.GetJSON(s.cache, key, &entries) {
		s.logger.Debug("corpus cache hit", slog.String("dir", dir))
		return entries, nil
	}

	entries, err := s.inner.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(s.cache, key, entries, s.ttl); err != nil {
		s.logger.Warn("corpus cache write failed", slog.String("dir", dir), slog.String("error", err.Error()))
	}
	return entries, nil
}
