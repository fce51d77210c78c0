package loader

import (
	"context"
	"errors"
	"time"

	"github.com/quantmind-br/reqscan/internal/cache"
	"github.com/quantmind-br/reqscan/internal/domain"
	"github.com/quantmind-br/reqscan/internal/utils"
)

// DefaultCacheTTL is used when a CachedLoader is created without a TTL
const DefaultCacheTTL = 24 * time.Hour

// CachedLoader serves manifest text from a cache, falling back to the wrapped
// loader on a miss. Cache failures never fail a load.
type CachedLoader struct {
	next   domain.Loader
	cache  domain.Cache
	ttl    time.Duration
	logger *utils.Logger
}

// NewCachedLoader wraps next with cache
func NewCachedLoader(next domain.Loader, c domain.Cache, ttl time.Duration, logger *utils.Logger) *CachedLoader {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedLoader{next: next, cache: c, ttl: ttl, logger: logger}
}

// Load returns the cached text for location or loads and stores it
func (l *CachedLoader) Load(ctx context.Context, location string) (string, error) {
	key := cache.ManifestKey(location)

	if text, ok := l.lookup(ctx, key, location); ok {
		return text, nil
	}

	text, err := l.next.Load(ctx, location)
	if err != nil {
		return "", err
	}

	l.store(ctx, key, location, text)
	return text, nil
}

func (l *CachedLoader) lookup(ctx context.Context, key, location string) (string, bool) {
	data, err := l.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			l.warn(err, location, "Cache read failed")
		}
		return "", false
	}

	entry, err := cache.DecodeEntry(data)
	if err != nil {
		l.warn(err, location, "Discarding corrupt cache entry")
		_ = l.cache.Delete(ctx, key)
		return "", false
	}
	if entry.IsExpired() {
		return "", false
	}

	if l.logger != nil {
		l.logger.Debug().Str("source", location).Msg("Cache hit")
	}
	return entry.Text, true
}

func (l *CachedLoader) store(ctx context.Context, key, location, text string) {
	now := time.Now()
	data, err := cache.EncodeEntry(&cache.Entry{
		Location:  location,
		Text:      text,
		FetchedAt: now,
		ExpiresAt: now.Add(l.ttl),
	})
	if err == nil {
		err = l.cache.Set(ctx, key, data, l.ttl)
	}
	if err != nil {
		l.warn(err, location, "Cache write failed")
	}
}

func (l *CachedLoader) warn(err error, location, msg string) {
	if l.logger != nil {
		l.logger.Warn().Err(err).Str("source", location).Msg(msg)
	}
}
