package mustache

import (
	"context"
	"errors"
	"path"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CachedSource wraps any TemplateSource with an in-memory cache.
// Loaded sources are kept for TTL; not-found results for NegativeTTL.
type CachedSource struct {
	source TemplateSource
	config CacheConfig
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

// CacheConfig configures the caching behavior.
type CacheConfig struct {
	// TTL is how long cached entries remain valid.
	// Default: 5 minutes.
	TTL time.Duration

	// MaxEntries is the maximum number of cached templates.
	// When exceeded, the least recently used entry is evicted.
	// Default: 1000.
	MaxEntries int

	// NegativeTTL is how long to cache "not found" results.
	// Set to 0 to disable negative caching.
	NegativeTTL time.Duration
}

// Cache defaults
const (
	DefaultCacheTTL         = 5 * time.Minute
	DefaultCacheMaxEntries  = 1000
	DefaultCacheNegativeTTL = 30 * time.Second

	namedCacheKeyPrefix = "\x00named:"
)

// DefaultCacheConfig returns the default caching configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:         DefaultCacheTTL,
		MaxEntries:  DefaultCacheMaxEntries,
		NegativeTTL: DefaultCacheNegativeTTL,
	}
}

// cacheEntry is one cached lookup result.
type cacheEntry struct {
	source     string
	notFound   bool
	cachedAt   time.Time
	accessedAt time.Time
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries         int
	ValidEntries    int
	NegativeEntries int
}

// NewCachedSource wraps a source with caching. logger may be nil.
func NewCachedSource(source TemplateSource, config CacheConfig, logger *zap.Logger) *CachedSource {
	if config.TTL <= 0 {
		config.TTL = DefaultCacheTTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheMaxEntries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{
		source: source,
		config: config,
		logger: logger,
		cache:  make(map[string]*cacheEntry),
	}
}

// Load implements TemplateSource, serving from cache when possible.
func (s *CachedSource) Load(ctx context.Context, name string) (string, error) {
	return s.load(ctx, name, name, s.source.Load)
}

// LoadTemplate implements NamedTemplateSource. Names without an extension
// share the entries of Load.
func (s *CachedSource) LoadTemplate(ctx context.Context, name string) (string, error) {
	if path.Ext(name) == "" {
		return s.Load(ctx, name)
	}
	return s.load(ctx, namedCacheKey(name), name, func(ctx context.Context, name string) (string, error) {
		return LoadTemplate(ctx, s.source, name)
	})
}

func (s *CachedSource) load(ctx context.Context, key, name string, fetch func(context.Context, string) (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	if entry, ok := s.cache[key]; ok && s.isValid(entry) {
		entry.accessedAt = time.Now()
		s.mu.Unlock()

		s.logger.Debug(LogMsgSourceCacheHit, zap.String(LogFieldName, name))
		if entry.notFound {
			return "", NewTemplateNotFoundError(name)
		}
		return entry.source, nil
	}
	s.mu.Unlock()

	s.logger.Debug(LogMsgSourceCacheMiss, zap.String(LogFieldName, name))
	src, err := fetch(ctx, name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) && s.config.NegativeTTL > 0 {
			s.addEntry(key, "", true)
		}
		return "", err
	}
	s.addEntry(key, src, false)
	return src, nil
}

// namedCacheKey keeps named-template entries apart from partial entries
// of the same name. Template names never contain NUL.
func namedCacheKey(name string) string {
	return namedCacheKeyPrefix + name
}

// Invalidate drops a single name from the cache.
func (s *CachedSource) Invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cache, name)
	delete(s.cache, namedCacheKey(name))
}

// Clear drops every cached entry.
func (s *CachedSource) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = make(map[string]*cacheEntry)
}

// Stats returns cache statistics.
func (s *CachedSource) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var validCount, negativeCount int
	for _, entry := range s.cache {
		if s.isValid(entry) {
			if entry.notFound {
				negativeCount++
			} else {
				validCount++
			}
		}
	}

	return CacheStats{
		Entries:         len(s.cache),
		ValidEntries:    validCount,
		NegativeEntries: negativeCount,
	}
}

// isValid checks if a cache entry is still valid.
func (s *CachedSource) isValid(entry *cacheEntry) bool {
	ttl := s.config.TTL
	if entry.notFound {
		ttl = s.config.NegativeTTL
	}
	return time.Since(entry.cachedAt) < ttl
}

// addEntry adds an entry to the cache, evicting if necessary.
// Caller must hold the lock.
func (s *CachedSource) addEntry(name, src string, notFound bool) {
	if _, exists := s.cache[name]; !exists && len(s.cache) >= s.config.MaxEntries {
		s.evictOldest()
	}

	now := time.Now()
	s.cache[name] = &cacheEntry{
		source:     src,
		notFound:   notFound,
		cachedAt:   now,
		accessedAt: now,
	}
}

// evictOldest removes the least recently accessed entry.
// Caller must hold the lock.
func (s *CachedSource) evictOldest() {
	var (
		oldestName string
		oldest     *cacheEntry
	)
	for name, entry := range s.cache {
		if oldest == nil || entry.accessedAt.Before(oldest.accessedAt) {
			oldestName, oldest = name, entry
		}
	}
	if oldest != nil {
		delete(s.cache, oldestName)
	}
}
