// Package cache memoizes normalized datasets keyed by source identity and
// load parameters.
//
// Concurrent callers with the same key await a single in-flight load
// (single-flight); entries expire by TTL and are evicted least-recently-used
// beyond the entry cap so long-running sessions stay bounded.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/minehaul/fleetsafety/internal/domain/model"
	"github.com/minehaul/fleetsafety/pkg/logger"
	"github.com/minehaul/fleetsafety/pkg/metrics"
)

// Defaults sized for a dashboard session mix.
const (
	defaultTTL      = time.Hour
	defaultCapacity = 32
	defaultTimeout  = 15 * time.Second
)

// LoadFunc produces a dataset on a cache miss.
type LoadFunc func(ctx context.Context) (*model.Dataset, error)

// Cache is the shared dataset cache.
type Cache struct {
	entries *expirable.LRU[string, *model.Dataset]
	group   singleflight.Group
	timeout time.Duration
	log     logger.Logger
}

// Option applies a configuration option to the Cache.
type Option func(*settings)

type settings struct {
	ttl      time.Duration
	capacity int
	timeout  time.Duration
	log      logger.Logger
}

// WithTTL sets the entry time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithCapacity sets the LRU entry cap.
func WithCapacity(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithLoadTimeout bounds a single backend load.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the cache logger.
func WithLogger(log logger.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a Cache with configuration options.
func New(opts ...Option) *Cache {
	cfg := &settings{ttl: defaultTTL, capacity: defaultCapacity, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.Named("cache")
	}

	onEvict := func(key string, _ *model.Dataset) {
		metrics.RecordCacheEviction()
	}
	return &Cache{
		entries: expirable.NewLRU[string, *model.Dataset](cfg.capacity, onEvict, cfg.ttl),
		timeout: cfg.timeout,
		log:     cfg.log,
	}
}

// GetOrLoad returns the cached dataset for key, loading it at most once
// however many callers arrive concurrently. The load runs detached from any
// single caller's cancellation but bounded by the load timeout, so one
// impatient session cannot poison the result for the others.
func (ch *Cache) GetOrLoad(ctx context.Context, key string, load LoadFunc) (*model.Dataset, error) {
	if ds, ok := ch.entries.Get(key); ok {
		metrics.RecordCacheHit()
		return ds, nil
	}
	metrics.RecordCacheMiss()

	res := ch.group.DoChan(key, func() (any, error) {
		start := time.Now()
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ch.timeout)
		defer cancel()

		ds, err := load(loadCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				err = ErrLoadTimeout
			}
			return nil, err
		}
		metrics.RecordLoadDuration(time.Since(start).Seconds())
		ch.entries.Add(key, ds)
		ch.log.Debug(ctx, "dataset loaded",
			logger.String("key", key),
			logger.Duration("took", time.Since(start)),
			logger.Int("events", len(ds.Events)),
		)
		return ds, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-res:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			metrics.RecordCacheSuppressedLoad()
		}
		return r.Val.(*model.Dataset), nil
	}
}

// Invalidate drops one entry. The next GetOrLoad with the key reloads, so a
// session that refreshes never sees its own stale read afterwards.
func (ch *Cache) Invalidate(key string) {
	ch.entries.Remove(key)
}

// Purge drops every entry.
func (ch *Cache) Purge() {
	ch.entries.Purge()
}

// Len reports the current entry count.
func (ch *Cache) Len() int {
	return ch.entries.Len()
}

// Key derives a cache key from a source descriptor and load parameters such
// as the requested date window.
func Key(desc model.SourceDescriptor, params ...string) string {
	h := sha256.New()
	h.Write([]byte(string(desc.Kind) + "|" + desc.Location + "|"))
	h.Write([]byte(strings.Join(params, "|")))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
