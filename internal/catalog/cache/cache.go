// Package cache memoises store lookups for the query service. Results are
// kept in an in-process LRU and, when configured, in Redis shared by every
// replica. Remote keys are scoped by a namespace naming the load that
// produced the store, so replicas serving different data never read each
// other's entries, while replicas that loaded identical records share them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/albumdb/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/resilience"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	keyPrefix        = "albumdb:lookup:"
	DefaultLocalSize = 4096
)

// Remote is the shared tier. *redis.Client satisfies it.
type Remote interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Key identifies one lookup. Track is ignored unless HasTrack is set.
type Key struct {
	Strategy string
	Album    string
	Track    int
	HasTrack bool
}

func (k Key) String() string {
	if k.HasTrack {
		return k.Strategy + "\x00" + k.Album + "\x00" + strconv.Itoa(k.Track)
	}
	return k.Strategy + "\x00" + k.Album
}

// Options configures a LookupCache. Remote may be nil. Namespace should
// identify the loaded data (dataset.LoadResult.Fingerprint); when empty a
// random one is used and nothing is shared with other processes.
type Options struct {
	LocalSize int
	Remote    Remote
	Namespace string
	TTL       time.Duration
	Metrics   *metrics.Metrics
}

type LookupCache struct {
	local   *lru.Cache[string, []string]
	remote  Remote
	prefix  string
	breaker *resilience.CircuitBreaker
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(opts Options) (*LookupCache, error) {
	size := opts.LocalSize
	if size <= 0 {
		size = DefaultLocalSize
	}
	local, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("creating local cache: %w", err)
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = uuid.NewString()
	}
	logger := slog.Default().With("component", "lookup-cache", "namespace", namespace)
	c := &LookupCache{
		local:   local,
		remote:  opts.Remote,
		prefix:  keyPrefix + namespace + ":",
		ttl:     opts.TTL,
		metrics: opts.Metrics,
		logger:  logger,
	}
	if opts.Remote != nil {
		c.breaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     15 * time.Second,
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warn("remote cache circuit changed", "from", from.String(), "to", to.String())
			},
		})
	}
	return c, nil
}

// GetOrCompute returns the cached result for key, calling compute on a miss.
// Concurrent misses on one key share a single compute. The boolean reports a
// cache hit.
func (c *LookupCache) GetOrCompute(ctx context.Context, key Key, compute func() []string) ([]string, bool) {
	k := key.String()
	if v, ok := c.local.Get(k); ok {
		c.hit("local")
		return v, true
	}
	res, _, _ := c.group.Do(k, func() (any, error) {
		if v, ok := c.local.Get(k); ok {
			c.hit("local")
			return result{v, true}, nil
		}
		if v, ok := c.getRemote(ctx, k); ok {
			c.local.Add(k, v)
			c.hit("redis")
			return result{v, true}, nil
		}
		c.misses.Add(1)
		if c.metrics != nil {
			c.metrics.CacheMissesTotal.Inc()
		}
		v := compute()
		c.local.Add(k, v)
		c.setRemote(ctx, k, v)
		return result{v, false}, nil
	})
	r := res.(result)
	return r.artists, r.hit
}

type result struct {
	artists []string
	hit     bool
}

func (c *LookupCache) hit(tier string) {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
	}
}

func (c *LookupCache) remoteKey(k string) string {
	sum := sha256.Sum256([]byte(k))
	return fmt.Sprintf("%s%x", c.prefix, sum[:16])
}

var errRemoteMiss = errors.New("remote cache miss")

func (c *LookupCache) getRemote(ctx context.Context, k string) ([]string, bool) {
	if c.remote == nil {
		return nil, false
	}
	var data string
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.remote.Get(ctx, c.remoteKey(k))
		if pkgredis.IsNilError(err) {
			return errRemoteMiss
		}
		return err
	}, func(err error) bool { return errors.Is(err, errRemoteMiss) })
	if err != nil {
		if !errors.Is(err, errRemoteMiss) && !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("remote cache get failed", "error", err)
		}
		return nil, false
	}
	var v []string
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		c.logger.Error("remote cache unmarshal failed", "error", err)
		return nil, false
	}
	return v, true
}

func (c *LookupCache) setRemote(ctx context.Context, k string, v []string) {
	if c.remote == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("remote cache marshal failed", "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.remote.Set(ctx, c.remoteKey(k), data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("remote cache set failed", "error", err)
	}
}

// Invalidate empties the local tier and this namespace of the remote tier.
func (c *LookupCache) Invalidate(ctx context.Context) error {
	c.local.Purge()
	if c.remote == nil {
		return nil
	}
	deleted, err := c.remote.FlushByPattern(ctx, c.prefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating remote cache: %w", err)
	}
	c.logger.Info("cache invalidated", "remote_keys_deleted", deleted)
	return nil
}

func (c *LookupCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
