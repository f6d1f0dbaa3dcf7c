package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu   sync.Mutex
	data map[string]string
	err  error
	gets int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{data: make(map[string]string)}
}

func (f *fakeRemote) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeRemote) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.data[key] = string(value.([]byte))
	return nil
}

func (f *fakeRemote) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			delete(f.data, k)
			n++
		}
	}
	return n, nil
}

func albumKey(album string) Key {
	return Key{Strategy: "nested", Album: album}
}

func TestKey_String(t *testing.T) {
	assert.NotEqual(t, albumKey("A").String(), Key{Strategy: "nested", Album: "A", Track: 0, HasTrack: true}.String())
	assert.Equal(t, albumKey("A").String(), Key{Strategy: "nested", Album: "A", Track: 7}.String())
	assert.NotEqual(t, Key{Strategy: "combined", Album: "A"}.String(), albumKey("A").String())
}

func TestGetOrCompute_LocalOnly(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c, err := New(Options{LocalSize: 2, Metrics: m})
	require.NoError(t, err)

	calls := 0
	compute := func() []string {
		calls++
		return []string{"Artist 1"}
	}

	v, hit := c.GetOrCompute(context.Background(), albumKey("A"), compute)
	assert.False(t, hit)
	assert.Equal(t, []string{"Artist 1"}, v)

	v, hit = c.GetOrCompute(context.Background(), albumKey("A"), compute)
	assert.True(t, hit)
	assert.Equal(t, []string{"Artist 1"}, v)
	assert.Equal(t, 1, calls)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("local")))
}

func TestGetOrCompute_SingleflightCollapsesMisses(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() []string {
		calls.Add(1)
		<-release
		return []string{"X"}
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Go(func() {
			v, _ := c.GetOrCompute(context.Background(), albumKey("A"), compute)
			assert.Equal(t, []string{"X"}, v)
		})
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetOrCompute_RemoteTier(t *testing.T) {
	remote := newFakeRemote()
	first, err := New(Options{Remote: remote, Namespace: "load-1", TTL: time.Minute})
	require.NoError(t, err)
	first.GetOrCompute(context.Background(), albumKey("A"), func() []string { return []string{"X", "Y"} })
	require.Len(t, remote.data, 1)

	// A second process shares the remote tier.
	second, err := New(Options{Remote: remote, Namespace: "load-1", TTL: time.Minute})
	require.NoError(t, err)
	v, hit := second.GetOrCompute(context.Background(), albumKey("A"), func() []string {
		t.Fatal("compute should not run on a remote hit")
		return nil
	})
	assert.True(t, hit)
	assert.Equal(t, []string{"X", "Y"}, v)

	require.NoError(t, second.Invalidate(context.Background()))
	assert.Empty(t, remote.data)
}

func TestGetOrCompute_NamespacesIsolateLoads(t *testing.T) {
	remote := newFakeRemote()
	ctx := context.Background()
	oldReplica, err := New(Options{Remote: remote, Namespace: "load-1", TTL: time.Minute})
	require.NoError(t, err)
	newReplica, err := New(Options{Remote: remote, Namespace: "load-2", TTL: time.Minute})
	require.NoError(t, err)

	require.NoError(t, newReplica.Invalidate(ctx))
	oldReplica.GetOrCompute(ctx, albumKey("A"), func() []string { return []string{"old"} })

	v, hit := newReplica.GetOrCompute(ctx, albumKey("A"), func() []string { return []string{"old", "new"} })
	assert.False(t, hit)
	assert.Equal(t, []string{"old", "new"}, v)
	require.Len(t, remote.data, 2)

	// Invalidating one namespace leaves the other untouched.
	require.NoError(t, newReplica.Invalidate(ctx))
	require.Len(t, remote.data, 1)
	for k := range remote.data {
		assert.True(t, strings.HasPrefix(k, keyPrefix+"load-1:"), k)
	}
}

func TestNew_DefaultNamespaceIsPrivate(t *testing.T) {
	remote := newFakeRemote()
	ctx := context.Background()
	a, err := New(Options{Remote: remote})
	require.NoError(t, err)
	b, err := New(Options{Remote: remote})
	require.NoError(t, err)

	a.GetOrCompute(ctx, albumKey("A"), func() []string { return []string{"X"} })
	_, hit := b.GetOrCompute(ctx, albumKey("A"), func() []string { return []string{"Y"} })
	assert.False(t, hit)
}

func TestGetOrCompute_RemoteFailureFallsBack(t *testing.T) {
	remote := newFakeRemote()
	remote.err = errors.New("connection refused")
	c, err := New(Options{Remote: remote})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		v, _ := c.GetOrCompute(context.Background(), albumKey(fmt.Sprintf("A%d", i)), func() []string { return []string{"X"} })
		assert.Equal(t, []string{"X"}, v)
	}
	// The breaker opens after five failures and stops calling the remote.
	assert.Less(t, remote.gets, 10)
}
