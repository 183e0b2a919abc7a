package standingsservice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/singleflight"
)

// CacheKind separates the views cached for one contest.
type CacheKind string

const (
	CacheKindRankList   CacheKind = "ranklist"
	CacheKindStatistics CacheKind = "statistics"
)

// CacheKey identifies one cached view.
type CacheKey struct {
	ContestID    int64
	Kind         CacheKind
	View         standingsdomain.View
	FreezeWindow time.Duration
	RoleID       int64
	RoleFiltered bool
}

func (k CacheKey) String() string {
	role := "all"
	if k.RoleFiltered {
		role = fmt.Sprintf("role:%d", k.RoleID)
	}
	return fmt.Sprintf("%d/%s/%s/%s/%s", k.ContestID, k.Kind, k.View, k.FreezeWindow, role)
}

type cacheEntry struct {
	value      any
	generation uint64
	builtAt    time.Time
}

// RankListCache memoizes built views per contest.
//
// Every contest has a generation counter that Invalidate bumps. An entry remembers
// the generation its build started under and is served only while that generation is
// current, or, when a staleness window is configured, while it is younger than the
// window. Concurrent misses on the same key share one build, which keeps running
// while at least one caller still waits for it.
type RankListCache struct {
	entries     *xsync.MapOf[CacheKey, cacheEntry]
	generations *xsync.MapOf[int64, uint64]
	group       singleflight.Group
	staleness   time.Duration
	now         func() time.Time

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the context of one shared build and the callers waiting on it.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func NewRankListCache(staleness time.Duration, now func() time.Time) *RankListCache {
	if now == nil {
		now = time.Now
	}
	return &RankListCache{
		entries:     xsync.NewMapOf[CacheKey, cacheEntry](),
		generations: xsync.NewMapOf[int64, uint64](),
		staleness:   staleness,
		now:         now,
		flights:     make(map[string]*flight),
	}
}

func (c *RankListCache) generation(contestID int64) uint64 {
	gen, _ := c.generations.Load(contestID)
	return gen
}

// Get returns the cached value for key if it may still be served.
func (c *RankListCache) Get(key CacheKey) (any, bool) {
	entry, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	if entry.generation == c.generation(key.ContestID) {
		return entry.value, true
	}
	if c.staleness > 0 && c.now().Sub(entry.builtAt) <= c.staleness {
		return entry.value, true
	}
	return nil, false
}

// GetOrBuild serves key from the cache or runs build, sharing the build with
// concurrent callers of the same key and generation. Failed builds are not stored.
//
// The shared build does not inherit any single caller's cancellation. It is
// cancelled only once every caller waiting on it has gone.
func (c *RankListCache) GetOrBuild(ctx context.Context, key CacheKey, build func(ctx context.Context) (any, error)) (value any, hit bool, err error) {
	for retried := false; ; retried = true {
		if v, ok := c.Get(key); ok {
			return v, true, nil
		}

		gen, _ := c.generations.LoadOrStore(key.ContestID, 0)
		flightKey := fmt.Sprintf("%s#%d", key, gen)
		f := c.join(ctx, flightKey)
		ch := c.group.DoChan(flightKey, func() (any, error) {
			v, err := build(f.ctx)
			if err != nil {
				return nil, err
			}
			c.entries.Store(key, cacheEntry{value: v, generation: gen, builtAt: c.now()})
			return v, nil
		})

		select {
		case <-ctx.Done():
			c.leave(flightKey, f)
			return nil, false, ctx.Err()
		case res := <-ch:
			c.leave(flightKey, f)
			// Joined a build its other callers abandoned; start a fresh one.
			if !retried && errors.Is(res.Err, context.Canceled) && ctx.Err() == nil {
				continue
			}
			return res.Val, false, res.Err
		}
	}
}

func (c *RankListCache) join(ctx context.Context, flightKey string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flights[flightKey]
	if !ok {
		buildCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: buildCtx, cancel: cancel}
		c.flights[flightKey] = f
	}
	f.waiters++
	return f
}

func (c *RankListCache) leave(flightKey string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.flights[flightKey] == f {
		delete(c.flights, flightKey)
	}
}

// Invalidate bumps the contest generation. Without a staleness window the
// contest's entries are dropped at once.
func (c *RankListCache) Invalidate(contestID int64) {
	c.generations.Compute(contestID, func(old uint64, _ bool) (uint64, bool) {
		return old + 1, false
	})
	if c.staleness > 0 {
		return
	}
	c.entries.Range(func(key CacheKey, _ cacheEntry) bool {
		if key.ContestID == contestID {
			c.entries.Delete(key)
		}
		return true
	})
}

// InvalidateAll invalidates every contest that has been built at least once,
// including builds still in flight.
func (c *RankListCache) InvalidateAll() int {
	contests := mapset.NewThreadUnsafeSet[int64]()
	c.generations.Range(func(contestID int64, _ uint64) bool {
		contests.Add(contestID)
		return true
	})
	c.entries.Range(func(key CacheKey, _ cacheEntry) bool {
		contests.Add(key.ContestID)
		return true
	})
	for id := range contests.Iter() {
		c.Invalidate(id)
	}
	return contests.Cardinality()
}

// Len reports the number of stored entries, including ones no longer servable.
func (c *RankListCache) Len() int {
	return c.entries.Size()
}

func cached[T any](ctx context.Context, c *RankListCache, key CacheKey, build func(ctx context.Context) (T, error)) (T, bool, error) {
	v, hit, err := c.GetOrBuild(ctx, key, func(ctx context.Context) (any, error) {
		return build(ctx)
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v.(T), hit, nil
}
