// internal/vsource/cache.go
package vsource

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// statusCache holds the last parsed status table. Staleness is explicit:
// the snapshot carries the time it was observed, and readers state the
// maximum age they will accept. MaxAge zero means never accept cached
// values.
type statusCache struct {
	mu         sync.RWMutex
	observedAt time.Time

	channels *xsync.MapOf[int, ChannelStatus]
	maxAge   time.Duration
}

func newStatusCache(maxAge time.Duration) *statusCache {
	return &statusCache{
		channels: xsync.NewMapOf[int, ChannelStatus](),
		maxAge:   maxAge,
	}
}

// fresh reports whether the cached table is young enough to serve.
func (c *statusCache) fresh(now time.Time) bool {
	if c.maxAge <= 0 {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.observedAt.IsZero() {
		return false
	}
	return now.Sub(c.observedAt) < c.maxAge
}

// observed returns when the cached table was read from the instrument.
func (c *statusCache) observed() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.observedAt
}

// get returns the cached status for one channel, fresh or not.
func (c *statusCache) get(ch int) (ChannelStatus, bool) {
	return c.channels.Load(ch)
}

// replace installs a full table snapshot observed at now.
func (c *statusCache) replace(table map[int]ChannelStatus, now time.Time) {
	for ch, cs := range table {
		c.channels.Store(ch, cs)
	}
	c.mu.Lock()
	c.observedAt = now
	c.mu.Unlock()
}
