package webhook

import (
	"container/list"
	"sync"
	"time"
)

// dedupTTL is how long a gateway-message-id is remembered. The spec asks
// for TTL >= 1h; duplicate webhook deliveries for the same event are
// common within the first few minutes after a gateway reconnect.
const dedupTTL = 90 * time.Minute

// dedupCapacity bounds memory use; oldest entries are evicted once full,
// same as any LRU, regardless of whether their TTL has expired yet.
const dedupCapacity = 4096

type dedupEntry struct {
	id       string
	seenAt   time.Time
	listElem *list.Element
}

// dedupCache is a small LRU with TTL used to recognize webhook retries of
// an already-processed gateway-message-id. No third-party LRU appears in
// the example pack's require graphs, so this is hand-rolled.
type dedupCache struct {
	mu    sync.Mutex
	order *list.List
	items map[string]*dedupEntry
	now   func() time.Time
}

func newDedupCache() *dedupCache {
	return &dedupCache{
		order: list.New(),
		items: make(map[string]*dedupEntry),
		now:   time.Now,
	}
}

// seen reports whether id was already accepted within the TTL window and
// records it for next time. A true return means the caller should treat
// this delivery as a duplicate and no-op.
func (c *dedupCache) seen(id string) bool {
	if id == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if entry, ok := c.items[id]; ok {
		if now.Sub(entry.seenAt) < dedupTTL {
			c.order.MoveToFront(entry.listElem)
			return true
		}
		// expired: treat as new, refresh position below
		c.order.Remove(entry.listElem)
		delete(c.items, id)
	}

	elem := c.order.PushFront(id)
	c.items[id] = &dedupEntry{id: id, seenAt: now, listElem: elem}

	for c.order.Len() > dedupCapacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(string))
	}

	return false
}
