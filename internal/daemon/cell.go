package daemon

import (
	"sync"

	"ssh-clipboard/internal/protocol"
)

// Cell is the daemon's single in-memory clipboard slot (spec §3). It holds
// owned bytes and nothing references back into it — there are no cycles,
// no history, no generation counter. A single-writer/multi-reader lock is
// enough because the value is indivisible: finer-grained locking buys
// nothing.
type Cell struct {
	mu  sync.RWMutex
	val *protocol.Value // nil until the first Set
}

// Set overwrites the cell. The previous value, if any, is discarded with no
// trace — there is no history or CAS.
func (c *Cell) Set(v protocol.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := v
	cp.Data = append([]byte(nil), v.Data...)
	c.val = &cp
}

// Get returns the current value and true, or false if nothing has ever
// been set.
func (c *Cell) Get() (protocol.Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.val == nil {
		return protocol.Value{}, false
	}
	cp := *c.val
	cp.Data = append([]byte(nil), c.val.Data...)
	return cp, true
}

// PeekMeta returns metadata for the current value without copying its
// bytes, or false if nothing has ever been set.
func (c *Cell) PeekMeta() (protocol.Meta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.val == nil {
		return protocol.Meta{}, false
	}
	return protocol.Meta{
		ContentType: c.val.ContentType,
		Size:        uint64(len(c.val.Data)),
		CreatedAt:   c.val.CreatedAt,
	}, true
}
