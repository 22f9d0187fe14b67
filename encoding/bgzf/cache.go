package bgzf

import "container/list"

// blockCache is a small fixed-capacity LRU cache of decompressed
// blocks, keyed by the compressed offset of the block's header. No
// library retrieved for this project exposes a groundable concrete
// LRU map (the closest, biogo/store/llrb, is a red-black tree with a
// different API and isn't vendored here), so this is a direct
// container/list + map implementation -- the same approach the
// standard library's own groupcache-style caches use.
type blockCache struct {
	capacity int
	ll       *list.List
	items    map[uint64]*list.Element
}

type cachedBlock struct {
	coffset   uint64
	nextBlock uint64
	data      []byte
	isEOF     bool
}

func newBlockCache(capacity int) *blockCache {
	return &blockCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[uint64]*list.Element, capacity),
	}
}

func (c *blockCache) get(coffset uint64) (*cachedBlock, bool) {
	e, ok := c.items[coffset]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(e)
	return e.Value.(*cachedBlock), true
}

func (c *blockCache) put(b *cachedBlock) {
	if e, ok := c.items[b.coffset]; ok {
		e.Value = b
		c.ll.MoveToFront(e)
		return
	}
	e := c.ll.PushFront(b)
	c.items[b.coffset] = e
	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*cachedBlock).coffset)
	}
}
