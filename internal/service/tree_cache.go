package service

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultTreeCacheSize = 256

// treeCache holds built forests per post. Every invalidation bumps the post
// generation, and a tree is only stored if the generation it was built under
// is still current, so a build racing with a create is never cached.
type treeCache struct {
	mu    sync.Mutex
	trees *lru.Cache[string, CommentTree]
	gens  map[string]uint64
}

// newTreeCache returns a cache holding up to size trees. A non-positive size
// disables caching.
func newTreeCache(size int) *treeCache {
	c := &treeCache{gens: make(map[string]uint64)}
	if size > 0 {
		// lru.New only fails for non-positive sizes
		c.trees, _ = lru.New[string, CommentTree](size)
	}
	return c
}

func (c *treeCache) get(postID string) (CommentTree, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	gen := c.gens[postID]
	if c.trees == nil {
		return CommentTree{}, gen, false
	}
	tree, ok := c.trees.Get(postID)
	return tree, gen, ok
}

func (c *treeCache) add(postID string, gen uint64, tree CommentTree) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.trees == nil || c.gens[postID] != gen {
		return false
	}
	c.trees.Add(postID, tree)
	return true
}

func (c *treeCache) invalidate(postID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[postID]++
	if c.trees != nil {
		c.trees.Remove(postID)
	}
}
