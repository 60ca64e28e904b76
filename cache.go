package minicjs

import (
	"sort"

	"github.com/go-errors/errors"
)

// Cache maps resolved paths (relative specifiers) and raw bare specifiers to
// module records. A cache is shared by reference by every module created
// below the module that owns it and is never pruned.
//
// The cache also tracks which paths are currently executing so that a
// module requiring itself through a cycle fails instead of recursing.
type Cache struct {
	modules map[string]*Module
	loading []string
	active  map[string]bool
}

func NewCache() *Cache {
	return &Cache{
		modules: make(map[string]*Module),
		active:  make(map[string]bool),
	}
}

func (c *Cache) Get(key string) (*Module, bool) {
	module, ok := c.modules[key]
	return module, ok
}

// Set stores module under key, replacing any previous entry.
func (c *Cache) Set(key string, module *Module) {
	c.modules[key] = module
}

func (c *Cache) Len() int {
	return len(c.modules)
}

// Keys returns the cached keys in lexical order.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, len(c.modules))
	for key := range c.modules {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Loading returns the chain of paths currently executing, outermost first.
func (c *Cache) Loading() []string {
	chain := make([]string, len(c.loading))
	copy(chain, c.loading)
	return chain
}

func (c *Cache) enter(path string) error {
	if c.active[path] {
		chain := append(c.Loading(), path)
		return errors.Wrap(&CyclicDependencyError{Chain: chain}, 1)
	}
	c.active[path] = true
	c.loading = append(c.loading, path)
	return nil
}

func (c *Cache) leave(path string) {
	delete(c.active, path)
	for i := len(c.loading) - 1; i >= 0; i-- {
		if c.loading[i] == path {
			c.loading = append(c.loading[:i], c.loading[i+1:]...)
			return
		}
	}
}
