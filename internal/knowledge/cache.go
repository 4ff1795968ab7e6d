package knowledge

import (
	"sync"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

// Cache compiles the passage for one Fact Set on first use and keeps it for the
// life of the cache. The Fact Set must not change after the cache is created.
type Cache struct {
	facts   *types.Portfolio
	once    sync.Once
	passage string
}

// NewCache creates a cache over the given Fact Set.
func NewCache(facts *types.Portfolio) *Cache {
	return &Cache{facts: facts}
}

// Passage returns the compiled passage, compiling it on the first call.
func (c *Cache) Passage() string {
	c.once.Do(func() {
		c.passage = Compile(c.facts)
	})
	return c.passage
}

// Warm compiles the passage ahead of the first question.
func (c *Cache) Warm() {
	_ = c.Passage()
}

// Facts returns the Fact Set backing this cache.
func (c *Cache) Facts() *types.Portfolio {
	return c.facts
}
