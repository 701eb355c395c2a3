package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUProgramCache is a ProgramCache that evicts the least recently used
// program once Size is reached. Thread-safe for concurrent access.
type LRUProgramCache struct {
	programs *lru.Cache[string, cel.Program]
}

// NewLRUProgramCache creates a bounded program cache
func NewLRUProgramCache(config CacheConfig) (*LRUProgramCache, error) {
	programs, err := lru.New[string, cel.Program](config.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create program cache: %w", err)
	}
	return &LRUProgramCache{programs: programs}, nil
}

func (c *LRUProgramCache) Get(key string) (cel.Program, bool) {
	return c.programs.Get(key)
}

func (c *LRUProgramCache) Add(key string, prog cel.Program) {
	c.programs.Add(key, prog)
}

func (c *LRUProgramCache) Purge() {
	c.programs.Purge()
}

func (c *LRUProgramCache) Len() int {
	return c.programs.Len()
}
