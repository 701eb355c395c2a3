package rules

import "github.com/google/cel-go/cel"

// ProgramCache holds compiled comparison programs keyed by value kind and
// operator. This allows swapping the eviction policy without touching the
// engine.
type ProgramCache interface {
	// Get returns the cached program, or false on a miss
	Get(key string) (cel.Program, bool)

	// Add stores a compiled program
	Add(key string, prog cel.Program)

	// Purge drops every cached program, forcing recompilation
	Purge()

	// Len returns the number of cached programs
	Len() int
}

// CacheConfig holds configuration for cache behavior
type CacheConfig struct {
	// Size bounds the number of programs kept
	Size int
}

// DefaultCacheConfig returns sensible defaults for program caching
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Size: 64, // every kind and operator pair fits
	}
}
