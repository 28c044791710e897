// Package resultserver exposes completed simulation runs over HTTP: an
// LRU-bounded registry of recent runs' statistics, and a gorilla/mux router
// serving them as JSON. This component is additive; the CLI's core
// contract of writing the two CSV outputs never depends on it running.
package resultserver

import (
	"sync"

	"github.com/hashicorp/golang-lru/simplelru"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mariobadr/rhythm/internal/stats"
)

// defaultCacheSize bounds how many completed runs the registry keeps warm
// before evicting the oldest.
const defaultCacheSize = 25

// Registry is a bounded, thread-safe map from run id to that run's
// accumulated statistics.
type Registry struct {
	mu    sync.Mutex
	cache *simplelru.LRU
}

// NewRegistry creates a Registry that evicts its least-recently-used entry
// (by Register or Get) once more than cacheSize runs have been registered. A non-positive cacheSize falls
// back to defaultCacheSize.
func NewRegistry(cacheSize int) (*Registry, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := simplelru.NewLRU(cacheSize, nil)
	if err != nil {
		return nil, err
	}
	return &Registry{cache: cache}, nil
}

// Register stores a completed run's statistics under its id, evicting the
// least-recently-used run if the registry is at capacity.
func (r *Registry) Register(id string, s *stats.Statistics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Add(id, s)
}

// Get retrieves a previously registered run's statistics by id. An unknown
// id reports codes.NotFound.
func (r *Registry) Get(id string) (*stats.Statistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	value, ok := r.cache.Get(id)
	if !ok {
		return nil, status.Error(codes.NotFound, "resultserver: unknown run id "+id)
	}
	s, ok := value.(*stats.Statistics)
	if !ok {
		return nil, status.Error(codes.Internal, "resultserver: unexpected type stored in run registry")
	}
	return s, nil
}

// IDs lists every run id currently held in the registry, most-recently-used
// first.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := r.cache.Keys()
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[len(keys)-1-i] = k.(string)
	}
	return ids
}
