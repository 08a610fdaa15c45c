// Package cache includes all important caches for the runtime
// of the beacon node. These caches sit between expensive state
// computations and the hot paths that need their results.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prysmaticlabs/go-ssz"
	"github.com/zephyrchain/zephyr/types"
)

var (
	// ErrNilCheckpointState is returned when a nil checkpoint state is
	// added to the cache.
	ErrNilCheckpointState = errors.New("nil checkpoint state")

	// maxCheckpointStateSize defines the max number of entries check point to state cache can contain.
	// Choosing 10 to account for multiple forks, this allows 5 forks per epoch boundary with 2 epochs
	// window to accept attestation based on latest spec.
	maxCheckpointStateSize = 10

	// Metrics.
	checkpointStateMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "check_point_state_cache_miss",
		Help: "The number of check point state requests that aren't present in the cache.",
	})
	checkpointStateHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "check_point_state_cache_hit",
		Help: "The number of check point state requests that are present in the cache.",
	})
)

// CheckpointState is the processed state of an epoch boundary checkpoint.
type CheckpointState struct {
	Checkpoint *types.Checkpoint
	State      *types.BeaconState
}

// CheckpointStateCache is a struct with 1 queue for looking up state by checkpoint.
type CheckpointStateCache struct {
	cache *lru.Cache
	lock  sync.RWMutex
}

// NewCheckpointStateCache creates a new checkpoint state cache for storing/accessing processed state.
func NewCheckpointStateCache() (*CheckpointStateCache, error) {
	cache, err := lru.New(maxCheckpointStateSize)
	if err != nil {
		return nil, err
	}
	return &CheckpointStateCache{
		cache: cache,
	}, nil
}

// StateByCheckpoint fetches state by checkpoint. Returns the reference of the state if exists.
// Otherwise returns nil, no error.
func (c *CheckpointStateCache) StateByCheckpoint(cp *types.Checkpoint) (*types.BeaconState, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	h, err := ssz.HashTreeRoot(cp)
	if err != nil {
		return nil, err
	}

	item, exists := c.cache.Get(h)
	if exists && item != nil {
		checkpointStateHit.Inc()
		return item.(*CheckpointState).State, nil
	}

	checkpointStateMiss.Inc()
	return nil, nil
}

// AddCheckpointState adds CheckpointState object to the cache. This method also trims the least
// recently added CheckpointState object if the cache size has reached the max cache size limit.
func (c *CheckpointStateCache) AddCheckpointState(cp *CheckpointState) error {
	if cp == nil || cp.Checkpoint == nil || cp.State == nil {
		return ErrNilCheckpointState
	}
	c.lock.Lock()
	defer c.lock.Unlock()

	h, err := ssz.HashTreeRoot(cp.Checkpoint)
	if err != nil {
		return err
	}
	c.cache.Add(h, cp)
	return nil
}

// PruneByEpoch removes every cached entry whose checkpoint epoch is older
// than the given epoch.
func (c *CheckpointStateCache) PruneByEpoch(epoch uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()

	for _, k := range c.cache.Keys() {
		item, exists := c.cache.Peek(k)
		if !exists || item == nil {
			continue
		}
		if item.(*CheckpointState).Checkpoint.Epoch < epoch {
			c.cache.Remove(k)
		}
	}
}

// CheckpointStateKeys returns the keys of the state in cache.
func (c *CheckpointStateCache) CheckpointStateKeys() [][32]byte {
	c.lock.RLock()
	defer c.lock.RUnlock()

	keys := make([][32]byte, 0, c.cache.Len())
	for _, k := range c.cache.Keys() {
		keys = append(keys, k.([32]byte))
	}
	return keys
}
