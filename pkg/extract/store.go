package extract

import (
	"context"
	"time"

	"github.com/matzehuels/moonlayout/pkg/cache"
	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/observability"
)

// Store persists snapshots in a cache backend.
type Store struct {
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// NewStore creates a store. A nil keyer uses [cache.NewDefaultKeyer]; a
// zero ttl keeps snapshots forever.
func NewStore(c cache.Cache, k cache.Keyer, ttl time.Duration) *Store {
	if c == nil {
		c = cache.NewNullCache()
	}
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	return &Store{cache: c, keyer: k, ttl: ttl}
}

// Put writes s under its frame key and as the latest snapshot of its scene.
func (st *Store) Put(ctx context.Context, s *Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	keys := []string{st.keyer.SnapshotKey(s.Scene, s.Frame), st.keyer.LatestKey(s.Scene)}
	for _, key := range keys {
		if err := st.cache.Set(ctx, key, data, st.ttl); err != nil {
			observability.Cache().OnCacheError(ctx, "snapshot", err)
			return errors.Wrap(errors.ErrCodeNetwork, err, "store snapshot %s", key)
		}
	}
	observability.Cache().OnCacheSet(ctx, "snapshot", len(data))
	return nil
}

// PutRun writes s under a run key, for reuse by identical runs.
func (st *Store) PutRun(ctx context.Context, sceneHash string, opts cache.RunKeyOpts, s *Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	key := st.keyer.RunKey(sceneHash, opts)
	if err := st.cache.Set(ctx, key, data, st.ttl); err != nil {
		observability.Cache().OnCacheError(ctx, "run", err)
		return errors.Wrap(errors.ErrCodeNetwork, err, "store run %s", key)
	}
	observability.Cache().OnCacheSet(ctx, "run", len(data))
	return nil
}

// Get loads the snapshot of one frame.
func (st *Store) Get(ctx context.Context, scene string, frame uint64) (*Snapshot, error) {
	return st.load(ctx, "snapshot", st.keyer.SnapshotKey(scene, frame))
}

// Latest loads the most recent snapshot of scene.
func (st *Store) Latest(ctx context.Context, scene string) (*Snapshot, error) {
	return st.load(ctx, "latest", st.keyer.LatestKey(scene))
}

// Run loads a snapshot stored with PutRun.
func (st *Store) Run(ctx context.Context, sceneHash string, opts cache.RunKeyOpts) (*Snapshot, error) {
	return st.load(ctx, "run", st.keyer.RunKey(sceneHash, opts))
}

func (st *Store) load(ctx context.Context, keyType, key string) (*Snapshot, error) {
	data, ok, err := st.cache.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "load %s", key)
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, errors.New(errors.ErrCodeNotFound, "no snapshot at %s", key)
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return Decode(data)
}
