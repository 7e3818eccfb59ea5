package gramdict

import (
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"github.com/wbrown/gramdict/types"
)

const PARSE_LRU_SZ = 65536

// Applier re-expresses sequences as dictionary indices.
type Applier interface {
	Parse(seq types.Sequence) (types.Indices, error)
}

type applierConfig struct {
	cacheSize   int
	builderOpts []BuilderOption
}

type ApplierOption func(*applierConfig)

// WithParseCache sets the number of memoized parse results per snapshot;
// zero disables the cache.
func WithParseCache(n int) ApplierOption {
	return func(c *applierConfig) { c.cacheSize = n }
}

// WithBuilderOptions forwards options to the underlying Builder.
func WithBuilderOptions(opts ...BuilderOption) ApplierOption {
	return func(c *applierConfig) {
		c.builderOpts = append(c.builderOpts, opts...)
	}
}

func newApplierConfig(size int, opts []ApplierOption) (*applierConfig, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size budget must be positive, got %d",
			ErrConfiguration, size)
	}
	cfg := &applierConfig{cacheSize: PARSE_LRU_SZ}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.cacheSize < 0 {
		return nil, fmt.Errorf("%w: parse cache size must not be negative, "+
			"got %d", ErrConfiguration, cfg.cacheSize)
	}
	return cfg, nil
}

// CacheStats counts parse cache lookups across snapshots.
type CacheStats struct {
	Hits   uint64
	Misses uint64
}

type cacheCounters struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

func (c *cacheCounters) stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// parseState is one published snapshot together with its own cache, so a
// refresh never serves results computed against an older dictionary.
type parseState struct {
	snap  *Snapshot
	cache *lru.ARCCache
}

func newParseState(snap *Snapshot, cacheSize int) (*parseState, error) {
	st := &parseState{snap: snap}
	if cacheSize > 0 {
		cache, err := lru.NewARC(cacheSize)
		if err != nil {
			return nil, err
		}
		st.cache = cache
	}
	return st, nil
}

func cloneIndices(indices types.Indices) types.Indices {
	out := make(types.Indices, len(indices))
	copy(out, indices)
	return out
}

func (st *parseState) parse(seq types.Sequence,
	counters *cacheCounters) (types.Indices, error) {
	if st.cache == nil {
		return st.snap.Parse(seq)
	}
	key := seqKey(seq)
	if lookup, ok := st.cache.Get(key); ok {
		counters.hits.Add(1)
		return cloneIndices(lookup.(types.Indices)), nil
	}
	counters.misses.Add(1)
	parsed, err := st.snap.Parse(seq)
	if err != nil {
		return nil, err
	}
	st.cache.Add(key, cloneIndices(parsed))
	return parsed, nil
}

// StaticApplier is fit once from an in-memory corpus.
type StaticApplier struct {
	size     int
	cfg      *applierConfig
	state    atomic.Pointer[parseState]
	counters cacheCounters
}

func NewStaticApplier(size int, opts ...ApplierOption) (*StaticApplier, error) {
	cfg, err := newApplierConfig(size, opts)
	if err != nil {
		return nil, err
	}
	return &StaticApplier{size: size, cfg: cfg}, nil
}

// Fit builds a dictionary from seqs in one pass. A failed fit leaves any
// previous snapshot in place.
func (a *StaticApplier) Fit(seqs []types.Sequence) error {
	builder, err := NewBuilder(a.size, a.cfg.builderOpts...)
	if err != nil {
		return err
	}
	for idx, seq := range seqs {
		if err := builder.Accept(seq); err != nil {
			return fmt.Errorf("sequence %d: %w", idx, err)
		}
	}
	snap, err := builder.Freeze()
	if err != nil {
		return err
	}
	st, err := newParseState(snap, a.cfg.cacheSize)
	if err != nil {
		return err
	}
	a.state.Store(st)
	return nil
}

func (a *StaticApplier) Parse(seq types.Sequence) (types.Indices, error) {
	st := a.state.Load()
	if st == nil {
		return nil, ErrNotFitted
	}
	return st.parse(seq, &a.counters)
}

// Snapshot returns the fitted snapshot, or nil before Fit.
func (a *StaticApplier) Snapshot() *Snapshot {
	if st := a.state.Load(); st != nil {
		return st.snap
	}
	return nil
}

func (a *StaticApplier) CacheStats() CacheStats { return a.counters.stats() }

// IterativeApplier interleaves streaming Accept calls with Update refreshes.
// Accept and Update are serialized internally; Parse never blocks on them
// and always sees the most recently published snapshot.
type IterativeApplier struct {
	mu       sync.Mutex
	builder  *Builder
	cfg      *applierConfig
	state    atomic.Pointer[parseState]
	counters cacheCounters
}

func NewIterativeApplier(size int,
	opts ...ApplierOption) (*IterativeApplier, error) {
	cfg, err := newApplierConfig(size, opts)
	if err != nil {
		return nil, err
	}
	builderOpts := append(cfg.builderOpts[:len(cfg.builderOpts):len(cfg.builderOpts)],
		WithStreaming())
	builder, err := NewBuilder(size, builderOpts...)
	if err != nil {
		return nil, err
	}
	return &IterativeApplier{builder: builder, cfg: cfg}, nil
}

func (a *IterativeApplier) Accept(seq types.Sequence) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.builder.Accept(seq)
}

// Update publishes a fresh snapshot derived from every sequence accepted so
// far. Readers holding the previous snapshot are unaffected.
func (a *IterativeApplier) Update() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap, err := a.builder.Freeze()
	if err != nil {
		return err
	}
	st, err := newParseState(snap, a.cfg.cacheSize)
	if err != nil {
		return err
	}
	a.state.Store(st)
	return nil
}

func (a *IterativeApplier) Parse(seq types.Sequence) (types.Indices, error) {
	st := a.state.Load()
	if st == nil {
		return nil, ErrNotUpdated
	}
	return st.parse(seq, &a.counters)
}

// Snapshot returns the most recently published snapshot, or nil before the
// first Update.
func (a *IterativeApplier) Snapshot() *Snapshot {
	if st := a.state.Load(); st != nil {
		return st.snap
	}
	return nil
}

func (a *IterativeApplier) CacheStats() CacheStats { return a.counters.stats() }

// ParseAll parses seqs on up to threads goroutines, keeping input order. If
// any parse fails, the error for the earliest failing sequence is returned.
func ParseAll(applier Applier, seqs []types.Sequence,
	threads int) ([]types.Indices, error) {
	if threads < 1 {
		threads = 1
	}
	results := make([]types.Indices, len(seqs))
	errs := make([]error, len(seqs))
	work := make(chan int, threads)
	wg := sync.WaitGroup{}
	for t := 0; t < threads; t++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx], errs[idx] = applier.Parse(seqs[idx])
			}
		}()
	}
	for idx := range seqs {
		work <- idx
	}
	close(work)
	wg.Wait()
	for idx, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("sequence %d: %w", idx, err)
		}
	}
	return results, nil
}
