package gramdict

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/gramdict/types"
)

var repeatedPairs = types.Sequence{1, 2, 1, 2, 1, 2, 3}

// pseudoCorpus returns a deterministic sequence over symbols [0, alphabet)
// with plenty of repeated structure.
func pseudoCorpus(n, alphabet int) types.Sequence {
	seq := make(types.Sequence, n)
	x := uint32(2463534242)
	for i := range seq {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		if i > 3 && x%3 == 0 {
			// Copy a recent window to create recurring grams.
			seq[i] = seq[i-4]
			continue
		}
		seq[i] = types.Symbol(x % uint32(alphabet))
	}
	return seq
}

func TestNewBuilderRejectsBadConfiguration(t *testing.T) {
	_, err := NewBuilder(0)
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = NewBuilder(-1)
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = NewBuilder(4, WithWorkingSetFactor(0))
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = NewBuilder(4, WithMaxGramLength(0))
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestBuilderRetainsFrequentPair(t *testing.T) {
	builder, err := NewBuilder(4)
	require.NoError(t, err)
	require.NoError(t, builder.Accept(repeatedPairs))

	dict, err := builder.Result()
	require.NoError(t, err)
	freqs, err := builder.ResultFreqs()
	require.NoError(t, err)

	assert.Equal(t, 4, dict.Len())
	assert.Equal(t, []Gram{{1, 2}, {1}, {2}, {3}}, dict.Grams())
	assert.Equal(t, []uint64{3, 3, 3, 1}, freqs.Counts())

	parsed, err := dict.WeightedParse(types.Sequence{1, 2, 1, 2, 3}, freqs)
	require.NoError(t, err)
	assert.Equal(t, types.Indices{0, 0, 3}, parsed)
}

func TestBuilderEmptyCorpus(t *testing.T) {
	builder, err := NewBuilder(16)
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, builder.State())
	require.NoError(t, builder.Accept(types.Sequence{}))
	assert.Equal(t, StateEmpty, builder.State())

	dict, err := builder.Result()
	require.NoError(t, err)
	freqs, err := builder.ResultFreqs()
	require.NoError(t, err)
	assert.Equal(t, 0, dict.Len())
	assert.Equal(t, 0, freqs.Len())

	_, err = dict.WeightedParse(types.Sequence{7}, freqs)
	assert.True(t, errors.Is(err, ErrUncoverableSequence))
}

func TestBuilderLifecycle(t *testing.T) {
	builder, err := NewBuilder(4)
	require.NoError(t, err)
	require.NoError(t, builder.Accept(types.Sequence{1, 2}))
	assert.Equal(t, StateAccumulating, builder.State())
	_, err = builder.Result()
	require.NoError(t, err)
	assert.Equal(t, StateFrozen, builder.State())
	assert.Equal(t, "frozen", builder.State().String())

	err = builder.Accept(types.Sequence{1})
	assert.True(t, errors.Is(err, ErrFrozen))
	assert.Equal(t, uint64(2), builder.SymbolCount())
}

func TestBuilderStreaming(t *testing.T) {
	builder, err := NewBuilder(4, WithStreaming())
	require.NoError(t, err)
	require.NoError(t, builder.Accept(types.Sequence{1, 2}))
	first, err := builder.Freeze()
	require.NoError(t, err)

	require.NoError(t, builder.Accept(types.Sequence{1, 2, 3}))
	assert.Equal(t, StateAccumulating, builder.State())

	// The earlier snapshot is unaffected by later input.
	assert.False(t, first.Dictionary.Contains(Gram{3}))
	before, _ := first.Frequencies.Get(0)

	second, err := builder.Freeze()
	require.NoError(t, err)
	assert.True(t, second.Dictionary.Contains(Gram{3}))
	after, _ := first.Frequencies.Get(0)
	assert.Equal(t, before, after)

	freqs, err := builder.ResultFreqs()
	require.NoError(t, err)
	assert.Same(t, second.Frequencies, freqs)
}

func TestBuilderDeterministic(t *testing.T) {
	corpus := pseudoCorpus(2000, 12)
	build := func() *Snapshot {
		builder, err := NewBuilder(40, WithWorkingSetFactor(2))
		require.NoError(t, err)
		for start := 0; start < len(corpus); start += 250 {
			require.NoError(t, builder.Accept(corpus[start:start+250]))
		}
		snap, err := builder.Freeze()
		require.NoError(t, err)
		return snap
	}
	a, b := build(), build()
	assert.Equal(t, a.Dictionary.Grams(), b.Dictionary.Grams())
	assert.Equal(t, a.Frequencies.Counts(), b.Frequencies.Counts())
}

func TestBuilderSizeBoundAndSingletons(t *testing.T) {
	corpus := pseudoCorpus(5000, 10)
	for _, size := range []int{10, 11, 32, 200} {
		builder, err := NewBuilder(size, WithWorkingSetFactor(1))
		require.NoError(t, err)
		require.NoError(t, builder.Accept(corpus))
		assert.LessOrEqual(t, builder.Candidates(), size)

		snap, err := builder.Freeze()
		require.NoError(t, err)
		assert.LessOrEqual(t, snap.Dictionary.Len(), size)
		if builder.Candidates() >= size {
			assert.Equal(t, size, snap.Dictionary.Len())
		}
		for s := 0; s < 10; s++ {
			assert.True(t, snap.Dictionary.Contains(Gram{types.Symbol(s)}),
				"size %d lost singleton %d", size, s)
		}
		parsed, err := snap.Parse(corpus[:100])
		require.NoError(t, err)
		decoded, err := snap.Decode(parsed)
		require.NoError(t, err)
		assert.Equal(t, corpus[:100], decoded)
	}
}

func TestBuilderPruningLogs(t *testing.T) {
	var buf bytes.Buffer
	builder, err := NewBuilder(10, WithWorkingSetFactor(1),
		WithLogger(log.New(&buf, "", 0)))
	require.NoError(t, err)
	require.NoError(t, builder.Accept(pseudoCorpus(500, 10)))
	assert.Contains(t, buf.String(), "pruned")
}

func TestBuilderMaxGramLength(t *testing.T) {
	builder, err := NewBuilder(16, WithMaxGramLength(2))
	require.NoError(t, err)
	require.NoError(t, builder.Accept(repeatedPairs))
	_, ok := builder.Frequency(Gram{1, 2})
	assert.True(t, ok)
	_, ok = builder.Frequency(Gram{1, 2, 1})
	assert.False(t, ok)
	dict, err := builder.Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, dict.MaxGramLen(), 2)
}

func TestBuilderSymbolBudget(t *testing.T) {
	builder, err := NewBuilder(2)
	require.NoError(t, err)
	require.NoError(t, builder.Accept(types.Sequence{1, 2}))

	err = builder.Accept(types.Sequence{1, 3})
	assert.True(t, errors.Is(err, ErrSymbolBudget))
	assert.True(t, errors.Is(err, ErrConfiguration))

	// The rejected sequence left no trace.
	assert.Equal(t, uint64(2), builder.SymbolCount())
	assert.Equal(t, 2, builder.DistinctSymbols())
	freq, ok := builder.Frequency(Gram{1})
	assert.True(t, ok)
	assert.Equal(t, uint64(1), freq)
	_, ok = builder.Frequency(Gram{3})
	assert.False(t, ok)
}

func TestBuilderAggregationConsistency(t *testing.T) {
	a := types.Sequence{1, 2, 3, 1}
	b := types.Sequence{2, 2, 3}
	joined := append(append(types.Sequence{}, a...), b...)

	split, err := NewBuilder(3)
	require.NoError(t, err)
	require.NoError(t, split.Accept(a))
	require.NoError(t, split.Accept(b))
	whole, err := NewBuilder(3)
	require.NoError(t, err)
	require.NoError(t, whole.Accept(joined))

	assert.Equal(t, whole.SymbolCount(), split.SymbolCount())
	splitFreqs, err := split.ResultFreqs()
	require.NoError(t, err)
	wholeFreqs, err := whole.ResultFreqs()
	require.NoError(t, err)
	assert.Equal(t, wholeFreqs.Total(), splitFreqs.Total())
	assert.Equal(t, uint64(len(joined)), splitFreqs.Total())
	for _, s := range []types.Symbol{1, 2, 3} {
		fs, _ := split.Frequency(Gram{s})
		fw, _ := whole.Frequency(Gram{s})
		assert.Equal(t, fw, fs, "symbol %d", s)
	}
}
