package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/gramdict"
	"github.com/wbrown/gramdict/types"
)

func train(t *testing.T, seqs ...types.Sequence) *gramdict.Snapshot {
	builder, err := gramdict.NewBuilder(8)
	require.NoError(t, err)
	for _, seq := range seqs {
		require.NoError(t, builder.Accept(seq))
	}
	snap, err := builder.Freeze()
	require.NoError(t, err)
	return snap
}

func openStore(t *testing.T) *Store {
	s, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreSaveLoad(t *testing.T) {
	s := openStore(t)
	first := train(t, types.Sequence{1, 2, 1, 2})
	second := train(t, types.Sequence{1, 2, 1, 2}, types.Sequence{3, 4, 3})

	id1, err := s.Save("corpus", first)
	require.NoError(t, err)
	id2, err := s.Save("corpus", second)
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	latest, err := s.Load("corpus")
	require.NoError(t, err)
	assert.Equal(t, second.Dictionary.Grams(), latest.Dictionary.Grams())
	assert.Equal(t, second.Frequencies.Counts(), latest.Frequencies.Counts())

	old, err := s.LoadID(id1)
	require.NoError(t, err)
	assert.Equal(t, first.Dictionary.Grams(), old.Dictionary.Grams())
}

func TestStoreNotFound(t *testing.T) {
	s := openStore(t)
	_, err := s.Load("nothing")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.LoadID(42)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStoreHistoryAndPrune(t *testing.T) {
	s := openStore(t)
	for i := 0; i < 4; i++ {
		_, err := s.Save("corpus", train(t, types.Sequence{1, 2, 3}))
		require.NoError(t, err)
	}
	_, err := s.Save("other", train(t, types.Sequence{5}))
	require.NoError(t, err)

	history, err := s.History("corpus")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Greater(t, history[0].ID, history[1].ID)
	assert.Equal(t, 8, history[0].Size)
	assert.Equal(t, 5, history[0].Entries)
	assert.Equal(t, uint64(5), history[0].Total)

	removed, err := s.Prune("corpus", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	history, err = s.History("corpus")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	other, err := s.History("other")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestStoreInMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Save("m", train(t, types.Sequence{1}))
	require.NoError(t, err)
	snap, err := s.Load("m")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Dictionary.Len())
}
