package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/gramdict"
	"github.com/wbrown/gramdict/types"
)

func writeCorpus(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.seq"),
		[]byte("1 2 1 2\n\n1,2,3\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.seq"),
		[]byte("3 1 2\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"),
		[]byte("not a sequence\n"), 0644))
	return dir
}

func collect(t *testing.T, next SequencesIterator) []types.Sequence {
	var seqs []types.Sequence
	for {
		seq, err := next()
		if errors.Is(err, io.EOF) {
			return seqs
		}
		require.NoError(t, err)
		seqs = append(seqs, seq)
	}
}

func TestGlobSequences(t *testing.T) {
	dir := writeCorpus(t)
	matches, err := GlobSequences(dir)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	_, err = GlobSequences(t.TempDir())
	assert.Error(t, err)
}

func TestReorderPaths(t *testing.T) {
	paths := []PathInfo{
		{Path: "b", Size: 1},
		{Path: "a", Size: 3},
		{Path: "c", Size: 2},
	}
	require.NoError(t, ReorderPaths(paths, "size_ascending", 0))
	assert.Equal(t, "b", paths[0].Path)
	require.NoError(t, ReorderPaths(paths, "path_descending", 0))
	assert.Equal(t, "c", paths[0].Path)
	require.NoError(t, ReorderPaths(paths, "random", 7))
	assert.Len(t, paths, 3)
	assert.Error(t, ReorderPaths(paths, "sideways", 0))
}

func TestReadSequences(t *testing.T) {
	dir := writeCorpus(t)
	matches, err := GlobSequences(dir)
	require.NoError(t, err)
	SortPathInfoByPath(matches, true)
	seqs := collect(t, ReadSequences(matches))
	assert.Equal(t, []types.Sequence{{1, 2, 1, 2}, {1, 2, 3}, {3, 1, 2}},
		seqs)
}

func TestReadSequencesMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.seq"),
		[]byte("1 2\n1 x 2\n"), 0644))
	matches, err := GlobSequences(dir)
	require.NoError(t, err)
	next := ReadSequences(matches)
	_, err = next()
	require.NoError(t, err)
	_, err = next()
	assert.True(t, errors.Is(err, types.ErrMalformedSymbol))
	assert.Contains(t, err.Error(), "bad.seq:2")
}

func TestTrainAndWrite(t *testing.T) {
	dir := writeCorpus(t)
	matches, err := GlobSequences(dir)
	require.NoError(t, err)
	SortPathInfoByPath(matches, true)

	builder, err := gramdict.NewBuilder(8)
	require.NoError(t, err)
	stats, err := TrainSequences(builder, ReadSequences(matches), 100)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Sequences)
	assert.Equal(t, uint64(10), stats.Symbols)
	snap, err := builder.Freeze()
	require.NoError(t, err)

	out := t.TempDir()
	for _, name := range []string{"snap.json", "snap.gram"} {
		path := filepath.Join(out, name)
		_, err := WriteSnapshot(path, snap)
		require.NoError(t, err)
		loaded, err := gramdict.LoadSnapshot(path)
		require.NoError(t, err)
		assert.Equal(t, snap.Dictionary.Grams(), loaded.Dictionary.Grams())
	}

	indicesPath := filepath.Join(out, "corpus.idx")
	total, err := WriteIndices(indicesPath, snap, ReadSequences(matches),
		false, 2)
	require.NoError(t, err)
	bin, err := os.ReadFile(indicesPath)
	require.NoError(t, err)
	assert.Len(t, bin, total*types.IndexSize)
	decoded, err := snap.Decode(*types.IndicesFromBin(&bin))
	require.NoError(t, err)
	assert.Equal(t, types.Sequence{1, 2, 1, 2, 1, 2, 3, 3, 1, 2}, decoded)
}

func TestTrainSampling(t *testing.T) {
	seqs := make([]types.Sequence, 40)
	for i := range seqs {
		seqs[i] = types.Sequence{1, 2}
	}
	idx := 0
	next := func() (types.Sequence, error) {
		if idx == len(seqs) {
			return nil, io.EOF
		}
		idx++
		return seqs[idx-1], nil
	}
	builder, err := gramdict.NewBuilder(4)
	require.NoError(t, err)
	stats, err := TrainSequences(builder, next, 50)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.Sequences)
}
