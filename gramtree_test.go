package gramdict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wbrown/gramdict/types"
)

func TestGramNode_String(t *testing.T) {
	tree := newGramTree()
	tree.Insert(Gram{1, 2}, 0)
	tree.Insert(Gram{1}, 1)
	tree.Insert(Gram{3}, 2)
	s := tree.String()
	t.Log("\n" + s)
	assert.Contains(t, s, "1#1")
	assert.Contains(t, s, "2#0")
	assert.Contains(t, s, "└─3#2")
}

func TestGramNodeFind(t *testing.T) {
	tree := newGramTree()
	tree.Insert(Gram{1, 2, 3}, 7)
	idx, ok := tree.Find(Gram{1, 2, 3})
	assert.True(t, ok)
	assert.Equal(t, 7, idx)

	// Path-only prefixes are not entries.
	_, ok = tree.Find(Gram{1, 2})
	assert.False(t, ok)
	_, ok = tree.Find(Gram{})
	assert.False(t, ok)
	_, ok = tree.Find(Gram{4})
	assert.False(t, ok)
}

func TestGramNodeMatches(t *testing.T) {
	tree := newGramTree()
	tree.Insert(Gram{5}, 0)
	tree.Insert(Gram{5, 6}, 1)
	tree.Insert(Gram{5, 6, 7, 8}, 2)
	seq := types.Sequence{9, 5, 6, 7, 8}

	var got [][2]int
	tree.Matches(seq, 1, func(index, length int) bool {
		got = append(got, [2]int{index, length})
		return true
	})
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}, {2, 4}}, got)

	got = got[:0]
	tree.Matches(seq, 1, func(index, length int) bool {
		got = append(got, [2]int{index, length})
		return false
	})
	assert.Equal(t, [][2]int{{0, 1}}, got)

	got = got[:0]
	tree.Matches(seq, 0, func(index, length int) bool {
		got = append(got, [2]int{index, length})
		return true
	})
	assert.Empty(t, got)
}

func TestGramNodeWideFanout(t *testing.T) {
	tree := newGramTree()
	for s := 0; s < 3*childsArrMax; s++ {
		tree.Insert(Gram{0, types.Symbol(s)}, s)
	}
	assert.Nil(t, tree.childs[0].childsArr)
	for s := 0; s < 3*childsArrMax; s++ {
		idx, ok := tree.Find(Gram{0, types.Symbol(s)})
		assert.True(t, ok)
		assert.Equal(t, s, idx)
	}
}

func TestGramKey(t *testing.T) {
	assert.Equal(t, Gram{1, 2}.Key(), Gram{1, 2}.Key())
	assert.NotEqual(t, Gram{1, 2}.Key(), Gram{2, 1}.Key())
	assert.NotEqual(t, Gram{12}.Key(), Gram{1, 2}.Key())
	assert.NotEqual(t, Gram{-1}.Key(), Gram{1}.Key())
	assert.Equal(t, "(1,-2,3)", Gram{1, -2, 3}.String())

	g := Gram{1, 2}
	ext := g.Extend(3)
	assert.Equal(t, Gram{1, 2}, g)
	assert.Equal(t, Gram{1, 2, 3}, ext)
	assert.True(t, ext.Equal(Gram{1, 2, 3}))
	assert.False(t, ext.Equal(g))
}
