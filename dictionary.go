package gramdict

import (
	"fmt"
	"math"

	"github.com/wbrown/gramdict/types"
)

// costEpsilon is the relative tolerance under which two parse costs are
// considered tied.
const costEpsilon = 1e-9

// Dictionary is an immutable, size-bounded, indexed set of distinct grams.
// All methods are safe for concurrent use.
type Dictionary struct {
	budget int
	grams  []Gram
	tree   *GramNode
	maxLen int
}

// NewDictionary freezes grams, in index order, into a Dictionary that can
// hold at most budget entries.
func NewDictionary(budget int, grams []Gram) (*Dictionary, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("%w: size budget must be positive, got %d",
			ErrConfiguration, budget)
	}
	if len(grams) > budget {
		return nil, fmt.Errorf("%w: %d grams exceed size budget %d",
			ErrConfiguration, len(grams), budget)
	}
	dict := &Dictionary{
		budget: budget,
		grams:  make([]Gram, len(grams)),
		tree:   newGramTree(),
	}
	for idx, gram := range grams {
		if len(gram) == 0 {
			return nil, fmt.Errorf("%w: empty gram at index %d",
				ErrConfiguration, idx)
		}
		if prev, dup := dict.tree.Find(gram); dup {
			return nil, fmt.Errorf("%w: gram %v at index %d duplicates index %d",
				ErrConfiguration, gram, idx, prev)
		}
		dict.grams[idx] = gram.Clone()
		dict.tree.Insert(dict.grams[idx], idx)
		dict.maxLen = max(dict.maxLen, len(gram))
	}
	return dict, nil
}

func (dict *Dictionary) Len() int        { return len(dict.grams) }
func (dict *Dictionary) Budget() int     { return dict.budget }
func (dict *Dictionary) MaxGramLen() int { return dict.maxLen }

// Get returns a copy of the gram stored at index.
func (dict *Dictionary) Get(index int) (Gram, error) {
	if index < 0 || index >= len(dict.grams) {
		return nil, fmt.Errorf("%w: dictionary index %d, size %d",
			ErrOutOfRange, index, len(dict.grams))
	}
	return dict.grams[index].Clone(), nil
}

func (dict *Dictionary) Contains(gram Gram) bool {
	_, ok := dict.tree.Find(gram)
	return ok
}

func (dict *Dictionary) IndexOf(gram Gram) (int, bool) {
	return dict.tree.Find(gram)
}

// Grams returns copies of every gram in index order.
func (dict *Dictionary) Grams() []Gram {
	out := make([]Gram, len(dict.grams))
	for i := range dict.grams {
		out[i] = dict.grams[i].Clone()
	}
	return out
}

// costs converts frequencies into per-entry segment costs. Add-one
// smoothing keeps unseen entries finite while preserving the ordering by
// relative frequency.
func (dict *Dictionary) costs(freqs *FrequencyTable) []float64 {
	denom := float64(freqs.Total()) + float64(len(dict.grams))
	costs := make([]float64, len(dict.grams))
	for idx, c := range freqs.counts {
		costs[idx] = -math.Log((float64(c) + 1) / denom)
	}
	return costs
}

type parseCell struct {
	cost    float64
	segs    int
	from    int
	index   int
	reached bool
}

// better reports whether a candidate ending at the same position beats the
// incumbent: lower cost, then fewer segments, then a longer final gram,
// then a lower dictionary index.
func (c *parseCell) better(cost float64, segs, from, index int) bool {
	if !c.reached {
		return true
	}
	tol := costEpsilon * math.Max(1, math.Abs(c.cost))
	if cost < c.cost-tol {
		return true
	}
	if cost > c.cost+tol {
		return false
	}
	if segs != c.segs {
		return segs < c.segs
	}
	if from != c.from {
		return from < c.from
	}
	return index < c.index
}

// WeightedParse segments seq into consecutive dictionary grams with the
// minimum total cost, where frequent grams are cheaper. The returned
// indices reconstruct seq exactly.
func (dict *Dictionary) WeightedParse(seq types.Sequence,
	freqs *FrequencyTable) (types.Indices, error) {
	if freqs == nil || freqs.Len() != len(dict.grams) {
		got := 0
		if freqs != nil {
			got = freqs.Len()
		}
		return nil, fmt.Errorf("%w: frequency table has %d entries, "+
			"dictionary has %d", ErrConfiguration, got, len(dict.grams))
	}
	if len(seq) == 0 {
		return types.Indices{}, nil
	}
	costs := dict.costs(freqs)
	cells := make([]parseCell, len(seq)+1)
	cells[0].reached = true
	furthest := 0
	for from := 0; from < len(seq); from++ {
		if !cells[from].reached {
			continue
		}
		base := cells[from]
		dict.tree.Matches(seq, from, func(index, length int) bool {
			end := from + length
			cost := base.cost + costs[index]
			if cells[end].better(cost, base.segs+1, from, index) {
				cells[end] = parseCell{
					cost:    cost,
					segs:    base.segs + 1,
					from:    from,
					index:   index,
					reached: true,
				}
				furthest = max(furthest, end)
			}
			return true
		})
	}
	if !cells[len(seq)].reached {
		return nil, fmt.Errorf("%w: no gram covers symbol %d at position %d",
			ErrUncoverableSequence, seq[furthest], furthest)
	}
	parsed := make(types.Indices, cells[len(seq)].segs)
	for pos, i := len(seq), len(parsed)-1; pos > 0; i-- {
		parsed[i] = types.Index(cells[pos].index)
		pos = cells[pos].from
	}
	return parsed, nil
}

// Decode concatenates the grams named by indices.
func (dict *Dictionary) Decode(indices types.Indices) (types.Sequence, error) {
	seq := make(types.Sequence, 0, len(indices))
	for _, index := range indices {
		if int(index) >= len(dict.grams) {
			return nil, fmt.Errorf("%w: dictionary index %d, size %d",
				ErrOutOfRange, index, len(dict.grams))
		}
		seq = append(seq, dict.grams[index]...)
	}
	return seq, nil
}
