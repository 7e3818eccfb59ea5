package gramdict

import (
	"fmt"
	"io"
	"log"
	"math"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/wbrown/gramdict/types"
)

const (
	DefaultWorkingSetFactor = 8
	DefaultMaxGramLength    = 32
)

// BuilderState is the position of a Builder in its accumulate/freeze
// lifecycle.
type BuilderState uint8

const (
	StateEmpty BuilderState = iota
	StateAccumulating
	StateFrozen
)

func (s BuilderState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAccumulating:
		return "accumulating"
	case StateFrozen:
		return "frozen"
	}
	return fmt.Sprintf("BuilderState(%d)", uint8(s))
}

// candNode is a retained candidate gram. The retained set is prefix-closed,
// so every node below the root is a candidate.
type candNode struct {
	symbol types.Symbol
	parent *candNode
	childs map[types.Symbol]*candNode
	depth  int
	freq   uint64
	seen   uint64
	score  uint64 // scratch: effective value while pruning
}

func (n *candNode) gram() Gram {
	g := make(Gram, n.depth)
	for node := n; node.depth > 0; node = node.parent {
		g[node.depth-1] = node.symbol
	}
	return g
}

// value estimates the parse steps saved versus spelling the gram out as
// singletons.
func (n *candNode) value() uint64 {
	return n.freq * uint64(n.depth-1)
}

// Builder learns a size-bounded vocabulary of recurring grams from training
// sequences. It is not safe for concurrent use; Accept, Result, ResultFreqs
// and Freeze must be serialized by the caller.
type Builder struct {
	size             int
	workingSetFactor int
	maxGramLength    int
	streaming        bool
	logger           *log.Logger

	root       *candNode
	candidates int
	nextSeen   uint64
	symbols    uint64
	state      BuilderState
	frozen     *Snapshot
}

type BuilderOption func(*Builder)

// WithWorkingSetFactor sets how many candidates, as a multiple of the
// dictionary size, are tracked before pruning.
func WithWorkingSetFactor(factor int) BuilderOption {
	return func(b *Builder) { b.workingSetFactor = factor }
}

// WithMaxGramLength caps the length of candidate grams.
func WithMaxGramLength(n int) BuilderOption {
	return func(b *Builder) { b.maxGramLength = n }
}

// WithStreaming allows Accept after a freeze, for iterative refreshes.
func WithStreaming() BuilderOption {
	return func(b *Builder) { b.streaming = true }
}

func WithLogger(logger *log.Logger) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder returns an empty Builder for a dictionary of at most size
// grams.
func NewBuilder(size int, opts ...BuilderOption) (*Builder, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size budget must be positive, got %d",
			ErrConfiguration, size)
	}
	b := &Builder{
		size:             size,
		workingSetFactor: DefaultWorkingSetFactor,
		maxGramLength:    DefaultMaxGramLength,
		logger:           log.New(io.Discard, "", 0),
		root:             &candNode{childs: make(map[types.Symbol]*candNode)},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.workingSetFactor < 1 {
		return nil, fmt.Errorf("%w: working set factor must be positive, got %d",
			ErrConfiguration, b.workingSetFactor)
	}
	if b.maxGramLength < 1 {
		return nil, fmt.Errorf("%w: maximum gram length must be positive, got %d",
			ErrConfiguration, b.maxGramLength)
	}
	if b.logger == nil {
		b.logger = log.New(io.Discard, "", 0)
	}
	return b, nil
}

func (b *Builder) Size() int            { return b.size }
func (b *Builder) State() BuilderState  { return b.state }
func (b *Builder) Candidates() int      { return b.candidates }
func (b *Builder) DistinctSymbols() int { return len(b.root.childs) }
func (b *Builder) SymbolCount() uint64  { return b.symbols }

func (b *Builder) workingSetLimit() int { return b.workingSetFactor * b.size }
func (b *Builder) pruneTarget() int     { return max(b.workingSetLimit()/2, b.size) }
func (b *Builder) accepting() bool      { return b.state != StateFrozen || b.streaming }

func (b *Builder) newSeen() uint64 {
	seen := b.nextSeen
	b.nextSeen++
	return seen
}

// Frequency returns the running count of a retained candidate gram.
func (b *Builder) Frequency(gram Gram) (uint64, bool) {
	node := b.root
	for _, s := range gram {
		if node = node.childs[s]; node == nil {
			return 0, false
		}
	}
	if node == b.root {
		return 0, false
	}
	return node.freq, true
}

// Accept scans seq once, counting every retained gram occurring in it and
// proposing longer candidates. An empty sequence is a no-op. The sequence is
// validated before any counter is touched.
func (b *Builder) Accept(seq types.Sequence) error {
	if len(seq) == 0 {
		return nil
	}
	if !b.accepting() {
		return ErrFrozen
	}
	if err := b.checkSymbolBudget(seq); err != nil {
		return err
	}
	limit := b.workingSetLimit()
	for from := range seq {
		b.scanFrom(seq, from)
		if b.candidates > limit {
			b.prune(b.pruneTarget())
		}
	}
	b.symbols += uint64(len(seq))
	b.state = StateAccumulating
	return nil
}

func (b *Builder) checkSymbolBudget(seq types.Sequence) error {
	fresh := make(map[types.Symbol]struct{})
	for _, s := range seq {
		if _, ok := b.root.childs[s]; !ok {
			fresh[s] = struct{}{}
		}
	}
	if distinct := len(b.root.childs) + len(fresh); distinct > b.size {
		return fmt.Errorf("%w: %d distinct symbols, size %d", ErrSymbolBudget,
			distinct, b.size)
	}
	return nil
}

// scanFrom walks the candidate trie along seq[from:], counting each
// retained gram that starts at from. The longest match is extended by the
// next observed symbol; an unseen symbol becomes a singleton.
func (b *Builder) scanFrom(seq types.Sequence, from int) {
	node := b.root
	for pos := from; pos < len(seq) && pos-from < b.maxGramLength; pos++ {
		child, ok := node.childs[seq[pos]]
		if !ok {
			child = &candNode{
				symbol: seq[pos],
				parent: node,
				childs: make(map[types.Symbol]*candNode),
				depth:  node.depth + 1,
				freq:   1,
				seen:   b.newSeen(),
			}
			node.childs[seq[pos]] = child
			b.candidates++
			// A fresh singleton is itself the longest match here and is
			// extended like any other.
			if node != b.root {
				return
			}
		} else {
			child.freq++
		}
		node = child
	}
}

func (b *Builder) nodes() []*candNode {
	out := make([]*candNode, 0, b.candidates)
	stack := make([]*candNode, 0, len(b.root.childs))
	for _, child := range b.root.childs {
		stack = append(stack, child)
	}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, node)
		for _, child := range node.childs {
			stack = append(stack, child)
		}
	}
	return out
}

// rankBefore orders candidates by score descending, then shorter gram,
// then first seen.
func rankBefore(a, b *candNode, scoreA, scoreB uint64) bool {
	if scoreA != scoreB {
		return scoreA > scoreB
	}
	if a.depth != b.depth {
		return a.depth < b.depth
	}
	return a.seen < b.seen
}

// prune keeps the target best candidates by effective value, the larger of
// a gram's own value and that of its best descendant. A parent therefore
// always ranks ahead of its children and the retained set stays
// prefix-closed. Singletons are never pruned.
func (b *Builder) prune(target int) {
	all := b.nodes()
	// Children sit after their parent in DFS order; walk backwards to fold
	// descendant scores into parents.
	for _, node := range all {
		node.score = node.value()
	}
	for i := len(all) - 1; i >= 0; i-- {
		node := all[i]
		if node.depth == 1 {
			node.score = math.MaxUint64
		} else if node.parent.depth > 0 && node.score > node.parent.score {
			node.parent.score = node.score
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return rankBefore(all[i], all[j], all[i].score, all[j].score)
	})
	if target >= len(all) {
		return
	}
	for _, node := range all[target:] {
		delete(node.parent.childs, node.symbol)
	}
	b.logger.Printf("gramdict: pruned %s candidates, %s retained",
		humanize.Comma(int64(len(all)-target)), humanize.Comma(int64(target)))
	b.candidates = target
}

// selectGrams picks every singleton plus the most valuable longer grams up
// to the size budget, returned in index order.
func (b *Builder) selectGrams() []*candNode {
	all := b.nodes()
	byValue := func(nodes []*candNode) {
		sort.Slice(nodes, func(i, j int) bool {
			return rankBefore(nodes[i], nodes[j], nodes[i].value(),
				nodes[j].value())
		})
	}
	singles := make([]*candNode, 0, len(b.root.childs))
	longer := make([]*candNode, 0, len(all))
	for _, node := range all {
		if node.depth == 1 {
			singles = append(singles, node)
		} else {
			longer = append(longer, node)
		}
	}
	byValue(longer)
	room := b.size - len(singles)
	if room < len(longer) {
		longer = longer[:room]
	}
	chosen := append(singles, longer...)
	byValue(chosen)
	return chosen
}

// Freeze selects the dictionary and its frequency table from everything
// accepted so far. Accumulated counts are kept, so a streaming builder can
// continue accepting and freeze again later.
func (b *Builder) Freeze() (*Snapshot, error) {
	chosen := b.selectGrams()
	grams := make([]Gram, len(chosen))
	counts := make([]uint64, len(chosen))
	for idx, node := range chosen {
		grams[idx] = node.gram()
		counts[idx] = node.freq
	}
	dict, err := NewDictionary(b.size, grams)
	if err != nil {
		return nil, err
	}
	b.frozen = &Snapshot{Dictionary: dict,
		Frequencies: FrequencyTableFrom(counts)}
	b.state = StateFrozen
	return b.frozen, nil
}

// Result freezes the current state and returns the dictionary.
func (b *Builder) Result() (*Dictionary, error) {
	snap, err := b.Freeze()
	if err != nil {
		return nil, err
	}
	return snap.Dictionary, nil
}

// ResultFreqs returns the frequencies of the grams chosen by the most
// recent Result, freezing first if there has been none.
func (b *Builder) ResultFreqs() (*FrequencyTable, error) {
	if b.frozen == nil {
		if _, err := b.Freeze(); err != nil {
			return nil, err
		}
	}
	return b.frozen.Frequencies, nil
}
