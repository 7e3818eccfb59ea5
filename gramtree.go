package gramdict

import (
	"sort"
	"strconv"
	"strings"

	"github.com/wbrown/gramdict/types"
)

// childsArrMax is the child count above which a node drops its precedence
// slice and looks children up through the map only.
const childsArrMax = 10

type GramNode struct {
	symbol    types.Symbol               // The symbol this node represents.
	symbols   []types.Symbol             // The prior symbols that led to this node.
	index     int                        // Payload index, -1 for path-only nodes.
	childs    map[types.Symbol]*GramNode // The child nodes.
	childsArr *[]*GramNode               // The child nodes in an array, for precedence
}

func newGramTree() *GramNode {
	return &GramNode{
		symbols: []types.Symbol{},
		index:   -1,
		childs:  make(map[types.Symbol]*GramNode, 0),
	}
}

func (node *GramNode) child(s types.Symbol) *GramNode {
	// Small fan-outs are scanned linearly; it beats hashing for the common
	// case of a handful of continuations.
	if node.childsArr != nil {
		for _, child := range *node.childsArr {
			if child.symbol == s {
				return child
			}
		}
		return nil
	}
	return node.childs[s]
}

// Insert stores index at the node spelling gram, creating path nodes as
// needed.
func (root *GramNode) Insert(gram Gram, index int) {
	node := root
	for i, s := range gram {
		childNode, ok := node.childs[s]
		if !ok {
			children := make([]*GramNode, 0)
			childNode = &GramNode{
				symbol:    s,
				symbols:   gram[:i+1].Clone(),
				index:     -1,
				childs:    make(map[types.Symbol]*GramNode, 0),
				childsArr: &children,
			}
			node.childs[s] = childNode
			if len(node.childs) > childsArrMax {
				node.childsArr = nil
			} else {
				if node.childsArr == nil {
					arr := make([]*GramNode, 0, len(node.childs))
					node.childsArr = &arr
				}
				*node.childsArr = append(*node.childsArr, childNode)
			}
		}
		node = childNode
	}
	if node != root {
		node.index = index
	}
}

// Find returns the payload index stored for gram.
func (root *GramNode) Find(gram Gram) (int, bool) {
	node := root
	for _, s := range gram {
		node = node.child(s)
		if node == nil {
			return -1, false
		}
	}
	if node == root || node.index < 0 {
		return -1, false
	}
	return node.index, true
}

// Matches calls fn for every stored gram that starts at seq[from], in
// increasing length. fn receives the payload index and the gram length;
// returning false stops the walk.
func (root *GramNode) Matches(seq []types.Symbol, from int,
	fn func(index, length int) bool) {
	node := root
	for pos := from; pos < len(seq); pos++ {
		node = node.child(seq[pos])
		if node == nil {
			return
		}
		if node.index >= 0 && !fn(node.index, pos-from+1) {
			return
		}
	}
}

// Represent the tree as a string by traversing the tree, and using tree
// characters to represent the tree structure.
func (node *GramNode) string(level int) string {
	if node == nil {
		return ""
	}
	s := ""
	if len(node.symbols) > 0 {
		s = strconv.FormatInt(int64(node.symbol), 10)
		if node.index >= 0 {
			s += "#" + strconv.Itoa(node.index)
		}
	}
	if len(node.childs) == 0 {
		return s + "\n"
	}
	level += 1
	s += "\n"

	idx := 0
	for _, child := range node.ordered() {
		childPrefix := strings.Repeat("| ", level-1)
		// If we're the last child, then we prepend with a tree terminator.
		if idx == len(node.childs)-1 {
			childPrefix += "└─"
		} else {
			childPrefix += "├─"
		}
		s += childPrefix + child.string(level)
		idx += 1
	}
	return s
}

// ordered returns children in insertion order when known, otherwise in
// ascending symbol order, so the rendering is stable.
func (node *GramNode) ordered() []*GramNode {
	if node.childsArr != nil {
		return *node.childsArr
	}
	out := make([]*GramNode, 0, len(node.childs))
	for _, child := range node.childs {
		out = append(out, child)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].symbol < out[j].symbol
	})
	return out
}

// Wrapper
func (node *GramNode) String() string {
	return node.string(0)
}
