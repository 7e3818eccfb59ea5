package gramdict

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/wbrown/gramdict/types"
)

// Gram is an ordered, non-empty tuple of symbols.
type Gram []types.Symbol

// Key returns a compact string that is equal for two grams iff their
// contents are equal.
func (g Gram) Key() string {
	return seqKey(g)
}

func seqKey(seq []types.Symbol) string {
	buf := make([]byte, 0, len(seq)*2)
	for _, s := range seq {
		buf = binary.AppendVarint(buf, int64(s))
	}
	return string(buf)
}

func (g Gram) Equal(other Gram) bool {
	if len(g) != len(other) {
		return false
	}
	for i := range g {
		if g[i] != other[i] {
			return false
		}
	}
	return true
}

func (g Gram) Clone() Gram {
	c := make(Gram, len(g))
	copy(c, g)
	return c
}

// Extend returns a new gram with s appended; g is not modified.
func (g Gram) Extend(s types.Symbol) Gram {
	c := make(Gram, len(g), len(g)+1)
	copy(c, g)
	return append(c, s)
}

func (g Gram) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, s := range g {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(int64(s), 10))
	}
	sb.WriteByte(')')
	return sb.String()
}
