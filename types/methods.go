package types

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedSymbol is returned when a textual symbol is not an integer.
var ErrMalformedSymbol = errors.New("malformed symbol")

func (indices *Indices) ToBin(useUint32 bool) (*[]byte, error) {
	if useUint32 {
		return indices.ToBinUint32()
	} else {
		return indices.ToBinUint16()
	}
}

func (indices *Indices) ToBinUint16() (*[]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(*indices)*IndexSize))
	for idx := range *indices {
		bs := (*indices)[idx]
		if bs > MaxIndex16 {
			return nil, fmt.Errorf("integer overflow: tried to write index %d as unsigned 16-bit", bs)
		}
		err := binary.Write(buf, binary.LittleEndian, uint16(bs))
		if err != nil {
			return nil, err
		}
	}
	byt := buf.Bytes()
	return &byt, nil
}

func (indices *Indices) ToBinUint32() (*[]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(*indices)*Index32Size))
	for idx := range *indices {
		err := binary.Write(buf, binary.LittleEndian, uint32((*indices)[idx]))
		if err != nil {
			return nil, err
		}
	}
	byt := buf.Bytes()
	return &byt, nil
}

func IndicesFromBin(bin *[]byte) *Indices {
	indices := make(Indices, 0, len(*bin)/IndexSize)
	buf := bytes.NewReader(*bin)
	for {
		var index uint16
		if err := binary.Read(buf, binary.LittleEndian, &index); err != nil {
			break
		}
		indices = append(indices, Index(index))
	}
	return &indices
}

func IndicesFromBin32(bin *[]byte) *Indices {
	indices := make(Indices, 0, len(*bin)/Index32Size)
	buf := bytes.NewReader(*bin)
	for {
		var index Index
		if err := binary.Read(buf, binary.LittleEndian, &index); err != nil {
			break
		}
		indices = append(indices, index)
	}
	return &indices
}

// ToBin writes the sequence as little-endian signed 64-bit integers.
func (seq Sequence) ToBin() []byte {
	out := make([]byte, 0, len(seq)*SymbolSize)
	for _, s := range seq {
		out = binary.LittleEndian.AppendUint64(out, uint64(s))
	}
	return out
}

// SequenceFromBin is the inverse of Sequence.ToBin. Trailing bytes that do
// not form a whole symbol are an error.
func SequenceFromBin(bin []byte) (Sequence, error) {
	if len(bin)%SymbolSize != 0 {
		return nil, fmt.Errorf("sequence blob of %d bytes is not a multiple of %d",
			len(bin), SymbolSize)
	}
	seq := make(Sequence, len(bin)/SymbolSize)
	for i := range seq {
		seq[i] = Symbol(binary.LittleEndian.Uint64(bin[i*SymbolSize:]))
	}
	return seq, nil
}

// ParseSequence reads whitespace- or comma-separated integers. Every field
// is validated before the sequence is returned, so a malformed line never
// yields a partial sequence.
func ParseSequence(line string) (Sequence, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return strings.ContainsRune(SymbolFields, r)
	})
	seq := make(Sequence, 0, len(fields))
	for pos, field := range fields {
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w %q at field %d", ErrMalformedSymbol,
				field, pos)
		}
		seq = append(seq, Symbol(v))
	}
	return seq, nil
}

func (seq Sequence) String() string {
	var sb strings.Builder
	for i, s := range seq {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatInt(int64(s), 10))
	}
	return sb.String()
}
