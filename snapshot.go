package gramdict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/wbrown/gramdict/resources"
	"github.com/wbrown/gramdict/types"
	"google.golang.org/protobuf/encoding/protowire"
)

// Snapshot is an immutable dictionary paired with its frequency table.
// It is safe for any number of concurrent readers.
type Snapshot struct {
	Dictionary  *Dictionary
	Frequencies *FrequencyTable
}

// NewSnapshot checks that freqs matches dict entry for entry.
func NewSnapshot(dict *Dictionary, freqs *FrequencyTable) (*Snapshot, error) {
	if dict == nil || freqs == nil {
		return nil, fmt.Errorf("%w: snapshot needs a dictionary and "+
			"frequencies", ErrConfiguration)
	}
	if dict.Len() != freqs.Len() {
		return nil, fmt.Errorf("%w: %d grams, %d frequencies",
			ErrConfiguration, dict.Len(), freqs.Len())
	}
	return &Snapshot{Dictionary: dict, Frequencies: freqs}, nil
}

func (snap *Snapshot) Parse(seq types.Sequence) (types.Indices, error) {
	return snap.Dictionary.WeightedParse(seq, snap.Frequencies)
}

func (snap *Snapshot) Decode(indices types.Indices) (types.Sequence, error) {
	return snap.Dictionary.Decode(indices)
}

// snapshotJSON is the round-trip representation: the size budget, gram
// contents in index order and the parallel frequencies.
type snapshotJSON struct {
	Size        int       `json:"size"`
	Grams       [][]int64 `json:"grams"`
	Frequencies []uint64  `json:"frequencies"`
}

func snapshotFromParts(size int, grams []Gram,
	freqs []uint64) (*Snapshot, error) {
	if len(grams) != len(freqs) {
		return nil, fmt.Errorf("%w: %d grams, %d frequencies",
			ErrMalformedSnapshot, len(grams), len(freqs))
	}
	dict, err := NewDictionary(size, grams)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return &Snapshot{Dictionary: dict,
		Frequencies: FrequencyTableFrom(freqs)}, nil
}

func (snap *Snapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{
		Size:        snap.Dictionary.Budget(),
		Grams:       make([][]int64, snap.Dictionary.Len()),
		Frequencies: snap.Frequencies.Counts(),
	}
	for idx, gram := range snap.Dictionary.grams {
		out.Grams[idx] = make([]int64, len(gram))
		for i, s := range gram {
			out.Grams[idx][i] = int64(s)
		}
	}
	return json.Marshal(out)
}

func (snap *Snapshot) UnmarshalJSON(data []byte) error {
	var in snapshotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	grams := make([]Gram, len(in.Grams))
	for idx, raw := range in.Grams {
		grams[idx] = make(Gram, len(raw))
		for i, s := range raw {
			grams[idx][i] = types.Symbol(s)
		}
	}
	decoded, err := snapshotFromParts(in.Size, grams, in.Frequencies)
	if err != nil {
		return err
	}
	*snap = *decoded
	return nil
}

// WriteTo writes the JSON representation of the snapshot.
func (snap *Snapshot) WriteTo(w io.Writer) (int64, error) {
	data, err := snap.MarshalJSON()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Protobuf wire field numbers of the binary representation.
const (
	fieldSize        protowire.Number = 1
	fieldGram        protowire.Number = 2
	fieldFrequencies protowire.Number = 3
	fieldSymbols     protowire.Number = 1
)

// MarshalBinary encodes the snapshot as a protobuf message with the same
// three fields as the JSON form.
func (snap *Snapshot) MarshalBinary() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, fieldSize, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(snap.Dictionary.Budget()))
	for _, gram := range snap.Dictionary.grams {
		var packed []byte
		for _, s := range gram {
			packed = protowire.AppendVarint(packed,
				protowire.EncodeZigZag(int64(s)))
		}
		var msg []byte
		msg = protowire.AppendTag(msg, fieldSymbols, protowire.BytesType)
		msg = protowire.AppendBytes(msg, packed)
		b = protowire.AppendTag(b, fieldGram, protowire.BytesType)
		b = protowire.AppendBytes(b, msg)
	}
	var freqs []byte
	for _, c := range snap.Frequencies.counts {
		freqs = protowire.AppendVarint(freqs, c)
	}
	b = protowire.AppendTag(b, fieldFrequencies, protowire.BytesType)
	b = protowire.AppendBytes(b, freqs)
	return b, nil
}

func consumePacked(b []byte, fn func(uint64)) error {
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		fn(v)
		b = b[n:]
	}
	return nil
}

func consumeGram(b []byte) (Gram, error) {
	var gram Gram
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		if num == fieldSymbols && typ == protowire.BytesType {
			packed, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, protowire.ParseError(m)
			}
			if err := consumePacked(packed, func(v uint64) {
				gram = append(gram, types.Symbol(protowire.DecodeZigZag(v)))
			}); err != nil {
				return nil, err
			}
			b = b[m:]
			continue
		}
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return nil, protowire.ParseError(m)
		}
		b = b[m:]
	}
	return gram, nil
}

func (snap *Snapshot) UnmarshalBinary(data []byte) error {
	var (
		size  uint64
		grams []Gram
		freqs []uint64
	)
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformedSnapshot,
				protowire.ParseError(n))
		}
		b = b[n:]
		var err error
		switch {
		case num == fieldSize && typ == protowire.VarintType:
			size, n = protowire.ConsumeVarint(b)
		case num == fieldGram && typ == protowire.BytesType:
			var msg []byte
			msg, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				var gram Gram
				gram, err = consumeGram(msg)
				grams = append(grams, gram)
			}
		case num == fieldFrequencies && typ == protowire.BytesType:
			var packed []byte
			packed, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				err = consumePacked(packed, func(v uint64) {
					freqs = append(freqs, v)
				})
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			err = protowire.ParseError(n)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
		}
		b = b[n:]
	}
	decoded, err := snapshotFromParts(int(size), grams, freqs)
	if err != nil {
		return err
	}
	*snap = *decoded
	return nil
}

// DecodeSnapshot accepts either representation, telling them apart by the
// leading byte: JSON always opens with '{' after optional whitespace.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	snap := &Snapshot{}
	var err error
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) > 0 &&
		trimmed[0] == '{' {
		err = snap.UnmarshalJSON(trimmed)
	} else {
		err = snap.UnmarshalBinary(data)
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ReadSnapshot reads a whole snapshot from r.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(data)
}

// LoadSnapshot resolves uri, a local path or an http(s) URL, and decodes
// the snapshot found there.
func LoadSnapshot(uri string) (*Snapshot, error) {
	rsrc, err := resources.ResolveSnapshot(uri)
	if err != nil {
		return nil, err
	}
	defer rsrc.Cleanup()
	return DecodeSnapshot(*rsrc.Data)
}
