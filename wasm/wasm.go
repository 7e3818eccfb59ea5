package main

import (
	"fmt"

	"github.com/extism/go-pdk"
	msgpack "github.com/vmihailenco/msgpack/v5"
	"github.com/wbrown/gramdict"
	"github.com/wbrown/gramdict/types"
)

var snapshot *gramdict.Snapshot

func init() {
	// Start from the embedded sample until the host loads a snapshot.
	snap, err := gramdict.LoadSnapshot("sample")
	if err != nil {
		panic(err)
	}
	snapshot = snap
}

type ParseResult = types.Indices

//go:wasmexport load
func Load() int32 {
	snap, err := gramdict.DecodeSnapshot(pdk.Input())
	if err != nil {
		pdk.SetError(err)
		return 1
	}
	snapshot = snap
	return 0
}

//go:wasmexport parse
func Parse() int32 {
	var seq types.Sequence
	if err := msgpack.Unmarshal(pdk.Input(), &seq); err != nil {
		pdk.SetError(err)
		return 1
	}
	return outputParse(seq)
}

//go:wasmexport parse_bin
func ParseBin() int32 {
	seq, err := types.SequenceFromBin(pdk.Input())
	if err != nil {
		pdk.SetError(err)
		return 1
	}
	return outputParse(seq)
}

func outputParse(seq types.Sequence) int32 {
	indices, err := snapshot.Parse(seq)
	if err != nil {
		pdk.SetError(err)
		return 1
	}
	bytes, err := msgpack.Marshal(ParseResult(indices))
	if err != nil {
		pdk.SetError(err)
		return 1
	}
	pdk.Output(bytes)
	return 0
}

//go:wasmexport decode
func Decode() int32 {
	var indices ParseResult
	if err := msgpack.Unmarshal(pdk.Input(), &indices); err != nil {
		pdk.SetError(err)
		return 1
	}
	seq, err := snapshot.Decode(indices)
	if err != nil {
		pdk.SetError(err)
		return 1
	}
	pdk.Output(seq.ToBin())
	return 0
}

func ParseAndBackFull() error {
	// Mostly for debugging
	seq := types.Sequence{1, 2, 1, 2, 3}
	indices, err := snapshot.Parse(seq)
	if err != nil {
		return err
	}
	bytes, err := msgpack.Marshal(ParseResult(indices))
	if err != nil {
		return err
	}
	var again ParseResult
	if err := msgpack.Unmarshal(bytes, &again); err != nil {
		return err
	}
	back, err := snapshot.Decode(again)
	if err != nil {
		return err
	}
	fmt.Println(back)
	return nil
}

func main() {
	err := ParseAndBackFull()
	if err != nil {
		fmt.Println("Error:", err)
	}
}
