package main

//go:generate gopherjs build --minify

import (
	"log"

	"github.com/gopherjs/gopherjs/js"
	"github.com/wbrown/gramdict"
	"github.com/wbrown/gramdict/types"
)

var snapshot *gramdict.Snapshot

// Parse segments symbols and returns the dictionary indices, or null when
// the sequence cannot be covered.
func Parse(symbols []int64) []uint32 {
	seq := make(types.Sequence, len(symbols))
	for i, s := range symbols {
		seq[i] = types.Symbol(s)
	}
	indices, err := snapshot.Parse(seq)
	if err != nil {
		log.Print(err)
		return nil
	}
	out := make([]uint32, len(indices))
	for i, index := range indices {
		out[i] = uint32(index)
	}
	return out
}

// Decode takes a 16-bit binary index buffer and returns the symbols.
func Decode(arr []byte) []int64 {
	indices := types.IndicesFromBin(&arr)
	seq, err := snapshot.Decode(*indices)
	if err != nil {
		log.Print(err)
		return nil
	}
	out := make([]int64, len(seq))
	for i, s := range seq {
		out[i] = int64(s)
	}
	return out
}

// Load replaces the active snapshot with one decoded from JSON text.
func Load(text string) bool {
	snap, err := gramdict.DecodeSnapshot([]byte(text))
	if err != nil {
		log.Print(err)
		return false
	}
	snapshot = snap
	return true
}

func init() {
	var err error
	if snapshot, err = gramdict.LoadSnapshot("sample"); err != nil {
		log.Fatal(err)
	}
	js.Module.Get("exports").Set("parse", Parse)
	js.Module.Get("exports").Set("decode", Decode)
	js.Module.Get("exports").Set("load", Load)
	log.Printf("gramdict parser loaded")
}

func main() {

}
