package main

/*
#include <stdlib.h>
#include "library.h"
*/
import "C"
import (
	"log"
	"sync"
	"time"
	"unsafe"

	"github.com/wbrown/gramdict"
	"github.com/wbrown/gramdict/types"
)

var (
	snapshotsMu sync.RWMutex
	snapshots   = make(map[string]*gramdict.Snapshot)
)

//export initSnapshot
// initSnapshot accepts a snapshot reference as a C string, and if it is not
// already loaded, resolves and loads it.
func initSnapshot(snapshotId *C.char) bool {
	id := C.GoString(snapshotId)
	_, err := getSnapshot(id)
	if err != nil {
		log.Print(err)
		return false
	}
	return true
}

func getSnapshot(id string) (*gramdict.Snapshot, error) {
	snapshotsMu.RLock()
	snap, ok := snapshots[id]
	snapshotsMu.RUnlock()
	if ok {
		return snap, nil
	}
	snap, err := gramdict.LoadSnapshot(id)
	if err != nil {
		return nil, err
	}
	snapshotsMu.Lock()
	snapshots[id] = snap
	snapshotsMu.Unlock()
	return snap, nil
}

//export parseSymbols
// parseSymbols segments a C array of int64_t symbols and returns a malloc'ed
// array of uint32_t dictionary indices. An empty result with a NULL pointer
// signals failure.
func parseSymbols(snapshotId *C.char, symbols *C.int64_t,
	sz C.size_t) C.Indices {
	snap, err := getSnapshot(C.GoString(snapshotId))
	if err != nil {
		log.Print(err)
		return C.Indices{}
	}
	seq := make(types.Sequence, int(sz))
	if sz > 0 {
		src := unsafe.Slice((*int64)(unsafe.Pointer(symbols)), int(sz))
		for i, s := range src {
			seq[i] = types.Symbol(s)
		}
	}
	indices, err := snap.Parse(seq)
	if err != nil {
		log.Print(err)
		return C.Indices{}
	}
	bin, _ := indices.ToBinUint32()
	return C.Indices{
		indices: (*C.uint32_t)(C.CBytes(*bin)),
		len:     C.size_t(len(indices)),
	}
}

//export decode
// decode accepts a snapshot id and a C.Indices struct, and returns a
// malloc'ed C.Symbols holding the reconstructed sequence.
func decode(snapshotId *C.char, indices *C.Indices) C.Symbols {
	snap, err := getSnapshot(C.GoString(snapshotId))
	if err != nil {
		log.Print(err)
		return C.Symbols{}
	}
	bin := C.GoBytes(unsafe.Pointer(indices.indices),
		C.int(indices.len*4))
	seq, err := snap.Decode(*types.IndicesFromBin32(&bin))
	if err != nil {
		log.Print(err)
		return C.Symbols{}
	}
	return C.Symbols{
		symbols: (*C.int64_t)(C.CBytes(seq.ToBin())),
		len:     C.size_t(len(seq)),
	}
}

//export freeIndices
func freeIndices(indices *C.Indices) {
	C.free(unsafe.Pointer(indices.indices))
	indices.indices = nil
	indices.len = 0
}

//export freeSymbols
func freeSymbols(symbols *C.Symbols) {
	C.free(unsafe.Pointer(symbols.symbols))
	symbols.symbols = nil
	symbols.len = 0
}

// testParse exercises the C interface, and is here rather than in the test
// package as the test package is incompatible with CGo.
func testParse(snapshotId string, seq []int64) (time.Duration, []uint32,
	[]int64) {
	idC := C.CString(snapshotId)
	defer C.free(unsafe.Pointer(idC))
	var symbolsC *C.int64_t
	if len(seq) > 0 {
		symbolsC = (*C.int64_t)(C.CBytes(types.Sequence(toSymbols(seq)).ToBin()))
		defer C.free(unsafe.Pointer(symbolsC))
	}
	start := time.Now()
	indices := parseSymbols(idC, symbolsC, C.size_t(len(seq)))
	duration := time.Since(start)
	if indices.indices == nil {
		return duration, nil, nil
	}
	defer freeIndices(&indices)
	parsed := make([]uint32, int(indices.len))
	copy(parsed, unsafe.Slice((*uint32)(unsafe.Pointer(indices.indices)),
		int(indices.len)))

	symbols := decode(idC, &indices)
	if symbols.symbols == nil {
		return duration, parsed, nil
	}
	defer freeSymbols(&symbols)
	decoded := make([]int64, int(symbols.len))
	copy(decoded, unsafe.Slice((*int64)(unsafe.Pointer(symbols.symbols)),
		int(symbols.len)))
	return duration, parsed, decoded
}

func toSymbols(seq []int64) []types.Symbol {
	out := make([]types.Symbol, len(seq))
	for i, s := range seq {
		out[i] = types.Symbol(s)
	}
	return out
}

// wrapInitSnapshot is a wrapper around initSnapshot that simulates a C call
// from golang.
func wrapInitSnapshot(snapshotId string) bool {
	idC := C.CString(snapshotId)
	defer C.free(unsafe.Pointer(idC))
	return initSnapshot(idC)
}

func main() {}
