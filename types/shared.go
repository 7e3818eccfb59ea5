package types

// Symbol is an opaque integer code, the atomic unit of a sequence.
type Symbol int64
type Sequence []Symbol

// Index is the dense position of a gram inside a frozen dictionary.
type Index uint32
type Indices []Index

const (
	IndexSize    = 2
	Index32Size  = 4
	SymbolSize   = 8
	MaxIndex16   = 65535
	SymbolFields = " \t,"
)
