package types

// Symbol is a token id. Ids 0-255 are raw bytes, ids from 256 upward are
// merges in the order they were learned.
type Symbol uint32
type Symbols []Symbol

const (
	NumBytes     = 256
	FirstMergeId = Symbol(NumBytes)
)

// Pair is an ordered pair of adjacent symbols.
type Pair struct {
	Left  Symbol
	Right Symbol
}

// MergeEntry records that Id replaced Pair.
type MergeEntry struct {
	Id   Symbol
	Pair Pair
}

// SymbolWidth is the number of bits a symbol is stored in.
type SymbolWidth uint8

const (
	Width8  SymbolWidth = 8
	Width16 SymbolWidth = 16
	Width32 SymbolWidth = 32
)

// Valid reports whether w is one of the supported widths.
func (w SymbolWidth) Valid() bool {
	return w == Width8 || w == Width16 || w == Width32
}

// Capacity is the number of distinct symbols representable in w bits.
func (w SymbolWidth) Capacity() uint64 {
	return uint64(1) << uint(w)
}

// Bytes is the size in bytes of one symbol stored at width w.
func (w SymbolWidth) Bytes() int {
	return int(w) / 8
}

// BytesToSymbols maps each byte to the symbol of the same value.
func BytesToSymbols(data []byte) Symbols {
	symbols := make(Symbols, len(data))
	for idx, b := range data {
		symbols[idx] = Symbol(b)
	}
	return symbols
}

// IsByte reports whether s is one of the 256 base symbols.
func (s Symbol) IsByte() bool {
	return s < FirstMergeId
}
