package byte_bpe

import (
	"fmt"

	"github.com/wbrown/byte_bpe/types"
)

// EncodeBuffer
// Encodes buffer with the table and serializes the symbols as
// little-endian integers of the given width.
func (table *MergeTable) EncodeBuffer(buffer []byte,
	width SymbolWidth) ([]byte, error) {
	if !width.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSymbolWidth, width)
	}
	if uint64(table.NextId()) > width.Capacity() {
		return nil, &SymbolOverflowError{table.Len(), width}
	}
	encoded := table.Encode(buffer)
	bin, err := encoded.ToBin(width)
	if err != nil {
		return nil, err
	}
	return *bin, nil
}

// DecodeBuffer
// Decodes little-endian symbols of the given width back into bytes.
func (table *MergeTable) DecodeBuffer(encoded []byte,
	width SymbolWidth) ([]byte, error) {
	symbols, err := types.SymbolsFromBin(&encoded, width)
	if err != nil {
		return nil, err
	}
	return table.Decode(*symbols)
}

// SymbolsReady
// Reports whether the bytes of seq end on a complete UTF-8 sequence, so
// that it can be printed without splitting a rune.
func (table *MergeTable) SymbolsReady(seq Symbols) bool {
	decoded, err := table.Decode(seq)
	if err != nil {
		return false
	}
	need := 0
	for _, c := range decoded {
		if (c & 0b10000000) == 0 {
			need = 0
		} else if (c & 0b11000000) == 0b10000000 {
			need -= 1
		} else if (c & 0b11100000) == 0b11000000 {
			need = 1
		} else if (c & 0b11110000) == 0b11100000 {
			need = 2
		} else if (c & 0b11111000) == 0b11110000 {
			need = 3
		}
	}
	return need <= 0
}
