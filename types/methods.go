package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

func (symbols *Symbols) ToBin(width SymbolWidth) (*[]byte, error) {
	switch width {
	case Width8:
		return symbols.ToBinUint8()
	case Width16:
		return symbols.ToBinUint16()
	case Width32:
		return symbols.ToBinUint32()
	default:
		return nil, fmt.Errorf("unsupported symbol width: %d", width)
	}
}

func (symbols *Symbols) ToBinUint8() (*[]byte, error) {
	byt := make([]byte, len(*symbols))
	for idx, sym := range *symbols {
		if sym > 255 {
			return nil, fmt.Errorf("integer overflow: tried to write symbol %d as unsigned 8-bit", sym)
		}
		byt[idx] = byte(sym)
	}
	return &byt, nil
}

func (symbols *Symbols) ToBinUint16() (*[]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(*symbols)*2))
	for idx := range *symbols {
		sym := (*symbols)[idx]
		if sym > 65535 {
			return nil, fmt.Errorf("integer overflow: tried to write symbol %d as unsigned 16-bit", sym)
		}
		err := binary.Write(buf, binary.LittleEndian, uint16(sym))
		if err != nil {
			return nil, err
		}
	}
	byt := buf.Bytes()
	return &byt, nil
}

func (symbols *Symbols) ToBinUint32() (*[]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(*symbols)*4))
	for idx := range *symbols {
		err := binary.Write(buf, binary.LittleEndian, uint32((*symbols)[idx]))
		if err != nil {
			return nil, err
		}
	}
	byt := buf.Bytes()
	return &byt, nil
}

// SymbolsFromBin reads little-endian symbols of the given width. A trailing
// partial symbol is an error.
func SymbolsFromBin(bin *[]byte, width SymbolWidth) (*Symbols, error) {
	if !width.Valid() {
		return nil, fmt.Errorf("unsupported symbol width: %d", width)
	}
	size := width.Bytes()
	if len(*bin)%size != 0 {
		return nil, fmt.Errorf("binary length %d is not a multiple of %d",
			len(*bin), size)
	}
	symbols := make(Symbols, 0, len(*bin)/size)
	buf := bytes.NewReader(*bin)
	for {
		var sym Symbol
		var err error
		switch width {
		case Width8:
			var b uint8
			err = binary.Read(buf, binary.LittleEndian, &b)
			sym = Symbol(b)
		case Width16:
			var s uint16
			err = binary.Read(buf, binary.LittleEndian, &s)
			sym = Symbol(s)
		case Width32:
			var s uint32
			err = binary.Read(buf, binary.LittleEndian, &s)
			sym = Symbol(s)
		}
		if err != nil {
			break
		}
		symbols = append(symbols, sym)
	}
	return &symbols, nil
}
