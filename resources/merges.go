package resources

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/wbrown/byte_bpe"
	"github.com/wbrown/byte_bpe/types"
	"google.golang.org/protobuf/encoding/protowire"
)

type MergesFormat uint8

const (
	MERGES_TEXT MergesFormat = iota
	MERGES_JSON
	MERGES_BINARY
)

const MERGES_VERSION_LINE = "#version: byte_bpe 1"

// Field numbers of the binary merge table. The file is a sequence of
// field 1 messages, each {1: id, 2: left, 3: right}.
const (
	mergeEntryField protowire.Number = 1
	mergeIdField    protowire.Number = 1
	mergeLeftField  protowire.Number = 2
	mergeRightField protowire.Number = 3
)

// FormatFromPath picks a merges format from the file extension: `.json`,
// `.bpb`, and anything else is text.
func FormatFromPath(filePath string) MergesFormat {
	switch strings.ToLower(path.Ext(filePath)) {
	case ".json":
		return MERGES_JSON
	case ".bpb":
		return MERGES_BINARY
	default:
		return MERGES_TEXT
	}
}

// MarshalMergesText
// One `left right` line per merge in creation order, after a version line.
// The id of line i is 256+i.
func MarshalMergesText(table *byte_bpe.MergeTable) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, table.Len()*10+32))
	buf.WriteString(MERGES_VERSION_LINE)
	buf.WriteByte('\n')
	for _, entry := range table.Entries() {
		fmt.Fprintf(buf, "%d %d\n", entry.Pair.Left, entry.Pair.Right)
	}
	return buf.Bytes()
}

func parseSymbol(s string) (types.Symbol, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return types.Symbol(v), err
}

func UnmarshalMergesText(data []byte) (*byte_bpe.MergeTable, error) {
	table := byte_bpe.NewMergeTable()
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		left_right := strings.Fields(line)
		if len(left_right) != 2 {
			return nil, errors.New(fmt.Sprintf(
				"merges line %d: expected 2 fields, got %d", lineNo,
				len(left_right)))
		}
		left, leftErr := parseSymbol(left_right[0])
		if leftErr != nil {
			return nil, fmt.Errorf("merges line %d: %w", lineNo, leftErr)
		}
		right, rightErr := parseSymbol(left_right[1])
		if rightErr != nil {
			return nil, fmt.Errorf("merges line %d: %w", lineNo, rightErr)
		}
		if err := table.Append(table.NextId(),
			types.Pair{Left: left, Right: right}); err != nil {
			return nil, fmt.Errorf("merges line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// MarshalMergesJSON encodes the table as `[[left, right], ...]`.
func MarshalMergesJSON(table *byte_bpe.MergeTable) ([]byte, error) {
	mergesTable := make([][2]types.Symbol, 0, table.Len())
	for _, entry := range table.Entries() {
		mergesTable = append(mergesTable,
			[2]types.Symbol{entry.Pair.Left, entry.Pair.Right})
	}
	return json.Marshal(mergesTable)
}

func UnmarshalMergesJSON(data []byte) (*byte_bpe.MergeTable, error) {
	var mergesTable [][2]types.Symbol
	if err := json.Unmarshal(data, &mergesTable); err != nil {
		return nil, errors.New(fmt.Sprintf(
			"error unmarshalling merges: %s", err))
	}
	table := byte_bpe.NewMergeTable()
	for rank, merge := range mergesTable {
		if err := table.Append(table.NextId(),
			types.Pair{Left: merge[0], Right: merge[1]}); err != nil {
			return nil, fmt.Errorf("merge %d: %w", rank, err)
		}
	}
	return table, nil
}

// MarshalMergesBinary encodes the table in protobuf wire format.
func MarshalMergesBinary(table *byte_bpe.MergeTable) []byte {
	out := make([]byte, 0, table.Len()*12)
	msg := make([]byte, 0, 16)
	for _, entry := range table.Entries() {
		msg = msg[:0]
		msg = protowire.AppendTag(msg, mergeIdField, protowire.VarintType)
		msg = protowire.AppendVarint(msg, uint64(entry.Id))
		msg = protowire.AppendTag(msg, mergeLeftField, protowire.VarintType)
		msg = protowire.AppendVarint(msg, uint64(entry.Pair.Left))
		msg = protowire.AppendTag(msg, mergeRightField, protowire.VarintType)
		msg = protowire.AppendVarint(msg, uint64(entry.Pair.Right))
		out = protowire.AppendTag(out, mergeEntryField, protowire.BytesType)
		out = protowire.AppendBytes(out, msg)
	}
	return out
}

func unmarshalMergeEntry(msg []byte) (types.MergeEntry, error) {
	var entry types.MergeEntry
	seen := 0
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return entry, protowire.ParseError(n)
		}
		msg = msg[n:]
		if typ != protowire.VarintType {
			n = protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				return entry, protowire.ParseError(n)
			}
			msg = msg[n:]
			continue
		}
		v, n := protowire.ConsumeVarint(msg)
		if n < 0 {
			return entry, protowire.ParseError(n)
		}
		msg = msg[n:]
		if v > uint64(^uint32(0)) {
			return entry, errors.New(fmt.Sprintf(
				"symbol %d does not fit in 32 bits", v))
		}
		switch num {
		case mergeIdField:
			entry.Id = types.Symbol(v)
			seen |= 1
		case mergeLeftField:
			entry.Pair.Left = types.Symbol(v)
			seen |= 2
		case mergeRightField:
			entry.Pair.Right = types.Symbol(v)
			seen |= 4
		}
	}
	if seen != 7 {
		return entry, errors.New("merge entry is missing fields")
	}
	return entry, nil
}

func UnmarshalMergesBinary(data []byte) (*byte_bpe.MergeTable, error) {
	table := byte_bpe.NewMergeTable()
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]
		if num != mergeEntryField || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
			continue
		}
		msg, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]
		entry, entryErr := unmarshalMergeEntry(msg)
		if entryErr != nil {
			return nil, entryErr
		}
		if err := table.Append(entry.Id, entry.Pair); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// MarshalMerges encodes table in the given format.
func MarshalMerges(table *byte_bpe.MergeTable,
	format MergesFormat) ([]byte, error) {
	switch format {
	case MERGES_TEXT:
		return MarshalMergesText(table), nil
	case MERGES_JSON:
		return MarshalMergesJSON(table)
	case MERGES_BINARY:
		return MarshalMergesBinary(table), nil
	default:
		return nil, errors.New(fmt.Sprintf("unknown merges format %d",
			format))
	}
}

func UnmarshalMerges(data []byte,
	format MergesFormat) (*byte_bpe.MergeTable, error) {
	switch format {
	case MERGES_TEXT:
		return UnmarshalMergesText(data)
	case MERGES_JSON:
		return UnmarshalMergesJSON(data)
	case MERGES_BINARY:
		return UnmarshalMergesBinary(data)
	default:
		return nil, errors.New(fmt.Sprintf("unknown merges format %d",
			format))
	}
}

// SaveMerges
// Writes table to filePath in the format implied by its extension.
func SaveMerges(filePath string, table *byte_bpe.MergeTable) error {
	data, err := MarshalMerges(table, FormatFromPath(filePath))
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// LoadMerges
// Reads a merge table written by SaveMerges.
func LoadMerges(filePath string) (*byte_bpe.MergeTable, error) {
	rsrc, err := OpenCorpusFile(filePath)
	if err != nil {
		return nil, err
	}
	defer rsrc.Cleanup()
	return UnmarshalMerges(rsrc.Bytes(), FormatFromPath(filePath))
}
