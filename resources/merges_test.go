package resources

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/byte_bpe"
	"github.com/wbrown/byte_bpe/types"
	"google.golang.org/protobuf/encoding/protowire"
)

func trainedTable(t *testing.T) *byte_bpe.MergeTable {
	data, err := os.ReadFile("data/corpus/sample.txt")
	require.NoError(t, err)
	result, err := byte_bpe.Train(data, 48)
	require.NoError(t, err)
	require.Equal(t, 48, result.Merges.Len())
	return result.Merges
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, MERGES_TEXT, FormatFromPath("merges.txt"))
	assert.Equal(t, MERGES_TEXT, FormatFromPath("merges"))
	assert.Equal(t, MERGES_JSON, FormatFromPath("out/merges.JSON"))
	assert.Equal(t, MERGES_BINARY, FormatFromPath("merges.bpb"))
}

func TestMerges_RoundTrip(t *testing.T) {
	table := trainedTable(t)
	for _, format := range []MergesFormat{MERGES_TEXT, MERGES_JSON,
		MERGES_BINARY} {
		data, err := MarshalMerges(table, format)
		require.NoError(t, err)
		loaded, err := UnmarshalMerges(data, format)
		require.NoError(t, err, "format %d", format)
		assert.Equal(t, table.Entries(), loaded.Entries(),
			"format %d", format)
	}

	_, err := MarshalMerges(table, MergesFormat(9))
	assert.Error(t, err)
	_, err = UnmarshalMerges(nil, MergesFormat(9))
	assert.Error(t, err)
}

func TestMerges_SaveLoad(t *testing.T) {
	table := trainedTable(t)
	dir := t.TempDir()
	for _, name := range []string{"merges.txt", "merges.json", "merges.bpb"} {
		mergesPath := filepath.Join(dir, name)
		require.NoError(t, SaveMerges(mergesPath, table))
		loaded, err := LoadMerges(mergesPath)
		require.NoError(t, err, name)
		assert.Equal(t, table.Entries(), loaded.Entries(), name)

		// The loaded table decodes what the trained table encodes.
		input := []byte("The mill turned while the river ran.")
		decoded, decodeErr := loaded.Decode(table.Encode(input))
		require.NoError(t, decodeErr)
		assert.Equal(t, input, decoded)
	}

	// An empty table is written and read back too.
	emptyPath := filepath.Join(dir, "empty.bpb")
	require.NoError(t, SaveMerges(emptyPath, byte_bpe.NewMergeTable()))
	loaded, err := LoadMerges(emptyPath)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())

	_, err = LoadMerges(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestUnmarshalMergesText(t *testing.T) {
	data := []byte(MERGES_VERSION_LINE + "\n97 97\n\n# comment\n256 98\n")
	table, err := UnmarshalMergesText(data)
	require.NoError(t, err)
	assert.Equal(t, []types.MergeEntry{
		{Id: 256, Pair: types.Pair{Left: 97, Right: 97}},
		{Id: 257, Pair: types.Pair{Left: 256, Right: 98}},
	}, table.Entries())

	var tests = []struct {
		name  string
		input string
	}{
		{"forward reference", "97 257\n"},
		{"self reference", "97 97\n257 97\n"},
		{"three fields", "97 97 97\n"},
		{"not a number", "a b\n"},
		{"negative", "-1 97\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalMergesText([]byte(tt.input))
			assert.Error(t, err)
		})
	}

	_, err = UnmarshalMergesText([]byte("97 300\n"))
	assert.True(t, errors.Is(err, byte_bpe.ErrInvalidPair))
}

func TestUnmarshalMergesJSON(t *testing.T) {
	table, err := UnmarshalMergesJSON([]byte(`[[104, 105], [256, 33]]`))
	require.NoError(t, err)
	expanded, err := table.Expand(257)
	require.NoError(t, err)
	assert.Equal(t, "hi!", string(expanded))

	_, err = UnmarshalMergesJSON([]byte(`[[104, 258]]`))
	assert.True(t, errors.Is(err, byte_bpe.ErrInvalidPair))
	_, err = UnmarshalMergesJSON([]byte(`{"merges": []}`))
	assert.Error(t, err)
}

func appendEntry(out []byte, fields ...uint64) []byte {
	msg := make([]byte, 0, 16)
	for idx, v := range fields {
		msg = protowire.AppendTag(msg, protowire.Number(idx+1),
			protowire.VarintType)
		msg = protowire.AppendVarint(msg, v)
	}
	out = protowire.AppendTag(out, mergeEntryField, protowire.BytesType)
	return protowire.AppendBytes(out, msg)
}

func TestUnmarshalMergesBinary(t *testing.T) {
	data := appendEntry(nil, 256, 'a', 'b')
	// Unknown top-level fields are skipped.
	data = protowire.AppendTag(data, 7, protowire.BytesType)
	data = protowire.AppendString(data, "trained on sample.txt")
	data = appendEntry(data, 257, 256, 'c')
	table, err := UnmarshalMergesBinary(data)
	require.NoError(t, err)
	expanded, err := table.Expand(257)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(expanded))

	// Ids out of order.
	_, err = UnmarshalMergesBinary(appendEntry(nil, 257, 'a', 'b'))
	assert.True(t, errors.Is(err, byte_bpe.ErrNonMonotonicId))

	// Missing right half.
	_, err = UnmarshalMergesBinary(appendEntry(nil, 256, 'a'))
	assert.Error(t, err)

	// Truncated.
	_, err = UnmarshalMergesBinary(data[:len(data)-1])
	assert.Error(t, err)
}
