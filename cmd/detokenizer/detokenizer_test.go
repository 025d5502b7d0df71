package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/byte_bpe"
	"github.com/wbrown/byte_bpe/types"
)

func TestDetokenize(t *testing.T) {
	corpus, err := os.ReadFile("../../resources/data/corpus/sample.txt")
	require.NoError(t, err)
	// Long enough to take several reads.
	corpus = bytes.Repeat(corpus, 20)
	result, err := byte_bpe.Train(corpus, 30)
	require.NoError(t, err)

	for _, width := range []types.SymbolWidth{types.Width16, types.Width32} {
		bin, binErr := result.Tokens.ToBin(width)
		require.NoError(t, binErr)
		var output bytes.Buffer
		require.NoError(t, detokenize(result.Merges, bytes.NewReader(*bin),
			&output, width))
		assert.Equal(t, corpus, output.Bytes(), "width=%d", width)
	}
}

func TestDetokenize_Errors(t *testing.T) {
	table := byte_bpe.NewMergeTable()
	var output bytes.Buffer

	// Symbol 300 was never learned.
	err := detokenize(table, bytes.NewReader([]byte{0x2c, 0x01}), &output,
		types.Width16)
	assert.ErrorIs(t, err, byte_bpe.ErrUnknownSymbol)

	// Trailing half symbol.
	err = detokenize(table, bytes.NewReader([]byte{'h', 0, 'i'}), &output,
		types.Width16)
	assert.Error(t, err)

	output.Reset()
	require.NoError(t, detokenize(table, bytes.NewReader([]byte("hi")),
		&output, types.Width8))
	assert.Equal(t, "hi", output.String())
}
