package byte_bpe

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/byte_bpe/types"
)

const corpusPath = "resources/data/corpus/sample.txt"

var corpus = handleRead(corpusPath)

func handleRead(path string) []byte {
	if textBytes, err := os.ReadFile(path); err != nil {
		log.Fatalf("Error opening `%s`: %v", path, err)
	} else {
		return textBytes
	}
	return nil
}

// "aaabdaaabac" merges (a a), then (256 a), then (257 b).
var wikiInput = []byte("aaabdaaabac")

func TestTrain_WikiExample(t *testing.T) {
	result, err := Train(wikiInput, 3)
	require.NoError(t, err)
	assert.Equal(t, Symbols{258, 'd', 258, 'a', 'c'}, result.Tokens)
	assert.Equal(t, []MergeEntry{
		{256, Pair{'a', 'a'}},
		{257, Pair{256, 'a'}},
		{258, Pair{257, 'b'}},
	}, result.Merges.Entries())
	assert.Equal(t, 3, result.Performed)
	assert.False(t, result.Exhausted())
}

func TestTrain_ZeroMerges(t *testing.T) {
	result, err := Train(wikiInput, 0)
	require.NoError(t, err)
	assert.Equal(t, BytesToSymbols(wikiInput), result.Tokens)
	assert.Equal(t, 0, result.Merges.Len())
	assert.Equal(t, 0, result.Performed)
}

func TestTrain_Overlap(t *testing.T) {
	result, err := Train([]byte{0x61, 0x61, 0x61}, 1)
	require.NoError(t, err)
	assert.Equal(t, Symbols{256, 0x61}, result.Tokens)
	pair, ok := result.Merges.Lookup(256)
	assert.True(t, ok)
	assert.Equal(t, Pair{0x61, 0x61}, pair)
}

func TestTrain_EmptyInput(t *testing.T) {
	result, err := Train([]byte{}, 5)
	require.NoError(t, err)
	assert.Empty(t, result.Tokens)
	assert.Equal(t, 0, result.Merges.Len())
	assert.True(t, result.Exhausted())
	assert.Equal(t, 0.0, result.CompressionRatio())
}

func TestTrain_EarlyStop(t *testing.T) {
	result, err := Train([]byte{'x'}, 5)
	require.NoError(t, err)
	assert.Equal(t, Symbols{'x'}, result.Tokens)
	assert.Equal(t, 0, result.Performed)
	assert.Equal(t, 5, result.Requested)
	assert.True(t, result.Exhausted())

	// Collapses to a single symbol after one merge.
	result, err = Train([]byte("ab"), 5)
	require.NoError(t, err)
	assert.Equal(t, Symbols{256}, result.Tokens)
	assert.Equal(t, 1, result.Performed)
}

func TestTrain_TieBreak(t *testing.T) {
	result, err := Train([]byte{1, 2, 3, 4}, 1)
	require.NoError(t, err)
	assert.Equal(t, Symbols{256, 3, 4}, result.Tokens)
	pair, _ := result.Merges.Lookup(256)
	assert.Equal(t, Pair{1, 2}, pair)

	// (3 4) occurs first, so it wins over the equally frequent (1 2).
	result, err = Train([]byte{3, 4, 1, 2, 3, 4, 1, 2}, 1)
	require.NoError(t, err)
	pair, _ = result.Merges.Lookup(256)
	assert.Equal(t, Pair{3, 4}, pair)
}

func TestTrain_Corpus(t *testing.T) {
	const numMerges = 64
	result, err := Train(corpus, numMerges)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(result.Tokens), len(corpus))
	assert.Less(t, len(result.Tokens), len(corpus))
	assert.Equal(t, numMerges, result.Performed)
	assert.Greater(t, result.CompressionRatio(), 1.0)

	// Ids are contiguous from 256.
	for idx, entry := range result.Merges.Entries() {
		assert.Equal(t, FirstMergeId+Symbol(idx), entry.Id)
	}
	assert.NoError(t, result.Merges.Validate())

	decoded, decodeErr := result.Merges.Decode(result.Tokens)
	require.NoError(t, decodeErr)
	assert.Equal(t, corpus, decoded)

	// Replaying the merges on the same input gives the trained tokens.
	assert.Equal(t, result.Tokens, result.Merges.Encode(corpus))
}

func TestTrain_Deterministic(t *testing.T) {
	first, err := Train(corpus, 40)
	require.NoError(t, err)
	for run := 0; run < 3; run++ {
		again, againErr := Train(corpus, 40)
		require.NoError(t, againErr)
		assert.Equal(t, first.Tokens, again.Tokens)
		assert.Equal(t, first.Merges.Entries(), again.Merges.Entries())
	}
}

func TestTrain_NoRepeatedPairs(t *testing.T) {
	input := []byte("abcdefg")
	result, err := Train(input, 0)
	require.NoError(t, err)
	assert.Equal(t, len(input), len(result.Tokens))

	// Every pair occurs once, merges still happen.
	result, err = Train(input, 1)
	require.NoError(t, err)
	assert.Equal(t, len(input)-1, len(result.Tokens))
}

func TestNewTrainer_Validation(t *testing.T) {
	_, err := NewTrainer(-1)
	assert.True(t, errors.Is(err, ErrNegativeMerges))

	_, err = NewTrainer(1, WithSymbolWidth(12))
	assert.True(t, errors.Is(err, ErrInvalidSymbolWidth))

	_, err = NewTrainer(0, WithSymbolWidth(types.Width8))
	assert.NoError(t, err)

	_, err = NewTrainer(1, WithSymbolWidth(types.Width8))
	assert.True(t, errors.Is(err, ErrSymbolSpaceOverflow))
	var overflow *SymbolOverflowError
	require.True(t, errors.As(err, &overflow))
	assert.Equal(t, 1, overflow.NumMerges)
	assert.Equal(t, types.Width8, overflow.Width)

	_, err = NewTrainer(65536-256, WithSymbolWidth(types.Width16))
	assert.NoError(t, err)
	_, err = NewTrainer(65536-255, WithSymbolWidth(types.Width16))
	assert.True(t, errors.Is(err, ErrSymbolSpaceOverflow))

	trainer, err := NewTrainer(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, types.Width32, trainer.Width())
	assert.Equal(t, 1<<20, trainer.NumMerges())
}

func TestTrainer_MinFrequency(t *testing.T) {
	trainer, err := NewTrainer(10, WithMinFrequency(2))
	require.NoError(t, err)
	result, err := trainer.Train(wikiInput)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Performed)
	assert.True(t, result.Exhausted())
	assert.Equal(t, Symbols{258, 'd', 258, 'a', 'c'}, result.Tokens)
}

func TestTrainer_Progress(t *testing.T) {
	steps := make([]MergeStep, 0)
	trainer, err := NewTrainer(3, WithProgress(func(step MergeStep) {
		steps = append(steps, step)
	}))
	require.NoError(t, err)
	_, err = trainer.Train(wikiInput)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, MergeStep{0, 256, Pair{'a', 'a'}, 4, 2, 9}, steps[0])
	assert.Equal(t, MergeStep{1, 257, Pair{256, 'a'}, 2, 2, 7}, steps[1])
	assert.Equal(t, MergeStep{2, 258, Pair{257, 'b'}, 2, 2, 5}, steps[2])
}

func TestTrainer_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	trainer, err := NewTrainer(10)
	require.NoError(t, err)
	result, err := trainer.TrainContext(ctx, wikiInput)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, result.Performed)
	assert.Equal(t, BytesToSymbols(wikiInput), result.Tokens)

	// Cancelling mid-run keeps every completed merge.
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	trainer, err = NewTrainer(10, WithProgress(func(step MergeStep) {
		if step.Iteration == 1 {
			cancel()
		}
	}))
	require.NoError(t, err)
	result, err = trainer.TrainContext(ctx, wikiInput)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, result.Performed)
	assert.Equal(t, 2, result.Merges.Len())
	decoded, decodeErr := result.Merges.Decode(result.Tokens)
	require.NoError(t, decodeErr)
	assert.Equal(t, wikiInput, decoded)
}

func TestTrainer_ParallelMatchesSequential(t *testing.T) {
	input := bytes.Repeat(corpus, (PARALLEL_MIN_SZ*2)/len(corpus)+1)
	sequential, err := Train(input, 12)
	require.NoError(t, err)

	trainer, err := NewTrainer(12, WithWorkers(4))
	require.NoError(t, err)
	parallel, err := trainer.Train(input)
	require.NoError(t, err)

	assert.Equal(t, sequential.Merges.Entries(), parallel.Merges.Entries())
	assert.Equal(t, sequential.Tokens, parallel.Tokens)
}
