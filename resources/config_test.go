package resources

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/byte_bpe"
	"github.com/wbrown/byte_bpe/types"
)

func TestLoadTrainConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.json")
	writeFile(t, path, `{"num_merges": 300, "symbol_width": 16, "workers": 4}`)

	config, err := LoadTrainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 300, config.NumMerges)
	assert.Equal(t, uint8(16), config.SymbolWidth)
	assert.Equal(t, 4, config.Workers)
	// Defaults survive for fields the file leaves out.
	assert.Equal(t, 1, config.MinFrequency)
	assert.Equal(t, "", config.Filter)

	trainer, err := config.NewTrainer()
	require.NoError(t, err)
	assert.Equal(t, types.Width16, trainer.Width())
	assert.Equal(t, 300, trainer.NumMerges())

	zeroPath := filepath.Join(dir, "zero.json")
	writeFile(t, zeroPath, `{"num_merges": 5, "symbol_width": 0}`)
	config, err = LoadTrainConfig(zeroPath)
	require.NoError(t, err)
	assert.Equal(t, uint8(types.Width32), config.SymbolWidth)

	badPath := filepath.Join(dir, "bad.json")
	writeFile(t, badPath, `{"num_merges": "many"}`)
	_, err = LoadTrainConfig(badPath)
	assert.Error(t, err)

	_, err = LoadTrainConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestTrainConfig_NewTrainer(t *testing.T) {
	config := DefaultTrainConfig()
	trainer, err := config.NewTrainer()
	require.NoError(t, err)
	assert.Equal(t, 10, trainer.NumMerges())
	assert.Equal(t, types.Width32, trainer.Width())

	config.SymbolWidth = 8
	_, err = config.NewTrainer()
	assert.True(t, errors.Is(err, byte_bpe.ErrSymbolSpaceOverflow))

	config.SymbolWidth = 12
	_, err = config.NewTrainer()
	assert.True(t, errors.Is(err, byte_bpe.ErrInvalidSymbolWidth))

	config = DefaultTrainConfig()
	config.NumMerges = -3
	_, err = config.NewTrainer()
	assert.True(t, errors.Is(err, byte_bpe.ErrNegativeMerges))
}
