package resources

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/wbrown/byte_bpe"
	"github.com/wbrown/byte_bpe/types"
)

// TrainConfig contains the training parameters, as read from a JSON file.
type TrainConfig struct {
	NumMerges    int    `json:"num_merges"`
	SymbolWidth  uint8  `json:"symbol_width,omitempty"`
	Workers      int    `json:"workers,omitempty"`
	MinFrequency int    `json:"min_frequency,omitempty"`
	Verbose      bool   `json:"verbose,omitempty"`
	Filter       string `json:"filter,omitempty"`
}

func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		NumMerges:    10,
		SymbolWidth:  uint8(types.Width32),
		Workers:      1,
		MinFrequency: 1,
	}
}

// LoadTrainConfig
// Reads a TrainConfig from path. Fields missing from the file keep their
// default values.
func LoadTrainConfig(path string) (*TrainConfig, error) {
	config := DefaultTrainConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if configErr := json.Unmarshal(data, &config); configErr != nil {
		return nil, errors.New(fmt.Sprintf(
			"error unmarshalling `%s`: %s", path, configErr))
	}
	config.Normalize()
	return &config, nil
}

// Normalize replaces zero values that stand for a default.
func (config *TrainConfig) Normalize() {
	if config.SymbolWidth == 0 {
		config.SymbolWidth = uint8(types.Width32)
	}
}

// Options converts the config into trainer options.
func (config *TrainConfig) Options() []byte_bpe.TrainerOption {
	opts := []byte_bpe.TrainerOption{
		byte_bpe.WithWorkers(config.Workers),
		byte_bpe.WithMinFrequency(config.MinFrequency),
		byte_bpe.WithVerbose(config.Verbose),
	}
	if config.SymbolWidth != 0 {
		opts = append(opts,
			byte_bpe.WithSymbolWidth(types.SymbolWidth(config.SymbolWidth)))
	}
	return opts
}

// NewTrainer builds a trainer from the config.
func (config *TrainConfig) NewTrainer() (*byte_bpe.Trainer, error) {
	return byte_bpe.NewTrainer(config.NumMerges, config.Options()...)
}
