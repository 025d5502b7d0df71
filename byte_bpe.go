package byte_bpe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/wbrown/byte_bpe/types"
)

type Symbol = types.Symbol
type Symbols = types.Symbols
type Pair = types.Pair
type MergeEntry = types.MergeEntry
type SymbolWidth = types.SymbolWidth

const FirstMergeId = types.FirstMergeId

// Log every LOG_EVERY merges when verbose.
const LOG_EVERY = 100

var (
	ErrNegativeMerges      = errors.New("byte_bpe: number of merges must not be negative")
	ErrInvalidSymbolWidth  = errors.New("byte_bpe: unsupported symbol width")
	ErrSymbolSpaceOverflow = errors.New("byte_bpe: symbol space overflow")
	ErrNonMonotonicId      = errors.New("byte_bpe: merge ids must be contiguous from 256")
	ErrInvalidPair         = errors.New("byte_bpe: merge pair references an unknown symbol")
	ErrUnknownSymbol       = errors.New("byte_bpe: unknown symbol")
)

// SymbolOverflowError
// Returned when 256 + NumMerges ids do not fit in Width bits.
type SymbolOverflowError struct {
	NumMerges int
	Width     SymbolWidth
}

func (e *SymbolOverflowError) Error() string {
	return fmt.Sprintf("%v: 256 + %d merges exceeds the %d symbols of a "+
		"%d-bit symbol", ErrSymbolSpaceOverflow, e.NumMerges,
		e.Width.Capacity(), e.Width)
}

func (e *SymbolOverflowError) Unwrap() error {
	return ErrSymbolSpaceOverflow
}

// BytesToSymbols maps each input byte to its base symbol.
func BytesToSymbols(data []byte) Symbols {
	return types.BytesToSymbols(data)
}

// MergeStep describes one completed training iteration.
type MergeStep struct {
	Iteration int
	Id        Symbol
	Pair      Pair
	Count     int
	Replaced  int
	Length    int
}

type Trainer struct {
	numMerges    int
	width        SymbolWidth
	workers      int
	minFrequency int
	verbose      bool
	progress     func(MergeStep)
}

type TrainerOption func(*Trainer)

// WithSymbolWidth sets the width the trained symbols must fit in.
func WithSymbolWidth(width SymbolWidth) TrainerOption {
	return func(t *Trainer) {
		t.width = width
	}
}

// WithWorkers counts pairs on up to n goroutines per iteration.
func WithWorkers(n int) TrainerOption {
	return func(t *Trainer) {
		t.workers = n
	}
}

// WithMinFrequency stops training once the best pair occurs fewer than n
// times.
func WithMinFrequency(n int) TrainerOption {
	return func(t *Trainer) {
		t.minFrequency = n
	}
}

func WithVerbose(verbose bool) TrainerOption {
	return func(t *Trainer) {
		t.verbose = verbose
	}
}

// WithProgress calls fn after every completed merge.
func WithProgress(fn func(MergeStep)) TrainerOption {
	return func(t *Trainer) {
		t.progress = fn
	}
}

// NewTrainer
// Returns a Trainer for numMerges merges. The symbol width's capacity is
// checked against 256 + numMerges here, before any training happens.
func NewTrainer(numMerges int, opts ...TrainerOption) (*Trainer, error) {
	trainer := &Trainer{
		numMerges:    numMerges,
		width:        types.Width32,
		workers:      1,
		minFrequency: 1,
	}
	for _, opt := range opts {
		opt(trainer)
	}
	if numMerges < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeMerges, numMerges)
	}
	if !trainer.width.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSymbolWidth, trainer.width)
	}
	if uint64(types.NumBytes)+uint64(numMerges) > trainer.width.Capacity() {
		return nil, &SymbolOverflowError{numMerges, trainer.width}
	}
	if trainer.minFrequency < 1 {
		trainer.minFrequency = 1
	}
	return trainer, nil
}

func (trainer *Trainer) NumMerges() int {
	return trainer.numMerges
}

func (trainer *Trainer) Width() SymbolWidth {
	return trainer.width
}

// TrainResult is the output of one training run.
type TrainResult struct {
	Tokens      Symbols
	Merges      *MergeTable
	Requested   int
	Performed   int
	InputLength int
}

// Exhausted reports whether training ran out of pairs before performing
// every requested merge.
func (result *TrainResult) Exhausted() bool {
	return result.Performed < result.Requested
}

// CompressionRatio is input bytes per output token.
func (result *TrainResult) CompressionRatio() float64 {
	if len(result.Tokens) == 0 {
		return 0
	}
	return float64(result.InputLength) / float64(len(result.Tokens))
}

// Train
// Trains on data with the default options.
func Train(data []byte, numMerges int) (*TrainResult, error) {
	trainer, err := NewTrainer(numMerges)
	if err != nil {
		return nil, err
	}
	return trainer.Train(data)
}

func (trainer *Trainer) Train(data []byte) (*TrainResult, error) {
	return trainer.TrainContext(context.Background(), data)
}

func (trainer *Trainer) countPairs(ctx context.Context,
	seq Symbols) (*FrequencyTable, error) {
	if trainer.workers > 1 {
		return CountPairsParallel(ctx, seq, trainer.workers)
	}
	return CountPairs(seq), nil
}

// TrainContext
// Runs the training loop: count pairs, pick the top pair, merge it under
// a fresh id, record it, repeat. Pairs are recounted every iteration.
// Training stops early, without error, when no pair is left. If ctx is
// done between iterations, the result of every completed iteration is
// returned along with ctx's error.
func (trainer *Trainer) TrainContext(ctx context.Context,
	data []byte) (*TrainResult, error) {
	result := &TrainResult{
		Tokens:      BytesToSymbols(data),
		Merges:      NewMergeTable(),
		Requested:   trainer.numMerges,
		InputLength: len(data),
	}
	begin := time.Now()
	if trainer.verbose {
		log.Printf("Training %d merges on %s of input", trainer.numMerges,
			humanize.Bytes(uint64(len(data))))
	}

	nextId := FirstMergeId
	for iteration := 0; iteration < trainer.numMerges; iteration++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if len(result.Tokens) < 2 {
			break
		}
		counts, countErr := trainer.countPairs(ctx, result.Tokens)
		if countErr != nil {
			return result, countErr
		}
		top, ok := TopPair(counts)
		if !ok || top.Count < trainer.minFrequency {
			break
		}
		merged, replaced := MergePairCount(result.Tokens, top.Pair, nextId)
		if err := result.Merges.Append(nextId, top.Pair); err != nil {
			return nil, err
		}
		result.Tokens = merged
		result.Performed++

		step := MergeStep{
			Iteration: iteration,
			Id:        nextId,
			Pair:      top.Pair,
			Count:     top.Count,
			Replaced:  replaced,
			Length:    len(merged),
		}
		if trainer.progress != nil {
			trainer.progress(step)
		}
		if trainer.verbose && (iteration+1)%LOG_EVERY == 0 {
			log.Printf("Merge %s/%s: (%d, %d) -> %d, %s occurrences, "+
				"%s symbols remain", humanize.Comma(int64(iteration+1)),
				humanize.Comma(int64(trainer.numMerges)), top.Pair.Left,
				top.Pair.Right, nextId, humanize.Comma(int64(top.Count)),
				humanize.Comma(int64(len(merged))))
		}
		nextId++
	}

	if trainer.verbose {
		log.Printf("Performed %d of %d merges in %0.2fs, %s bytes -> %s "+
			"symbols (%0.2fx)", result.Performed, result.Requested,
			time.Since(begin).Seconds(),
			humanize.Comma(int64(result.InputLength)),
			humanize.Comma(int64(len(result.Tokens))),
			result.CompressionRatio())
	}
	return result, nil
}
