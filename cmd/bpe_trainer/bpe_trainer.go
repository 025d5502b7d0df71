package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/wbrown/byte_bpe"
	"github.com/wbrown/byte_bpe/resources"
	"github.com/wbrown/byte_bpe/types"
)

// TrainJob
// Everything needed for one training run, after flags and config are merged.
type TrainJob struct {
	Input      string
	Config     resources.TrainConfig
	MergesPath string
	TokensPath string
	S3Region   string
	Show       bool
}

// applyFlags overrides config values with the flags the user actually set.
func applyFlags(config *resources.TrainConfig, set map[string]bool,
	numMerges int, width uint, workers int, minFrequency int,
	filter string, verbose bool) {
	if set["merges"] {
		config.NumMerges = numMerges
	}
	if set["width"] {
		config.SymbolWidth = uint8(width)
	}
	if set["workers"] {
		config.Workers = workers
	}
	if set["min_frequency"] {
		config.MinFrequency = minFrequency
	}
	if set["filter"] {
		config.Filter = filter
	}
	if set["verbose"] {
		config.Verbose = verbose
	}
}

// formatSymbols renders symbols the way the trainer prints them: `[id]`
// separated by spaces.
func formatSymbols(symbols byte_bpe.Symbols) string {
	var sb strings.Builder
	for idx, sym := range symbols {
		if idx > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "[%d]", sym)
	}
	return sb.String()
}

// Run trains on the job's input and writes its outputs.
func (job *TrainJob) Run(ctx context.Context) (*byte_bpe.TrainResult, error) {
	trainer, trainerErr := job.Config.NewTrainer()
	if trainerErr != nil {
		return nil, trainerErr
	}

	var s3Client resources.S3Client
	if resources.IsS3Uri(job.Input) {
		var s3Err error
		if s3Client, s3Err = resources.NewS3Client(job.S3Region); s3Err != nil {
			return nil, s3Err
		}
	}
	rsrc, fetchErr := resources.FetchCorpus(job.Input, s3Client)
	if fetchErr != nil {
		return nil, fetchErr
	}
	defer rsrc.Cleanup()

	data, filterErr := ApplyFilter(job.Config.Filter, rsrc.Bytes())
	if filterErr != nil {
		return nil, filterErr
	}
	log.Printf("Training input: %s (%s)", job.Input,
		humanize.Bytes(uint64(len(data))))

	result, trainErr := trainer.TrainContext(ctx, data)
	if trainErr != nil && !errors.Is(trainErr, context.Canceled) {
		return nil, trainErr
	} else if trainErr != nil {
		log.Printf("Interrupted after %d merges, writing partial results",
			result.Performed)
	}

	if job.MergesPath != "" {
		if saveErr := resources.SaveMerges(job.MergesPath,
			result.Merges); saveErr != nil {
			return nil, saveErr
		}
		log.Printf("Wrote %d merges to %s", result.Merges.Len(),
			job.MergesPath)
	}
	if job.TokensPath != "" {
		bin, binErr := result.Tokens.ToBin(trainer.Width())
		if binErr != nil {
			return nil, binErr
		}
		if writeErr := os.WriteFile(job.TokensPath, *bin,
			0644); writeErr != nil {
			return nil, writeErr
		}
		log.Printf("Wrote %s symbols (%s) to %s",
			humanize.Comma(int64(len(result.Tokens))),
			humanize.Bytes(uint64(len(*bin))), job.TokensPath)
	}
	return result, trainErr
}

func main() {
	inputUri := flag.String("input", "",
		"corpus to train on: file, directory of .txt files, http(s) URL, "+
			"s3://bucket/prefix, or embedded:<name>")
	configPath := flag.String("config", "",
		"JSON training configuration, overridden by flags")
	numMerges := flag.Int("merges", 10, "number of merges to learn")
	width := flag.Uint("width", 32, "symbol width in bits [8, 16, 32]")
	workers := flag.Int("workers", 1,
		"goroutines used to count pairs in each iteration")
	minFrequency := flag.Int("min_frequency", 1,
		"stop once the most frequent pair occurs fewer times than this")
	filter := flag.String("filter", "none",
		"input filter [none, alpha, sanitize]")
	verbose := flag.Bool("verbose", false, "log training progress")
	mergesPath := flag.String("output", "merges.txt",
		"merge table output, format by extension [.txt, .json, .bpb]")
	tokensPath := flag.String("tokens", "",
		"write the trained token sequence to this file")
	s3Region := flag.String("s3_region", os.Getenv("AWS_REGION"),
		"region for s3:// inputs")
	show := flag.Bool("show", false, "print the trained token sequence")
	flag.Parse()

	if *inputUri == "" {
		flag.Usage()
		log.Fatal("Must provide -input")
	}

	config := resources.DefaultTrainConfig()
	if *configPath != "" {
		loaded, configErr := resources.LoadTrainConfig(*configPath)
		if configErr != nil {
			log.Fatal(configErr)
		}
		config = *loaded
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	applyFlags(&config, set, *numMerges, *width, *workers, *minFrequency,
		*filter, *verbose)
	config.Normalize()
	if !types.SymbolWidth(config.SymbolWidth).Valid() {
		log.Fatal("Invalid symbol width, must be 8, 16 or 32")
	}

	log.Printf("Training definition: %d merges, %d-bit symbols, "+
		"%d workers", config.NumMerges, config.SymbolWidth, config.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	job := TrainJob{
		Input:      *inputUri,
		Config:     config,
		MergesPath: *mergesPath,
		TokensPath: *tokensPath,
		S3Region:   *s3Region,
		Show:       *show,
	}
	begin := time.Now()
	result, err := job.Run(ctx)
	if err != nil && result == nil {
		log.Fatal(err)
	}
	if job.Show {
		fmt.Println("Compressed tokens:")
		fmt.Println(formatSymbols(result.Tokens))
	}
	duration := time.Now().Sub(begin).Seconds()
	log.Printf("%d/%d merges in %0.2fs, %s bytes -> %s symbols, "+
		"compression ratio %0.3f", result.Performed, result.Requested,
		duration, humanize.Comma(int64(result.InputLength)),
		humanize.Comma(int64(len(result.Tokens))), result.CompressionRatio())
	if result.Exhausted() && err == nil {
		log.Printf("Ran out of pairs after %d merges", result.Performed)
	}
}
