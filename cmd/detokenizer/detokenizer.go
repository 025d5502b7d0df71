package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/wbrown/byte_bpe"
	"github.com/wbrown/byte_bpe/resources"
	"github.com/wbrown/byte_bpe/types"
)

// detokenize decodes a stream of width-bit symbols from input into output.
func detokenize(table *byte_bpe.MergeTable, input io.Reader,
	output io.Writer, width types.SymbolWidth) error {
	// Read a whole number of symbols at a time.
	buf := make([]byte, 4096*width.Bytes())
	for {
		n, readErr := io.ReadFull(input, buf)
		if n > 0 {
			decoded, err := table.DecodeBuffer(buf[:n], width)
			if err != nil {
				return err
			}
			if _, err = output.Write(decoded); err != nil {
				return err
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			return nil
		} else if readErr != nil {
			return readErr
		}
	}
}

func main() {
	mergesPath := flag.String("merges", "merges.txt",
		"merge table the tokens were produced with")
	inputFile := flag.String("input", "",
		"input file of tokens to detokenize")
	outputFile := flag.String("output", "detokenized.txt",
		"output file to write detokenized data")
	width := flag.Uint("width", 32, "symbol width in bits [8, 16, 32]")
	flag.Parse()

	if *inputFile == "" {
		flag.Usage()
		log.Fatal("Must provide -input")
	}
	if *outputFile == "" {
		flag.Usage()
		log.Fatal("Must provide -output")
	}
	symbolWidth := types.SymbolWidth(*width)
	if !symbolWidth.Valid() {
		log.Fatal("Invalid symbol width, must be 8, 16 or 32")
	}

	// check if input file exists
	if _, err := os.Stat(*inputFile); os.IsNotExist(err) {
		log.Fatal("Input file does not exist")
	}

	table, err := resources.LoadMerges(*mergesPath)
	if err != nil {
		log.Fatal(err)
	}

	inputFileHandle, err := os.Open(*inputFile)
	if err != nil {
		log.Fatal(err)
	}
	defer inputFileHandle.Close()

	outputFileHandle, err := os.Create(*outputFile)
	if err != nil {
		log.Fatal(err)
	}
	defer outputFileHandle.Close()

	if err := detokenize(table, inputFileHandle, outputFileHandle,
		symbolWidth); err != nil {
		log.Fatal(err)
	}
}
