package main

import (
	"flag"
	"log"
	"os"

	"github.com/wbrown/byte_bpe"
	"github.com/wbrown/byte_bpe/resources"
	"github.com/wbrown/byte_bpe/types"
)

// Retokenizer decodes symbols with one merge table and encodes the bytes
// with another.
type Retokenizer struct {
	Input       *byte_bpe.MergeTable
	Output      *byte_bpe.MergeTable
	InputWidth  types.SymbolWidth
	OutputWidth types.SymbolWidth
}

func (rt *Retokenizer) Transform(encoded []byte) ([]byte, error) {
	decoded, err := rt.Input.DecodeBuffer(encoded, rt.InputWidth)
	if err != nil {
		return nil, err
	}
	return rt.Output.EncodeBuffer(decoded, rt.OutputWidth)
}

func main() {
	inputMerges := flag.String("input_merges", "",
		"merge table the input tokens were produced with")
	outputMerges := flag.String("output_merges", "",
		"merge table to retokenize with")
	inWidth := flag.Uint("in_width", 32,
		"input symbol width in bits [8, 16, 32]")
	outWidth := flag.Uint("out_width", 32,
		"output symbol width in bits [8, 16, 32]")
	inputFile := flag.String("input", "",
		"input file to retokenize")
	outputFile := flag.String("output", "retokenized.tokens",
		"output file to write retokenized data")
	flag.Parse()
	if *inputFile == "" {
		flag.Usage()
		log.Fatal("Must provide -input")
	}
	if *inputMerges == "" {
		flag.Usage()
		log.Fatal("Must provide -input_merges")
	}
	if *outputMerges == "" {
		flag.Usage()
		log.Fatal("Must provide -output_merges")
	}
	// check if input and output files are the same
	if *inputFile == *outputFile {
		log.Fatal("Input and output files must be different")
	}
	if !types.SymbolWidth(*inWidth).Valid() ||
		!types.SymbolWidth(*outWidth).Valid() {
		log.Fatal("Invalid symbol width, must be 8, 16 or 32")
	}

	inputTable, inputErr := resources.LoadMerges(*inputMerges)
	if inputErr != nil {
		log.Fatal(inputErr)
	}
	outputTable, outputErr := resources.LoadMerges(*outputMerges)
	if outputErr != nil {
		log.Fatal(outputErr)
	}
	rt := Retokenizer{
		Input:       inputTable,
		Output:      outputTable,
		InputWidth:  types.SymbolWidth(*inWidth),
		OutputWidth: types.SymbolWidth(*outWidth),
	}

	encoded, readErr := os.ReadFile(*inputFile)
	if readErr != nil {
		log.Fatal(readErr)
	}
	retokenized, err := rt.Transform(encoded)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(*outputFile, retokenized, 0644); err != nil {
		log.Fatal(err)
	}
	log.Printf("Retokenized %d bytes of %d-bit symbols into %d bytes of "+
		"%d-bit symbols", len(encoded), *inWidth, len(retokenized),
		*outWidth)
}
