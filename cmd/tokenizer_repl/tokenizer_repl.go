package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/wbrown/byte_bpe"
	"github.com/wbrown/byte_bpe/resources"
)

// A REPL for interacting with a trained merge table.

// describe renders the symbols of text and the bytes each stands for.
func describe(table *byte_bpe.MergeTable, input string) (string, error) {
	symbols := table.Encode([]byte(input))
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v\n", symbols)
	// Symbols holding part of a multibyte rune are buffered until the run
	// ends on a complete one, then printed as a single piece.
	run := make(byte_bpe.Symbols, 0, 4)
	for idx, sym := range symbols {
		run = append(run, sym)
		if !table.SymbolsReady(run) && idx < len(symbols)-1 {
			continue
		}
		piece, err := table.Decode(run)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "|%s", piece)
		run = run[:0]
	}
	sb.WriteString("\n")
	if len(symbols) > 0 {
		fmt.Fprintf(&sb, "compression ratio : %0.3f\n",
			float64(len(input))/float64(len(symbols)))
	}
	return sb.String(), nil
}

func main() {
	mergesPath := flag.String("merges", "merges.txt",
		"merge table to tokenize with [.txt, .json, .bpb]")
	flag.Parse()

	table, err := resources.LoadMerges(*mergesPath)
	if err != nil {
		log.Fatal(err)
	}

	reader := bufio.NewReader(os.Stdin)
	// Provide a REPL
	for {
		fmt.Print("Enter text : ")
		input, err := reader.ReadString('\n')
		if err == io.EOF {
			return
		} else if err != nil {
			log.Fatal(err)
		}
		// Remove trailing newline and replace \n with newline.
		input = strings.Replace(strings.TrimSuffix(input, "\n"), "\\n",
			"\n", -1)

		output, describeErr := describe(table, input)
		if describeErr != nil {
			log.Fatal(describeErr)
		}
		fmt.Print(output)
	}
}
