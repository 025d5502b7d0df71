package main

//go:generate gopherjs build --minify

import (
	"log"

	"github.com/gopherjs/gopherjs/js"
	"github.com/wbrown/byte_bpe"
	"github.com/wbrown/byte_bpe/resources"
	"github.com/wbrown/byte_bpe/types"
)

// Merge tables parsed from JSON, keyed by the JSON they came from.
var tables = make(map[string]*byte_bpe.MergeTable)

func tableFor(mergesJSON string) *byte_bpe.MergeTable {
	if table, ok := tables[mergesJSON]; ok {
		return table
	}
	table, err := resources.UnmarshalMergesJSON([]byte(mergesJSON))
	if err != nil {
		panic(js.Global.Get("Error").New(err.Error()))
	}
	tables[mergesJSON] = table
	return table
}

// Train learns numMerges merges on text and returns the tokens along with
// the merge table as JSON.
func Train(text string, numMerges int) map[string]interface{} {
	result, err := byte_bpe.Train([]byte(text), numMerges)
	if err != nil {
		panic(js.Global.Get("Error").New(err.Error()))
	}
	merges, err := resources.MarshalMergesJSON(result.Merges)
	if err != nil {
		panic(js.Global.Get("Error").New(err.Error()))
	}
	tables[string(merges)] = result.Merges
	return map[string]interface{}{
		"tokens":    []types.Symbol(result.Tokens),
		"merges":    string(merges),
		"performed": result.Performed,
	}
}

func Tokenize(mergesJSON string, text string) []types.Symbol {
	return tableFor(mergesJSON).Encode([]byte(text))
}

func Decode(mergesJSON string, arr []byte) string {
	decoded, err := tableFor(mergesJSON).DecodeBuffer(arr, types.Width32)
	if err != nil {
		panic(js.Global.Get("Error").New(err.Error()))
	}
	return string(decoded)
}

func init() {
	js.Module.Get("exports").Set("train", Train)
	js.Module.Get("exports").Set("tokenize", Tokenize)
	js.Module.Get("exports").Set("decode", Decode)
	log.Printf("Byte BPE trainer loaded")
}

func main() {

}
