package main

/*
#include "library.h"
*/
import "C"
import (
	"log"
	"sync"
	"time"
	"unsafe"

	"github.com/wbrown/byte_bpe"
	"github.com/wbrown/byte_bpe/resources"
	"github.com/wbrown/byte_bpe/types"
)

// Loaded merge tables by path. C callers may enter from several threads.
var (
	tables   map[string]*byte_bpe.MergeTable
	tablesMu sync.RWMutex
)

func init() {
	tables = make(map[string]*byte_bpe.MergeTable)
}

//export loadMerges
// loadMerges accepts the path of a merges file as a C string, and if it is
// not already in the global tables map, loads it.
func loadMerges(mergesPath *C.char) bool {
	return getTable(C.GoString(mergesPath)) != nil
}

func getTable(path string) *byte_bpe.MergeTable {
	tablesMu.RLock()
	table, ok := tables[path]
	tablesMu.RUnlock()
	if ok {
		return table
	}
	table, err := resources.LoadMerges(path)
	if err != nil {
		log.Printf("error loading merges `%s`: %v", path, err)
		return nil
	}
	return putTable(path, table)
}

// putTable stores table under path unless another caller already has,
// returning the stored table.
func putTable(path string, table *byte_bpe.MergeTable) *byte_bpe.MergeTable {
	tablesMu.Lock()
	defer tablesMu.Unlock()
	if existing, ok := tables[path]; ok {
		return existing
	}
	tables[path] = table
	return table
}

// create a byte slice over C memory for internal use
func createBuffer(buf unsafe.Pointer, size int) []byte {
	if size == 0 {
		return []byte{}
	}
	return unsafe.Slice((*byte)(buf), size)
}

// toCSymbols copies symbols into a malloc'ed uint32_t array.
func toCSymbols(symbols byte_bpe.Symbols) C.Symbols {
	bin, err := symbols.ToBin(types.Width32)
	if err != nil || len(symbols) == 0 {
		return C.Symbols{}
	}
	return C.Symbols{
		symbols: (*C.uint32_t)(C.CBytes(*bin)),
		len:     C.size_t(len(symbols)),
	}
}

//export trainBuffer
// trainBuffer learns numMerges merges on the buffer, writes the merge table
// to mergesPath, and returns the trained symbols as a malloc'ed array.
func trainBuffer(buf *C.char, sz C.size_t, numMerges C.int,
	mergesPath *C.char) C.Symbols {
	goBuf := createBuffer(unsafe.Pointer(buf), int(sz))
	result, err := byte_bpe.Train(goBuf, int(numMerges))
	if err != nil {
		log.Printf("error training: %v", err)
		return C.Symbols{}
	}
	path := C.GoString(mergesPath)
	if saveErr := resources.SaveMerges(path, result.Merges); saveErr != nil {
		log.Printf("error saving merges `%s`: %v", path, saveErr)
		return C.Symbols{}
	}
	tablesMu.Lock()
	tables[path] = result.Merges
	tablesMu.Unlock()
	return toCSymbols(result.Tokens)
}

//export tokenizeBuffer
func tokenizeBuffer(mergesPath *C.char, buf *C.char, sz C.size_t) C.Symbols {
	table := getTable(C.GoString(mergesPath))
	if table == nil {
		return C.Symbols{}
	}
	goBuf := createBuffer(unsafe.Pointer(buf), int(sz))
	return toCSymbols(table.Encode(goBuf))
}

//export tokenize
// tokenize accepts a merges path and text as C strings, and returns a
// C.Symbols that contains a malloc'ed array of uint32_t symbols along with
// the number of symbols.
func tokenize(mergesPath *C.char, str *C.char) C.Symbols {
	table := getTable(C.GoString(mergesPath))
	if table == nil {
		return C.Symbols{}
	}
	return toCSymbols(table.Encode([]byte(C.GoString(str))))
}

//export decode
// decode accepts a merges path and a C.Symbols struct, and returns a
// malloc'ed C.char* containing the decoded string.
func decode(mergesPath *C.char, symbols *C.Symbols) *C.char {
	table := getTable(C.GoString(mergesPath))
	if table == nil || symbols.len == 0 {
		return C.CString("")
	}
	symbolsArr := C.GoBytes(unsafe.Pointer(symbols.symbols),
		C.int(symbols.len*4))
	decoded, err := table.DecodeBuffer(symbolsArr, types.Width32)
	if err != nil {
		log.Printf("error decoding: %v", err)
		return C.CString("")
	}
	return C.CString(string(decoded))
}

// testTrain and testRoundTrip exercise the C interface, and are here rather
// than in the test package as the test package is incompatible with CGo.
func testTrain(buf []byte, numMerges int, mergesPath string) (time.Duration,
	uint64) {
	corpusBuff := (*C.char)(C.CBytes(buf))
	defer C.free(unsafe.Pointer(corpusBuff))
	pathC := C.CString(mergesPath)
	defer C.free(unsafe.Pointer(pathC))
	start := time.Now()
	symbols := trainBuffer(corpusBuff, C.size_t(len(buf)), C.int(numMerges),
		pathC)
	duration := time.Now().Sub(start)
	if symbols.symbols != nil {
		C.free(unsafe.Pointer(symbols.symbols))
	}
	return duration, uint64(symbols.len)
}

func testRoundTrip(mergesPath string, text string) (string, uint64) {
	pathC := C.CString(mergesPath)
	defer C.free(unsafe.Pointer(pathC))
	textC := C.CString(text)
	defer C.free(unsafe.Pointer(textC))
	symbols := tokenize(pathC, textC)
	if symbols.symbols != nil {
		defer C.free(unsafe.Pointer(symbols.symbols))
	}
	decoded := decode(pathC, &symbols)
	defer C.free(unsafe.Pointer(decoded))
	return C.GoString(decoded), uint64(symbols.len)
}

func main() {}
