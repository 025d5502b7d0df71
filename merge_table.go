package byte_bpe

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

const EXPANSION_LRU_SZ = 16384

// MergeTable
// The trained vocabulary: an append-only record of which pair each merged
// symbol replaced, in creation order. Entry i has id 256+i.
type MergeTable struct {
	entries []MergeEntry
	cache   *lru.ARCCache
}

func NewMergeTable() *MergeTable {
	cache, _ := lru.NewARC(EXPANSION_LRU_SZ)
	return &MergeTable{
		entries: make([]MergeEntry, 0),
		cache:   cache,
	}
}

// Len is the number of merges recorded.
func (table *MergeTable) Len() int {
	return len(table.entries)
}

// NextId is the id the next appended merge must use.
func (table *MergeTable) NextId() Symbol {
	return FirstMergeId + Symbol(len(table.entries))
}

// Append
// Records that id replaces pair. Ids must be contiguous from 256, and both
// halves of the pair must already be known symbols.
func (table *MergeTable) Append(id Symbol, pair Pair) error {
	if next := table.NextId(); id != next {
		return fmt.Errorf("%w: got %d, expected %d",
			ErrNonMonotonicId, id, next)
	}
	if pair.Left >= id || pair.Right >= id {
		return fmt.Errorf("%w: (%d, %d) for id %d",
			ErrInvalidPair, pair.Left, pair.Right, id)
	}
	table.entries = append(table.entries, MergeEntry{id, pair})
	return nil
}

// Lookup returns the pair that id replaced.
func (table *MergeTable) Lookup(id Symbol) (Pair, bool) {
	if id < FirstMergeId {
		return Pair{}, false
	}
	idx := int(id - FirstMergeId)
	if idx >= len(table.entries) {
		return Pair{}, false
	}
	return table.entries[idx].Pair, true
}

// Entries returns the merges in creation order.
func (table *MergeTable) Entries() []MergeEntry {
	entries := make([]MergeEntry, len(table.entries))
	copy(entries, table.entries)
	return entries
}

// Validate checks that the table could have been built by Append.
func (table *MergeTable) Validate() error {
	for idx, entry := range table.entries {
		id := FirstMergeId + Symbol(idx)
		if entry.Id != id {
			return fmt.Errorf("%w: entry %d has id %d",
				ErrNonMonotonicId, idx, entry.Id)
		}
		if entry.Pair.Left >= id || entry.Pair.Right >= id {
			return fmt.Errorf("%w: (%d, %d) for id %d", ErrInvalidPair,
				entry.Pair.Left, entry.Pair.Right, id)
		}
	}
	return nil
}

func (table *MergeTable) expandInto(dst []byte, sym Symbol) ([]byte, error) {
	if sym.IsByte() {
		return append(dst, byte(sym)), nil
	}
	if cached, ok := table.cache.Get(sym); ok {
		return append(dst, cached.([]byte)...), nil
	}
	pair, ok := table.Lookup(sym)
	if !ok {
		return dst, fmt.Errorf("%w: %d", ErrUnknownSymbol, sym)
	}
	begin := len(dst)
	var err error
	if dst, err = table.expandInto(dst, pair.Left); err != nil {
		return dst, err
	}
	if dst, err = table.expandInto(dst, pair.Right); err != nil {
		return dst, err
	}
	expansion := make([]byte, len(dst)-begin)
	copy(expansion, dst[begin:])
	table.cache.Add(sym, expansion)
	return dst, nil
}

// Expand
// Recursively expands sym through the table into the bytes it stands for.
func (table *MergeTable) Expand(sym Symbol) ([]byte, error) {
	return table.expandInto(make([]byte, 0, 16), sym)
}

// Decode expands every symbol of seq and concatenates the bytes.
func (table *MergeTable) Decode(seq Symbols) ([]byte, error) {
	decoded := make([]byte, 0, len(seq)*2)
	var err error
	for _, sym := range seq {
		if decoded, err = table.expandInto(decoded, sym); err != nil {
			return nil, err
		}
	}
	return decoded, nil
}

func containsPair(seq Symbols, pair Pair) bool {
	for idx := 0; idx < len(seq)-1; idx++ {
		if seq[idx] == pair.Left && seq[idx+1] == pair.Right {
			return true
		}
	}
	return false
}

// Encode
// Tokenizes data by replaying every merge in creation order. Encoding the
// training input reproduces the training output exactly.
func (table *MergeTable) Encode(data []byte) Symbols {
	seq := BytesToSymbols(data)
	for _, entry := range table.entries {
		if len(seq) < 2 {
			break
		}
		if !containsPair(seq, entry.Pair) {
			continue
		}
		seq = MergePair(seq, entry.Pair, entry.Id)
	}
	return seq
}
