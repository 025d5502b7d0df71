package byte_bpe

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Sequences shorter than this are always counted on one goroutine.
const PARALLEL_MIN_SZ = 1 << 16

// PairCount is one row of a FrequencyTable. First is the index of the
// pair's first occurrence in the counted sequence.
type PairCount struct {
	Pair  Pair
	Count int
	First int
}

// FrequencyTable
// Counts of adjacent pairs, kept in order of first occurrence.
type FrequencyTable struct {
	index   map[Pair]int
	entries []PairCount
}

func newFrequencyTable(sizeHint int) *FrequencyTable {
	return &FrequencyTable{
		index:   make(map[Pair]int, sizeHint),
		entries: make([]PairCount, 0, sizeHint),
	}
}

func (table *FrequencyTable) add(pair Pair, pos int, count int) {
	if idx, ok := table.index[pair]; ok {
		entry := &table.entries[idx]
		entry.Count += count
		if pos < entry.First {
			entry.First = pos
		}
		return
	}
	table.index[pair] = len(table.entries)
	table.entries = append(table.entries, PairCount{pair, count, pos})
}

// Len is the number of distinct pairs.
func (table *FrequencyTable) Len() int {
	return len(table.entries)
}

// Count returns how many times pair occurred.
func (table *FrequencyTable) Count(pair Pair) int {
	if idx, ok := table.index[pair]; ok {
		return table.entries[idx].Count
	}
	return 0
}

// Entries returns the rows in first-occurrence order.
func (table *FrequencyTable) Entries() []PairCount {
	entries := make([]PairCount, len(table.entries))
	copy(entries, table.entries)
	return entries
}

// CountPairs
// Counts every adjacent pair (i, i+1) of seq. Overlapping positions count
// independently, so [a a a] yields (a a) twice.
func CountPairs(seq Symbols) *FrequencyTable {
	return countRange(seq, 0, len(seq)-1)
}

// countRange counts the pairs starting at positions [begin, end).
func countRange(seq Symbols, begin int, end int) *FrequencyTable {
	if end <= begin {
		return newFrequencyTable(0)
	}
	table := newFrequencyTable(min(end-begin, 4096))
	for idx := begin; idx < end; idx++ {
		table.add(Pair{seq[idx], seq[idx+1]}, idx, 1)
	}
	return table
}

// CountPairsParallel
// Counts pairs in contiguous partitions on up to `workers` goroutines and
// reduces the partial tables. The result is identical to CountPairs,
// including entry order.
func CountPairsParallel(ctx context.Context, seq Symbols,
	workers int) (*FrequencyTable, error) {
	positions := len(seq) - 1
	if workers <= 1 || positions < PARALLEL_MIN_SZ {
		return CountPairs(seq), nil
	}
	chunkSz := (positions + workers - 1) / workers
	partials := make([]*FrequencyTable, workers)

	g, gctx := errgroup.WithContext(ctx)
	for worker := 0; worker < workers; worker++ {
		worker := worker
		begin := worker * chunkSz
		end := min(begin+chunkSz, positions)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partials[worker] = countRange(seq, begin, end)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Partitions are in sequence order, so appending them in order keeps
	// each new pair's first occurrence ahead of later ones.
	table := newFrequencyTable(partials[0].Len())
	for _, partial := range partials {
		if partial == nil {
			continue
		}
		for _, entry := range partial.entries {
			table.add(entry.Pair, entry.First, entry.Count)
		}
	}
	return table, nil
}

// before reports whether a ranks ahead of b: higher count first, then the
// earlier first occurrence.
func (a PairCount) before(b PairCount) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	return a.First < b.First
}

// TopPair
// Returns the most frequent pair. Equal counts go to the pair that occurs
// first in the sequence. Returns false if the table is empty.
func TopPair(table *FrequencyTable) (top PairCount, ok bool) {
	if table == nil || len(table.entries) == 0 {
		return top, false
	}
	top = table.entries[0]
	for _, entry := range table.entries[1:] {
		if entry.before(top) {
			top = entry
		}
	}
	return top, true
}

// RankPairs
// Returns every pair ordered by descending count. The sort is stable over
// first-occurrence order, so ties rank the same way TopPair breaks them.
func RankPairs(table *FrequencyTable) []PairCount {
	if table == nil {
		return nil
	}
	ranked := table.Entries()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}
