package byte_bpe

// MergePair
// Returns a new sequence where every non-overlapping, left-to-right
// occurrence of pair is replaced by replacement. After a match the scan
// resumes past both consumed symbols, so (x x) over [x x x] gives [new x].
func MergePair(seq Symbols, pair Pair, replacement Symbol) Symbols {
	merged, _ := MergePairCount(seq, pair, replacement)
	return merged
}

// MergePairCount is MergePair that also reports the number of replacements.
func MergePairCount(seq Symbols, pair Pair,
	replacement Symbol) (merged Symbols, replaced int) {
	merged = make(Symbols, 0, len(seq))
	for i := 0; i < len(seq); {
		if i < len(seq)-1 && seq[i] == pair.Left && seq[i+1] == pair.Right {
			merged = append(merged, replacement)
			replaced++
			i += 2
		} else {
			merged = append(merged, seq[i])
			i += 1
		}
	}
	return merged, replaced
}
