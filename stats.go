package blockranges

// Stats describes a range sequence.
type Stats struct {
	// Count is the number of ranges, i.e. the number of requests needed.
	Count int

	// Total is the number of units covered.
	Total int64
}

// Summary compares a range sequence before and after merging.
type Summary struct {
	Before Stats
	After  Stats
}

// Total returns the number of units covered by ranges.
func Total(ranges []Range) int64 {
	var total int64
	for _, r := range ranges {
		total += r.Len()
	}
	return total
}

// StatsOf computes the stats of a range sequence.
func StatsOf(ranges []Range) Stats {
	return Stats{Count: len(ranges), Total: Total(ranges)}
}

// Summarize compares the original ranges with their merged counterpart.
func Summarize(before, after []Range) Summary {
	return Summary{Before: StatsOf(before), After: StatsOf(after)}
}

// Saved returns how many requests merging saved.
func (s Summary) Saved() int {
	return s.Before.Count - s.After.Count
}

// Overhead returns how many extra units are fetched because gaps were merged.
func (s Summary) Overhead() int64 {
	return s.After.Total - s.Before.Total
}
