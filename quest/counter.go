package quest

import "sort"

// SequenceCount is one unique accepted sequence together with its
// occurrence count.
type SequenceCount struct {
	Seq   string
	Count int64
}

// Length returns the sequence length. It is invariant per sequence.
func (s SequenceCount) Length() int { return len(s.Seq) }

// Counter tallies canonical read sequences. It forms a commutative monoid
// under Merge: merging per-partition counters yields the same totals no
// matter how the input was split. Not safe for concurrent use; each counting
// worker owns one.
type Counter struct {
	counts map[string]int64
}

func NewCounter() *Counter {
	return &Counter{counts: map[string]int64{}}
}

// Record adds one occurrence of seq.
func (c *Counter) Record(seq string) {
	c.counts[seq]++
}

// Merge folds o into c, summing counts for shared sequences.
func (c *Counter) Merge(o *Counter) {
	for seq, n := range o.counts {
		c.counts[seq] += n
	}
}

// Get returns the count for seq, zero if never recorded.
func (c *Counter) Get(seq string) int64 { return c.counts[seq] }

// Len returns the number of unique sequences.
func (c *Counter) Len() int { return len(c.counts) }

// Sorted returns all sequence counts ordered by sequence, ascending. This is
// the emission order of the library-independent count table.
func (c *Counter) Sorted() []SequenceCount {
	out := make([]SequenceCount, 0, len(c.counts))
	for seq, n := range c.counts {
		out = append(out, SequenceCount{Seq: seq, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Top returns the k most common sequences, ordered by count descending with
// ties broken by sequence ascending so the report is deterministic. If k
// exceeds the number of unique sequences all of them are returned.
func (c *Counter) Top(k int) []SequenceCount {
	out := make([]SequenceCount, 0, len(c.counts))
	for seq, n := range c.counts {
		out = append(out, SequenceCount{Seq: seq, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Seq < out[j].Seq
	})
	if k < len(out) {
		out = out[:k]
	}
	return out
}
