package quest

import (
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/pkg/errors"
)

// sliceSource yields an in-memory read list, optionally failing at the end.
type sliceSource struct {
	recs []ReadRecord
	i    int
	err  error
}

func (s *sliceSource) Scan() bool {
	if s.i >= len(s.recs) {
		return false
	}
	s.i++
	return true
}

func (s *sliceSource) Record() ReadRecord { return s.recs[s.i-1] }
func (s *sliceSource) Err() error         { return s.err }

func testReads(seqs ...string) []ReadRecord {
	recs := make([]ReadRecord, len(seqs))
	for i, s := range seqs {
		recs[i] = ReadRecord{Seq: s}
	}
	return recs
}

func TestCountUniqueSequences(t *testing.T) {
	src := &sliceSource{recs: testReads("AAAA", "AAAA", "CCCC", "GGGG", "GGGG", "GGGG")}
	res, err := Count(src, Opts{MinLength: 1, Parallelism: 2})
	expect.NoError(t, err)
	expect.EQ(t, res.Counts.Sorted(), []SequenceCount{
		{"AAAA", 2},
		{"CCCC", 1},
		{"GGGG", 3},
	})
	expect.EQ(t, res.Stats.InputReads, int64(6))
	expect.EQ(t, res.Stats.AcceptedReads, int64(6))
	expect.EQ(t, res.Stats.DiscardedReads(), int64(0))
}

func TestCountPartitionInvariance(t *testing.T) {
	var recs []ReadRecord
	for i := 0; i < 3000; i++ {
		switch i % 5 {
		case 0:
			recs = append(recs, ReadRecord{Seq: "acgtacgt"})
		case 1:
			recs = append(recs, ReadRecord{Seq: "ACGTACGT"})
		case 2:
			recs = append(recs, ReadRecord{Seq: "TTTTTTTT"})
		case 3:
			recs = append(recs, ReadRecord{Seq: "ACNT"})
		case 4:
			recs = append(recs, ReadRecord{Seq: "AC", VendorFail: true})
		}
	}
	want, err := Count(&sliceSource{recs: recs}, Opts{MinLength: 3, Parallelism: 1})
	expect.NoError(t, err)
	for _, parallelism := range []int{2, 3, 7, 16} {
		got, err := Count(&sliceSource{recs: recs}, Opts{MinLength: 3, Parallelism: parallelism})
		expect.NoError(t, err)
		expect.EQ(t, got.Counts.Sorted(), want.Counts.Sorted(), "parallelism: %d", parallelism)
		expect.EQ(t, got.Stats, want.Stats, "parallelism: %d", parallelism)
	}
	// Case folding: lowercase and uppercase copies of the same read share a
	// canonical key.
	expect.EQ(t, want.Counts.Get("ACGTACGT"), int64(1200))
}

func TestCountSourceFailureAborts(t *testing.T) {
	src := &sliceSource{
		recs: testReads("AAAA", "CCCC"),
		err:  errors.New("corrupt read source"),
	}
	res, err := Count(src, Opts{MinLength: 1, Parallelism: 4})
	expect.HasSubstr(t, err, "corrupt read source")
	expect.True(t, res == nil)
}

func TestCountEmptyInput(t *testing.T) {
	res, err := Count(&sliceSource{}, Opts{MinLength: 1})
	expect.NoError(t, err)
	expect.EQ(t, res.Counts.Len(), 0)
	expect.EQ(t, res.Stats, FilterStats{})
}
