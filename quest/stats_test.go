package quest

import (
	"math"
	"sort"
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestMedianFromSorted(t *testing.T) {
	expect.EQ(t, medianFromSorted(nil), 0.0)
	expect.EQ(t, medianFromSorted([]int64{7}), 7.0)
	expect.EQ(t, medianFromSorted([]int64{1, 3}), 2.0)
	expect.EQ(t, medianFromSorted([]int64{0, 0, 5, 10, 25}), 5.0)
	expect.EQ(t, medianFromSorted([]int64{1, 2, 3, 4}), 2.5)
}

func TestGini(t *testing.T) {
	// Degenerate cases are defined as zero.
	expect.EQ(t, gini(nil), 0.0)
	expect.EQ(t, gini([]int64{42}), 0.0)
	expect.EQ(t, gini([]int64{0, 0, 0}), 0.0)

	// Uniform counts have no inequality.
	expect.EQ(t, gini([]int64{5, 5, 5, 5}), 0.0)

	// gini returns the raw float; rounding happens at the reporting layer.
	expect.EQ(t, roundStat(gini([]int64{0, 0, 5, 10, 25})), 0.6)

	// Concentration in a single entry approaches 1 as n grows.
	concentrated := make([]int64, 1000)
	concentrated[999] = 1000000
	g := gini(concentrated)
	expect.GE(t, g, 0.99)
	expect.LE(t, g, 1.0)
}

func TestGiniBounds(t *testing.T) {
	vectors := [][]int64{
		{1, 1, 2, 3, 5, 8, 13},
		{0, 1, 0, 1, 0, 1},
		{100, 0, 0},
		{7, 7, 7, 13},
	}
	for _, x := range vectors {
		sort.Slice(x, func(i, j int) bool { return x[i] < x[j] })
		g := gini(x)
		expect.GE(t, g, 0.0, "counts: %v", x)
		expect.LE(t, g, 1.0, "counts: %v", x)
	}
}

func TestRoundStat(t *testing.T) {
	expect.EQ(t, roundStat(8.0), 8.0)
	expect.EQ(t, roundStat(1.0/3.0), 0.33)
	expect.EQ(t, roundStat(2.0/3.0), 0.67)
	expect.True(t, !math.Signbit(roundStat(0)))
}

func TestNewIndependentStats(t *testing.T) {
	fs := FilterStats{
		InputReads:          10,
		AcceptedReads:       4,
		VendorFailedReads:   1,
		MaskedReads:         2,
		LengthExcludedReads: 1,
		AmbiguousNTReads:    1,
		ZeroLengthReads:     1,
	}
	app := AppInfo{Version: "1.1.0", Command: "pyquest -output x in.fastq"}
	s := NewIndependentStats(app, "s1", fs)
	expect.EQ(t, s.SampleName, "s1")
	expect.EQ(t, s.InputReads, int64(10))
	expect.EQ(t, s.TotalReads, int64(4))
	expect.EQ(t, s.DiscardedReads, int64(6))
	expect.EQ(t, s.InputReads, s.TotalReads+s.DiscardedReads)
	expect.EQ(t, s.Command, app.Command)
	expect.EQ(t, s.Version, app.Version)
}

func TestFilterStatsMerge(t *testing.T) {
	a := FilterStats{InputReads: 3, AcceptedReads: 2, MaskedReads: 1}
	b := FilterStats{InputReads: 2, AcceptedReads: 1, ZeroLengthReads: 1}
	expect.EQ(t, a.Merge(b), b.Merge(a))
	expect.EQ(t, a.Merge(b), FilterStats{
		InputReads:      5,
		AcceptedReads:   3,
		MaskedReads:     1,
		ZeroLengthReads: 1,
	})
}
