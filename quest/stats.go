package quest

import "math"

// FilterStats counts read-filter outcomes for one partition of the input.
// Exactly one field other than InputReads is incremented per read, so
// InputReads == AcceptedReads + DiscardedReads() always holds.
type FilterStats struct {
	InputReads          int64
	AcceptedReads       int64
	VendorFailedReads   int64
	MaskedReads         int64
	LengthExcludedReads int64
	AmbiguousNTReads    int64
	ZeroLengthReads     int64
}

func (s *FilterStats) observe(reason DiscardReason) {
	s.InputReads++
	switch reason {
	case Accepted:
		s.AcceptedReads++
	case VendorFailed:
		s.VendorFailedReads++
	case MaskedRead:
		s.MaskedReads++
	case LengthExcluded:
		s.LengthExcludedReads++
	case AmbiguousNT:
		s.AmbiguousNTReads++
	case ZeroLength:
		s.ZeroLengthReads++
	}
}

// DiscardedReads is the number of reads excluded from counting.
func (s FilterStats) DiscardedReads() int64 {
	return s.VendorFailedReads + s.MaskedReads + s.LengthExcludedReads +
		s.AmbiguousNTReads + s.ZeroLengthReads
}

// Merge adds the field values of the two FilterStats and returns the sum.
func (s FilterStats) Merge(o FilterStats) FilterStats {
	s.InputReads += o.InputReads
	s.AcceptedReads += o.AcceptedReads
	s.VendorFailedReads += o.VendorFailedReads
	s.MaskedReads += o.MaskedReads
	s.LengthExcludedReads += o.LengthExcludedReads
	s.AmbiguousNTReads += o.AmbiguousNTReads
	s.ZeroLengthReads += o.ZeroLengthReads
	return s
}

// IndependentStats is the library-independent stats report, serialized to
// <prefix>.stats.json when no library is supplied.
type IndependentStats struct {
	Command             string `json:"command"`
	Version             string `json:"version"`
	SampleName          string `json:"sample_name"`
	InputReads          int64  `json:"input_reads"`
	TotalReads          int64  `json:"total_reads"`
	DiscardedReads      int64  `json:"discarded_reads"`
	VendorFailedReads   int64  `json:"vendor_failed_reads"`
	LengthExcludedReads int64  `json:"length_excluded_reads"`
	AmbiguousNTReads    int64  `json:"ambiguous_nt_reads"`
	MaskedReads         int64  `json:"masked_reads"`
	ZeroLengthReads     int64  `json:"zero_length_reads"`
}

// NewIndependentStats materializes the JSON-level report from merged filter
// counters.
func NewIndependentStats(app AppInfo, sample string, fs FilterStats) IndependentStats {
	return IndependentStats{
		Command:             app.Command,
		Version:             app.Version,
		SampleName:          sample,
		InputReads:          fs.InputReads,
		TotalReads:          fs.AcceptedReads,
		DiscardedReads:      fs.DiscardedReads(),
		VendorFailedReads:   fs.VendorFailedReads,
		LengthExcludedReads: fs.LengthExcludedReads,
		AmbiguousNTReads:    fs.AmbiguousNTReads,
		MaskedReads:         fs.MaskedReads,
		ZeroLengthReads:     fs.ZeroLengthReads,
	}
}

// LowCountThreshold reports the number of templates whose count falls below
// a user-supplied cutoff.
type LowCountThreshold struct {
	Lt    int   `json:"lt"`
	Count int64 `json:"count"`
}

// DependentStats supersets IndependentStats with library-dependent metrics.
// All template-level fields are computed over an immutable snapshot of the
// templates after the merge barrier; length-excluded templates contribute
// only to LengthExcludedTemplates.
type DependentStats struct {
	IndependentStats
	MappedToTemplateReads   int64              `json:"mapped_to_template_reads"`
	MeanCountPerTemplate    float64            `json:"mean_count_per_template"`
	MedianCountPerTemplate  float64            `json:"median_count_per_template"`
	MultimapReads           int64              `json:"multimap_reads"`
	UnmappedReads           int64              `json:"unmapped_reads"`
	TotalTemplates          int                `json:"total_templates"`
	TotalUniqueTemplates    int                `json:"total_unique_templates"`
	LengthExcludedTemplates int                `json:"length_excluded_templates"`
	ZeroCountTemplates      int64              `json:"zero_count_templates"`
	LowCountTemplatesLt15   int64              `json:"low_count_templates_lt_15"`
	LowCountTemplatesLt30   int64              `json:"low_count_templates_lt_30"`
	LowCountTemplatesUser   *LowCountThreshold `json:"low_count_templates_user"`
	GiniCoefficient         float64            `json:"gini_coefficient"`
}

func roundStat(x float64) float64 {
	return math.Round(x*100) / 100
}

// medianFromSorted computes the median of an ascending-sorted count vector.
// Empty input yields 0.
func medianFromSorted(x []int64) float64 {
	n := len(x)
	switch {
	case n == 0:
		return 0
	case n == 1:
		return float64(x[0])
	case n%2 == 0:
		return float64(x[n/2-1]+x[n/2]) / 2
	}
	return float64(x[(n-1)/2])
}

// gini computes the Gini coefficient of an ascending-sorted non-negative
// count vector:
//
//	G = (2 * sum(i * x_i)) / (n * sum(x)) - (n+1)/n, i in 1..n
//
// The degenerate cases (n <= 1 or all-zero counts) are defined as 0.
func gini(sorted []int64) float64 {
	n := len(sorted)
	if n <= 1 {
		return 0
	}
	var sum, weighted int64
	for i, x := range sorted {
		sum += x
		weighted += int64(i+1) * x
	}
	if sum == 0 {
		return 0
	}
	return 2*float64(weighted)/(float64(n)*float64(sum)) - float64(n+1)/float64(n)
}
