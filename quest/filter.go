package quest

import "strings"

// ReadRecord is a single read as produced by a read source. The source is
// responsible for presenting the sequence in its original (forward)
// orientation and for deriving the two quality flags; the engine never looks
// at the backing container format.
type ReadRecord struct {
	// Seq is the read sequence. Case is preserved as read; canonicalization
	// happens on acceptance.
	Seq string
	// VendorFail is the upstream QC-fail flag (QCFAIL in SAM, Y filter field
	// in CASAVA 1.8 FASTQ headers).
	VendorFail bool
	// Masked marks reads soft-masked by upstream tooling (soft-clipped
	// alignments, lowercase FASTQ bases).
	Masked bool
}

// DiscardReason classifies the outcome of filtering a single read. Accepted
// is the zero value; every other value names the single reason the read was
// dropped.
type DiscardReason int

const (
	Accepted DiscardReason = iota
	VendorFailed
	MaskedRead
	LengthExcluded
	AmbiguousNT
	ZeroLength
)

func (r DiscardReason) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case VendorFailed:
		return "vendor_failed"
	case MaskedRead:
		return "masked"
	case LengthExcluded:
		return "length_excluded"
	case AmbiguousNT:
		return "ambiguous_nt"
	case ZeroLength:
		return "zero_length"
	}
	return "invalid"
}

// isACGT maps upper- and lowercase A, C, G, T to true.
var isACGT [256]bool

func init() {
	for _, ch := range []byte("ACGTacgt") {
		isACGT[ch] = true
	}
}

func numAmbiguousBases(seq string) int {
	n := 0
	for _, ch := range []byte(seq) {
		if !isACGT[ch] {
			n++
		}
	}
	return n
}

// Classify decides whether a read contributes to counting. It returns the
// canonical (uppercased) sequence and Accepted, or "" and the discard
// reason. Checks apply in fixed precedence, first match wins:
// vendor-fail, masked, too short, ambiguous bases, empty.
func Classify(rec ReadRecord, minLength int) (string, DiscardReason) {
	switch {
	case rec.VendorFail:
		return "", VendorFailed
	case rec.Masked:
		return "", MaskedRead
	case len(rec.Seq) < minLength:
		return "", LengthExcluded
	case numAmbiguousBases(rec.Seq) > 0:
		return "", AmbiguousNT
	case len(rec.Seq) == 0:
		return "", ZeroLength
	}
	return strings.ToUpper(rec.Seq), Accepted
}
