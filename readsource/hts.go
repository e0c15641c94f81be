package readsource

import (
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/pkg/errors"

	"github.com/cancerit/pyQUEST/quest"
)

// samReader is the common surface of sam.Reader and bam.Reader.
type samReader interface {
	Read() (*sam.Record, error)
	Header() *sam.Header
}

// htsSource scans a SAM or BAM file record by record. Secondary and
// supplementary alignments are skipped; sequences of reverse-strand
// alignments are flipped back to their original read orientation.
type htsSource struct {
	ctx    context.Context
	in     file.File
	r      samReader
	sample string
	rec    quest.ReadRecord
	err    error
}

func openHTS(ctx context.Context, path string, format Format) (Source, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	var (
		rd io.Reader = in.Reader(ctx)
		r  samReader
	)
	switch format {
	case BAM:
		r, err = bam.NewReader(rd, 1)
	default:
		if u := compress.NewReaderPath(rd, in.Name()); u != nil {
			rd = u
		}
		r, err = sam.NewReader(rd)
	}
	if err != nil {
		if e := in.Close(ctx); e != nil {
			err = errors.Wrap(err, e.Error())
		}
		return nil, errors.Wrapf(err, "%s: open %s", path, format)
	}
	sample, err := headerSampleName(r.Header())
	if err != nil {
		if e := in.Close(ctx); e != nil {
			err = errors.Wrap(err, e.Error())
		}
		return nil, errors.Wrapf(err, "%s", path)
	}
	return &htsSource{ctx: ctx, in: in, r: r, sample: sample}, nil
}

// headerSampleName extracts the SM value of the @RG header lines. All read
// groups must agree on one sample; single-sample inputs only.
func headerSampleName(h *sam.Header) (string, error) {
	text, err := h.MarshalText()
	if err != nil {
		return "", err
	}
	sample := ""
	for _, line := range strings.Split(string(text), "\n") {
		if !strings.HasPrefix(line, "@RG") {
			continue
		}
		for _, field := range strings.Split(line, "\t") {
			if !strings.HasPrefix(field, "SM:") {
				continue
			}
			sm := strings.TrimSpace(field[len("SM:"):])
			if sample == "" {
				sample = sm
			} else if sample != sm {
				return "", errors.New("multiple different sample names found in header")
			}
		}
	}
	return sample, nil
}

const skipFlags = sam.Secondary | sam.Supplementary

func (h *htsSource) Scan() bool {
	if h.err != nil {
		return false
	}
	for {
		r, err := h.r.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			h.err = err
			return false
		}
		if r.Flags&skipFlags != 0 {
			continue
		}
		seq := r.Seq.Expand()
		if r.Flags&sam.Reverse != 0 {
			reverseComplement(seq)
		}
		h.rec = quest.ReadRecord{
			Seq:        string(seq),
			VendorFail: r.Flags&sam.QCFail != 0,
			Masked:     isSoftClipped(r.Cigar),
		}
		return true
	}
}

func (h *htsSource) Record() quest.ReadRecord { return h.rec }

func (h *htsSource) Err() error { return h.err }

func (h *htsSource) SampleName() string { return h.sample }

func (h *htsSource) Close() error {
	if c, ok := h.r.(io.Closer); ok {
		if err := c.Close(); err != nil {
			_ = h.in.Close(h.ctx)
			return err
		}
	}
	return h.in.Close(h.ctx)
}

func isSoftClipped(cigar sam.Cigar) bool {
	for _, co := range cigar {
		if co.Type() == sam.CigarSoftClipped {
			return true
		}
	}
	return false
}

// dnaComplement maps IUPAC nucleotide codes to their complement, preserving
// case. Unrecognized bytes map to themselves.
var dnaComplement [256]byte

func init() {
	for i := range dnaComplement {
		dnaComplement[i] = byte(i)
	}
	pairs := []byte("ATCGRYKMBVDH")
	comps := []byte("TAGCYRMKVBHD")
	for i, ch := range pairs {
		dnaComplement[ch] = comps[i]
		dnaComplement[ch+'a'-'A'] = comps[i] + 'a' - 'A'
	}
}

// reverseComplement flips seq in place to the opposite strand.
func reverseComplement(seq []byte) {
	for i, j := 0, len(seq)-1; i <= j; i, j = i+1, j-1 {
		seq[i], seq[j] = dnaComplement[seq[j]], dnaComplement[seq[i]]
	}
}
