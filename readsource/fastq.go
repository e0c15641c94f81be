package readsource

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/pkg/errors"

	"github.com/cancerit/pyQUEST/quest"
)

// fastqSource scans a (possibly gzipped) FASTQ file. It validates the
// four-line record framing, derives the vendor-fail flag from CASAVA 1.8
// headers and flags reads containing lowercase (soft-masked) bases.
type fastqSource struct {
	ctx   context.Context
	in    file.File
	b     *bufio.Scanner
	rec   quest.ReadRecord
	err   error
	nLine int
}

func openFASTQ(ctx context.Context, path string) (Source, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, in.Name()); u != nil {
		r = u
	}
	return &fastqSource{ctx: ctx, in: in, b: bufio.NewScanner(r)}, nil
}

var errFastqEOF = errors.New("fastq eof")

func (f *fastqSource) scanLine() (string, bool) {
	if !f.b.Scan() {
		if f.err = f.b.Err(); f.err == nil {
			f.err = errors.Errorf("%s: truncated FASTQ record at line %d", f.in.Name(), f.nLine)
		}
		return "", false
	}
	f.nLine++
	return f.b.Text(), true
}

func (f *fastqSource) Scan() bool {
	if f.err != nil {
		return false
	}
	if !f.b.Scan() {
		if f.err = f.b.Err(); f.err == nil {
			f.err = errFastqEOF
		}
		return false
	}
	f.nLine++
	header := f.b.Text()
	if len(header) == 0 || header[0] != '@' {
		f.err = errors.Errorf("%s:%d: invalid FASTQ header %q", f.in.Name(), f.nLine, header)
		return false
	}
	seq, ok := f.scanLine()
	if !ok {
		return false
	}
	sep, ok := f.scanLine()
	if !ok {
		return false
	}
	if len(sep) == 0 || sep[0] != '+' {
		f.err = errors.Errorf("%s:%d: invalid FASTQ separator %q", f.in.Name(), f.nLine, sep)
		return false
	}
	if _, ok = f.scanLine(); !ok { // qual, unused
		return false
	}
	f.rec = quest.ReadRecord{
		Seq:        seq,
		VendorFail: casavaQCFail(header),
		Masked:     hasLowercase(seq),
	}
	return true
}

func (f *fastqSource) Record() quest.ReadRecord { return f.rec }

func (f *fastqSource) Err() error {
	if f.err == errFastqEOF {
		return nil
	}
	return f.err
}

// FASTQ carries no sample metadata; the caller must supply a sample name.
func (f *fastqSource) SampleName() string { return "" }

func (f *fastqSource) Close() error { return f.in.Close(f.ctx) }

// casavaQCFail reports the filter field of a CASAVA 1.8 style header
// ("@name 1:Y:0:index"): Y means the read failed the vendor quality check.
// Headers in other layouts carry no vendor flag.
func casavaQCFail(header string) bool {
	i := strings.IndexByte(header, ' ')
	if i < 0 {
		return false
	}
	rest := header[i+1:]
	if len(rest) < 4 || rest[1] != ':' || rest[3] != ':' {
		return false
	}
	if rest[0] != '0' && rest[0] != '1' && rest[0] != '2' {
		return false
	}
	return rest[2] == 'Y'
}

func hasLowercase(seq string) bool {
	for _, ch := range []byte(seq) {
		if ch >= 'a' && ch <= 'z' {
			return true
		}
	}
	return false
}
