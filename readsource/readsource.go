// Package readsource provides sequential read-record iterators over the
// supported sequencing container formats. The counting engine consumes the
// uniform Source interface and never branches on the backing format.
package readsource

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"v.io/x/lib/vlog"

	"github.com/cancerit/pyQUEST/quest"
)

// Format identifies the container format of a read file.
type Format int

const (
	// Unknown is a sentinel.
	Unknown Format = iota
	// FASTQ file, optionally gzip-compressed.
	FASTQ
	// SAM text alignment file.
	SAM
	// BAM binary alignment file.
	BAM
	// CRAM reference-compressed alignment file.
	CRAM
)

func (f Format) String() string {
	switch f {
	case FASTQ:
		return "fastq"
	case SAM:
		return "sam"
	case BAM:
		return "bam"
	case CRAM:
		return "cram"
	}
	return "unknown"
}

// DetectFormat guesses the container format from the file extension.
// Anything that is not a recognized alignment container is treated as FASTQ,
// compressed or not.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sam":
		return SAM
	case ".bam":
		return BAM
	case ".cram":
		return CRAM
	}
	vlog.VI(1).Infof("%v: no alignment container extension, assuming FASTQ", path)
	return FASTQ
}

// Source yields the reads of one input file in order. Implementations are
// not thread safe; the counting engine scans from a single goroutine.
type Source interface {
	// Scan advances to the next read, returning false at end of input or on
	// error.
	Scan() bool
	// Record returns the read at the current position. Valid only after a
	// Scan that returned true.
	Record() quest.ReadRecord
	// Err returns the error that stopped the scan, or nil at a clean end of
	// input.
	Err() error
	// SampleName returns the sample name embedded in the file metadata, or
	// "" for formats (FASTQ) that carry none.
	SampleName() string
	// Close releases the underlying file. Must be called exactly once.
	Close() error
}

// Opts configures Open.
type Opts struct {
	// Format overrides extension-based detection when not Unknown.
	Format Format
	// Reference is the reference FASTA path, required for CRAM inputs.
	Reference string
}

// Open opens path with the decoder selected by its format. The returned
// source yields primary reads only; secondary and supplementary alignment
// records are dropped inside the HTS decoders.
func Open(ctx context.Context, path string, opts Opts) (Source, error) {
	format := opts.Format
	if format == Unknown {
		format = DetectFormat(path)
	}
	switch format {
	case FASTQ:
		return openFASTQ(ctx, path)
	case SAM, BAM:
		return openHTS(ctx, path, format)
	case CRAM:
		if opts.Reference == "" {
			return nil, errors.Errorf("%s: CRAM input requires a reference file", path)
		}
		return nil, errors.Errorf("%s: CRAM decoding is not supported, convert to BAM first", path)
	}
	return nil, errors.Errorf("%s: unsupported read file format", path)
}
