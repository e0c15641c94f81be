// pyquest counts unique read sequences in a single-sample FASTQ/SAM/BAM
// file and optionally maps them onto an exact-match template library,
// writing count tables and summary statistics.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/cancerit/pyQUEST/quest"
	"github.com/cancerit/pyQUEST/readsource"
)

const version = "1.1.0"

var (
	output        = flag.String("output", "", "Final output filename prefix (required)")
	minLength     = flag.Int("min-length", quest.DefaultOpts.MinLength, "Minimum read length")
	mostCommon    = flag.Int("most-common", 0, "Output top X (1-50) most common unique read sequences in FASTA format")
	sample        = flag.String("sample", "", "Sample name to apply to count column; required for FASTQ, read from the header for other formats when not given")
	reference     = flag.String("reference", "", "Reference file, required for CRAM")
	library       = flag.String("library", "", "Library definition TSV file; enables library-dependent counting")
	lowCount      = flag.Int("low-count", -1, "Additional low-count template cut-off reported in stats.json")
	cpus          = flag.Int("cpus", quest.DefaultOpts.Parallelism, "CPUs to use (0 to detect)")
	noCompression = flag.Bool("no-compression", false, "Disable output compression")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] queries\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Count reads in a query sequence file (fastq[.gz], sam, bam) and\noptionally map them to a library.\n\nOptions:\n")
	flag.PrintDefaults()
}

func commandLine() string {
	return strings.Join(append([]string{filepath.Base(os.Args[0])}, os.Args[1:]...), " ")
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("exactly one positional argument (queries file) is required")
	}
	queries := flag.Arg(0)
	if *output == "" {
		log.Fatalf("-output is required")
	}
	if *minLength < 1 {
		log.Fatalf("-min-length must be >= 1")
	}
	if *mostCommon != 0 && (*mostCommon < 1 || *mostCommon > 50) {
		log.Fatalf("-most-common must be between 1 and 50")
	}
	if *library == "" && *lowCount >= 0 {
		log.Error.Printf("low count option ignored in library-independent mode")
	}

	format := readsource.DetectFormat(queries)
	if format == readsource.FASTQ && *sample == "" {
		log.Fatalf("when a FASTQ is provided, a sample name is required")
	}
	if dir := filepath.Dir(*output); dir != "." {
		if err := os.MkdirAll(dir, 0777); err != nil {
			log.Fatalf("create output directory: %v", err)
		}
	}

	ctx := vcontext.Background()
	src, err := readsource.Open(ctx, queries, readsource.Opts{Format: format, Reference: *reference})
	if err != nil {
		log.Fatalf("%v", err)
	}
	sampleName := *sample
	if sampleName == "" {
		sampleName = src.SampleName()
	}
	if sampleName == "" {
		log.Fatalf("no sample name found in input file header, please provide via -sample")
	}

	opts := quest.Opts{
		MinLength:   *minLength,
		MostCommon:  *mostCommon,
		LowCount:    *lowCount,
		Parallelism: *cpus,
		Sample:      sampleName,
		Reference:   *reference,
		Library:     *library,
		Compress:    !*noCompression,
	}
	app := quest.AppInfo{Version: version, Command: commandLine()}

	log.Printf("loading reads from %s (%s)", queries, format)
	res, err := quest.Count(src, opts)
	if err != nil {
		log.Fatalf("counting reads: %v", err)
	}
	if err := src.Close(); err != nil {
		log.Fatalf("close %s: %v", queries, err)
	}

	if err := quest.WriteQueryCounts(ctx, res.Counts, app, *output, opts.Compress); err != nil {
		log.Fatalf("write query counts: %v", err)
	}
	if opts.MostCommon > 0 {
		if err := quest.WriteMostCommon(ctx, res.Counts, opts.MostCommon, sampleName, app, *output, opts.Compress); err != nil {
			log.Fatalf("write most common reads: %v", err)
		}
	}
	if res.Stats.ZeroLengthReads > 0 {
		log.Error.Printf("%d zero-length reads", res.Stats.ZeroLengthReads)
	}

	if opts.Library != "" {
		lib, err := quest.LoadLibrary(ctx, opts.Library)
		if err != nil {
			log.Fatalf("load library: %v", err)
		}
		log.Printf("finding exact matches and writing library-dependent counts")
		templates, dep := quest.Match(lib, res, app, sampleName, opts)
		if err := quest.WriteLibraryCounts(ctx, templates, app, *output, opts.Compress); err != nil {
			log.Fatalf("write library counts: %v", err)
		}
		if err := quest.WriteStats(ctx, dep, *output); err != nil {
			log.Fatalf("write stats: %v", err)
		}
	} else {
		if err := quest.WriteStats(ctx, quest.NewIndependentStats(app, sampleName, res.Stats), *output); err != nil {
			log.Fatalf("write stats: %v", err)
		}
	}
	log.Printf("all done")
}
