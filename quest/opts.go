package quest

type Opts struct {
	// MinLength is the minimum accepted read length. Reads (and library
	// sequences) shorter than this are length-excluded.
	MinLength int
	// MostCommon, when > 0, requests a FASTA report of the top N most
	// common unique read sequences.
	MostCommon int
	// LowCount, when >= 0, adds low_count_templates_user to the dependent
	// stats with this cutoff. -1 disables it.
	LowCount int
	// Parallelism is the number of counting workers; 0 detects the
	// available CPUs.
	Parallelism int
	// Sample is the sample name applied to count columns. Required for
	// FASTQ inputs; for SAM/BAM it may instead come from the @RG SM header.
	Sample string
	// Reference is the reference FASTA path, required for CRAM inputs.
	Reference string
	// Library is the library definition TSV path. Empty runs
	// library-independent counting only.
	Library string
	// Compress gzips the TSV and FASTA outputs.
	Compress bool
}

var DefaultOpts = Opts{
	MinLength:   1,
	MostCommon:  0,
	LowCount:    -1,
	Parallelism: 0,
	Compress:    true,
}
