package quest

import (
	"runtime"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// Source yields read records sequentially. Implementations live in the
// readsource package; tests use in-memory slices.
type Source interface {
	// Scan advances to the next record, returning false at end of input or
	// on error. Once Scan returns false it never returns true again.
	Scan() bool
	// Record returns the current record. Valid only after Scan returned
	// true; the engine does not retain it across calls.
	Record() ReadRecord
	// Err returns the error that stopped scanning, nil on normal end of
	// input.
	Err() error
}

// Result is the merged outcome of a counting run.
type Result struct {
	Counts *Counter
	Stats  FilterStats
}

// batchSize is the number of reads handed to a worker at a time. Large
// enough to amortize channel traffic, small enough to keep all workers busy
// near end of input.
const batchSize = 4096

const progressInterval = 1024 * 1024

// partial is the one-shot immutable result a worker passes back at the join
// barrier. Workers share no mutable state.
type partial struct {
	counts *Counter
	stats  FilterStats
}

// Count runs the read filter and unique-sequence counter over src with a
// fixed pool of workers and merges the per-worker results. The input stream
// is dealt out in contiguous batches; each batch is classified and tallied
// wholly by one worker, and the merge is commutative, so the final counts
// and stats are independent of how reads land on workers.
//
// Any read-source error aborts the whole run: the partial results are
// discarded and the error is returned.
func Count(src Source, opts Opts) (*Result, error) {
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism < 1 {
		parallelism = 1
	}

	batchCh := make(chan []ReadRecord, parallelism*2)
	var readErr error
	go func() {
		defer close(batchCh)
		batch := make([]ReadRecord, 0, batchSize)
		nRead := int64(0)
		for src.Scan() {
			batch = append(batch, src.Record())
			nRead++
			if nRead%progressInterval == 0 {
				log.Printf("read %dMi records", nRead/progressInterval)
			}
			if len(batch) == batchSize {
				batchCh <- batch
				batch = make([]ReadRecord, 0, batchSize)
			}
		}
		if len(batch) > 0 {
			batchCh <- batch
		}
		// Written strictly before the channel close; Count reads it only
		// after the workers have joined.
		readErr = src.Err()
	}()

	partials := make([]partial, parallelism)
	err := traverse.Each(parallelism, func(jobIdx int) error {
		counts := NewCounter()
		stats := FilterStats{}
		for batch := range batchCh {
			for _, rec := range batch {
				seq, reason := Classify(rec, opts.MinLength)
				stats.observe(reason)
				if reason == Accepted {
					counts.Record(seq)
				}
			}
		}
		partials[jobIdx] = partial{counts: counts, stats: stats}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, readErr
	}

	res := &Result{Counts: NewCounter()}
	for _, p := range partials {
		res.Counts.Merge(p.counts)
		res.Stats = res.Stats.Merge(p.stats)
	}
	log.Printf("parsed %d reads, %d were unique", res.Stats.InputReads, res.Counts.Len())
	return res, nil
}
