package quest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"
)

// AppInfo is recorded in the TSV headers and the stats report so output
// files are traceable to the invocation that produced them.
type AppInfo struct {
	Version string
	Command string
}

// OutputPath appends the conventional suffix for a given output, adding
// ".gz" when the output is compressed.
func OutputPath(prefix, suffix string, compressed bool) string {
	p := prefix + suffix
	if compressed {
		p += ".gz"
	}
	return p
}

// newOutput opens path for writing, optionally via gzip. The returned
// cleanup flushes and closes everything, folding failures into *err.
func newOutput(ctx context.Context, path string, compressed bool) (io.Writer, func(err *error), error) {
	dst, err := file.Create(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	var w io.Writer = dst.Writer(ctx)
	var zw *gzip.Writer
	if compressed {
		zw = gzip.NewWriter(w)
		w = zw
	}
	cleanup := func(err *error) {
		if zw != nil {
			if e := zw.Close(); e != nil && *err == nil {
				*err = e
			}
		}
		file.CloseAndReport(ctx, dst, err)
	}
	return w, cleanup, nil
}

func writeFullHeader(w *tsv.Writer, app AppInfo, fields string) error {
	w.WriteString("##Command: " + app.Command)
	if err := w.EndLine(); err != nil {
		return err
	}
	w.WriteString("##Version: " + app.Version)
	if err := w.EndLine(); err != nil {
		return err
	}
	w.WriteString("#" + fields)
	return w.EndLine()
}

// WriteQueryCounts emits the library-independent count table: one row per
// unique accepted sequence, ordered by sequence ascending.
func WriteQueryCounts(ctx context.Context, counts *Counter, app AppInfo, prefix string, compressed bool) (err error) {
	path := OutputPath(prefix, ".query_counts.tsv", compressed)
	log.Printf("writing query counts file: %s", path)
	w, cleanup, err := newOutput(ctx, path, compressed)
	if err != nil {
		return err
	}
	defer cleanup(&err)
	tw := tsv.NewWriter(w)
	if err = writeFullHeader(tw, app, "SEQUENCE\tLENGTH\tCOUNT"); err != nil {
		return err
	}
	for _, sc := range counts.Sorted() {
		tw.WriteString(sc.Seq)
		tw.WriteUint32(uint32(sc.Length()))
		tw.WriteInt64(sc.Count)
		if err = tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteLibraryCounts emits the library-dependent count table, one row per
// library entry in library input order.
func WriteLibraryCounts(ctx context.Context, templates []Template, app AppInfo, prefix string, compressed bool) (err error) {
	path := OutputPath(prefix, ".lib_counts.tsv", compressed)
	log.Printf("writing library counts file: %s", path)
	w, cleanup, err := newOutput(ctx, path, compressed)
	if err != nil {
		return err
	}
	defer cleanup(&err)
	tw := tsv.NewWriter(w)
	if err = writeFullHeader(tw, app, "ID\tNAME\tSEQUENCE\tLENGTH\tCOUNT\tUNIQUE\tSAMPLE"); err != nil {
		return err
	}
	for _, t := range templates {
		tw.WriteString(t.Entry.ID)
		tw.WriteString(t.Entry.Name)
		tw.WriteString(t.Entry.Seq)
		tw.WriteUint32(uint32(len(t.Entry.Seq)))
		tw.WriteInt64(t.Count)
		if t.Unique {
			tw.WriteUint32(1)
		} else {
			tw.WriteUint32(0)
		}
		tw.WriteString(t.Sample)
		if err = tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteMostCommon emits the top-k most common unique sequences as FASTA.
// Order is deterministic: count descending, ties by sequence ascending. If k
// exceeds the number of unique sequences, all of them are written.
func WriteMostCommon(ctx context.Context, counts *Counter, k int, sample string, app AppInfo, prefix string, compressed bool) (err error) {
	if sample == "" {
		sample = "pyQUEST"
	}
	path := OutputPath(prefix, fmt.Sprintf(".%s.top%d.fasta", sample, k), compressed)
	log.Printf("writing most common reads file: %s", path)
	w, cleanup, err := newOutput(ctx, path, compressed)
	if err != nil {
		return err
	}
	defer cleanup(&err)
	bw := bufio.NewWriter(w)
	er := errors.Once{}
	for i, sc := range counts.Top(k) {
		_, e := fmt.Fprintf(bw, "> pyQUEST|%d|%d\n%s\n", i+1, sc.Count, sc.Seq)
		er.Set(e)
	}
	er.Set(bw.Flush())
	return er.Err()
}

// WriteStats writes the stats report (IndependentStats or DependentStats)
// as a single JSON document. Never compressed.
func WriteStats(ctx context.Context, stats interface{}, prefix string) (err error) {
	path := prefix + ".stats.json"
	log.Printf("writing statistics file: %s", path)
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	dst, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, dst, &err)
	_, err = dst.Writer(ctx).Write(data)
	return err
}
