package quest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// LibraryEntry is one data row of the library definition file.
type LibraryEntry struct {
	ID   string
	Name string
	// Seq is the template sequence, canonicalized to uppercase on load.
	Seq string
}

// Library is an ordered set of template definitions plus a one-to-many
// sequence index. The same sequence may appear in several entries
// (duplicated targets); the index preserves entry insertion order.
type Library struct {
	Entries []LibraryEntry
	// index maps a sequence to the positions of every entry carrying it.
	index map[string][]int
}

// EntriesFor returns the positions of the entries whose sequence equals seq.
func (l *Library) EntriesFor(seq string) []int { return l.index[seq] }

func (l *Library) add(e LibraryEntry) {
	l.index[e.Seq] = append(l.index[e.Seq], len(l.Entries))
	l.Entries = append(l.Entries, e)
}

// LoadLibrary reads a tab-separated library definition. Lines starting with
// "##" are key/value metadata and a single leading "#" marks the column
// header; both are skipped, as fields are identified by position. Data rows
// must carry at least ID, NAME and SEQUENCE columns; extra columns are
// ignored. A row with fewer columns is a fatal configuration error.
func LoadLibrary(ctx context.Context, path string) (lib *Library, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, in.Name()); u != nil {
		r = u
	}
	lib = &Library{index: map[string][]int{}}
	scanner := bufio.NewScanner(r)
	nLine := 0
	for scanner.Scan() {
		nLine++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		cols := strings.SplitN(line, "\t", 4)
		if len(cols) < 3 {
			return nil, errors.E(fmt.Sprintf("malformed library row %s:%d: %q", path, nLine, line))
		}
		lib.add(LibraryEntry{
			ID:   cols[0],
			Name: cols[1],
			Seq:  strings.ToUpper(cols[2]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	log.Printf("loaded %d library entries (%d unique sequences) from %s",
		len(lib.Entries), len(lib.index), path)
	return lib, nil
}

// Template is a library entry joined with its matched read count.
type Template struct {
	Entry LibraryEntry
	// Count is the accepted-read count of the entry's sequence, zero if the
	// sequence never occurred.
	Count int64
	// Unique is true iff the sequence appears in exactly one library entry.
	Unique bool
	// LengthExcluded marks templates shorter than the minimum read length.
	// They are listed in the output but removed from dependent statistics;
	// their count is necessarily zero, since shorter reads never pass the
	// filter.
	LengthExcluded bool
	Sample         string
}

// Match projects the merged counts onto the library, in library input
// order, and computes the library-dependent statistics over the resulting
// immutable template snapshot. Runs single-threaded after the merge barrier.
func Match(lib *Library, res *Result, app AppInfo, sample string, opts Opts) ([]Template, DependentStats) {
	templates := make([]Template, 0, len(lib.Entries))
	shortSeqs := map[string]bool{}
	for _, e := range lib.Entries {
		excluded := len(e.Seq) < opts.MinLength
		if excluded {
			shortSeqs[e.Seq] = true
		}
		templates = append(templates, Template{
			Entry:          e,
			Count:          res.Counts.Get(e.Seq),
			Unique:         len(lib.index[e.Seq]) == 1,
			LengthExcluded: excluded,
			Sample:         sample,
		})
	}
	if len(shortSeqs) > 0 {
		log.Error.Printf("%d unique library sequences are below the minimum length (%d)",
			len(shortSeqs), opts.MinLength)
	}

	dep := DependentStats{
		IndependentStats: NewIndependentStats(app, sample, res.Stats),
		TotalTemplates:   len(lib.Entries),
	}

	// Per-template counts, length-excluded rows removed.
	var counts []int64
	for _, t := range templates {
		if t.LengthExcluded {
			dep.LengthExcludedTemplates++
			continue
		}
		if t.Unique {
			dep.TotalUniqueTemplates++
		}
		counts = append(counts, t.Count)
		if t.Count == 0 {
			dep.ZeroCountTemplates++
		}
		if t.Count < 15 {
			dep.LowCountTemplatesLt15++
		}
		if t.Count < 30 {
			dep.LowCountTemplatesLt30++
		}
	}
	if opts.LowCount >= 0 {
		user := &LowCountThreshold{Lt: opts.LowCount}
		for _, n := range counts {
			if n < int64(opts.LowCount) {
				user.Count++
			}
		}
		dep.LowCountTemplatesUser = user
	}

	// Read-level metrics are attributed once per distinct sequence even when
	// the sequence spans several template rows.
	for seq, entries := range lib.index {
		if len(seq) < opts.MinLength {
			continue
		}
		n := res.Counts.Get(seq)
		dep.MappedToTemplateReads += n
		if len(entries) > 1 {
			dep.MultimapReads += n
		}
	}
	dep.UnmappedReads = res.Stats.AcceptedReads - dep.MappedToTemplateReads

	if len(counts) > 0 {
		sort.Slice(counts, func(i, j int) bool { return counts[i] < counts[j] })
		var sum int64
		for _, n := range counts {
			sum += n
		}
		if sum == 0 {
			log.Error.Printf("no library matches")
		}
		dep.MeanCountPerTemplate = roundStat(float64(sum) / float64(len(counts)))
		dep.MedianCountPerTemplate = roundStat(medianFromSorted(counts))
		dep.GiniCoefficient = roundStat(gini(counts))
	}
	return templates, dep
}
