package readsource

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"

	"github.com/cancerit/pyQUEST/quest"
)

const testFASTQ = `@read1 1:N:0:ACGT
ACGTACGT
+
IIIIIIII
@read2 1:Y:0:ACGT
TTTT
+
IIII
@read3
acgTT
+read3
IIIII
`

func scanAll(t *testing.T, src Source) []quest.ReadRecord {
	var recs []quest.ReadRecord
	for src.Scan() {
		recs = append(recs, src.Record())
	}
	assert.NoError(t, src.Err())
	return recs
}

func TestFASTQScan(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	path := filepath.Join(tempDir, "reads.fastq")
	assert.NoError(t, ioutil.WriteFile(path, []byte(testFASTQ), 0666))
	src, err := Open(ctx, path, Opts{})
	assert.NoError(t, err)
	expect.EQ(t, src.SampleName(), "")

	recs := scanAll(t, src)
	expect.EQ(t, recs, []quest.ReadRecord{
		{Seq: "ACGTACGT"},
		{Seq: "TTTT", VendorFail: true},
		{Seq: "acgTT", Masked: true},
	})
	assert.NoError(t, src.Close())
}

func TestFASTQScanGzip(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	path := filepath.Join(tempDir, "reads.fastq.gz")
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(testFASTQ))
	assert.NoError(t, err)
	assert.NoError(t, zw.Close())
	assert.NoError(t, ioutil.WriteFile(path, buf.Bytes(), 0666))

	src, err := Open(ctx, path, Opts{})
	assert.NoError(t, err)
	recs := scanAll(t, src)
	expect.EQ(t, len(recs), 3)
	expect.EQ(t, recs[0].Seq, "ACGTACGT")
	assert.NoError(t, src.Close())
}

func TestFASTQTruncatedRecord(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	path := filepath.Join(tempDir, "truncated.fastq")
	assert.NoError(t, ioutil.WriteFile(path, []byte("@read1\nACGT\n+\n"), 0666))
	src, err := Open(ctx, path, Opts{})
	assert.NoError(t, err)
	expect.False(t, src.Scan())
	expect.HasSubstr(t, src.Err(), "truncated FASTQ record")
	assert.NoError(t, src.Close())
}

func TestFASTQInvalidFraming(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	for _, tc := range []struct {
		data, want string
	}{
		{"read1\nACGT\n+\nIIII\n", "invalid FASTQ header"},
		{"@read1\nACGT\nIIII\nACGT\n", "invalid FASTQ separator"},
	} {
		path := filepath.Join(tempDir, "bad.fastq")
		assert.NoError(t, ioutil.WriteFile(path, []byte(tc.data), 0666))
		src, err := Open(ctx, path, Opts{})
		assert.NoError(t, err)
		expect.False(t, src.Scan())
		expect.HasSubstr(t, src.Err(), tc.want)
		assert.NoError(t, src.Close())
	}
}

func TestCasavaQCFail(t *testing.T) {
	for _, tc := range []struct {
		header string
		want   bool
	}{
		{"@r1 1:Y:0:ACGT", true},
		{"@r1 2:Y:18:ACGT", true},
		{"@r1 1:N:0:ACGT", false},
		{"@r1", false},
		{"@r1 some description", false},
		{"@r1 9:Y:0:ACGT", false}, // read number out of range
	} {
		expect.EQ(t, casavaQCFail(tc.header), tc.want, "header: %q", tc.header)
	}
}

func TestHasLowercase(t *testing.T) {
	expect.False(t, hasLowercase("ACGTN"))
	expect.True(t, hasLowercase("ACGta"))
	expect.False(t, hasLowercase(""))
}
