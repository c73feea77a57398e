package tally_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/readtally/pileup/tally"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

// setupRun writes the reference, interval list and indexed BAM for a run
// over chr1:[0, 5), whose reference bases are ACGTA.
func setupRun(t *testing.T, tmpdir string, bed string, recs func(refs []*sam.Reference) []*sam.Record) tally.Opts {
	fapath := filepath.Join(tmpdir, "ref.fa")
	writeFile(t, fapath, ">chr1\nACGTAGGGGG\n>chr2 description\nCCCCCCCCCC\n")
	bedpath := filepath.Join(tmpdir, "regions.bed")
	writeFile(t, bedpath, bed)
	header, refs := newHeader(t, "chr1", "chr2")
	bampath := filepath.Join(tmpdir, "reads.bam")
	writeBAM(t, bampath, header, recs(refs))

	opts := tally.DefaultOpts
	opts.BamPath = bampath
	opts.BedPath = bedpath
	opts.FastaPath = fapath
	opts.OutputDir = filepath.Join(tmpdir, "out", "tables")
	return opts
}

func TestRun(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		qual []byte
		want string
	}{
		{"all_match", "AAAAA", []byte{10, 10, 10, 10, 10}, "read1\t5\t0"},
		{"low_quality_mismatch", "AATAA", []byte{10, 10, 10, 10, 10}, "read1\t4\t1"},
		{"high_quality_mismatch", "AATAA", []byte{10, 10, 30, 10, 10}, "read1\t5\t0"},
		// Every base is compared with the reference base at the read start.
		{"single_reference_base", "ACGTA", []byte{10, 10, 10, 10, 10}, "read1\t2\t3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpdir, cleanup := testutil.TempDir(t, "", "")
			defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
			ctx := vcontext.Background()
			opts := setupRun(t, tmpdir, "chr1\t0\t5\n", func(refs []*sam.Reference) []*sam.Record {
				return []*sam.Record{newRecord("read1", refs[0], 0, tt.seq, tt.qual...)}
			})
			paths, err := tally.Run(ctx, opts)
			assert.NoError(t, err)
			expect.EQ(t, paths, []string{filepath.Join(opts.OutputDir, "chr1.tsv.gz")})
			expect.EQ(t, readLines(t, paths[0]), []string{tally.Header, tt.want})
		})
	}
}

func TestRunMultipleRegions(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()
	bed := "# header\nchr1\t0\t5\tname\nchr2\t2\t8\nchr2\t4\t6\n\nchr1\t0\t4\n"
	opts := setupRun(t, tmpdir, bed, func(refs []*sam.Reference) []*sam.Record {
		return []*sam.Record{
			newRecord("read1", refs[0], 0, "AAAA"),
			newRecord("read2", refs[0], 1, "CCGG"),
			// Outside chr1:[0, 4).
			newRecord("read3", refs[0], 6, "GGGG"),
			newRecord("read1", refs[1], 4, "CC"),
			newRecord("read4", refs[1], 5, "CA", 10, 35),
		}
	})
	for _, parallelism := range []int{1, 2} {
		opts.Parallelism = parallelism
		for _, bgzip := range []bool{false, true} {
			opts.Bgzip = bgzip
			paths, err := tally.Run(ctx, opts)
			assert.NoError(t, err)
			expect.EQ(t, paths, []string{
				filepath.Join(opts.OutputDir, "chr1.tsv.gz"),
				filepath.Join(opts.OutputDir, "chr2.tsv.gz"),
			})
			expect.EQ(t, readLines(t, paths[0]), []string{tally.Header, "read1\t4\t0", "read2\t2\t2"})
			expect.EQ(t, readLines(t, paths[1]), []string{tally.Header, "read1\t2\t0", "read4\t2\t0"})
		}
	}
}

func TestRunErrors(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()
	opts := setupRun(t, tmpdir, "chr1\t0\t5\n", func(refs []*sam.Reference) []*sam.Record {
		return []*sam.Record{newRecord("read1", refs[0], 0, "AAAAA")}
	})

	{
		o := opts
		o.FastaPath = ""
		_, err := tally.Run(ctx, o)
		expect.True(t, errors.Is(errors.Invalid, err), err)
	}
	{
		o := opts
		o.QScoreCutoff = 256
		_, err := tally.Run(ctx, o)
		expect.True(t, errors.Is(errors.Invalid, err), err)
	}
	{
		o := opts
		o.BedPath = filepath.Join(tmpdir, "regions2.bed")
		writeFile(t, o.BedPath, "chr1\tzero\t5\n")
		_, err := tally.Run(ctx, o)
		expect.True(t, errors.Is(errors.Invalid, err), err)
	}
	{
		o := opts
		o.BedPath = filepath.Join(tmpdir, "regions3.bed")
		writeFile(t, o.BedPath, "chrM\t0\t5\n")
		_, err := tally.Run(ctx, o)
		expect.True(t, errors.Is(errors.NotExist, err), err)
	}
	{
		o := opts
		o.BedPath = filepath.Join(tmpdir, "regions4.bed")
		writeFile(t, o.BedPath, "chr1\t0\t5\n")
		o.BamIndexPath = filepath.Join(tmpdir, "missing.bai")
		_, err := tally.Run(ctx, o)
		expect.NotNil(t, err)
	}
	{
		o := opts
		o.BedPath = filepath.Join(tmpdir, "missing.bed")
		_, err := tally.Run(ctx, o)
		expect.NotNil(t, err)
	}
	// Nothing was written by the failed runs.
	_, err := os.Stat(filepath.Join(opts.OutputDir, "chr1.tsv.gz"))
	expect.True(t, os.IsNotExist(err))
}
