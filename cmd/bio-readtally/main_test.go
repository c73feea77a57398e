package main

import (
	"flag"
	"testing"

	"github.com/grailbio/readtally/pileup/tally"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestOptsFromFlags(t *testing.T) {
	defaults := optsFromFlags()
	expect.EQ(t, defaults, tally.DefaultOpts)
	expect.EQ(t, defaults.QScoreCutoff, 30)

	for _, kv := range [][2]string{
		{"b", "in.bam"},
		{"e", "regions.bed"},
		{"fasta", "ref.fa"},
		{"o", "out"},
		{"q", "20"},
		{"parallelism", "4"},
		{"bgzf", "true"},
	} {
		assert.NoError(t, flag.Set(kv[0], kv[1]))
	}
	expect.EQ(t, optsFromFlags(), tally.Opts{
		BamPath:      "in.bam",
		BedPath:      "regions.bed",
		FastaPath:    "ref.fa",
		OutputDir:    "out",
		QScoreCutoff: 20,
		Parallelism:  4,
		Bgzip:        true,
	})

	// The long form overrides the shorthand, and vice versa.
	assert.NoError(t, flag.Set("bam", "other.bam"))
	assert.NoError(t, flag.Set("qscore", "255"))
	opts := optsFromFlags()
	expect.EQ(t, opts.BamPath, "other.bam")
	expect.EQ(t, opts.QScoreCutoff, 255)
	assert.NoError(t, opts.Validate())

	assert.NoError(t, flag.Set("q", "-1"))
	opts = optsFromFlags()
	expect.NotNil(t, opts.Validate())
}
