package fasta_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/readtally/encoding/fasta"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

const (
	fastaData  = ">seq1\n" + "ACGTA\nCGTAC\nGT\n" + ">seq2 A viral sequence\n" + "ACGT\n" + "ACGT\n"
	fastaIndex = "seq1\t12\t6\t5\t6\n" + "seq2\t8\t44\t4\t5\n"
)

func newBoth(t *testing.T, data, index string) []fasta.Fasta {
	unindexed, err := fasta.New(strings.NewReader(data))
	assert.NoError(t, err)
	indexed, err := fasta.NewIndexed(strings.NewReader(data), strings.NewReader(index))
	assert.NoError(t, err)
	return []fasta.Fasta{unindexed, indexed}
}

func TestGet(t *testing.T) {
	tests := []struct {
		seq   string
		start uint64
		end   uint64
		want  string
		kind  errors.Kind
	}{
		{"seq1", 1, 2, "C", errors.Other},
		{"seq1", 1, 6, "CGTAC", errors.Other},
		{"seq1", 0, 12, "ACGTACGTACGT", errors.Other},
		{"seq1", 10, 12, "GT", errors.Other},
		{"seq1", 0, 4, "ACGT", errors.Other},
		{"seq2", 0, 8, "ACGTACGT", errors.Other},
		{"seq2", 2, 5, "GTA", errors.Other},
		{"seq0", 0, 1, "", errors.NotExist},
		{"seq1", 10, 13, "", errors.Invalid},
		{"seq1", 4, 3, "", errors.Invalid},
		{"seq1", 4, 4, "", errors.Invalid},
	}
	for _, fa := range newBoth(t, fastaData, fastaIndex) {
		for _, tt := range tests {
			got, err := fa.Get(tt.seq, tt.start, tt.end)
			if tt.kind == errors.Other {
				expect.NoError(t, err)
			} else {
				expect.True(t, errors.Is(tt.kind, err), "%s:%d-%d: got %v", tt.seq, tt.start, tt.end, err)
			}
			expect.EQ(t, got, tt.want)
		}
	}
}

func TestLen(t *testing.T) {
	for _, fa := range newBoth(t, fastaData, fastaIndex) {
		n, err := fa.Len("seq1")
		expect.NoError(t, err)
		expect.EQ(t, n, uint64(12))
		n, err = fa.Len("seq2")
		expect.NoError(t, err)
		expect.EQ(t, n, uint64(8))
		_, err = fa.Len("seq0")
		expect.True(t, errors.Is(errors.NotExist, err))
	}
}

func TestSeqNames(t *testing.T) {
	for _, fa := range newBoth(t, fastaData, fastaIndex) {
		expect.EQ(t, fa.SeqNames(), []string{"seq1", "seq2"})
	}
}

func TestMalformed(t *testing.T) {
	_, err := fasta.New(strings.NewReader("ACGT\n>seq1\nACGT\n"))
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = fasta.NewIndexed(strings.NewReader(fastaData), strings.NewReader("seq1\t12\t6\n"))
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = fasta.NewIndexed(strings.NewReader(fastaData), strings.NewReader("seq1\tx\t6\t5\t6\n"))
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestGenerateIndex(t *testing.T) {
	generateIndex := func(fa string) string {
		idx := bytes.Buffer{}
		assert.NoError(t, fasta.GenerateIndex(&idx, strings.NewReader(fa)))
		return idx.String()
	}

	expect.EQ(t, generateIndex(fastaData), fastaIndex)

	fa := `>E0
GGTGAAATC
CCTGAAATC
AAAATTGCT
>E1
GTCCCTCCCCAGACATGGCCCTGGGAGGC
>E2
CCGCGCCCGCGCCCCCGCCGCC
`
	fai := generateIndex(fa)
	expect.EQ(t, fai, "E0\t27\t4\t9\t10\nE1\t29\t38\t29\t30\nE2\t22\t72\t22\t23\n")
	indexed, err := fasta.NewIndexed(strings.NewReader(fa), strings.NewReader(fai))
	assert.NoError(t, err)
	seq, err := indexed.Get("E0", 7, 20)
	assert.NoError(t, err)
	expect.EQ(t, seq, "TCCCTGAAATCAA")

	// DOS line endings.
	expect.EQ(t, generateIndex(">E0\r\nGGGG\r\n>E1\r\nAAAAA\r\n"), "E0\t4\t5\t4\t6\nE1\t5\t16\t5\t7\n")

	// No terminator on the last line; the indexed reader must not read past
	// EOF.
	noTerm := ">E0\nGGGG\n>E1\nCCCCC\nAAAAA"
	fai = generateIndex(noTerm)
	expect.EQ(t, fai, "E0\t4\t4\t4\t5\nE1\t10\t13\t5\t6\n")
	indexed, err = fasta.NewIndexed(strings.NewReader(noTerm), strings.NewReader(fai))
	assert.NoError(t, err)
	seq, err = indexed.Get("E1", 0, 10)
	assert.NoError(t, err)
	expect.EQ(t, seq, "CCCCCAAAAA")

	idx := bytes.Buffer{}
	expect.True(t, errors.Is(errors.Invalid, fasta.GenerateIndex(&idx, strings.NewReader(""))))
}
