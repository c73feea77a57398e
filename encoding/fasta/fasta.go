// Package fasta provides random access to reference sequences stored in FASTA
// files, either fully loaded into memory or looked up through a samtools-style
// .fai index.  See http://www.htslib.org/doc/faidx.html.
//
// A FASTA file is a series of named sequences, each possibly wrapped across
// several lines:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// The sequence name is the run of characters right after '>' up to the first
// space; '>chr1 A viral sequence' names 'chr1'.
package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	pkgerrors "github.com/pkg/errors"
)

// Longest line we are willing to buffer.  Unwrapped chromosome-length lines
// show up in practice.
const maxLineLen = 1024 * 1024 * 300

// Fasta represents FASTA-formatted data, consisting of a set of named
// sequences.
type Fasta interface {
	// Get returns the bases of seqName over the 0-based half-open interval
	// [start, end).  An unknown seqName yields an errors.NotExist error, and an
	// empty or out-of-bounds interval an errors.Invalid error.  Get is
	// thread-safe.
	Get(seqName string, start, end uint64) (string, error)

	// Len returns the length of the given sequence.
	Len(seqName string) (uint64, error)

	// SeqNames returns the names of all sequences, in the order of appearance in
	// the FASTA file.
	SeqNames() []string
}

func errNotFound(seqName string) error {
	return errors.E(errors.NotExist, "fasta: sequence not found:", seqName)
}

// checkRange validates [start, end) against a sequence of length seqLen.
func checkRange(seqName string, start, end, seqLen uint64) error {
	if end <= start {
		return errors.E(errors.Invalid, "fasta: start must be less than end")
	}
	if end > seqLen {
		return errors.E(errors.Invalid, fmt.Sprintf("fasta: end %d is past end of sequence %s (length %d)", end, seqName, seqLen))
	}
	return nil
}

// seqName extracts the sequence name from a '>' header line.
func seqName(header []byte) string {
	header = header[1:]
	if spacePos := bytes.IndexByte(header, ' '); spacePos != -1 {
		header = header[:spacePos]
	}
	return string(header)
}

type fasta struct {
	seqs     map[string]string
	seqNames []string
}

// New creates a Fasta that holds all the FASTA data from the given reader in
// memory.
func New(r io.Reader) (Fasta, error) {
	f := &fasta{seqs: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxLineLen)
	var (
		curName string
		seq     bytes.Buffer
		started bool
	)
	flush := func() {
		if started {
			f.seqs[curName] = seq.String()
			f.seqNames = append(f.seqNames, curName)
		}
		seq.Reset()
	}
	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			flush()
			curName = seqName(line)
			started = true
			continue
		}
		if !started {
			return nil, errors.E(errors.Invalid, "fasta: malformed FASTA file (sequence data before first header)")
		}
		seq.Write(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(pkgerrors.Wrap(err, "fasta: couldn't read FASTA data"))
	}
	flush()
	return f, nil
}

// Get implements Fasta.Get().
func (f *fasta) Get(seqName string, start, end uint64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errNotFound(seqName)
	}
	if err := checkRange(seqName, start, end, uint64(len(s))); err != nil {
		return "", err
	}
	return s[start:end], nil
}

// Len implements Fasta.Len().
func (f *fasta) Len(seqName string) (uint64, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return 0, errNotFound(seqName)
	}
	return uint64(len(s)), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *fasta) SeqNames() []string {
	return f.seqNames
}
