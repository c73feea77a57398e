package fasta

import (
	"bufio"
	"bytes"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// GenerateIndex writes a .fai index for the FASTA data in "in" to "out".  The
// result can be passed to NewIndexed.
//
// Every line of a sequence except its last must have the same width; this is
// the samtools faidx requirement.
func GenerateIndex(out io.Writer, in io.Reader) (err error) {
	var (
		tsvOut      = tsv.NewWriter(out)
		r           = bufio.NewReader(in)
		name        string
		haveSeq     bool
		seqStartOff int64
		totalBases  int64
		lineBases   int64
		lineWidth   int64
		cumByte     int64
	)
	setErr := func(e error) {
		if e != nil && err == nil {
			err = e
		}
	}
	flush := func() {
		if !haveSeq {
			return
		}
		tsvOut.WriteString(name)
		tsvOut.WriteInt64(totalBases)
		tsvOut.WriteInt64(seqStartOff)
		tsvOut.WriteInt64(lineBases)
		tsvOut.WriteInt64(lineWidth)
		setErr(tsvOut.EndLine())
	}
	for err == nil {
		fullLine, e := r.ReadBytes('\n')
		if e != nil && e != io.EOF {
			setErr(errors.E(e, "fasta.GenerateIndex"))
			break
		}
		cumByte += int64(len(fullLine))
		line := bytes.TrimRight(fullLine, "\r\n")
		if len(line) > 0 {
			if line[0] == '>' {
				flush()
				name = seqName(line)
				haveSeq = true
				seqStartOff = cumByte
				totalBases, lineBases, lineWidth = 0, 0, 0
			} else if !haveSeq {
				setErr(errors.E(errors.Invalid, "fasta.GenerateIndex: malformed FASTA file"))
			} else {
				if lineWidth == 0 {
					lineWidth = int64(len(fullLine))
					lineBases = int64(len(line))
				}
				totalBases += int64(len(line))
			}
		}
		if e == io.EOF {
			break
		}
	}
	if err != nil {
		return
	}
	if cumByte == 0 {
		return errors.E(errors.Invalid, "fasta.GenerateIndex: empty FASTA file")
	}
	flush()
	setErr(tsvOut.Flush())
	return
}
