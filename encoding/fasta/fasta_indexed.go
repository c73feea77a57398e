package fasta

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/grailbio/base/errors"
)

// indexEntry is one line of a .fai file:
// "<name>\t<length>\t<byte offset>\t<bases per line>\t<bytes per line>".
type indexEntry struct {
	length    uint64
	offset    uint64
	lineBase  uint64
	lineWidth uint64
}

// parseIndexLine parses one .fai line.
func parseIndexLine(line string) (name string, ent indexEntry, err error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 5 {
		err = errors.E(errors.Invalid, "fasta: invalid index line:", line)
		return
	}
	name = fields[0]
	vals := [4]*uint64{&ent.length, &ent.offset, &ent.lineBase, &ent.lineWidth}
	for i, v := range vals {
		if *v, err = strconv.ParseUint(fields[i+1], 10, 64); err != nil {
			err = errors.E(errors.Invalid, err, "fasta: invalid index line:", line)
			return
		}
	}
	if ent.lineBase == 0 || ent.lineWidth < ent.lineBase {
		err = errors.E(errors.Invalid, "fasta: invalid line geometry in index line:", line)
	}
	return
}

type indexedFasta struct {
	seqs      map[string]indexEntry
	seqNames  []string // returned by SeqNames()
	reader    io.ReadSeeker
	bufOff    int64
	buf       []byte // caches file contents starting at bufOff.
	resultBuf []byte // temp for concatenating multi-line sequences.
	mutex     sync.Mutex
}

// NewIndexed creates a Fasta that performs random lookups using the provided
// .fai index, without reading the sequence data into memory.
func NewIndexed(fasta io.ReadSeeker, index io.Reader) (Fasta, error) {
	f := &indexedFasta{seqs: make(map[string]indexEntry), reader: fasta}
	scanner := bufio.NewScanner(index)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		name, ent, err := parseIndexLine(line)
		if err != nil {
			return nil, err
		}
		f.seqs[name] = ent
		f.seqNames = append(f.seqNames, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "fasta: reading index")
	}
	sort.SliceStable(f.seqNames, func(i, j int) bool {
		return f.seqs[f.seqNames[i]].offset < f.seqs[f.seqNames[j]].offset
	})
	return f, nil
}

// Len implements Fasta.Len().
func (f *indexedFasta) Len(seqName string) (uint64, error) {
	ent, ok := f.seqs[seqName]
	if !ok {
		return 0, errNotFound(seqName)
	}
	return ent.length, nil
}

// read returns file bytes [off, off+n), refilling the cache if necessary.
func (f *indexedFasta) read(off int64, n int) ([]byte, error) {
	limit := off + int64(n)
	if off >= f.bufOff && limit <= f.bufOff+int64(len(f.buf)) {
		return f.buf[off-f.bufOff : limit-f.bufOff], nil
	}
	if newOffset, err := f.reader.Seek(off, io.SeekStart); err != nil || newOffset != off {
		return nil, errors.E(err, fmt.Sprintf("fasta: failed to seek to offset %d (at %d)", off, newOffset))
	}
	bufSize := 8192
	if bufSize < n {
		bufSize = n
	}
	resizeBuf(&f.buf, bufSize)
	bytesRead, err := io.ReadAtLeast(f.reader, f.buf, n)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		f.buf = f.buf[:0]
		return nil, errors.E(err, "fasta: reading sequence data")
	}
	if bytesRead < n {
		f.buf = f.buf[:0]
		return nil, errors.E(errors.Integrity, "fasta: unexpected end of file (bad index?)")
	}
	f.bufOff = off
	f.buf = f.buf[:bytesRead]
	return f.buf[:n], nil
}

func resizeBuf(buf *[]byte, n int) {
	if cap(*buf) < n {
		*buf = make([]byte, n)
	} else {
		*buf = (*buf)[:n]
	}
}

// Get implements Fasta.Get().
func (f *indexedFasta) Get(seqName string, start, end uint64) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	ent, ok := f.seqs[seqName]
	if !ok {
		return "", errNotFound(seqName)
	}
	if err := checkRange(seqName, start, end, ent.length); err != nil {
		return "", err
	}

	// Byte offset of start, skipping the line terminators before it.
	charsPerNewline := ent.lineWidth - ent.lineBase
	offset := ent.offset + start + charsPerNewline*(start/ent.lineBase)

	// Number of bytes, terminators included, covering [start, end).
	firstLineBases := ent.lineBase - (start % ent.lineBase)
	newlinesToRead := uint64(0)
	if end-start > firstLineBases {
		newlinesToRead = 1 + (end-start-firstLineBases)/ent.lineBase
	}
	capacity := end - start + newlinesToRead*charsPerNewline
	// The last line of a file may lack its terminator.
	if newlinesToRead > 0 && end-start-firstLineBases == (newlinesToRead-1)*ent.lineBase {
		capacity -= charsPerNewline
	}

	buffer, err := f.read(int64(offset), int(capacity))
	if err != nil {
		return "", err
	}

	resizeBuf(&f.resultBuf, int(end-start))
	linePos := start % ent.lineBase
	resultPos := 0
	for _, c := range buffer {
		if linePos < ent.lineBase {
			f.resultBuf[resultPos] = c
			resultPos++
		}
		linePos++
		if linePos == ent.lineWidth {
			linePos = 0
		}
	}
	return string(f.resultBuf[:resultPos]), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *indexedFasta) SeqNames() []string {
	return f.seqNames
}
