package bamprovider

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/hts/sam"
)

const (
	// Width of a linear-index tile, in bases.
	tileShift = 14
)

var baiMagic = []byte{'B', 'A', 'I', 0x1}

// baiBin is one bin of the binning index.  Chunks are kept in file order, and
// adjacent chunks are coalesced.
type baiBin struct {
	bin    uint32
	chunks []bgzf.Chunk
}

// baiRef is the index of one reference.  intervals[t] is the offset of the
// first record whose footprint reaches tile t; unset tiles are filled in by
// finish.
type baiRef struct {
	bins      []*baiBin
	binIdx    map[uint32]*baiBin
	intervals []bgzf.Offset
	set       []bool
}

// reg2bin computes the smallest bin containing [beg, end), as described in
// section 5.3 of the SAM specification.
func reg2bin(beg, end int) uint32 {
	end--
	switch {
	case beg>>14 == end>>14:
		return uint32(((1<<15)-1)/7 + (beg >> 14))
	case beg>>17 == end>>17:
		return uint32(((1<<12)-1)/7 + (beg >> 17))
	case beg>>20 == end>>20:
		return uint32(((1<<9)-1)/7 + (beg >> 20))
	case beg>>23 == end>>23:
		return uint32(((1<<6)-1)/7 + (beg >> 23))
	case beg>>26 == end>>26:
		return uint32(((1<<3)-1)/7 + (beg >> 26))
	}
	return 0
}

func (r *baiRef) add(beg, end int, c bgzf.Chunk) {
	bin := reg2bin(beg, end)
	b, ok := r.binIdx[bin]
	if !ok {
		b = &baiBin{bin: bin}
		r.binIdx[bin] = b
		r.bins = append(r.bins, b)
	}
	if n := len(b.chunks); n > 0 && b.chunks[n-1].End == c.Begin {
		b.chunks[n-1].End = c.End
	} else {
		b.chunks = append(b.chunks, c)
	}

	lastTile := (end - 1) >> tileShift
	for len(r.intervals) <= lastTile {
		r.intervals = append(r.intervals, bgzf.Offset{})
		r.set = append(r.set, false)
	}
	for t := beg >> tileShift; t <= lastTile; t++ {
		if !r.set[t] {
			r.intervals[t] = c.Begin
			r.set[t] = true
		}
	}
}

// finish fills the tiles no record reached with the nearest earlier offset,
// or the first offset for leading tiles.
func (r *baiRef) finish() {
	var prev bgzf.Offset
	havePrev := false
	for t := range r.intervals {
		if r.set[t] {
			prev, havePrev = r.intervals[t], true
			continue
		}
		if havePrev {
			r.intervals[t] = prev
		}
	}
	first := -1
	for t := range r.set {
		if r.set[t] {
			first = t
			break
		}
	}
	for t := 0; t < first; t++ {
		r.intervals[t] = r.intervals[first]
	}
}

func voffset(o bgzf.Offset) uint64 {
	return uint64(o.File)<<16 | uint64(o.Block)
}

func writeBAI(out io.Writer, refs []*baiRef, nNoCoor uint64) error {
	w := bufio.NewWriter(out)
	le := binary.LittleEndian
	buf := make([]byte, 8)
	put32 := func(v uint32) {
		le.PutUint32(buf, v)
		w.Write(buf[:4]) // nolint: errcheck
	}
	put64 := func(v uint64) {
		le.PutUint64(buf, v)
		w.Write(buf) // nolint: errcheck
	}
	w.Write(baiMagic) // nolint: errcheck
	put32(uint32(len(refs)))
	for _, r := range refs {
		put32(uint32(len(r.bins)))
		for _, b := range r.bins {
			put32(b.bin)
			put32(uint32(len(b.chunks)))
			for _, c := range b.chunks {
				put64(voffset(c.Begin))
				put64(voffset(c.End))
			}
		}
		put32(uint32(len(r.intervals)))
		for _, o := range r.intervals {
			put64(voffset(o))
		}
	}
	put64(nNoCoor)
	return w.Flush()
}

// WriteIndex reads the coordinate-sorted BAM data in "in" and writes the
// corresponding .bai index to "out".  Each record is binned by its footprint,
// the same span NewIterator matches windows against.
func WriteIndex(out io.Writer, in io.Reader) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.E(errors.Invalid, fmt.Sprintf("bamprovider.WriteIndex: %v", p))
		}
	}()
	reader, err := bam.NewReader(in, 1)
	if err != nil {
		return errors.E(err, "bamprovider.WriteIndex: read header")
	}
	defer func() {
		if e := reader.Close(); e != nil && err == nil {
			err = errors.E(e, "bamprovider.WriteIndex")
		}
	}()
	refs := make([]*baiRef, len(reader.Header().Refs()))
	for i := range refs {
		refs[i] = &baiRef{binIdx: make(map[uint32]*baiBin)}
	}
	var (
		nRec, nNoCoor int
		prevRefID     = 0
		prevPos       = -1
	)
	for {
		var rec *sam.Record
		rec, err = reader.Read()
		if err == io.EOF {
			err = nil
			break
		}
		if err != nil {
			return errors.E(err, "bamprovider.WriteIndex: read record")
		}
		refID := rec.Ref.ID()
		if refID < 0 {
			nNoCoor++
			prevRefID = len(refs)
			continue
		}
		if refID < prevRefID || (refID == prevRefID && rec.Pos < prevPos) {
			return errors.E(errors.Invalid, fmt.Sprintf("bamprovider.WriteIndex: record %s at %d:%d is out of order (input must be coordinate-sorted)", rec.Name, refID, rec.Pos))
		}
		prevRefID, prevPos = refID, rec.Pos
		refs[refID].add(rec.Pos, footprintEnd(rec), reader.LastChunk())
		nRec++
	}
	for _, r := range refs {
		r.finish()
	}
	if err = writeBAI(out, refs, uint64(nNoCoor)); err != nil {
		return errors.E(err, "bamprovider.WriteIndex: write index")
	}
	log.Debug.Printf("bamprovider.WriteIndex: indexed %d record(s), %d unplaced", nRec, nNoCoor)
	return nil
}

// WriteIndexFile is a wrapper for WriteIndex that reads bampath and writes
// indexpath.
func WriteIndexFile(ctx context.Context, bampath, indexpath string) (err error) {
	var in file.File
	if in, err = file.Open(ctx, bampath); err != nil {
		return errors.E(err, "bamprovider.WriteIndexFile:", bampath)
	}
	defer file.CloseAndReport(ctx, in, &err)
	var out file.File
	if out, err = file.Create(ctx, indexpath); err != nil {
		return errors.E(err, "bamprovider.WriteIndexFile:", indexpath)
	}
	defer file.CloseAndReport(ctx, out, &err)
	return WriteIndex(out.Writer(ctx), in.Reader(ctx))
}
