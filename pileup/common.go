// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package pileup

import (
	"context"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/readtally/encoding/fasta"
)

// Common pileup components.

// Seq8ToASCIITable is the .bam seq nibble -> ASCII mapping.
var Seq8ToASCIITable = [...]byte{'=', 'A', 'C', 'M', 'G', 'R', 'S', 'V', 'T', 'W', 'Y', 'H', 'K', 'D', 'B', 'N'}

// SeqToASCII appends the ASCII rendering of the first seq.Length bases of seq
// to dst[:0], and returns the result.  It is the allocation-free counterpart
// of sam.Seq.Expand(); dst is typically a buffer reused across reads.
func SeqToASCII(dst []byte, seq sam.Seq) []byte {
	dst = dst[:0]
	for i := 0; i < seq.Length; i++ {
		d := seq.Seq[i>>1]
		if i&1 == 0 {
			dst = append(dst, Seq8ToASCIITable[d>>4])
		} else {
			dst = append(dst, Seq8ToASCIITable[d&0xf])
		}
	}
	return dst
}

// Reference is a loaded reference genome.  It must be closed after use, since
// indexed lookups keep the underlying file open.
type Reference struct {
	fasta.Fasta
	in file.File
}

// Close releases the file held open for indexed lookups, if any.
func (r *Reference) Close(ctx context.Context) error {
	if r.in == nil {
		return nil
	}
	err := r.in.Close(ctx)
	r.in = nil
	return err
}

// LoadFa opens the FASTA at fapath.  If fapath + ".fai" exists, lookups go
// through the index and only the requested bases are ever read; otherwise the
// whole (possibly compressed) file is loaded into memory.
func LoadFa(ctx context.Context, fapath string) (ref *Reference, err error) {
	faipath := fapath + ".fai"
	if _, e := file.Stat(ctx, faipath); e == nil {
		return loadIndexedFa(ctx, fapath, faipath)
	} else if !errors.Is(errors.NotExist, e) {
		return nil, errors.E(e, "pileup.LoadFa:", faipath)
	}

	var infile file.File
	if infile, err = file.Open(ctx, fapath); err != nil {
		return nil, errors.E(err, "pileup.LoadFa:", fapath)
	}
	defer file.CloseAndReport(ctx, infile, &err)
	reader, _ := compress.NewReader(infile.Reader(ctx))
	defer func() {
		if e := reader.Close(); e != nil && err == nil {
			err = e
		}
	}()
	ref = &Reference{}
	if ref.Fasta, err = fasta.New(reader); err != nil {
		return nil, errors.E(err, "pileup.LoadFa:", fapath)
	}
	log.Printf("pileup.LoadFa: loaded %d sequence(s) from %s", len(ref.SeqNames()), fapath)
	return
}

func loadIndexedFa(ctx context.Context, fapath, faipath string) (ref *Reference, err error) {
	var idx file.File
	if idx, err = file.Open(ctx, faipath); err != nil {
		return nil, errors.E(err, "pileup.LoadFa:", faipath)
	}
	defer file.CloseAndReport(ctx, idx, &err)
	ref = &Reference{}
	if ref.in, err = file.Open(ctx, fapath); err != nil {
		return nil, errors.E(err, "pileup.LoadFa:", fapath)
	}
	if ref.Fasta, err = fasta.NewIndexed(ref.in.Reader(ctx), idx.Reader(ctx)); err != nil {
		_ = ref.in.Close(ctx)
		return nil, errors.E(err, "pileup.LoadFa:", faipath)
	}
	log.Printf("pileup.LoadFa: indexed %d sequence(s) in %s", len(ref.SeqNames()), fapath)
	return
}
