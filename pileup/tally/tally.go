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
package tally

import (
	"context"
	"fmt"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/readtally/encoding/bamprovider"
	"github.com/grailbio/readtally/interval"
	"github.com/grailbio/readtally/pileup"
)

type Opts struct {
	// Commandline options.
	BamPath      string
	BamIndexPath string
	BedPath      string
	FastaPath    string
	OutputDir    string
	QScoreCutoff int
	Parallelism  int
	Bgzip        bool
}

var DefaultOpts = Opts{
	QScoreCutoff: 30,
	Parallelism:  1,
	Bgzip:        false,
}

// Validate checks that the required paths are set and that the cutoff fits in
// a base-quality byte.
func (opts *Opts) Validate() error {
	for _, p := range []struct{ name, val string }{
		{"bam", opts.BamPath},
		{"bed", opts.BedPath},
		{"fasta", opts.FastaPath},
		{"output-dir", opts.OutputDir},
	} {
		if p.val == "" {
			return errors.E(errors.Invalid, fmt.Sprintf("tally: -%s is required", p.name))
		}
	}
	if opts.QScoreCutoff < 0 || opts.QScoreCutoff > 255 {
		return errors.E(errors.Invalid, fmt.Sprintf("tally: invalid Q-score cutoff %d (must be in 0..255)", opts.QScoreCutoff))
	}
	if opts.Parallelism < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("tally: invalid parallelism %d", opts.Parallelism))
	}
	return nil
}

// Run tallies per-read matches and mismatches over the regions in
// opts.BedPath and writes one table per reference sequence to
// opts.OutputDir.  It returns the paths written.  Any error aborts the run;
// tables already written are left in place.
func Run(ctx context.Context, opts Opts) (paths []string, err error) {
	if err = opts.Validate(); err != nil {
		return nil, err
	}
	if err = os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, errors.E(err, "tally.Run: create", opts.OutputDir)
	}

	rows, err := interval.ReadRowsFromPath(ctx, opts.BedPath)
	if err != nil {
		return nil, err
	}
	regions, err := BuildRegionTable(rows)
	if err != nil {
		return nil, errors.E(err, opts.BedPath)
	}
	log.Printf("tally.Run: %d region(s) loaded from %s", len(regions), opts.BedPath)

	provider := bamprovider.NewProvider(opts.BamPath, bamprovider.ProviderOpts{Index: opts.BamIndexPath})
	defer func() {
		if e := provider.Close(); e != nil && err == nil {
			err = e
		}
	}()
	ref, err := pileup.LoadFa(ctx, opts.FastaPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := ref.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()

	table, err := Scan(ctx, regions, provider, ref, byte(opts.QScoreCutoff), opts.Parallelism)
	if err != nil {
		return nil, err
	}
	nReads := 0
	for _, reads := range table {
		nReads += len(reads)
	}
	log.Printf("tally.Run: tallied %d read(s) on %d reference sequence(s)", nReads, len(table))

	if paths, err = WriteTables(ctx, table, opts.OutputDir, opts.Bgzip); err != nil {
		return paths, err
	}
	log.Printf("tally.Run: wrote %d table(s) to %s", len(paths), opts.OutputDir)
	return paths, nil
}
