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
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/readtally/encoding/bamprovider"
	"github.com/grailbio/readtally/encoding/fasta"
	"github.com/grailbio/readtally/pileup"
)

// sortedRegions returns the regions ordered by reference name.
func sortedRegions(regions map[string]Region) []Region {
	sorted := make([]Region, 0, len(regions))
	for _, r := range regions {
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}

// scanRegion folds the tally of every record overlapping r into acc.
//
// Each record is compared against the single reference base at its own
// alignment start.  A record starting outside the fetched window is a fatal
// error.
func scanRegion(r Region, provider bamprovider.Provider, ref fasta.Fasta, cutoff byte, acc Folder) (nRec int, err error) {
	samRef, err := bamprovider.ResolveRef(provider, r.Name)
	if err != nil {
		return 0, err
	}
	window, err := ref.Get(r.Name, uint64(r.Start), uint64(r.End))
	if err != nil {
		return 0, errors.E(err, fmt.Sprintf("tally: fetch reference %s:%d-%d", r.Name, r.Start, r.End))
	}

	iter := provider.NewIterator(samRef, r.Start, r.End)
	defer func() {
		if e := iter.Close(); e != nil && err == nil {
			err = e
		}
	}()
	var bases []byte
	for iter.Scan() {
		rec := iter.Record()
		offset := rec.Pos - r.Start
		if offset < 0 || offset >= len(window) {
			return nRec, errors.E(errors.Precondition,
				fmt.Sprintf("tally: read %s starts at %s:%d, outside reference window [%d, %d)",
					rec.Name, r.Name, rec.Pos, r.Start, r.Start+len(window)))
		}
		bases = pileup.SeqToASCII(bases, rec.Seq)
		matches, mismatches := CompareBases(bases, rec.Qual, window[offset], cutoff)
		acc.Fold(r.Name, rec.Name, matches, mismatches)
		nRec++
	}
	return nRec, nil
}

// Scan tallies every read overlapping the given regions.  Regions are
// visited in name order.  When parallelism > 1, up to that many regions are
// scanned concurrently into a ConcurrentAccumulator; the result is the same
// as a sequential scan.  The first error aborts the scan.
func Scan(ctx context.Context, regions map[string]Region, provider bamprovider.Provider, ref fasta.Fasta, cutoff byte, parallelism int) (Table, error) {
	sorted := sortedRegions(regions)
	if parallelism <= 1 || len(sorted) <= 1 {
		acc := NewAccumulator()
		for _, r := range sorted {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			nRec, err := scanRegion(r, provider, ref, cutoff, acc)
			if err != nil {
				return nil, err
			}
			log.Debug.Printf("tally.Scan: %s:%d-%d: %d record(s)", r.Name, r.Start, r.End, nRec)
		}
		return acc.Drain(), nil
	}

	if parallelism > len(sorted) {
		parallelism = len(sorted)
	}
	acc := NewConcurrentAccumulator()
	log.Printf("tally.Scan: scanning %d region(s) in %d jobs", len(sorted), parallelism)
	err := traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * len(sorted)) / parallelism
		endIdx := ((jobIdx + 1) * len(sorted)) / parallelism
		for _, r := range sorted[startIdx:endIdx] {
			if err := ctx.Err(); err != nil {
				return err
			}
			nRec, err := scanRegion(r, provider, ref, cutoff, acc)
			if err != nil {
				return err
			}
			log.Debug.Printf("tally.Scan: %s:%d-%d: %d record(s)", r.Name, r.Start, r.End, nRec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acc.Drain(), nil
}
