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
	"sync"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/unsafe"
)

// Tally is the running (matches, mismatches) count for one read.
type Tally struct {
	Matches    uint64
	Mismatches uint64
}

// ReadTallies maps read name to its tally within one reference sequence.
type ReadTallies map[string]*Tally

// Table maps reference-sequence name to the tallies of the reads observed on
// it.  A name is present iff at least one read was folded under it.
type Table map[string]ReadTallies

// Folder receives per-read counts from the scanner.
type Folder interface {
	Fold(refName, readID string, matches, mismatches uint64)
}

// Accumulator owns a Table while a scan is in progress.  Thread compatible.
type Accumulator struct {
	table Table
}

// NewAccumulator creates an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{table: make(Table)}
}

func (t Table) fold(refName, readID string, matches, mismatches uint64) {
	reads, ok := t[refName]
	if !ok {
		reads = make(ReadTallies)
		t[refName] = reads
	}
	c, ok := reads[readID]
	if !ok {
		c = &Tally{}
		reads[readID] = c
	}
	c.Matches += matches
	c.Mismatches += mismatches
}

// Fold adds (matches, mismatches) to the tally of readID on refName, creating
// it at zero first if needed.  Repeated folds accumulate.
func (a *Accumulator) Fold(refName, readID string, matches, mismatches uint64) {
	a.table.fold(refName, readID, matches, mismatches)
}

// Drain returns the accumulated table.  The Accumulator must not be used
// afterwards.
func (a *Accumulator) Drain() Table {
	t := a.table
	a.table = nil
	return t
}

const numConcurrentShards = 256

type tallyKey struct {
	refName, readID string
}

type tallyShard struct {
	mu      sync.Mutex
	tallies map[tallyKey]*Tally
}

// ConcurrentAccumulator is a sharded, thread-safe Accumulator.  Reads are
// assigned to shards by the hash of their name.
type ConcurrentAccumulator struct {
	shards [numConcurrentShards]tallyShard
}

// NewConcurrentAccumulator creates an empty ConcurrentAccumulator.
func NewConcurrentAccumulator() *ConcurrentAccumulator {
	a := &ConcurrentAccumulator{}
	for i := range a.shards {
		a.shards[i].tallies = make(map[tallyKey]*Tally)
	}
	return a
}

// Fold is the thread-safe counterpart of Accumulator.Fold.
func (a *ConcurrentAccumulator) Fold(refName, readID string, matches, mismatches uint64) {
	h := seahash.Sum64(unsafe.StringToBytes(readID))
	shard := &a.shards[int(h%uint64(numConcurrentShards))]
	key := tallyKey{refName, readID}

	shard.mu.Lock()
	c, ok := shard.tallies[key]
	if !ok {
		c = &Tally{}
		shard.tallies[key] = c
	}
	c.Matches += matches
	c.Mismatches += mismatches
	shard.mu.Unlock()
}

// Drain merges the shards into a single Table.  It must be called after all
// Fold calls have returned.
func (a *ConcurrentAccumulator) Drain() Table {
	t := make(Table)
	for i := range a.shards {
		s := &a.shards[i]
		s.mu.Lock()
		for key, c := range s.tallies {
			t.fold(key.refName, key.readID, c.Matches, c.Mismatches)
		}
		s.tallies = nil
		s.mu.Unlock()
	}
	return t
}
