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
/*
Package tally counts, for every read overlapping a set of regions, the bases
that agree or disagree with the reference.

Regions come from a tab-separated interval list with one interval per
reference sequence.  For each region, the reads whose footprint intersects it
are fetched from an indexed BAM, and each read is compared against the
reference base at its alignment start: a base matches if it equals that
reference base or if its quality is at least the Q-score cutoff.  Counts are
accumulated per (reference sequence, read name) and written as one gzipped
TSV per reference sequence, with header

  read_id	num_matches	num_mismatches
*/
package tally
