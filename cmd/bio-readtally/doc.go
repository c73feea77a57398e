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
Given an indexed BAM, a reference FASTA and an interval list with one interval
per reference sequence, bio-readtally counts, for every read overlapping an
interval, the bases that match and mismatch the reference.

A read base is a match if it equals the reference base at the read's
alignment start, or if its base quality is at least -qscore (default 30).
Results go to one gzipped table per reference sequence,
<output-dir>/<name>.tsv.gz, where <name> is the reference name with everything
but letters, digits, '_' and '-' removed.  Each table has the header

  read_id	num_matches	num_mismatches

Sample usage:
bio-readtally \
    -b my.bam \
    -e my-regions.bed \
    -f ref.fa \
    -o tallies
*/
package main
