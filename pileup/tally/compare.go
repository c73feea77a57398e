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

// CompareBases counts the positions of a read that agree with refBase.  bases
// and quals are walked in parallel up to the shorter of the two.  A position
// counts as a match when its base equals refBase or its quality is at least
// cutoff; every other position is a mismatch.
//
// Note that the same refBase is used for every position of the read.
func CompareBases(bases, quals []byte, refBase, cutoff byte) (matches, mismatches uint64) {
	n := len(bases)
	if len(quals) < n {
		n = len(quals)
	}
	for i := 0; i < n; i++ {
		if bases[i] == refBase || quals[i] >= cutoff {
			matches++
		} else {
			mismatches++
		}
	}
	return
}
