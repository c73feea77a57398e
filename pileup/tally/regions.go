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
	"fmt"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/readtally/interval"
)

// Region is a half-open interval [Start, End) on the reference sequence Name.
type Region struct {
	Name       string
	Start, End int
}

func parseCoord(row interval.Row, col int, lineIdx int) (int, error) {
	v, err := strconv.ParseUint(row[col], 10, 32)
	if err != nil {
		return 0, errors.E(errors.Invalid, err, fmt.Sprintf("tally.BuildRegionTable: line %d, column %d", lineIdx+1, col+1))
	}
	return int(v), nil
}

// BuildRegionTable maps each reference-sequence name in rows to its interval.
// Rows with fewer than three fields are skipped.  Only one interval is kept
// per name; a later row for the same name replaces an earlier one.  Empty
// intervals are rejected only if they survive replacement.
func BuildRegionTable(rows []interval.Row) (map[string]Region, error) {
	regions := make(map[string]Region)
	lines := make(map[string]int)
	for lineIdx, row := range rows {
		if len(row) < 3 {
			continue
		}
		start, err := parseCoord(row, 1, lineIdx)
		if err != nil {
			return nil, err
		}
		end, err := parseCoord(row, 2, lineIdx)
		if err != nil {
			return nil, err
		}
		if prev, ok := regions[row[0]]; ok {
			log.Printf("tally.BuildRegionTable: line %d: %s:%d-%d replaces %s:%d-%d", lineIdx+1, row[0], start, end, prev.Name, prev.Start, prev.End)
		}
		regions[row[0]] = Region{Name: row[0], Start: start, End: end}
		lines[row[0]] = lineIdx
	}
	for name, r := range regions {
		if r.End <= r.Start {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("tally.BuildRegionTable: line %d: empty interval %s:%d-%d", lines[name]+1, name, r.Start, r.End))
		}
	}
	return regions, nil
}
