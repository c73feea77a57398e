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
	"io"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
	"github.com/klauspost/compress/gzip"
)

// Header is the first line of every output table.
const Header = "read_id\tnum_matches\tnum_mismatches"

// SanitizeFilename drops every character of name other than letters, digits,
// '_' and '-'.  Distinct names may map to the same result.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' {
			return r
		}
		return -1
	}, name)
}

// OutputPath returns the path of the table for refName under dir.
func OutputPath(dir, refName string) string {
	return filepath.Join(dir, SanitizeFilename(refName)+".tsv.gz")
}

func sortedKeys(reads ReadTallies) []string {
	keys := make([]string, 0, len(reads))
	for k := range reads {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeTable writes one gzipped table.  With bgzip set the stream is
// BGZF-framed, which is still readable by any gzip decoder.
func writeTable(ctx context.Context, path string, reads ReadTallies, bgzip bool) (err error) {
	var out file.File
	if out, err = file.Create(ctx, path); err != nil {
		return errors.E(err, "tally.WriteTables:", path)
	}
	defer file.CloseAndReport(ctx, out, &err)

	var zw io.WriteCloser
	if bgzip {
		zw = bgzf.NewWriter(out.Writer(ctx), 1)
	} else {
		zw = gzip.NewWriter(out.Writer(ctx))
	}
	defer func() {
		if e := zw.Close(); e != nil && err == nil {
			err = errors.E(e, "tally.WriteTables:", path)
		}
	}()

	w := tsv.NewWriter(zw)
	w.WriteString(Header)
	if err = w.EndLine(); err != nil {
		return errors.E(err, "tally.WriteTables:", path)
	}
	for _, readID := range sortedKeys(reads) {
		c := reads[readID]
		w.WriteString(readID)
		w.WriteInt64(int64(c.Matches))
		w.WriteInt64(int64(c.Mismatches))
		if err = w.EndLine(); err != nil {
			return errors.E(err, "tally.WriteTables:", path)
		}
	}
	if err = w.Flush(); err != nil {
		return errors.E(err, "tally.WriteTables:", path)
	}
	return nil
}

// WriteTables writes one table per reference sequence in t to
// dir/<SanitizeFilename(name)>.tsv.gz, in name order, and returns the paths
// written.  On error, tables written so far are left in place.
func WriteTables(ctx context.Context, t Table, dir string, bgzip bool) ([]string, error) {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := OutputPath(dir, name)
		if err := writeTable(ctx, path, t[name], bgzip); err != nil {
			return paths, err
		}
		log.Debug.Printf("tally.WriteTables: %s: %d read(s) -> %s", name, len(t[name]), path)
		paths = append(paths, path)
	}
	return paths, nil
}
