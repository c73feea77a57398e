package interval

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
)

// Row is one line of an interval list, split on tabs.  Row[0] is the
// reference-sequence name; Row[1] and Row[2] are usually the 0-based start and
// end of the interval.
type Row []string

// getFields splits curLine on '\t' after trimming surrounding whitespace.  A
// line containing only whitespace has no fields.
func getFields(curLine []byte) Row {
	curLine = bytes.TrimSpace(curLine)
	if len(curLine) == 0 {
		return nil
	}
	nField := bytes.Count(curLine, []byte{'\t'}) + 1
	fields := make(Row, 0, nField)
	for {
		tabPos := bytes.IndexByte(curLine, '\t')
		if tabPos == -1 {
			// Copy, since curLine points into the scanner's buffer.
			fields = append(fields, string(curLine))
			return fields
		}
		fields = append(fields, string(curLine[:tabPos]))
		curLine = curLine[tabPos+1:]
	}
}

// ReadRows returns one Row per line of reader.  Blank lines are returned as
// empty rows so that line numbering is preserved.
func ReadRows(reader io.Reader) (rows []Row, err error) {
	// Note that Scanner does not handle very long lines unless we specify an
	// adequate buffer size in advance.  Shouldn't matter for interval lists.
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		rows = append(rows, getFields(scanner.Bytes()))
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.E(err, "interval.ReadRows")
	}
	return
}

// ReadRowsFromPath is a wrapper for ReadRows that takes a path instead of an
// io.Reader.  Gzipped input is detected from the path suffix.
func ReadRowsFromPath(ctx context.Context, path string) (rows []Row, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return nil, errors.E(err, "interval.ReadRowsFromPath:", path)
	}
	defer file.CloseAndReport(ctx, infile, &err)
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return nil, errors.E(err, "interval.ReadRowsFromPath:", path)
		}
		defer func() {
			if e := gz.Close(); e != nil && err == nil {
				err = e
			}
		}()
		reader = gz
	}
	if rows, err = ReadRows(reader); err != nil {
		return nil, errors.E(err, path)
	}
	log.Debug.Printf("interval.ReadRowsFromPath: %d line(s) read from %s", len(rows), path)
	return
}
