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
	"path/filepath"
	"testing"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestSeqToASCII(t *testing.T) {
	var buf []byte
	for _, s := range []string{"", "A", "ACGTN", "ACGTACGTMRSVWYHKDB="} {
		buf = SeqToASCII(buf, sam.NewSeq([]byte(s)))
		expect.EQ(t, string(buf), s)
	}
}

func writeFile(t *testing.T, path, data string) {
	ctx := vcontext.Background()
	out, err := file.Create(ctx, path)
	assert.NoError(t, err)
	_, err = out.Writer(ctx).Write([]byte(data))
	assert.NoError(t, err)
	assert.NoError(t, out.Close(ctx))
}

func TestLoadFa(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()

	const data = ">chr1\nACGTA\nCCGGT\n>chr2 second\nTTTT\n"
	plainPath := filepath.Join(tmpdir, "plain.fa")
	writeFile(t, plainPath, data)
	indexedPath := filepath.Join(tmpdir, "indexed.fa")
	writeFile(t, indexedPath, data)
	writeFile(t, indexedPath+".fai", "chr1\t10\t6\t5\t6\nchr2\t4\t31\t4\t5\n")

	for _, path := range []string{plainPath, indexedPath} {
		ref, err := LoadFa(ctx, path)
		assert.NoError(t, err)
		expect.EQ(t, ref.SeqNames(), []string{"chr1", "chr2"})
		bases, err := ref.Get("chr1", 3, 8)
		expect.NoError(t, err)
		expect.EQ(t, bases, "TACCG")
		bases, err = ref.Get("chr2", 0, 4)
		expect.NoError(t, err)
		expect.EQ(t, bases, "TTTT")
		expect.NoError(t, ref.Close(ctx))
	}

	_, err := LoadFa(ctx, filepath.Join(tmpdir, "missing.fa"))
	expect.NotNil(t, err)
}
