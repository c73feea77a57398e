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
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/readtally/pileup/tally"
)

var (
	bamPath      = tally.DefaultOpts.BamPath
	bamIndexPath = flag.String("index", tally.DefaultOpts.BamIndexPath, "Input BAM index path. Defaults to bampath + .bai")
	bedPath      = tally.DefaultOpts.BedPath
	fastaPath    = tally.DefaultOpts.FastaPath
	outputDir    = tally.DefaultOpts.OutputDir
	qscoreCutoff = tally.DefaultOpts.QScoreCutoff
	parallelism  = flag.Int("parallelism", tally.DefaultOpts.Parallelism, "Maximum number of regions to scan concurrently")
	bgzip        = flag.Bool("bgzf", tally.DefaultOpts.Bgzip, "BGZF-compress the output tables (still readable by gunzip)")
)

func init() {
	flag.StringVar(&bamPath, "bam", bamPath, "Input BAM path (required; must be coordinate-sorted and indexed)")
	flag.StringVar(&bamPath, "b", bamPath, "Shorthand for -bam")
	flag.StringVar(&bedPath, "bed", bedPath, "Input interval list: name<TAB>start<TAB>end, 0-based half-open (required)")
	flag.StringVar(&bedPath, "e", bedPath, "Shorthand for -bed")
	flag.StringVar(&fastaPath, "fasta", fastaPath, "Reference FASTA path; ref.fa.fai is used when present (required)")
	flag.StringVar(&fastaPath, "f", fastaPath, "Shorthand for -fasta")
	flag.StringVar(&outputDir, "output-dir", outputDir, "Output directory, created if absent (required)")
	flag.StringVar(&outputDir, "o", outputDir, "Shorthand for -output-dir")
	flag.IntVar(&qscoreCutoff, "qscore", qscoreCutoff, "Bases with quality at least this high count as matches")
	flag.IntVar(&qscoreCutoff, "q", qscoreCutoff, "Shorthand for -qscore")
}

func bioReadtallyUsage() {
	fmt.Printf("Usage: %s -b bampath -e bedpath -f fapath -o outdir [OPTIONS]\n", os.Args[0])
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
}

// optsFromFlags collects the parsed flag values.
func optsFromFlags() tally.Opts {
	return tally.Opts{
		BamPath:      bamPath,
		BamIndexPath: *bamIndexPath,
		BedPath:      bedPath,
		FastaPath:    fastaPath,
		OutputDir:    outputDir,
		QScoreCutoff: qscoreCutoff,
		Parallelism:  *parallelism,
		Bgzip:        *bgzip,
	}
}

func main() {
	flag.Usage = bioReadtallyUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 0 {
		log.Fatalf("Unexpected positional arguments; please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	ctx := vcontext.Background()
	opts := optsFromFlags()
	if _, err := tally.Run(ctx, opts); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
