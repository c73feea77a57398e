package main

// See doc.go for documentation
import (
	"flag"
	"io"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/readtally/encoding/bamprovider"
	"github.com/grailbio/readtally/encoding/fasta"
)

var (
	fastaMode = flag.Bool("fasta", false, "Read a FASTA file and write a .fai index instead")
)

func writeIndex(w io.Writer, r io.Reader, fai bool) error {
	if fai {
		return fasta.GenerateIndex(w, r)
	}
	return bamprovider.WriteIndex(w, r)
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	r := io.Reader(os.Stdin)
	w := io.Writer(os.Stdout)

	if err := writeIndex(w, r, *fastaMode); err != nil {
		log.Fatalf("%v", err)
	}
}
