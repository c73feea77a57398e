/*Command bio-bam-index reads a coordinate-sorted .bam file and writes the
  corresponding .bai index, as required by bio-readtally.  bio-bam-index
  expects the bam file to arrive on stdin, and writes to stdout.  With
  --fasta, it reads a FASTA file instead and writes a .fai index, which lets
  bio-readtally fetch reference bases without loading the whole genome.

  Usage: cat foo.bam | bio-bam-index > foo.bam.bai
         cat ref.fa | bio-bam-index --fasta > ref.fa.fai
*/
package main
