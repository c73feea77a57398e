// Package bamprovider provides random access to the aligned reads of an
// indexed BAM file.
//
// The Provider resolves reference names through the BAM header and hands out
// Iterators over all records whose alignment footprint intersects a
// half-open window on one reference.  Iterators may be used from multiple
// goroutines at once (one iterator per goroutine).
package bamprovider
