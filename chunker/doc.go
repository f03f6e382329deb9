// Package chunker splits document text into overlapping chunks sized for
// embedding. Chunk boundaries respect the segment separator where possible
// and fall back to word-level windows for oversized segments.
package chunker
