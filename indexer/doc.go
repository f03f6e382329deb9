// Package indexer orchestrates the indexing of a single content source:
// download, extract, chunk, replace the stored chunk set, persist the full
// text, verify visibility, and report the outcome upstream. Jobs run
// asynchronously on a worker pool; each job is sequential inside.
package indexer
