// Package reindex refreshes the embedding vectors of already-indexed
// content, batch by batch, without re-extracting the source documents. Run
// it after switching embedding models so stored vectors and query vectors
// come from the same model.
package reindex
