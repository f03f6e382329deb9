// Package downloader fetches job content into local scratch space before
// extraction. Failures are classified as not-found or transient so the
// orchestrator can report them distinctly.
package downloader
