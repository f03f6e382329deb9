// Package loader extracts page text from downloaded content. A registry maps
// file extensions to loaders; plain text and web pages are handled in
// process, while binary office formats are delegated to an external
// extraction service.
package loader
