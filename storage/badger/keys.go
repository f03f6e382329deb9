package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/veridex/contentd/core"
)

// Key prefixes for different record types
const (
	chunkRecordPrefix = "chkrec"
	chunkRefPrefix    = "chkref"
	fullDocPrefix     = "docrec"
	chunkIDSeq        = "chkseq"
)

// makeChunkKey generates the primary key for a chunk by storage id.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}

// makeChunkRefKey generates a composite key for the metadata index.
// Format: prefix:contentBaseID:fileID:id
// The trailing id is fixed-width BigEndian so pagination cursors sort
// the same way the iterator walks.
func makeChunkRefKey(contentBaseID, fileID string, id core.ID) []byte {
	prefix := makeChunkRefScanPrefix(contentBaseID, fileID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeChunkRefScanPrefix generates the iteration prefix for one
// (content base, file) pair. fileID may be empty to scan a whole
// content base.
func makeChunkRefScanPrefix(contentBaseID, fileID string) []byte {
	if fileID == "" {
		return []byte(fmt.Sprintf("%s:%s:", chunkRefPrefix, contentBaseID))
	}
	return []byte(fmt.Sprintf("%s:%s:%s:", chunkRefPrefix, contentBaseID, fileID))
}

// makeFullDocKey generates the key for a file's full extracted text.
// One document per (content base, file); writes overwrite.
func makeFullDocKey(contentBaseID, fileID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", fullDocPrefix, contentBaseID, fileID))
}
