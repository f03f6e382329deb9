package core

import (
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the records persisted by the storage layer. Written by
// hand against the primitive serializers; field order is part of the stored
// format and must not change without a migration.

var (
	IDMUS            = idSer{}
	ChunkMetadataMUS = chunkMetadataSer{}
	ChunkMUS         = chunkSer{}
	FullDocumentMUS  = fullDocumentSer{}

	vectorSer = ord.NewSliceSer[float32](raw.Float32)
)

var (
	_ mus.Serializer[ID]            = IDMUS
	_ mus.Serializer[ChunkMetadata] = ChunkMetadataMUS
	_ mus.Serializer[Chunk]         = ChunkMUS
	_ mus.Serializer[FullDocument]  = FullDocumentMUS
)

type idSer struct{}

func (idSer) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idSer) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idSer) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idSer) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type chunkMetadataSer struct{}

func (chunkMetadataSer) Marshal(m ChunkMetadata, bs []byte) (n int) {
	n = ord.String.Marshal(m.ContentBaseID, bs)
	n += ord.String.Marshal(m.FileID, bs[n:])
	n += ord.String.Marshal(m.Filename, bs[n:])
	n += ord.String.Marshal(m.FullPage, bs[n:])
	return n
}

func (chunkMetadataSer) Unmarshal(bs []byte) (m ChunkMetadata, n int, err error) {
	var n1 int
	m.ContentBaseID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	m.FileID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.Filename, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.FullPage, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (chunkMetadataSer) Size(m ChunkMetadata) (size int) {
	size = ord.String.Size(m.ContentBaseID)
	size += ord.String.Size(m.FileID)
	size += ord.String.Size(m.Filename)
	size += ord.String.Size(m.FullPage)
	return size
}

func (chunkMetadataSer) Skip(bs []byte) (n int, err error) {
	var n1 int
	for i := 0; i < 4; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

type chunkSer struct{}

func (chunkSer) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.Id, bs)
	n += ord.String.Marshal(c.Content, bs[n:])
	n += ChunkMetadataMUS.Marshal(c.Metadata, bs[n:])
	n += vectorSer.Marshal(c.Vector, bs[n:])
	return n
}

func (chunkSer) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var n1 int
	c.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	c.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Metadata, n1, err = ChunkMetadataMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Vector, n1, err = vectorSer.Unmarshal(bs[n:])
	n += n1
	return
}

func (chunkSer) Size(c Chunk) (size int) {
	size = IDMUS.Size(c.Id)
	size += ord.String.Size(c.Content)
	size += ChunkMetadataMUS.Size(c.Metadata)
	size += vectorSer.Size(c.Vector)
	return size
}

func (chunkSer) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ChunkMetadataMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = vectorSer.Skip(bs[n:])
	n += n1
	return
}

type fullDocumentSer struct{}

func (fullDocumentSer) Marshal(d FullDocument, bs []byte) (n int) {
	n = ord.String.Marshal(d.ContentBaseID, bs)
	n += ord.String.Marshal(d.FileID, bs[n:])
	n += ord.String.Marshal(d.Filename, bs[n:])
	n += ord.String.Marshal(d.Content, bs[n:])
	return n
}

func (fullDocumentSer) Unmarshal(bs []byte) (d FullDocument, n int, err error) {
	var n1 int
	d.ContentBaseID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	d.FileID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Filename, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (fullDocumentSer) Size(d FullDocument) (size int) {
	size = ord.String.Size(d.ContentBaseID)
	size += ord.String.Size(d.FileID)
	size += ord.String.Size(d.Filename)
	size += ord.String.Size(d.Content)
	return size
}

func (fullDocumentSer) Skip(bs []byte) (n int, err error) {
	var n1 int
	for i := 0; i < 4; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}
