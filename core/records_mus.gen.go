// Code generated by musgen-go. DO NOT EDIT.

package core

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

var (
	slice5MHUVpBMWv0G7qETyiUAgAΞΞ = ord.NewSliceSer[float32](varint.Float32)
	slicew9b2IrBdgcΣNdz7nCnxaRgΞΞ = ord.NewSliceSer[Entity](EntityMUS)
)

var IDMUS = iDMUS{}

type iDMUS struct{}

func (s iDMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s iDMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	tmp, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v = ID(tmp)
	return
}

func (s iDMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s iDMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

var EntityMUS = entityMUS{}

type entityMUS struct{}

func (s entityMUS) Marshal(v Entity, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	return n + ord.String.Marshal(v.Type, bs[n:])
}

func (s entityMUS) Unmarshal(bs []byte) (v Entity, n int, err error) {
	v.Name, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Type, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (s entityMUS) Size(v Entity) (size int) {
	size = ord.String.Size(v.Name)
	return size + ord.String.Size(v.Type)
}

func (s entityMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	return
}

var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (s chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.Source, bs[n:])
	n += varint.Int.Marshal(v.Position, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += slice5MHUVpBMWv0G7qETyiUAgAΞΞ.Marshal(v.Vector, bs[n:])
	n += slicew9b2IrBdgcΣNdz7nCnxaRgΞΞ.Marshal(v.Entities, bs[n:])
	return n + raw.TimeUnixMicro.Marshal(v.IndexedAt, bs[n:])
}

func (s chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	v.ID, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Source, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Position, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = slice5MHUVpBMWv0G7qETyiUAgAΞΞ.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Entities, n1, err = slicew9b2IrBdgcΣNdz7nCnxaRgΞΞ.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.IndexedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	return
}

func (s chunkMUS) Size(v Chunk) (size int) {
	size = IDMUS.Size(v.ID)
	size += ord.String.Size(v.Source)
	size += varint.Int.Size(v.Position)
	size += ord.String.Size(v.Text)
	size += slice5MHUVpBMWv0G7qETyiUAgAΞΞ.Size(v.Vector)
	size += slicew9b2IrBdgcΣNdz7nCnxaRgΞΞ.Size(v.Entities)
	return size + raw.TimeUnixMicro.Size(v.IndexedAt)
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = slice5MHUVpBMWv0G7qETyiUAgAΞΞ.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = slicew9b2IrBdgcΣNdz7nCnxaRgΞΞ.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.TimeUnixMicro.Skip(bs[n:])
	n += n1
	return
}

var DocumentMUS = documentMUS{}

type documentMUS struct{}

func (s documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = ord.String.Marshal(v.Filename, bs)
	n += raw.TimeUnixMicro.Marshal(v.FirstRecordedAt, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.RecordedAt, bs[n:])
	return n + varint.Int.Marshal(v.Count, bs[n:])
}

func (s documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	v.Filename, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.FirstRecordedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.RecordedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Count, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (s documentMUS) Size(v Document) (size int) {
	size = ord.String.Size(v.Filename)
	size += raw.TimeUnixMicro.Size(v.FirstRecordedAt)
	size += raw.TimeUnixMicro.Size(v.RecordedAt)
	return size + varint.Int.Size(v.Count)
}

func (s documentMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = raw.TimeUnixMicro.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.TimeUnixMicro.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	return
}
