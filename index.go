package cti

import (
	"encoding/binary"
	"io"
)

// TileIndexRecordSize is the encoded size of one TileIndexRecord.
const TileIndexRecordSize = 8 + 4 + 4 + 4

// TileIndexRecord locates and verifies one tile. Records are stored in
// row-major tile order directly after the header.
type TileIndexRecord struct {
	Offset         uint64 // absolute file offset of the payload
	CompressedSize uint32
	OriginalSize   uint32
	CRC32          uint32 // over the decompressed bytes
}

// ReadTileIndex reads n consecutive records from r.
func ReadTileIndex(r io.Reader, n int) ([]TileIndexRecord, error) {
	// n comes straight from the header; let a truncated stream fail before
	// a huge grid allocates.
	recs := make([]TileIndexRecord, 0, min(n, 1<<16))

	var buf [TileIndexRecordSize]byte
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, ioErr("read tile index", err)
		}
		recs = append(recs, TileIndexRecord{
			Offset:         binary.LittleEndian.Uint64(buf[0:8]),
			CompressedSize: binary.LittleEndian.Uint32(buf[8:12]),
			OriginalSize:   binary.LittleEndian.Uint32(buf[12:16]),
			CRC32:          binary.LittleEndian.Uint32(buf[16:20]),
		})
	}
	return recs, nil
}

// TilePos returns the grid column and row of tile i.
func TilePos(i int, tilesX uint32) (tx, ty int) {
	return i % int(tilesX), i / int(tilesX)
}
