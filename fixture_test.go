package cti

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"

	"github.com/svanichkin/cti/internal/logging"
)

// encodeHeader lays h out as on disk. The reserved padding is filled with a
// non-zero pattern so tests catch any reader that interprets it.
func encodeHeader(h Header) []byte {
	buf := make([]byte, 0, HeaderSize)
	le := binary.LittleEndian
	buf = append(buf, h.Magic[:]...)
	buf = le.AppendUint16(buf, h.Version)
	buf = le.AppendUint16(buf, h.Flags)
	buf = le.AppendUint32(buf, h.Width)
	buf = le.AppendUint32(buf, h.Height)
	buf = le.AppendUint32(buf, h.TileSize)
	buf = le.AppendUint32(buf, h.TilesX)
	buf = le.AppendUint32(buf, h.TilesY)
	buf = append(buf, h.ColorID, h.CompID, h.Quality)
	for i := 0; i < reservedSize; i++ {
		buf = append(buf, 0xA5^byte(i))
	}
	return buf
}

func newHeader(w, h, ts uint32, ct ColorType, comp uint8) Header {
	hdr := Header{
		Version:  1,
		Width:    w,
		Height:   h,
		TileSize: ts,
		ColorID:  uint8(ct),
		CompID:   comp,
		Quality:  90,
	}
	copy(hdr.Magic[:], Magic)
	if ts > 0 {
		hdr.TilesX = ceilDiv(w, ts)
		hdr.TilesY = ceilDiv(h, ts)
	}
	return hdr
}

// compressTile produces the on-disk payload of a decompressed tile.
func compressTile(t testing.TB, comp uint8, raw []byte) []byte {
	t.Helper()
	switch ParseCompressionID(comp).Kind {
	case CompZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		require.NoError(t, err)
		defer enc.Close()
		return enc.EncodeAll(raw, nil)
	case CompLZ4:
		dst := make([]byte, 4+lz4.CompressBlockBound(len(raw)))
		binary.LittleEndian.PutUint32(dst, uint32(len(raw)))
		n, err := lz4.CompressBlock(raw, dst[4:], nil)
		require.NoError(t, err)
		require.NotZero(t, n, "tile data is incompressible")
		return dst[:4+n]
	}
	return raw
}

// buildCTI assembles a complete file from decompressed tiles given in
// row-major order. mutate, when set, may alter each record before it is
// written.
func buildCTI(t testing.TB, h Header, tiles [][]byte, mutate func(i int, rec *TileIndexRecord, payload []byte)) []byte {
	t.Helper()
	require.Len(t, tiles, int(h.TileCount()))

	payloads := make([][]byte, len(tiles))
	recs := make([]TileIndexRecord, len(tiles))
	off := uint64(HeaderSize + len(tiles)*TileIndexRecordSize)
	for i, raw := range tiles {
		p := compressTile(t, h.CompID, raw)
		payloads[i] = append([]byte(nil), p...)
		recs[i] = TileIndexRecord{
			Offset:         off,
			CompressedSize: uint32(len(p)),
			OriginalSize:   uint32(len(raw)),
			CRC32:          Checksum(raw),
		}
		if mutate != nil {
			mutate(i, &recs[i], payloads[i])
		}
		off += uint64(len(p))
	}

	var buf bytes.Buffer
	buf.Write(encodeHeader(h))
	le := binary.LittleEndian
	for _, r := range recs {
		var rec [TileIndexRecordSize]byte
		le.PutUint64(rec[0:], r.Offset)
		le.PutUint32(rec[8:], r.CompressedSize)
		le.PutUint32(rec[12:], r.OriginalSize)
		le.PutUint32(rec[16:], r.CRC32)
		buf.Write(rec[:])
	}
	for _, p := range payloads {
		buf.Write(p)
	}
	return buf.Bytes()
}

// splitTiles cuts a raster into full tile_size×tile_size tiles. Pixels past
// the image edge are filled with pad.
func splitTiles(h Header, pix []byte, pad byte) [][]byte {
	bpp := h.ColorType().BytesPerPixel()
	ts := int(h.TileSize)
	w, ht := int(h.Width), int(h.Height)
	var tiles [][]byte
	for ty := 0; ty < int(h.TilesY); ty++ {
		for tx := 0; tx < int(h.TilesX); tx++ {
			tile := bytes.Repeat([]byte{pad}, ts*ts*bpp)
			for y := 0; y < ts; y++ {
				sy := ty*ts + y
				if sy >= ht {
					break
				}
				for x := 0; x < ts; x++ {
					sx := tx*ts + x
					if sx >= w {
						break
					}
					copy(tile[(y*ts+x)*bpp:(y*ts+x+1)*bpp], pix[(sy*w+sx)*bpp:])
				}
			}
			tiles = append(tiles, tile)
		}
	}
	return tiles
}

// testPixels fills a w×h raster with a compressible but position-dependent
// pattern.
func testPixels(w, h, bpp int) []byte {
	pix := make([]byte, w*h*bpp)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < bpp; c++ {
				pix[(y*w+x)*bpp+c] = uint8((x/3)*17 + (y/3)*31 + c*7)
			}
		}
	}
	return pix
}

func writeTemp(t testing.TB, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.cti")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// forwardRCT8 is the encoder side of InverseRCT8.
func forwardRCT8(r, g, b int32) (y uint8, cb, cr int8) {
	icb := b - g
	icr := r - g
	return uint8(g + ((icb + icr) >> 2)), int8(icb), int8(icr)
}

func forwardRCT16(r, g, b int32) (y uint16, cb, cr int16) {
	icb := b - g
	icr := r - g
	return uint16(g + ((icb + icr) >> 2)), int16(icb), int16(icr)
}

func applyForwardRCT8(pix []byte) {
	for i := 0; i+3 <= len(pix); i += 3 {
		y, cb, cr := forwardRCT8(int32(pix[i]), int32(pix[i+1]), int32(pix[i+2]))
		pix[i], pix[i+1], pix[i+2] = y, uint8(cb), uint8(cr)
	}
}

func applyForwardRCT16(pix []byte) {
	le := binary.LittleEndian
	for i := 0; i+6 <= len(pix); i += 6 {
		y, cb, cr := forwardRCT16(int32(le.Uint16(pix[i:])), int32(le.Uint16(pix[i+2:])), int32(le.Uint16(pix[i+4:])))
		le.PutUint16(pix[i:], y)
		le.PutUint16(pix[i+2:], uint16(cb))
		le.PutUint16(pix[i+4:], uint16(cr))
	}
}

func newDebugLogger(w io.Writer) *logging.Logger {
	return logging.New(w, logging.LevelDebug)
}
