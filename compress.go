package cti

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// maxTileSize bounds a declared decompressed tile size before it is
// allocated.
const maxTileSize = 1 << 30

// DecompressTile returns the decompressed bytes of one tile payload.
// originalSize is the size declared in the tile index; only Zstd uses it.
// For CompNone the payload is returned as is.
func DecompressTile(id CompressionID, comp []byte, originalSize int) ([]byte, error) {
	switch id.Kind {
	case CompNone:
		return comp, nil
	case CompZstd:
		return decompressZstd(comp, originalSize)
	case CompLZ4:
		return decompressLZ4(comp)
	}
	return nil, &UnsupportedCompressionError{ID: id}
}

// Supported reports whether tiles compressed with id can be decoded.
func (id CompressionID) Supported() bool {
	switch id.Kind {
	case CompNone, CompZstd, CompLZ4:
		return true
	}
	return false
}

// --- ZSTD helpers ---

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
		zstd.WithDecoderMaxMemory(maxTileSize),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

var zstdDecPool = sync.Pool{
	New: func() any {
		return mustNewZstdDecoder()
	},
}

// decompressZstd decodes a zstd payload into a buffer sized to
// originalSize. A frame that records a larger content size is rejected
// before decoding; otherwise decoding stops one byte past originalSize.
func decompressZstd(data []byte, originalSize int) ([]byte, error) {
	if originalSize < 0 || originalSize > maxTileSize {
		return nil, fmt.Errorf("zstd decompress failed: declared size %d out of range", originalSize)
	}
	var fh zstd.Header
	if err := fh.Decode(data); err == nil && fh.HasFCS && fh.FrameContentSize > uint64(originalSize) {
		return nil, fmt.Errorf("zstd decompress failed: frame content size %d exceeds declared size %d",
			fh.FrameContentSize, originalSize)
	}

	dec := zstdDecPool.Get().(*zstd.Decoder)
	defer func() {
		_ = dec.Reset(nil)
		zstdDecPool.Put(dec)
	}()
	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("zstd decompress failed: %w", err)
	}

	out := make([]byte, originalSize+1)
	n := 0
	for {
		m, err := dec.Read(out[n:])
		n += m
		if n == len(out) {
			return nil, fmt.Errorf("zstd decompress failed: output exceeds declared size %d", originalSize)
		}
		if errors.Is(err, io.EOF) {
			return out[:n:n], nil
		}
		if err != nil {
			return nil, fmt.Errorf("zstd decompress failed: %w", err)
		}
	}
}

// --- LZ4 helpers ---

// decompressLZ4 decodes a raw LZ4 block preceded by its decompressed length
// as a little-endian uint32.
func decompressLZ4(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("lz4 decompress failed: payload shorter than size prefix")
	}
	size := binary.LittleEndian.Uint32(data[:4])
	if size > maxTileSize {
		return nil, fmt.Errorf("lz4 decompress failed: size prefix %d too large", size)
	}

	out := make([]byte, size)
	if size == 0 {
		return out, nil
	}
	n, err := lz4.UncompressBlock(data[4:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress failed: %w", err)
	}
	if n != int(size) {
		return nil, fmt.Errorf("lz4 decompress failed: got %d bytes, size prefix %d", n, size)
	}
	return out, nil
}
