package cti

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/bits"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/svanichkin/cti/internal/logging"
)

// Decoder decodes CTI files. The zero value decodes serially without
// geometry checks; NewDecoder enables them. A Decoder holds no per-call
// state and may be used from several goroutines.
type Decoder struct {
	// Parallel decompresses, verifies and composites tiles on several
	// goroutines. Payloads are still read from the stream one at a time.
	Parallel bool
	// Workers caps the goroutines used when Parallel is set; 0 means
	// runtime.NumCPU().
	Workers int
	// Strict rejects headers whose tile grid does not match the image
	// size and tile size.
	Strict bool
	// Log receives debug traces; nil means logging.Default().
	Log *logging.Logger
}

// NewDecoder returns a serial Decoder with Strict set.
func NewDecoder() *Decoder {
	return &Decoder{Strict: true}
}

// ReadInfo reads only the header of the file at path.
func ReadInfo(path string) (Header, error) {
	return NewDecoder().ReadInfo(path)
}

// DecodeFile decodes the file at path into an interleaved raster of
// Width×Height×bpp bytes.
func DecodeFile(path string) (Header, []byte, error) {
	return NewDecoder().DecodeFile(path)
}

// ReadInfo reads only the header of the file at path. It succeeds on files
// whose tile index or payload is missing or corrupt.
func (d *Decoder) ReadInfo(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, &IOError{Op: "open", Err: err}
	}
	defer f.Close()

	return ReadHeader(f)
}

// DecodeFile opens path and decodes it with Decode.
func (d *Decoder) DecodeFile(path string) (Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, &IOError{Op: "open", Err: err}
	}
	defer f.Close()

	return d.Decode(f)
}

// Decode reads a whole CTI stream. rs is rewound first: the header sits at
// offset 0 and tile payloads are located by absolute offset. Any failure
// aborts the decode and no raster is returned.
func (d *Decoder) Decode(rs io.ReadSeeker) (Header, []byte, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return Header{}, nil, ioErr("seek header", err)
	}
	h, err := ReadHeader(rs)
	if err != nil {
		return Header{}, nil, err
	}
	if err := h.CheckMagic(); err != nil {
		return Header{}, nil, err
	}

	bpp := h.ColorType().BytesPerPixel()
	if bpp == 0 {
		return Header{}, nil, &UnsupportedColorTypeError{ColorType: h.ColorID}
	}
	if d.Strict {
		if err := checkGeometry(h); err != nil {
			return Header{}, nil, err
		}
	}

	size, err := rasterSize(h, bpp)
	if err != nil {
		return Header{}, nil, err
	}
	n := h.TileCount()
	if n > math.MaxInt32 {
		return Header{}, nil, FormatError(fmt.Sprintf("tile grid %dx%d too large", h.TilesX, h.TilesY))
	}

	if comp := h.Compression(); n > 0 && !comp.Supported() {
		return Header{}, nil, &UnsupportedCompressionError{ID: comp}
	}

	log := d.logger()
	log.Debug("cti: %dx%d %s, %dx%d tiles of %d px, compression %s, rct %v",
		h.Width, h.Height, h.ColorType(), h.TilesX, h.TilesY, h.TileSize, h.Compression(), useRCT(h))

	recs, err := ReadTileIndex(rs, int(n))
	if err != nil {
		return Header{}, nil, err
	}

	out := make([]byte, size)
	if d.Parallel && len(recs) > 1 {
		err = d.decodeTilesParallel(rs, h, bpp, recs, out)
	} else {
		err = d.decodeTiles(rs, h, bpp, recs, out)
	}
	if err != nil {
		return Header{}, nil, err
	}
	return h, out, nil
}

func (d *Decoder) decodeTiles(rs io.ReadSeeker, h Header, bpp int, recs []TileIndexRecord, out []byte) error {
	for i, rec := range recs {
		comp, err := readPayload(rs, i, rec)
		if err != nil {
			return err
		}
		if err := d.decodeTile(h, bpp, i, rec, comp, out); err != nil {
			return err
		}
	}
	return nil
}

// decodeTilesParallel reads payloads in index order on the calling
// goroutine and hands each to a worker. Workers write disjoint tile
// rectangles of out, so out needs no locking.
func (d *Decoder) decodeTilesParallel(rs io.ReadSeeker, h Header, bpp int, recs []TileIndexRecord, out []byte) error {
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(d.workers())

	for i, rec := range recs {
		if ctx.Err() != nil {
			break
		}
		comp, err := readPayload(rs, i, rec)
		if err != nil {
			if werr := g.Wait(); werr != nil {
				return werr
			}
			return err
		}
		i, rec := i, rec
		g.Go(func() error {
			return d.decodeTile(h, bpp, i, rec, comp, out)
		})
	}
	return g.Wait()
}

// decodeTile runs decompress, verify, inverse transform and blit for tile i.
func (d *Decoder) decodeTile(h Header, bpp, i int, rec TileIndexRecord, comp []byte, out []byte) error {
	tile, err := DecompressTile(h.Compression(), comp, int(rec.OriginalSize))
	if err != nil {
		return fmt.Errorf("tile %d: %w", i, err)
	}
	if err := verifyTile(i, tile, rec.CRC32); err != nil {
		return err
	}
	if useRCT(h) {
		inverseRCT(h.ColorType(), tile)
	}

	tx, ty := TilePos(i, h.TilesX)
	if err := blitTile(out, tile, h, bpp, tx, ty); err != nil {
		return fmt.Errorf("tile %d: %w", i, err)
	}
	d.logger().Debug("cti: tile %d (%d,%d): %d -> %d bytes", i, tx, ty, len(comp), len(tile))
	return nil
}

// readPayload seeks to tile i's payload and reads exactly its compressed size.
func readPayload(rs io.ReadSeeker, i int, rec TileIndexRecord) ([]byte, error) {
	if rec.Offset > math.MaxInt64 {
		return nil, FormatError(fmt.Sprintf("tile %d offset %d out of range", i, rec.Offset))
	}
	if rec.CompressedSize > maxTileSize {
		return nil, FormatError(fmt.Sprintf("tile %d compressed size %d too large", i, rec.CompressedSize))
	}
	if _, err := rs.Seek(int64(rec.Offset), io.SeekStart); err != nil {
		return nil, ioErr(fmt.Sprintf("seek tile %d", i), err)
	}
	comp := make([]byte, rec.CompressedSize)
	if _, err := io.ReadFull(rs, comp); err != nil {
		return nil, ioErr(fmt.Sprintf("read tile %d", i), err)
	}
	return comp, nil
}

// checkGeometry requires the tile grid to be exactly the one that covers
// Width×Height with TileSize tiles.
func checkGeometry(h Header) error {
	if h.TileCount() == 0 {
		if h.Width != 0 && h.Height != 0 {
			return FormatError(fmt.Sprintf("empty tile grid for %dx%d image", h.Width, h.Height))
		}
		return nil
	}
	if h.TileSize == 0 {
		return FormatError("zero tile size")
	}
	wantX := ceilDiv(h.Width, h.TileSize)
	wantY := ceilDiv(h.Height, h.TileSize)
	if h.TilesX != wantX || h.TilesY != wantY {
		return FormatError(fmt.Sprintf("tile grid %dx%d does not match %dx%d image with %d px tiles (want %dx%d)",
			h.TilesX, h.TilesY, h.Width, h.Height, h.TileSize, wantX, wantY))
	}
	return nil
}

func ceilDiv(a, b uint32) uint32 {
	return uint32((uint64(a) + uint64(b) - 1) / uint64(b))
}

func rasterSize(h Header, bpp int) (int, error) {
	hi, lo := bits.Mul64(uint64(h.Width)*uint64(h.Height), uint64(bpp))
	if hi != 0 || lo > math.MaxInt {
		return 0, FormatError(fmt.Sprintf("%dx%d raster too large", h.Width, h.Height))
	}
	return int(lo), nil
}

func (d *Decoder) workers() int {
	if d.Workers > 0 {
		return d.Workers
	}
	return runtime.NumCPU()
}

func (d *Decoder) logger() *logging.Logger {
	if d.Log != nil {
		return d.Log
	}
	return logging.Default()
}
