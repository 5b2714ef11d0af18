package cti

import "fmt"

// tileRect is the part of tile (tx, ty) that lies inside the image.
type tileRect struct {
	x0, y0 int // destination top-left pixel
	w, h   int // effective size after clipping at the image edge
}

func clipTile(h Header, tx, ty int) tileRect {
	ts := int(h.TileSize)
	r := tileRect{x0: tx * ts, y0: ty * ts}
	r.w = min(ts, int(h.Width)-r.x0)
	r.h = min(ts, int(h.Height)-r.y0)
	return r
}

// blitTile copies the clipped region of a decompressed tile into out, a
// Width×Height raster of bpp-byte pixels.
//
// Tile rows are tile_size pixels apart. An edge tile whose length is exactly
// its clipped w×h×bpp is taken as packed, with rows w pixels apart.
func blitTile(out, tile []byte, h Header, bpp, tx, ty int) error {
	r := clipTile(h, tx, ty)
	if r.w <= 0 || r.h <= 0 {
		return nil
	}

	rowLen := r.w * bpp
	stride := int(h.TileSize) * bpp
	if r.w < int(h.TileSize) && len(tile) == rowLen*r.h {
		stride = rowLen
	}
	if need := (r.h-1)*stride + rowLen; len(tile) < need {
		return FormatError(fmt.Sprintf("tile (%d,%d) has %d bytes, need %d for %dx%d pixels",
			tx, ty, len(tile), need, r.w, r.h))
	}

	dstStride := int(h.Width) * bpp
	for row := 0; row < r.h; row++ {
		dst := (r.y0+row)*dstStride + r.x0*bpp
		src := row * stride
		copy(out[dst:dst+rowLen], tile[src:src+rowLen])
	}
	return nil
}
