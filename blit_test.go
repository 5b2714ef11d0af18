package cti

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipTile(t *testing.T) {
	h := newHeader(10, 10, 8, L8, 0)
	assert.Equal(t, tileRect{x0: 0, y0: 0, w: 8, h: 8}, clipTile(h, 0, 0))
	assert.Equal(t, tileRect{x0: 8, y0: 0, w: 2, h: 8}, clipTile(h, 1, 0))
	assert.Equal(t, tileRect{x0: 0, y0: 8, w: 8, h: 2}, clipTile(h, 0, 1))
	assert.Equal(t, tileRect{x0: 8, y0: 8, w: 2, h: 2}, clipTile(h, 1, 1))
}

func TestBlitTile_BottomRightClipped(t *testing.T) {
	h := newHeader(10, 10, 8, RGB8, 0)
	const bpp = 3
	out := make([]byte, 10*10*bpp)
	tile := bytes.Repeat([]byte{0xFF}, 8*8*bpp)

	require.NoError(t, blitTile(out, tile, h, bpp, 1, 1))

	// only the 2×2 corner is written
	assert.Equal(t, 2*2*bpp, bytes.Count(out, []byte{0xFF}))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			want := byte(0)
			if x >= 8 && y >= 8 {
				want = 0xFF
			}
			assert.Equal(t, want, out[(y*10+x)*bpp], "pixel (%d,%d)", x, y)
		}
	}
}

func TestBlitTile_UsesTileStride(t *testing.T) {
	h := newHeader(10, 10, 8, L8, 0)
	out := make([]byte, 100)
	tile := make([]byte, 64)
	for i := range tile {
		tile[i] = byte(i)
	}

	require.NoError(t, blitTile(out, tile, h, 1, 1, 0))
	for row := 0; row < 8; row++ {
		assert.Equal(t, tile[row*8:row*8+2], out[row*10+8:row*10+10], "row %d", row)
	}
}

func TestBlitTile_PackedEdge(t *testing.T) {
	h := newHeader(10, 10, 8, L8, 0)
	out := make([]byte, 100)
	tile := []byte{1, 2, 3, 4} // 2×2, rows packed

	require.NoError(t, blitTile(out, tile, h, 1, 1, 1))
	assert.Equal(t, []byte{1, 2}, out[88:90])
	assert.Equal(t, []byte{3, 4}, out[98:100])
}

func TestBlitTile_ShortTile(t *testing.T) {
	h := newHeader(10, 10, 8, L8, 0)
	out := make([]byte, 100)

	err := blitTile(out, make([]byte, 7*8), h, 1, 0, 0)
	var fe FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, make([]byte, 100), out)
}

func TestBlitTile_OutsideImage(t *testing.T) {
	h := newHeader(10, 10, 8, L8, 0)
	out := make([]byte, 100)
	assert.NoError(t, blitTile(out, make([]byte, 64), h, 1, 2, 0))
	assert.NoError(t, blitTile(out, make([]byte, 64), h, 1, 0, 5))
}

func TestTilePos(t *testing.T) {
	for i, want := range [][2]int{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}} {
		tx, ty := TilePos(i, 3)
		assert.Equal(t, want, [2]int{tx, ty}, "tile %d", i)
	}
}
