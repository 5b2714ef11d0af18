package cti

import "encoding/binary"

// Reversible color transform. Pixels are stored as (Y, Cb, Cr) with Y
// unsigned and Cb/Cr two's complement of the channel width:
//
//	g = Y - ((Cb + Cr) >> 2)
//	r = Cr + g
//	b = Cb + g
//
// Results are clamped to the channel range, which a conforming encoder
// never needs.

// useRCT reports whether tiles of h carry the transform.
func useRCT(h Header) bool {
	c := h.ColorType()
	return h.HasRCT() && (c == RGB8 || c == RGB16)
}

// inverseRCT undoes the transform in place on a tile of color type c.
// Other color types are left untouched.
func inverseRCT(c ColorType, pix []byte) {
	switch c {
	case RGB8:
		InverseRCT8(pix)
	case RGB16:
		InverseRCT16(pix)
	}
}

// InverseRCT8 converts packed 8-bit YCbCr triples back to RGB in place.
// A trailing partial pixel is ignored.
func InverseRCT8(pix []byte) {
	for i := 0; i+3 <= len(pix); i += 3 {
		y := int32(pix[i])
		cb := int32(int8(pix[i+1]))
		cr := int32(int8(pix[i+2]))

		g := y - ((cb + cr) >> 2)
		r := cr + g
		b := cb + g

		pix[i] = uint8(clamp(r, 0xff))
		pix[i+1] = uint8(clamp(g, 0xff))
		pix[i+2] = uint8(clamp(b, 0xff))
	}
}

// InverseRCT16 is InverseRCT8 for little-endian 16-bit channels.
func InverseRCT16(pix []byte) {
	le := binary.LittleEndian
	for i := 0; i+6 <= len(pix); i += 6 {
		y := int32(le.Uint16(pix[i:]))
		cb := int32(int16(le.Uint16(pix[i+2:])))
		cr := int32(int16(le.Uint16(pix[i+4:])))

		g := y - ((cb + cr) >> 2)
		r := cr + g
		b := cb + g

		le.PutUint16(pix[i:], uint16(clamp(r, 0xffff)))
		le.PutUint16(pix[i+2:], uint16(clamp(g, 0xffff)))
		le.PutUint16(pix[i+4:], uint16(clamp(b, 0xffff)))
	}
}

func clamp(v, hi int32) int32 {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
