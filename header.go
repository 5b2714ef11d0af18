package cti

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic is the signature every CTI file starts with.
const Magic = "CTI1"

// HeaderSize is the encoded size of Header, reserved padding included.
const HeaderSize = 4 + 2 + 2 + 5*4 + 3 + reservedSize

// reserved forward-compatibility padding at the end of the header; its
// contents are not defined and are never inspected.
const reservedSize = 33

// FlagRCT marks tiles stored with the reversible color transform applied.
const FlagRCT = 1 << 0

// Header is the fixed-size record at offset 0 of a CTI file.
type Header struct {
	Magic    [4]byte
	Version  uint16
	Flags    uint16
	Width    uint32
	Height   uint32
	TileSize uint32
	TilesX   uint32
	TilesY   uint32
	ColorID  uint8
	CompID   uint8
	Quality  uint8 // encoder setting, not used by decode
}

// ColorType returns the header's color type.
func (h Header) ColorType() ColorType { return ColorType(h.ColorID) }

// Compression returns the header's compression identifier.
func (h Header) Compression() CompressionID { return ParseCompressionID(h.CompID) }

// HasRCT reports whether the flag bitmap marks the reversible color transform.
func (h Header) HasRCT() bool { return h.Flags&FlagRCT != 0 }

// TileCount returns TilesX × TilesY.
func (h Header) TileCount() uint64 { return uint64(h.TilesX) * uint64(h.TilesY) }

// CheckMagic returns ErrBadMagic unless the header carries the CTI signature.
func (h Header) CheckMagic() error {
	if string(h.Magic[:]) != Magic {
		return ErrBadMagic
	}
	return nil
}

// ReadHeader reads exactly HeaderSize bytes from r and parses them. The
// result is not validated, so it can be used to probe any file.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("%w: %w", FormatError("truncated header"), ioErr("read header", err))
	}

	var h Header
	pos := 0
	u16 := func() uint16 {
		v := binary.LittleEndian.Uint16(buf[pos:])
		pos += 2
		return v
	}
	u32 := func() uint32 {
		v := binary.LittleEndian.Uint32(buf[pos:])
		pos += 4
		return v
	}
	u8 := func() uint8 {
		v := buf[pos]
		pos++
		return v
	}

	pos += copy(h.Magic[:], buf[:4])
	h.Version = u16()
	h.Flags = u16()
	h.Width = u32()
	h.Height = u32()
	h.TileSize = u32()
	h.TilesX = u32()
	h.TilesY = u32()
	h.ColorID = u8()
	h.CompID = u8()
	h.Quality = u8()
	// the remaining reservedSize bytes were consumed by ReadFull and are
	// discarded here
	return h, nil
}

// ColorType identifies the pixel layout of the raster.
type ColorType uint8

const (
	L8    ColorType = 1
	L16   ColorType = 2
	RGB8  ColorType = 3
	RGBA8 ColorType = 4
	RGB16 ColorType = 5
)

// BytesPerPixel returns the pixel size in bytes, or 0 for unknown types.
func (c ColorType) BytesPerPixel() int {
	switch c {
	case L8:
		return 1
	case L16:
		return 2
	case RGB8:
		return 3
	case RGBA8:
		return 4
	case RGB16:
		return 6
	}
	return 0
}

func (c ColorType) String() string {
	switch c {
	case L8:
		return "L8"
	case L16:
		return "L16"
	case RGB8:
		return "RGB8"
	case RGBA8:
		return "RGBA8"
	case RGB16:
		return "RGB16"
	}
	return "Unknown"
}

// CompressionKind names a tile compression mode.
type CompressionKind uint8

const (
	CompNone CompressionKind = iota
	CompRLE
	CompLZ77
	CompDelta
	CompPredictive
	CompZstd
	CompLZ4
	CompUnknown
)

var compressionNames = [...]string{
	CompNone:       "None",
	CompRLE:        "RLE",
	CompLZ77:       "LZ77",
	CompDelta:      "Delta",
	CompPredictive: "Predictive",
	CompZstd:       "Zstd",
	CompLZ4:        "LZ4",
	CompUnknown:    "Unknown",
}

func (k CompressionKind) String() string {
	if int(k) < len(compressionNames) {
		return compressionNames[k]
	}
	return "Unknown"
}

// CompressionID is a compression identifier as stored in the header. Raw
// keeps the original byte so unrecognised values can be reported.
type CompressionID struct {
	Kind CompressionKind
	Raw  uint8
}

// ParseCompressionID maps a stored identifier byte to its kind.
func ParseCompressionID(v uint8) CompressionID {
	id := CompressionID{Kind: CompUnknown, Raw: v}
	switch v {
	case 0:
		id.Kind = CompNone
	case 1:
		id.Kind = CompRLE
	case 2:
		id.Kind = CompLZ77
	case 3:
		id.Kind = CompDelta
	case 4:
		id.Kind = CompPredictive
	case 10:
		id.Kind = CompZstd
	case 11:
		id.Kind = CompLZ4
	}
	return id
}

// String returns the mode name, or Unknown(n) for unrecognised bytes.
func (id CompressionID) String() string {
	if id.Kind == CompUnknown {
		return fmt.Sprintf("Unknown(%d)", id.Raw)
	}
	return id.Kind.String()
}
