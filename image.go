package cti

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
)

func init() {
	image.RegisterFormat("cti", Magic, Decode, DecodeConfig)
}

// Raster is a decoded image: Pix holds Width×Height pixels, row-major,
// interleaved in the order of the header's color type. 16-bit samples are
// little-endian.
type Raster struct {
	Header Header
	Pix    []byte
}

// Image converts the raster to the matching image type: *image.Gray,
// *image.Gray16, *image.NRGBA (RGB8 is widened with opaque alpha) or
// *image.NRGBA64 (RGB16).
func (r *Raster) Image() (image.Image, error) {
	w, h := int(r.Header.Width), int(r.Header.Height)
	ct := r.Header.ColorType()
	if bpp := ct.BytesPerPixel(); bpp == 0 {
		return nil, &UnsupportedColorTypeError{ColorType: r.Header.ColorID}
	} else if len(r.Pix) != w*h*bpp {
		return nil, FormatError(fmt.Sprintf("raster has %d bytes, want %d", len(r.Pix), w*h*bpp))
	}
	rect := image.Rect(0, 0, w, h)

	switch ct {
	case L8:
		img := image.NewGray(rect)
		copy(img.Pix, r.Pix)
		return img, nil

	case L16:
		img := image.NewGray16(rect)
		for i := 0; i+1 < len(r.Pix); i += 2 {
			img.Pix[i], img.Pix[i+1] = r.Pix[i+1], r.Pix[i]
		}
		return img, nil

	case RGB8:
		img := image.NewNRGBA(rect)
		for s, d := 0, 0; s < len(r.Pix); s, d = s+3, d+4 {
			img.Pix[d+0] = r.Pix[s+0]
			img.Pix[d+1] = r.Pix[s+1]
			img.Pix[d+2] = r.Pix[s+2]
			img.Pix[d+3] = 0xff
		}
		return img, nil

	case RGBA8:
		img := image.NewNRGBA(rect)
		copy(img.Pix, r.Pix)
		return img, nil

	default: // RGB16
		img := image.NewNRGBA64(rect)
		for s, d := 0, 0; s < len(r.Pix); s, d = s+6, d+8 {
			for c := 0; c < 3; c++ {
				img.Pix[d+2*c], img.Pix[d+2*c+1] = r.Pix[s+2*c+1], r.Pix[s+2*c]
			}
			img.Pix[d+6], img.Pix[d+7] = 0xff, 0xff
		}
		return img, nil
	}
}

func colorModel(c ColorType) color.Model {
	switch c {
	case L8:
		return color.GrayModel
	case L16:
		return color.Gray16Model
	case RGB16:
		return color.NRGBA64Model
	}
	return color.NRGBAModel
}

// readSeeker returns r itself when it can seek, otherwise a reader over all
// of r's data.
func readSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ioErr("read data", err)
	}
	return bytes.NewReader(data), nil
}

// Decode reads a CTI image from r. Tile payloads are addressed by absolute
// offset, so r is read fully into memory unless it is an io.ReadSeeker, in
// which case it is rewound to the start.
func Decode(r io.Reader) (image.Image, error) {
	rs, err := readSeeker(r)
	if err != nil {
		return nil, err
	}
	h, pix, err := NewDecoder().Decode(rs)
	if err != nil {
		return nil, err
	}
	return (&Raster{Header: h, Pix: pix}).Image()
}

// DecodeConfig returns the color model and dimensions of a CTI image
// without reading any tile.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	if err := h.CheckMagic(); err != nil {
		return image.Config{}, err
	}
	if h.ColorType().BytesPerPixel() == 0 {
		return image.Config{}, &UnsupportedColorTypeError{ColorType: h.ColorID}
	}
	return image.Config{
		ColorModel: colorModel(h.ColorType()),
		Width:      int(h.Width),
		Height:     int(h.Height),
	}, nil
}
