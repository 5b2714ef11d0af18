package cti

import (
	"fmt"
	"io"
)

// ErrBadMagic is returned when the file does not start with the CTI
// signature. It is a FormatError.
var ErrBadMagic error = FormatError("bad magic")

// IOError reports a failed open, read or seek on the underlying stream.
// A stream that ends early carries io.ErrUnexpectedEOF.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return "cti: " + e.Op + ": " + e.Err.Error() }

func (e *IOError) Unwrap() error { return e.Err }

// ioErr wraps err as an IOError, folding a bare io.EOF into
// io.ErrUnexpectedEOF: every CTI read has a fixed expected length.
func ioErr(op string, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &IOError{Op: op, Err: err}
}

// A FormatError reports that the input is not a structurally valid CTI file.
type FormatError string

func (e FormatError) Error() string { return "cti: invalid format: " + string(e) }

// UnsupportedColorTypeError reports a color type outside L8..RGB16.
type UnsupportedColorTypeError struct {
	ColorType uint8
}

func (e *UnsupportedColorTypeError) Error() string {
	return fmt.Sprintf("cti: unsupported color type id %d", e.ColorType)
}

// UnsupportedCompressionError reports a compression mode without a decoder,
// including unrecognised identifiers.
type UnsupportedCompressionError struct {
	ID CompressionID
}

func (e *UnsupportedCompressionError) Error() string {
	return "cti: unsupported compression " + e.ID.String()
}

// IntegrityError reports a tile whose decompressed bytes do not match the
// checksum stored in the tile index.
type IntegrityError struct {
	Tile int
	Want uint32
	Got  uint32
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("cti: crc mismatch at tile %d: stored %08x, computed %08x", e.Tile, e.Want, e.Got)
}
