// Package cti decodes CTI, a tiled raster container in which every tile is
// compressed (none, Zstd or LZ4) and checksummed on its own.
//
// A file is a 64-byte little-endian header followed by a tile index of
// TilesX×TilesY records and the tile payloads they point to. Decoding
// verifies every tile's CRC-32, optionally undoes the reversible color
// transform on RGB images, and composites the tiles into one interleaved
// raster:
//
//	hdr, pix, err := cti.DecodeFile("scan.cti")
//
// ReadInfo reads the header alone. Importing the package also registers the
// format with image.Decode.
package cti
