package cti

import "hash/crc32"

// crcTable is the 256-entry table for the reflected 0xEDB88320 polynomial.
var crcTable = crc32.MakeTable(crc32.IEEE)

// Checksum returns the CRC-32 (IEEE) of a decompressed tile.
func Checksum(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// verifyTile checks tile i against the checksum from its index record.
func verifyTile(i int, data []byte, want uint32) error {
	if got := Checksum(data); got != want {
		return &IntegrityError{Tile: i, Want: want, Got: got}
	}
	return nil
}
