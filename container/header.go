package container

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Header (16 bytes) = Magic(4) + Version(2) + Kind(2) + RecordSize(4) + CRC32(4)
const (
	headerSize    = 16
	headerMagic   = "TICK"
	headerVersion = 1
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

type header struct {
	Version    uint16
	Kind       Kind
	RecordSize uint32
}

func (h header) encode() []byte {
	b := make([]byte, headerSize)
	copy(b[0:4], headerMagic)
	binary.LittleEndian.PutUint16(b[4:], h.Version)
	binary.LittleEndian.PutUint16(b[6:], uint16(h.Kind))
	binary.LittleEndian.PutUint32(b[8:], h.RecordSize)
	binary.LittleEndian.PutUint32(b[12:], crc32.Checksum(b[:12], crcTable))
	return b
}

func decodeHeader(b []byte) (header, error) {
	if len(b) < headerSize {
		return header{}, fmt.Errorf("%w: short header", ErrCorrupted)
	}
	if string(b[0:4]) != headerMagic {
		return header{}, fmt.Errorf("%w: bad magic %q", ErrCorrupted, b[0:4])
	}

	expectedCRC := binary.LittleEndian.Uint32(b[12:16])
	if actualCRC := crc32.Checksum(b[:12], crcTable); actualCRC != expectedCRC {
		return header{}, fmt.Errorf("%w: header CRC expected %x, got %x", ErrCorrupted, expectedCRC, actualCRC)
	}

	h := header{
		Version:    binary.LittleEndian.Uint16(b[4:]),
		Kind:       Kind(binary.LittleEndian.Uint16(b[6:])),
		RecordSize: binary.LittleEndian.Uint32(b[8:]),
	}
	if h.Version != headerVersion {
		return header{}, fmt.Errorf("%w: unsupported version %d", ErrCorrupted, h.Version)
	}
	if h.RecordSize == 0 {
		return header{}, fmt.Errorf("%w: zero record size", ErrCorrupted)
	}

	return h, nil
}
