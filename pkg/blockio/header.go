package blockio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic identifies a valid index file. It occupies the first 8 bytes of
// block 0.
var Magic = [8]byte{'4', '3', '4', '8', 'P', 'R', 'J', '3'}

// ErrBadMagic is returned by ReadHeader when the file's magic bytes do
// not match Magic exactly.
var ErrBadMagic = errors.New("blockio: bad magic")

// Header is the in-memory image of block 0: the file's magic identifier,
// the current root block identifier (0 when the tree is empty), and the
// next-unused block identifier (the allocator's high-water mark).
type Header struct {
	Root uint64
	Next uint64
}

// encode serializes the header into a BlockSize-byte big-endian block:
// magic (8 bytes), root id (8 bytes), next id (8 bytes), zero-filled
// reserved tail.
func (h *Header) encode() []byte {
	buf := make([]byte, BlockSize)
	copy(buf[0:8], Magic[:])
	binary.BigEndian.PutUint64(buf[8:16], h.Root)
	binary.BigEndian.PutUint64(buf[16:24], h.Next)
	return buf
}

// decodeHeader parses a BlockSize-byte block into a Header, validating
// the magic bytes.
func decodeHeader(buf []byte) (*Header, error) {
	if len(buf) != BlockSize {
		return nil, fmt.Errorf("blockio: header block is %d bytes, want %d", len(buf), BlockSize)
	}
	if string(buf[0:8]) != string(Magic[:]) {
		return nil, ErrBadMagic
	}
	return &Header{
		Root: binary.BigEndian.Uint64(buf[8:16]),
		Next: binary.BigEndian.Uint64(buf[16:24]),
	}, nil
}

// WriteHeader writes h to block 0, synchronously.
func WriteHeader(d *Device, h *Header) error {
	return d.WriteBlock(0, h.encode())
}

// ReadHeader validates that the file is large enough to contain a
// header block and reads it from block 0.
func ReadHeader(d *Device) (*Header, error) {
	size, err := d.Size()
	if err != nil {
		return nil, err
	}
	if size < BlockSize {
		return nil, fmt.Errorf("blockio: file too small to contain a header (%d bytes)", size)
	}
	buf, err := d.ReadBlock(0)
	if err != nil {
		return nil, err
	}
	return decodeHeader(buf)
}

// NewHeader returns the header for a freshly created, empty index: no
// root, and the first allocatable block identifier is 1 (block 0 is the
// header itself).
func NewHeader() *Header {
	return &Header{Root: 0, Next: 1}
}
