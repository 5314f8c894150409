// Package blockio provides a fixed-block-size facade over a random-access
// file. All reads and writes happen in units of exactly BlockSize bytes at
// offsets that are integer multiples of BlockSize.
package blockio

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// BlockSize is the fixed size, in bytes, of every block in the file:
// the header occupies block 0, and every node occupies one block
// identified by a nonzero block identifier.
const BlockSize = 512

// ErrShortRead is returned when fewer than BlockSize bytes could be read
// for a requested block, which means the file is truncated or corrupt.
var ErrShortRead = errors.New("blockio: short read")

// Device wraps a single on-disk file and reads/writes it in BlockSize
// units. It performs no locking: callers are responsible for ensuring the
// index file has a single exclusive opener, per the format's concurrency
// model.
type Device struct {
	file *os.File
}

// Create creates a brand-new block file at path. It fails if the path
// already exists.
func Create(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, err
	}
	return &Device{file: f}, nil
}

// Open opens an existing block file at path. It fails if the path does
// not exist; callers are expected to validate the file's length and
// header separately.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	return &Device{file: f}, nil
}

// Size returns the current size of the underlying file in bytes.
func (d *Device) Size() (int64, error) {
	info, err := d.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ReadBlock reads exactly BlockSize bytes from block id (byte offset
// id*BlockSize).
func (d *Device) ReadBlock(id uint64) ([]byte, error) {
	buf := make([]byte, BlockSize)
	n, err := d.file.ReadAt(buf, int64(id)*BlockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("blockio: read block %d: %w", id, err)
	}
	if n != BlockSize {
		return nil, fmt.Errorf("blockio: read block %d: %w", id, ErrShortRead)
	}
	return buf, nil
}

// WriteBlock writes exactly BlockSize bytes of data to block id. data
// must be BlockSize bytes long.
func (d *Device) WriteBlock(id uint64, data []byte) error {
	if len(data) != BlockSize {
		return fmt.Errorf("blockio: write block %d: data is %d bytes, want %d", id, len(data), BlockSize)
	}
	if _, err := d.file.WriteAt(data, int64(id)*BlockSize); err != nil {
		return fmt.Errorf("blockio: write block %d: %w", id, err)
	}
	return nil
}

// Close closes the underlying file.
func (d *Device) Close() error {
	return d.file.Close()
}
