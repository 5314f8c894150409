// Package index provides the library surface over the B-tree engine:
// Create, Open, Insert, Search, IterateInOrder, and Close on a single
// index file handle.
package index

import (
	"errors"
	"fmt"
	"os"

	"btreeidx/pkg/blockio"
	"btreeidx/pkg/btree"
	"btreeidx/pkg/node"

	"github.com/flier/goutil/pkg/opt"
)

// Sentinel errors surfaced by the library surface, per spec.md §7.
var (
	// ErrExists is returned by Create when the target path already
	// exists.
	ErrExists = errors.New("index: file already exists")
	// ErrNotFound is returned by Open when the target path does not
	// exist.
	ErrNotFound = errors.New("index: file does not exist")
	// ErrBadFormat is returned by Open when the file is too small to
	// hold a header, or its magic bytes do not match.
	ErrBadFormat = errors.New("index: not a valid index file")
)

// Handle is a single exclusive opener of an index file. It owns the
// in-memory cached header (root identifier, next-unused identifier) and
// flushes it to disk on every change; it holds no more than three node
// blocks resident during Insert or Search, plus one grandchild at a time
// while a non-leaf split updates parent identifiers.
type Handle struct {
	device *blockio.Device
	header *blockio.Header
	tree   *btree.Tree
}

// Create creates a brand-new, empty index file at path. It fails with
// ErrExists if the path already exists.
func Create(path string) (*Handle, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("index: create %q: %w", path, ErrExists)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("index: create %q: %w", path, err)
	}

	device, err := blockio.Create(path)
	if err != nil {
		return nil, fmt.Errorf("index: create %q: %w", path, err)
	}

	header := blockio.NewHeader()
	if err := blockio.WriteHeader(device, header); err != nil {
		device.Close()
		return nil, fmt.Errorf("index: create %q: %w", path, err)
	}

	return newHandle(device, header), nil
}

// Open opens an existing index file at path. It fails with ErrNotFound
// if the path does not exist, and with ErrBadFormat if the file is
// shorter than one block or its magic bytes do not match.
func Open(path string) (*Handle, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("index: open %q: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("index: open %q: %w", path, err)
	}

	device, err := blockio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("index: open %q: %w", path, err)
	}

	header, err := blockio.ReadHeader(device)
	if err != nil {
		device.Close()
		return nil, fmt.Errorf("index: open %q: %w", path, errors.Join(ErrBadFormat, err))
	}

	return newHandle(device, header), nil
}

func newHandle(device *blockio.Device, header *blockio.Header) *Handle {
	h := &Handle{device: device, header: header}
	h.tree = &btree.Tree{
		Get:      h.getNode,
		Put:      h.putNode,
		Allocate: h.allocateNode,
		GetRoot:  func() uint64 { return h.header.Root },
		SetRoot:  h.setRoot,
	}
	return h
}

func (h *Handle) getNode(id uint64) (*node.Node, error) {
	buf, err := h.device.ReadBlock(id)
	if err != nil {
		return nil, err
	}
	return node.Decode(buf)
}

func (h *Handle) putNode(n *node.Node) error {
	return h.device.WriteBlock(n.ID, n.Encode())
}

// allocateNode hands out the next block identifier and makes the
// allocation durable before returning, per spec.md §4.3.
func (h *Handle) allocateNode() (*node.Node, error) {
	id := h.header.Next
	h.header.Next++
	if err := blockio.WriteHeader(h.device, h.header); err != nil {
		h.header.Next--
		return nil, err
	}
	return node.New(id), nil
}

func (h *Handle) setRoot(id uint64) error {
	h.header.Root = id
	return blockio.WriteHeader(h.device, h.header)
}

// Insert adds key/value to the index. If key is already present it
// returns the engine's error, which wraps btree.ErrDuplicateKey.
func (h *Handle) Insert(key, value uint64) error {
	return h.tree.Insert(key, value)
}

// Search returns the pair matching key wrapped in a Some, or a None if
// key is absent.
func (h *Handle) Search(key uint64) (opt.Option[btree.Pair], error) {
	return h.tree.Search(key)
}

// IterateInOrder returns a lazy, finite sequence of (key, value) pairs in
// ascending key order, suitable for Go's range-over-func syntax:
//
//	for k, v := range handle.IterateInOrder() { ... }
func (h *Handle) IterateInOrder() func(yield func(uint64, uint64) bool) {
	return h.tree.IterateInOrder()
}

// Close closes the underlying file.
func (h *Handle) Close() error {
	return h.device.Close()
}
