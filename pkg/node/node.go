// Package node defines the in-memory representation of a B-tree node and
// its fixed big-endian on-disk encoding. A node always occupies exactly
// one 512-byte block.
package node

import (
	"encoding/binary"
	"fmt"

	"btreeidx/pkg/blockio"
)

// Tree shape constants. Minimum degree t = 10: a node holds between
// t-1 = 9 and 2t-1 = 19 keys, except the root, which may hold between 1
// and 19. A non-leaf with k keys has exactly k+1 children.
const (
	MinDegree      = 10
	MaxKeys        = 2*MinDegree - 1 // 19
	MinKeysNonRoot = MinDegree - 1   // 9
	MaxChildren    = 2 * MinDegree   // 20
)

// Byte layout of an encoded node within its 512-byte block.
const (
	offID       = 0
	offParent   = 8
	offN        = 16
	offKeys     = 24
	offValues   = offKeys + MaxKeys*8   // 176
	offChildren = offValues + MaxKeys*8 // 328
	encodedSize = offChildren + MaxChildren*8
)

// Node is the in-memory form of one B-tree node.
type Node struct {
	ID       uint64
	ParentID uint64
	N        int // number of live keys, 0 <= N <= MaxKeys
	Keys     [MaxKeys]uint64
	Values   [MaxKeys]uint64
	Children [MaxChildren]uint64
}

// New returns a freshly zeroed node with the given block identifier.
func New(id uint64) *Node {
	return &Node{ID: id}
}

// IsLeaf reports whether the node is a leaf: its invariant definition is
// that the first child slot is zero. A non-leaf must have a nonzero
// children[0].
func (n *Node) IsLeaf() bool {
	return n.Children[0] == 0
}

// Encode serializes the node into a BlockSize-byte big-endian block.
// Slots beyond N (keys/values) and beyond N+1 (children) are written as
// zero so that the byte image of a given logical node state is unique.
func (n *Node) Encode() []byte {
	buf := make([]byte, blockio.BlockSize)
	binary.BigEndian.PutUint64(buf[offID:], n.ID)
	binary.BigEndian.PutUint64(buf[offParent:], n.ParentID)
	binary.BigEndian.PutUint64(buf[offN:], uint64(n.N))
	for i := 0; i < n.N; i++ {
		binary.BigEndian.PutUint64(buf[offKeys+i*8:], n.Keys[i])
		binary.BigEndian.PutUint64(buf[offValues+i*8:], n.Values[i])
	}
	for i := 0; i <= n.N; i++ {
		binary.BigEndian.PutUint64(buf[offChildren+i*8:], n.Children[i])
	}
	return buf
}

// Decode parses a BlockSize-byte block into a Node.
func Decode(buf []byte) (*Node, error) {
	if len(buf) != blockio.BlockSize {
		return nil, fmt.Errorf("node: block is %d bytes, want %d", len(buf), blockio.BlockSize)
	}
	n := &Node{}
	n.ID = binary.BigEndian.Uint64(buf[offID:])
	n.ParentID = binary.BigEndian.Uint64(buf[offParent:])
	count := binary.BigEndian.Uint64(buf[offN:])
	if count > MaxKeys {
		return nil, fmt.Errorf("node: decoded key count %d exceeds maximum %d", count, MaxKeys)
	}
	n.N = int(count)
	for i := 0; i < MaxKeys; i++ {
		n.Keys[i] = binary.BigEndian.Uint64(buf[offKeys+i*8:])
		n.Values[i] = binary.BigEndian.Uint64(buf[offValues+i*8:])
	}
	for i := 0; i < MaxChildren; i++ {
		n.Children[i] = binary.BigEndian.Uint64(buf[offChildren+i*8:])
	}
	return n, nil
}
