// Package testutil provides an in-memory block store for exercising
// pkg/btree without touching disk, mirroring the teacher's
// map-backed MockStorage used to test its B+ tree in isolation.
package testutil

import (
	"fmt"
	"sync"

	"btreeidx/pkg/btree"
	"btreeidx/pkg/node"
)

// MemStore is an in-memory stand-in for the on-disk block device and
// header: a map of block identifier to node, plus the allocator's
// high-water mark and the current root identifier.
type MemStore struct {
	mu     sync.Mutex
	blocks map[uint64]*node.Node
	nextID uint64
	rootID uint64
}

// NewMemStore returns an empty store, matching a freshly created index
// file (no root, first allocatable id is 1).
func NewMemStore() *MemStore {
	return &MemStore{
		blocks: make(map[uint64]*node.Node),
		nextID: 1,
	}
}

func (m *MemStore) Get(id uint64) (*node.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.blocks[id]
	if !ok {
		return nil, fmt.Errorf("testutil: no block %d", id)
	}
	cp := *n
	return &cp, nil
}

func (m *MemStore) Put(n *node.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.blocks[n.ID] = &cp
	return nil
}

func (m *MemStore) Allocate() (*node.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	return node.New(id), nil
}

func (m *MemStore) GetRoot() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rootID
}

func (m *MemStore) SetRoot(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rootID = id
	return nil
}

// NewTestTree returns a *btree.Tree wired to a fresh MemStore, along with
// the store itself so tests can inspect raw node state after operations.
func NewTestTree() (*btree.Tree, *MemStore) {
	store := NewMemStore()
	return &btree.Tree{
		Get:      store.Get,
		Put:      store.Put,
		Allocate: store.Allocate,
		GetRoot:  store.GetRoot,
		SetRoot:  store.SetRoot,
	}, store
}
