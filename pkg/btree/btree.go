// Package btree implements the disk-resident B-tree engine: search,
// proactive-split insertion, and in-order traversal, operating through a
// small storage-injection surface so the engine itself never touches a
// file handle directly. At most three node blocks are resident in memory
// at once during Search or Insert, apart from the one grandchild at a
// time that a non-leaf split loads to update its parent identifier.
package btree

import (
	"errors"
	"fmt"

	"btreeidx/pkg/node"

	"github.com/flier/goutil/pkg/opt"
)

// ErrDuplicateKey is returned by Insert when the key is already present.
// The tree is left unchanged.
var ErrDuplicateKey = errors.New("btree: duplicate key")

// ErrCorrupt reports an on-disk invariant violation encountered while
// descending the tree: a non-leaf node with a zero child pointer at the
// index the descent needs. A well-formed non-leaf never has
// this shape; spec.md treats it as a bug, not as "not found".
var ErrCorrupt = errors.New("btree: corrupt index (non-leaf node has a zero child pointer)")

// Pair is a single key/value result, used as the payload of the Option
// returned by Search.
type Pair struct {
	Key   uint64
	Value uint64
}

// Tree is the B-tree engine. It holds no file handle itself: Get, Put,
// and Allocate are injected by the caller (see pkg/index), which lets
// the engine be unit-tested against an in-memory store.
type Tree struct {
	// Get reads the node stored at the given block identifier.
	Get func(id uint64) (*node.Node, error)
	// Put writes a node to its own block identifier, synchronously.
	Put func(n *node.Node) error
	// Allocate hands out a fresh node with a freshly reserved block
	// identifier, persisting the allocator's high-water mark before
	// returning.
	Allocate func() (*node.Node, error)
	// GetRoot returns the current root block identifier (0 if the tree
	// is empty).
	GetRoot func() uint64
	// SetRoot persists a new root block identifier.
	SetRoot func(id uint64) error
}

// Search looks up key and returns the matching pair wrapped in a Some,
// or a None if the key is not present. It holds at most one node
// resident at a time: after descending into a child, the parent is
// dropped.
func (t *Tree) Search(key uint64) (opt.Option[Pair], error) {
	rootID := t.GetRoot()
	if rootID == 0 {
		return opt.None[Pair](), nil
	}

	current, err := t.Get(rootID)
	if err != nil {
		return opt.Option[Pair]{}, err
	}

	for {
		i := 0
		for i < current.N && current.Keys[i] < key {
			i++
		}
		if i < current.N && current.Keys[i] == key {
			return opt.Some(Pair{Key: current.Keys[i], Value: current.Values[i]}), nil
		}
		if current.IsLeaf() {
			return opt.None[Pair](), nil
		}
		childID := current.Children[i]
		if childID == 0 {
			return opt.Option[Pair]{}, fmt.Errorf("btree: search at block %d index %d: %w", current.ID, i, ErrCorrupt)
		}
		current, err = t.Get(childID)
		if err != nil {
			return opt.Option[Pair]{}, err
		}
	}
}

// Insert places key/value into the tree. If key is already present,
// Insert returns ErrDuplicateKey and leaves the tree unchanged. Like
// original_source/project3.py's insert(), duplicate detection is a full
// Search run to completion before any node is touched: checking only the
// keys that happen to move during a split (e.g. a full node's median)
// misses a duplicate sitting in any of that node's other live slots, or
// deeper in its subtree, and would otherwise let a rejected duplicate
// insert still restructure the tree. Once Search confirms the key is
// absent, the engine uses the classical proactive-split variant: any
// full node encountered on the way down is split first, so insertion
// never needs to propagate upward after the fact.
func (t *Tree) Insert(key, value uint64) error {
	rootID := t.GetRoot()

	if rootID == 0 {
		root, err := t.Allocate()
		if err != nil {
			return err
		}
		root.N = 1
		root.Keys[0] = key
		root.Values[0] = value
		if err := t.Put(root); err != nil {
			return err
		}
		return t.SetRoot(root.ID)
	}

	existing, err := t.Search(key)
	if err != nil {
		return err
	}
	if existing.IsSome() {
		return fmt.Errorf("btree: insert key %d: %w", key, ErrDuplicateKey)
	}

	root, err := t.Get(rootID)
	if err != nil {
		return err
	}

	if root.N == node.MaxKeys {
		newRoot, err := t.Allocate()
		if err != nil {
			return err
		}
		newRoot.Children[0] = root.ID
		root.ParentID = newRoot.ID
		if err := t.Put(root); err != nil {
			return err
		}
		if err := t.SetRoot(newRoot.ID); err != nil {
			return err
		}

		if err := t.splitChild(newRoot, 0, root); err != nil {
			return err
		}
		return t.insertNonFull(newRoot, key, value)
	}

	return t.insertNonFull(root, key, value)
}

// insertNonFull inserts key/value into a node known to have fewer than
// node.MaxKeys keys. The caller (Insert) has already confirmed key is
// absent from the tree, so this pass only ever places it; it never
// needs to detect or reject a duplicate. At any instant it holds at
// most the current node, the target child, and (during a recursive
// split) the new sibling: the parent/child bodies of earlier recursion
// levels are not retained, only their block identifiers on the Go call
// stack.
func (t *Tree) insertNonFull(n *node.Node, key, value uint64) error {
	if n.IsLeaf() {
		i := n.N - 1
		for i >= 0 && key < n.Keys[i] {
			i--
		}
		for j := n.N - 1; j > i; j-- {
			n.Keys[j+1] = n.Keys[j]
			n.Values[j+1] = n.Values[j]
		}
		n.Keys[i+1] = key
		n.Values[i+1] = value
		n.N++
		return t.Put(n)
	}

	i := n.N - 1
	for i >= 0 && key < n.Keys[i] {
		i--
	}
	i++

	childID := n.Children[i]
	if childID == 0 {
		return fmt.Errorf("btree: insert at block %d index %d: %w", n.ID, i, ErrCorrupt)
	}
	child, err := t.Get(childID)
	if err != nil {
		return err
	}

	if child.N == node.MaxKeys {
		if err := t.splitChild(n, i, child); err != nil {
			return err
		}
		if key > n.Keys[i] {
			i++
		}
		child, err = t.Get(n.Children[i])
		if err != nil {
			return err
		}
	}

	return t.insertNonFull(child, key, value)
}

// splitChild splits the full child c (at index idx of parent p) into c
// and a freshly allocated right sibling z, promoting the median key/value
// into p. See spec.md §4.5 for the exact slot arithmetic. Children
// relocated to z have their stored parent identifier updated one at a
// time, so no more than the parent/child/z triple plus one grandchild is
// ever resident.
func (t *Tree) splitChild(p *node.Node, idx int, c *node.Node) error {
	const tt = node.MinDegree

	z, err := t.Allocate()
	if err != nil {
		return err
	}
	z.ParentID = p.ID
	z.N = tt - 1

	for j := 0; j < tt-1; j++ {
		z.Keys[j] = c.Keys[j+tt]
		z.Values[j] = c.Values[j+tt]
		c.Keys[j+tt] = 0
		c.Values[j+tt] = 0
	}

	if !c.IsLeaf() {
		for j := 0; j < tt; j++ {
			z.Children[j] = c.Children[j+tt]
			c.Children[j+tt] = 0
			if z.Children[j] != 0 {
				grandchild, err := t.Get(z.Children[j])
				if err != nil {
					return err
				}
				grandchild.ParentID = z.ID
				if err := t.Put(grandchild); err != nil {
					return err
				}
			}
		}
	}

	medianKey := c.Keys[tt-1]
	medianValue := c.Values[tt-1]
	c.Keys[tt-1] = 0
	c.Values[tt-1] = 0
	c.N = tt - 1

	for j := p.N; j > idx; j-- {
		p.Children[j+1] = p.Children[j]
	}
	p.Children[idx+1] = z.ID

	for j := p.N - 1; j >= idx; j-- {
		p.Keys[j+1] = p.Keys[j]
		p.Values[j+1] = p.Values[j]
	}
	p.Keys[idx] = medianKey
	p.Values[idx] = medianValue
	p.N++

	if err := t.Put(c); err != nil {
		return err
	}
	if err := t.Put(z); err != nil {
		return err
	}
	return t.Put(p)
}

// IterateInOrder returns a lazy, finite sequence of (key, value) pairs in
// ascending key order. The classical interleaving recurses into c0,
// emits (k0,v0), recurses into c1, emits (k1,v1), and so on. A zero
// child identifier is treated as an empty subtree. Because this is a
// range-over-func iterator, no more than O(height) ancestor identifiers
// are held on the call stack at a time, and node bodies are reloaded on
// return rather than kept resident across sibling subtrees.
func (t *Tree) IterateInOrder() func(yield func(uint64, uint64) bool) {
	return func(yield func(uint64, uint64) bool) {
		rootID := t.GetRoot()
		if rootID == 0 {
			return
		}
		t.traverse(rootID, yield)
	}
}

// traverse walks the subtree rooted at id in order, calling yield for
// each pair, and returns false (propagated from yield) to stop early.
func (t *Tree) traverse(id uint64, yield func(uint64, uint64) bool) bool {
	if id == 0 {
		return true
	}
	for i := 0; ; i++ {
		// The node is reloaded for every slot so that its body is not
		// held while the child subtree before that slot is walked.
		n, err := t.Get(id)
		if err != nil {
			// IterateInOrder's sequence type carries no error channel; a
			// read failure here means the underlying file changed out from
			// under a well-formed index, which the engine does not expect
			// to recover from mid-iteration.
			panic(fmt.Errorf("btree: traverse block %d: %w", id, err))
		}
		child := n.Children[i]
		if i >= n.N {
			return t.traverse(child, yield)
		}
		key, value := n.Keys[i], n.Values[i]
		if !t.traverse(child, yield) {
			return false
		}
		if !yield(key, value) {
			return false
		}
	}
}
