// Package inmemorystore provides an in-memory arena implementing the
// nodestore.Store interface.
//
// # Characteristics
//
//   - **Slot Reuse:** Released slots go onto a free list and are handed out
//     again by later inserts.
//   - **Generations:** Every slot carries a generation counter that is
//     bumped on release, so an ID held across a release never resolves to
//     the node that later reuses the slot.
//   - **Fast Lookups:** O(1) insert, lookup and release.
//   - **Unsynchronized:** The arena has no locks; it is owned by a single
//     tree on a single goroutine.
package inmemorystore

import (
	"github.com/vk/aether/internal/node"
	"github.com/vk/aether/internal/nodestore"
)

type slot struct {
	node       *node.Node
	generation uint32
}

// Store is a slice-backed node arena.
type Store struct {
	slots []slot
	free  []uint32
	live  int
}

// New creates a new, empty arena.
func New() nodestore.Store {
	return &Store{}
}

// Insert stores n and binds it to the arena.
func (s *Store) Insert(n *node.Node) node.ID {
	var idx uint32
	if k := len(s.free); k > 0 {
		idx = s.free[k-1]
		s.free = s.free[:k-1]
	} else {
		idx = uint32(len(s.slots))
		// Generation 0 is reserved for the zero ID.
		s.slots = append(s.slots, slot{generation: 1})
	}
	s.slots[idx].node = n
	id := node.ID{Index: idx, Generation: s.slots[idx].generation}
	n.Bind(id, s)
	s.live++
	return id
}

// Get resolves an ID. Stale and zero IDs do not resolve.
func (s *Store) Get(id node.ID) (*node.Node, bool) {
	if !id.Valid() || int(id.Index) >= len(s.slots) {
		return nil, false
	}
	sl := s.slots[id.Index]
	if sl.generation != id.Generation || sl.node == nil {
		return nil, false
	}
	return sl.node, true
}

// Release frees the slot held by id.
func (s *Store) Release(id node.ID) bool {
	if _, ok := s.Get(id); !ok {
		return false
	}
	sl := &s.slots[id.Index]
	sl.node = nil
	sl.generation++
	if sl.generation == 0 {
		sl.generation = 1
	}
	s.free = append(s.free, id.Index)
	s.live--
	return true
}

// Len returns the number of live nodes.
func (s *Store) Len() int { return s.live }
