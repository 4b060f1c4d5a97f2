// Package nodestore defines the interface of the arena that owns every node
// of a tree.
//
// # Why Node Store Exists
//
// Composite nodes never hold pointers to their children. They hold
// node.ID handles, and every lookup goes through the store. This keeps
// ownership in one place:
//   - **Deletion:** Releasing an ID makes every stale handle unresolvable,
//     so a deleted child can never be reached through a parent that still
//     has its key.
//   - **Back-references:** A child refers to its parent by ID, which avoids
//     reference cycles between nodes.
//   - **Flexibility:** Different storage backends can be swapped without
//     touching the tree.
//
// # Lifecycle and Usage
//
// The node store is:
//  1. **Created** once per tree
//  2. **Filled** by the tree as update commands create nodes
//  3. **Queried** whenever a path is resolved or children are iterated
//  4. **Drained** as delete commands release nodes
package nodestore

import "github.com/vk/aether/internal/node"

// Store owns the nodes of a tree and hands out stable IDs for them.
//
// # Thread-Safety Requirements
//
// None. A store belongs to exactly one tree, and a tree is only touched from
// the goroutine of the engine that owns it.
type Store interface {
	node.Resolver

	// Insert takes ownership of n, assigns it an ID and binds the node to
	// the store so it can resolve its own children.
	Insert(n *node.Node) node.ID

	// Release removes the node with the given ID. The ID, and every copy of
	// it, stops resolving. Releasing an unknown or stale ID returns false.
	Release(id node.ID) bool

	// Len returns the number of nodes currently held.
	Len() int
}
