// Package node defines the unit of the tree: a typed, stateful node that is
// either a Leaf or a Composite, the pass-scoped Context nodes use to pass
// values from ancestors to descendants, and the error taxonomy shared by
// everything that mutates the tree.
//
// Nodes never hold pointers to one another. A composite maps child keys to
// arena IDs, and lookups go through a Resolver (the node store), so a node
// removed from the store is unreachable even if a stale ID survives
// somewhere.
package node
