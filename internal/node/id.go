package node

import "fmt"

// ID is the stable handle of a node in the node store. The zero ID never
// refers to a node.
type ID struct {
	Index      uint32
	Generation uint32
}

// Valid reports whether the ID could refer to a node.
func (id ID) Valid() bool { return id.Generation != 0 }

func (id ID) String() string {
	return fmt.Sprintf("%d@%d", id.Index, id.Generation)
}

// Resolver looks nodes up by ID.
type Resolver interface {
	Get(id ID) (*Node, bool)
}
