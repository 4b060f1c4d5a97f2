package nodepath

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Separator joins keys in the canonical string form of a Path.
const Separator = "."

// Path is the ordered list of keys from the root to a node.
type Path []string

// New builds a Path from the given keys, validating that none is empty.
func New(keys ...string) (Path, error) {
	p := Path(slices.Clone(keys))
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks that the path addresses at least one node and contains no
// empty keys.
func (p Path) Validate() error {
	if len(p) == 0 {
		return errors.New("path is empty")
	}
	for i, key := range p {
		if key == "" {
			return &SegmentError{Index: i, Reason: "key is empty"}
		}
	}
	return nil
}

// String serializes the Path into its canonical dotted representation.
func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Len returns the number of keys in the path.
func (p Path) Len() int { return len(p) }

// Head returns the first key of the path, or "" for an empty path.
func (p Path) Head() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Tail returns the path without its first key.
func (p Path) Tail() Path {
	if len(p) <= 1 {
		return Path{}
	}
	return p[1:]
}

// Last returns the final key of the path, or "" for an empty path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns the path of the parent node. The parent of a single-key
// path is the empty path.
func (p Path) Parent() Path {
	if len(p) <= 1 {
		return Path{}
	}
	return p[:len(p)-1]
}

// Child returns a new path addressing the child with the given key. The
// receiver is never aliased by the result.
func (p Path) Child(key string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, key)
}

// Equal reports whether two paths address the same node.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p, other)
}

// HasPrefix reports whether p lies at or below prefix.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return slices.Equal(p[:len(prefix)], prefix)
}

// SegmentError describes an invalid key within a path.
type SegmentError struct {
	Index  int
	Key    string
	Reason string
}

func (e *SegmentError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("invalid path segment %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid path segment %d (%q): %s", e.Index, e.Key, e.Reason)
}
