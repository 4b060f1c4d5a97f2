package node

import (
	"errors"

	"github.com/vk/aether/internal/schema"
)

var (
	// ErrUnknownType is returned when a command references a type with no
	// registered definition or behavior.
	ErrUnknownType = errors.New("unknown node type")
	// ErrIllegalChildType is returned when a composite's capability set does
	// not include the type of a child being created beneath it.
	ErrIllegalChildType = errors.New("illegal child type")
	// ErrSchemaViolation is returned when an update payload does not conform
	// to the schema of its node type.
	ErrSchemaViolation = schema.ErrViolation
	// ErrTypeMismatch is returned when an update addresses an existing node
	// with a different type than the one it was created with.
	ErrTypeMismatch = errors.New("node type mismatch")
	// ErrInvalidPath is returned for malformed paths.
	ErrInvalidPath = errors.New("invalid path")
	// ErrNoSuchChild is returned when a path segment other than the final one
	// does not resolve to an existing node.
	ErrNoSuchChild = errors.New("no such child")
	// ErrChildExists is returned by CreateChild when the key is taken.
	ErrChildExists = errors.New("child already exists")
	// ErrMissingContextValue is returned when a node requires a context value
	// that no ancestor published.
	ErrMissingContextValue = errors.New("missing context value")
	// ErrContextValueType is returned when a context value exists but has an
	// unexpected Go type.
	ErrContextValueType = errors.New("context value has unexpected type")
)
