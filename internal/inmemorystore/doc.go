// Package inmemorystore provides the in-memory implementation of the
// nodestore.Store interface: a slice-backed arena with a free list.
package inmemorystore
