// Package engine is the isolated execution unit that owns a tree and its
// render scheduler.
//
// An Engine runs a single goroutine. It pulls commands from its inbound
// pipe, applies them to the tree, flushes the scheduler on every frame tick
// and sends notifications out. Nothing else touches the tree, so neither
// the tree nor the scheduler needs locking.
package engine
