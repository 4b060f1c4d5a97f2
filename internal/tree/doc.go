// Package tree implements the scene graph: a tree of typed nodes addressed
// by path, mutated by update and delete commands.
//
// Every command is applied as one pass. The pass validates the whole
// command before mutating anything, runs the addressed node's update hook,
// re-runs descendants whose inherited context changed, and finally re-runs
// the ancestors on the path bottom-up. No hook runs more than once per pass.
//
// A Tree is not safe for concurrent use. It is owned by a single engine
// goroutine.
package tree
