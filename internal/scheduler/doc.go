// Package scheduler provides the render scheduler: a coalescing,
// priority-ordered queue of draw requests that is flushed once per frame.
package scheduler
