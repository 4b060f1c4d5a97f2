// Package surface defines the drawing surface that render requests draw on,
// and a Recorder implementation that captures draw operations and hashes
// them into a frame digest.
package surface
