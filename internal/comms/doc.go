// Package comms defines the messages exchanged between the UI side and the
// engine, and the one-way pipe that carries them.
//
// Nothing crosses the boundary except values: commands flow into the
// engine, notifications flow out, and neither side ever waits for the
// other.
package comms
