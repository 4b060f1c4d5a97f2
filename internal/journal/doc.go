// Package journal records the command stream an engine received, so that a
// session can be replayed later. A journal is a zstd-compressed sequence of
// CBOR-encoded commands.
package journal
