// Package codec is the wire format of commands and notifications: CBOR with
// Core Deterministic Encoding, so the same message always encodes to the
// same bytes.
package codec
