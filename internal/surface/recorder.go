package surface

import (
	"encoding/hex"
	"fmt"

	"github.com/vk/aether/internal/codec"
	"github.com/zeebo/blake3"
)

// OpKind names a recorded surface operation.
type OpKind string

const (
	OpErase  OpKind = "erase"
	OpStroke OpKind = "stroke"
	OpFill   OpKind = "fill"
	OpText   OpKind = "text"
)

// Op is one recorded draw operation, together with the clip that was in
// effect when it ran.
type Op struct {
	Kind   OpKind  `cbor:"kind"`
	Clip   Region  `cbor:"clip"`
	Region Region  `cbor:"region,omitempty"`
	Points []Point `cbor:"points,omitempty"`
	Text   string  `cbor:"text,omitempty"`
	Style  Style   `cbor:"style"`
}

// Digest is the BLAKE3 hash of a frame's operations.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// frameDomainKey separates frame digests from any other BLAKE3 use.
var frameDomainKey = [32]byte{
	'a', 'e', 't', 'h', 'e', 'r', '.', 's', 'u', 'r', 'f', 'a', 'c', 'e', '.',
	'f', 'r', 'a', 'm', 'e',
}

// Recorder is a Surface that records every operation instead of drawing.
// It is used by tests and by the headless engine.
type Recorder struct {
	bounds Region
	clips  []Region
	ops    []Op
}

// NewRecorder creates a recorder with the given bounds.
func NewRecorder(bounds Region) *Recorder {
	return &Recorder{bounds: bounds}
}

// Bounds implements Surface.
func (r *Recorder) Bounds() Region { return r.bounds }

// Clip returns the scissor currently in effect.
func (r *Recorder) Clip() Region {
	if len(r.clips) == 0 {
		return r.bounds
	}
	return r.clips[len(r.clips)-1]
}

// Depth returns the number of scissors currently pushed.
func (r *Recorder) Depth() int { return len(r.clips) }

// Scissor implements Surface. Releasing out of order panics, and so does
// releasing twice.
func (r *Recorder) Scissor(region Region) func() {
	r.clips = append(r.clips, r.Clip().Intersect(region))
	depth := len(r.clips)
	released := false
	return func() {
		if released {
			panic("surface: scissor released twice")
		}
		if len(r.clips) != depth {
			panic(fmt.Sprintf("surface: scissor released out of order (depth %d, want %d)", len(r.clips), depth))
		}
		released = true
		r.clips = r.clips[:depth-1]
	}
}

func (r *Recorder) record(op Op) {
	op.Clip = r.Clip()
	r.ops = append(r.ops, op)
}

// Erase implements Surface.
func (r *Recorder) Erase(region Region) {
	r.record(Op{Kind: OpErase, Region: region})
}

// StrokePath implements Surface.
func (r *Recorder) StrokePath(points []Point, style Style) {
	r.record(Op{Kind: OpStroke, Points: append([]Point(nil), points...), Style: style})
}

// FillPath implements Surface.
func (r *Recorder) FillPath(points []Point, style Style) {
	r.record(Op{Kind: OpFill, Points: append([]Point(nil), points...), Style: style})
}

// Text implements Surface.
func (r *Recorder) Text(at Point, text string, style Style) {
	r.record(Op{Kind: OpText, Points: []Point{at}, Text: text, Style: style})
}

// Ops returns the operations recorded since the last Reset.
func (r *Recorder) Ops() []Op { return r.ops }

// Reset discards the recorded operations. Scissors stay in place.
func (r *Recorder) Reset() { r.ops = nil }

// Digest hashes the recorded operations. Equal operation sequences always
// produce equal digests.
func (r *Recorder) Digest() (Digest, error) {
	hasher, err := blake3.NewKeyed(frameDomainKey[:])
	if err != nil {
		return Digest{}, fmt.Errorf("surface: digest: %w", err)
	}
	enc := codec.NewEncoder(hasher)
	for i, op := range r.ops {
		if err := enc.Encode(op); err != nil {
			return Digest{}, fmt.Errorf("surface: digest op %d: %w", i, err)
		}
	}
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d, nil
}
