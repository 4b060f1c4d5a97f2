package journal

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/vk/aether/internal/codec"
	"github.com/vk/aether/internal/comms"
)

// Writer appends commands to a journal.
type Writer struct {
	zw     *zstd.Encoder
	enc    *codec.Encoder
	closer io.Closer
	count  int
}

// NewWriter starts a journal on w. Close must be called to flush the final
// frame; it does not close w.
func NewWriter(w io.Writer) (*Writer, error) {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("journal: zstd writer: %w", err)
	}
	return &Writer{zw: zw, enc: codec.NewEncoder(zw)}, nil
}

// Create creates or truncates the journal file at path.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	w, err := NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// Append records one command.
func (w *Writer) Append(c comms.Command) error {
	if err := w.enc.Encode(codec.FromCommand(c)); err != nil {
		return fmt.Errorf("journal: append %s: %w", c, err)
	}
	w.count++
	return nil
}

// Count returns the number of commands appended.
func (w *Writer) Count() int { return w.count }

// Flush writes buffered commands out as a complete zstd block.
func (w *Writer) Flush() error {
	return w.zw.Flush()
}

// Close flushes the journal and closes the file opened by Create.
func (w *Writer) Close() error {
	err := w.zw.Close()
	if w.closer != nil {
		err = errors.Join(err, w.closer.Close())
	}
	return err
}

// Reader reads commands back from a journal.
type Reader struct {
	zr     *zstd.Decoder
	dec    *codec.Decoder
	closer io.Closer
}

// NewReader reads a journal from r.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("journal: zstd reader: %w", err)
	}
	return &Reader{zr: zr, dec: codec.NewDecoder(zr)}, nil
}

// Open opens the journal file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Next returns the next command, or io.EOF after the last one.
func (r *Reader) Next() (comms.Command, error) {
	var w codec.Command
	if err := r.dec.Decode(&w); err != nil {
		if errors.Is(err, io.EOF) {
			return comms.Command{}, io.EOF
		}
		return comms.Command{}, fmt.Errorf("journal: %w", err)
	}
	return w.ToCommand()
}

// All yields every remaining command. Iteration stops after the first
// error.
func (r *Reader) All() iter.Seq2[comms.Command, error] {
	return func(yield func(comms.Command, error) bool) {
		for {
			c, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(c, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the decoder and closes the file opened by Open.
func (r *Reader) Close() error {
	r.zr.Close()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
