// Package source opens ATDF files, transparently decompressing gzip and
// zstd input, and splits them into fixed-size chunks.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/signalsfoundry/atdf-observables/schema"
)

// Compression identifies how an input stream is encoded.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return "none"
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect reports the compression of a stream from its leading bytes.
func Detect(prefix []byte) Compression {
	switch {
	case bytes.HasPrefix(prefix, zstdMagic):
		return Zstd
	case bytes.HasPrefix(prefix, gzipMagic):
		return Gzip
	default:
		return None
	}
}

// Reader is a decompressing reader over an input stream.
type Reader struct {
	io.Reader
	Compression Compression
	closers     []func() error
}

// Close releases the decompressor and the underlying file, if any.
func (r *Reader) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewReader wraps r with the decompressor its magic bytes call for.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	prefix, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("peek input: %w", err)
	}

	out := &Reader{Reader: br, Compression: Detect(prefix)}
	switch out.Compression {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		out.Reader = zr
		out.closers = append(out.closers, zr.Close)
	case Zstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		out.Reader = zr
		out.closers = append(out.closers, func() error { zr.Close(); return nil })
	}
	return out, nil
}

// Open opens path for reading through NewReader.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closers = append([]func() error{f.Close}, r.closers...)
	return r, nil
}

// Chunks is a file split into ChunkSize blocks.
type Chunks struct {
	Blocks [][]byte
	// Partial is the length of a trailing incomplete block that was
	// dropped, zero when the input size is a multiple of ChunkSize.
	Partial int
}

// ReadChunks reads r to the end and splits it into ChunkSize blocks.
func ReadChunks(r io.Reader) (Chunks, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Chunks{}, fmt.Errorf("read input: %w", err)
	}
	n := len(data) / schema.ChunkSize
	out := Chunks{
		Blocks:  make([][]byte, n),
		Partial: len(data) % schema.ChunkSize,
	}
	for i := range out.Blocks {
		out.Blocks[i] = data[i*schema.ChunkSize : (i+1)*schema.ChunkSize : (i+1)*schema.ChunkSize]
	}
	return out, nil
}

// ReadFile opens path and reads its chunks.
func ReadFile(path string) (Chunks, Compression, error) {
	r, err := Open(path)
	if err != nil {
		return Chunks{}, None, err
	}
	defer r.Close()
	chunks, err := ReadChunks(r)
	return chunks, r.Compression, err
}
