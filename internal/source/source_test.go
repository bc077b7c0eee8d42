package source

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/signalsfoundry/atdf-observables/schema"
)

func payload(blocks, extra int) []byte {
	data := make([]byte, blocks*schema.ChunkSize+extra)
	for i := range data {
		data[i] = byte(i / schema.ChunkSize)
	}
	return data
}

func TestReadChunksDropsPartialBlock(t *testing.T) {
	chunks, err := ReadChunks(bytes.NewReader(payload(3, 17)))
	if err != nil {
		t.Fatalf("ReadChunks error: %v", err)
	}
	if len(chunks.Blocks) != 3 || chunks.Partial != 17 {
		t.Fatalf("blocks = %d partial = %d, want 3 and 17", len(chunks.Blocks), chunks.Partial)
	}
	for i, b := range chunks.Blocks {
		if len(b) != schema.ChunkSize || b[0] != byte(i) || cap(b) != schema.ChunkSize {
			t.Fatalf("block %d malformed: len %d cap %d first %d", i, len(b), cap(b), b[0])
		}
	}
}

func TestDetect(t *testing.T) {
	cases := map[string]Compression{
		"\x1f\x8b\x08\x00": Gzip,
		"\x28\xb5\x2f\xfd": Zstd,
		"\x00\x00\x00\x08": None,
		"":                 None,
	}
	for in, want := range cases {
		if got := Detect([]byte(in)); got != want {
			t.Fatalf("Detect(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewReaderDecompresses(t *testing.T) {
	raw := payload(2, 0)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	if _, err := gw.Write(raw); err != nil {
		t.Fatalf("gzip write error: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close error: %v", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer error: %v", err)
	}
	zs := enc.EncodeAll(raw, nil)
	enc.Close()

	cases := []struct {
		name string
		in   []byte
		want Compression
	}{
		{"plain", raw, None},
		{"gzip", gz.Bytes(), Gzip},
		{"zstd", zs, Zstd},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(tc.in))
			if err != nil {
				t.Fatalf("NewReader error: %v", err)
			}
			defer r.Close()
			if r.Compression != tc.want {
				t.Fatalf("Compression = %v, want %v", r.Compression, tc.want)
			}
			chunks, err := ReadChunks(r)
			if err != nil {
				t.Fatalf("ReadChunks error: %v", err)
			}
			if len(chunks.Blocks) != 2 || !bytes.Equal(bytes.Join(chunks.Blocks, nil), raw) {
				t.Fatalf("decoded %d blocks, content mismatch", len(chunks.Blocks))
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pass.atdf")
	if err := os.WriteFile(path, payload(4, 0), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	chunks, comp, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if comp != None || len(chunks.Blocks) != 4 {
		t.Fatalf("ReadFile = %d blocks, %v", len(chunks.Blocks), comp)
	}

	if _, _, err := ReadFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
