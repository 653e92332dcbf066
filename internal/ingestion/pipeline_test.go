package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/knowhub/knowhub-go/internal/rag"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

// fakeEmbedder returns a fixed-size vector per text, or a forced error.
type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{1, 0}
	}
	return vecs, nil
}

// fakeStore records the last upsert, or fails on demand.
type fakeStore struct {
	vectors [][]float32
	metas   []map[string]any
	err     error
}

func (f *fakeStore) Upsert(_ context.Context, vectors [][]float32, metas []map[string]any) error {
	if f.err != nil {
		return f.err
	}
	f.vectors = vectors
	f.metas = metas
	return nil
}

func (f *fakeStore) Search(_ context.Context, _ []float32, _ int) []rag.Hit { return nil }
func (f *fakeStore) DeleteBySource(_ context.Context, _ string) error       { return nil }
func (f *fakeStore) Close() error                                           { return nil }

// writeTempFile creates a file with the given content in a test temp dir.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

// ---------------------------------------------------------------------------
// Chunk
// ---------------------------------------------------------------------------

func TestChunk_Empty(t *testing.T) {
	t.Parallel()

	if got := Chunk("", 800, 120); got != nil {
		t.Errorf("expected nil chunks for empty text, got %d", len(got))
	}
}

func TestChunk_SingleShortChunk(t *testing.T) {
	t.Parallel()

	got := Chunk("krátký text", 800, 120)
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0] != "krátký text" {
		t.Errorf("chunk content mismatch: %q", got[0])
	}
}

func TestChunk_OverlapGeometry(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("a", 10) + strings.Repeat("b", 10)
	got := Chunk(text, 10, 4)

	// Stride is size-overlap = 6: starts at 0, 6, 12; the final slice ends
	// the loop at end==len.
	want := []string{"aaaaaaaaaa", "aaaabbbbbb", "bbbbbbbb"}

	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestChunk_ConsecutiveChunksShareOverlap(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 2000)
	got := Chunk(text, 800, 120)

	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}
	if len(got[0]) != 800 {
		t.Errorf("expected full first chunk, got %d chars", len(got[0]))
	}
	// Each stride advances by 680 characters.
	total := 0
	for i, c := range got {
		if i == len(got)-1 {
			total += len(c)
		} else {
			total += len(c) - 120
		}
	}
	if total != 2000 {
		t.Errorf("chunks do not tile the text: covered %d of 2000", total)
	}
}

func TestChunk_DegenerateOverlap(t *testing.T) {
	t.Parallel()

	got := Chunk("abcdef", 3, 5)
	// Overlap >= size degrades to no overlap.
	want := []string{"abc", "def"}
	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

// ---------------------------------------------------------------------------
// IngestFile
// ---------------------------------------------------------------------------

func TestIngestFile_MetadataShape(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "doc.txt", strings.Repeat("z", 1000))
	st := &fakeStore{}
	p, err := NewPipeline(&fakeEmbedder{}, st, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	n, err := p.IngestFile(context.Background(), path, "dev")
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 chunks for 1000 chars at 800/120, got %d", n)
	}
	if len(st.vectors) != 2 || len(st.metas) != 2 {
		t.Fatalf("store received %d vectors, %d metas", len(st.vectors), len(st.metas))
	}

	for i, meta := range st.metas {
		if meta["owner"] != "dev" {
			t.Errorf("meta %d owner: %v", i, meta["owner"])
		}
		if meta["source"] != path {
			t.Errorf("meta %d source: %v", i, meta["source"])
		}
		if meta["chunk"] != i {
			t.Errorf("meta %d chunk index: %v", i, meta["chunk"])
		}
		text, ok := meta["text"].(string)
		if !ok || text == "" {
			t.Errorf("meta %d missing chunk text", i)
		}
	}
}

func TestIngestFile_EmptyFile(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "empty.txt", "")
	st := &fakeStore{}
	p, _ := NewPipeline(&fakeEmbedder{}, st, nil)

	n, err := p.IngestFile(context.Background(), path, "dev")
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 chunks, got %d", n)
	}
	if st.metas != nil {
		t.Error("store must not receive an upsert for an empty file")
	}
}

func TestIngestFile_MissingFile(t *testing.T) {
	t.Parallel()

	p, _ := NewPipeline(&fakeEmbedder{}, &fakeStore{}, nil)

	if _, err := p.IngestFile(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), "dev"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIngestFile_EmbedFailure(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "doc.txt", "obsah")
	p, _ := NewPipeline(&fakeEmbedder{err: fmt.Errorf("boom")}, &fakeStore{}, nil)

	if _, err := p.IngestFile(context.Background(), path, "dev"); err == nil {
		t.Error("expected error when embedding fails")
	}
}

func TestIngestFile_UpsertFailure(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "doc.txt", "obsah")
	p, _ := NewPipeline(&fakeEmbedder{}, &fakeStore{err: fmt.Errorf("boom")}, nil)

	if _, err := p.IngestFile(context.Background(), path, "dev"); err == nil {
		t.Error("expected error when upsert fails")
	}
}
