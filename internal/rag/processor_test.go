package rag

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-abdeltwab/mini-rag/internal/models"
)

// memWriter records chunk writes and deletes in call order.
type memWriter struct {
	inserted []models.Chunk
	deletes  []string
}

func (m *memWriter) InsertChunks(ctx context.Context, chunks []models.Chunk) (int, error) {
	m.inserted = append(m.inserted, chunks...)
	return len(chunks), nil
}

func (m *memWriter) DeleteChunks(ctx context.Context, projectID string) (int64, error) {
	m.deletes = append(m.deletes, projectID)
	n := int64(len(m.inserted))
	m.inserted = nil
	return n, nil
}

func setupAssets(t *testing.T, projectID string, files map[string]string) string {
	t.Helper()
	assetsDir := t.TempDir()
	projectDir := filepath.Join(assetsDir, projectID)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(projectDir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return assetsDir
}

func TestProcessStoresChunksPerAsset(t *testing.T) {
	assetsDir := setupAssets(t, "p1", map[string]string{
		"a.txt": "alpha body text",
		"b.txt": "beta body text",
	})
	writer := &memWriter{}
	p := NewProcessor(writer, assetsDir)

	result, err := p.Process(context.Background(), "p1", 100, 10, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.ProcessedFiles != 2 {
		t.Fatalf("processed %d files, want 2", result.ProcessedFiles)
	}
	if result.InsertedChunks != len(writer.inserted) {
		t.Fatalf("reported %d inserted, writer saw %d", result.InsertedChunks, len(writer.inserted))
	}

	seen := map[string]bool{}
	perAsset := map[string]int{}
	for _, c := range writer.inserted {
		if c.ProjectID != "p1" {
			t.Fatalf("chunk carries project %q", c.ProjectID)
		}
		if seen[c.ID] {
			t.Fatalf("duplicate chunk id %q", c.ID)
		}
		seen[c.ID] = true
		if c.Order != perAsset[c.AssetID] {
			t.Fatalf("asset %s: order %d, want %d", c.AssetID, c.Order, perAsset[c.AssetID])
		}
		perAsset[c.AssetID]++
	}
	if len(perAsset) != 2 {
		t.Fatalf("chunks span %d assets, want 2", len(perAsset))
	}
}

func TestProcessLongFileSplits(t *testing.T) {
	body := make([]byte, 0, 450)
	for len(body) < 450 {
		body = append(body, "lorem ipsum "...)
	}
	assetsDir := setupAssets(t, "p1", map[string]string{"long.txt": string(body[:450])})
	writer := &memWriter{}
	p := NewProcessor(writer, assetsDir)

	result, err := p.Process(context.Background(), "p1", 200, 50, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.InsertedChunks < 3 {
		t.Fatalf("450 chars at size 200 overlap 50 should give at least 3 chunks, got %d", result.InsertedChunks)
	}
}

func TestProcessResetDeletesFirst(t *testing.T) {
	assetsDir := setupAssets(t, "p1", map[string]string{"a.txt": "body"})
	writer := &memWriter{}
	p := NewProcessor(writer, assetsDir)

	if _, err := p.Process(context.Background(), "p1", 100, 10, false); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Process(context.Background(), "p1", 100, 10, true); err != nil {
		t.Fatal(err)
	}

	if len(writer.deletes) != 1 || writer.deletes[0] != "p1" {
		t.Fatalf("deletes %v, want one delete for p1", writer.deletes)
	}
	if len(writer.inserted) != 1 {
		t.Fatalf("%d chunks after reset, want 1", len(writer.inserted))
	}
}

func TestProcessSkipsUnsupportedAndDirs(t *testing.T) {
	assetsDir := setupAssets(t, "p1", map[string]string{
		"a.txt":     "body",
		"image.png": "binary junk",
	})
	if err := os.MkdirAll(filepath.Join(assetsDir, "p1", "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	writer := &memWriter{}
	p := NewProcessor(writer, assetsDir)

	result, err := p.Process(context.Background(), "p1", 100, 10, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.ProcessedFiles != 1 {
		t.Fatalf("processed %d files, want only the supported one", result.ProcessedFiles)
	}
}

func TestProcessMissingProjectDir(t *testing.T) {
	p := NewProcessor(&memWriter{}, t.TempDir())
	if _, err := p.Process(context.Background(), "ghost", 100, 10, false); err == nil {
		t.Fatal("expected error for missing asset directory")
	}
}

func TestProcessMarkdownUsesHeadingMetadata(t *testing.T) {
	assetsDir := setupAssets(t, "p1", map[string]string{
		"doc.md": "intro line\n\n# Setup\n\nsetup body\n",
	})
	writer := &memWriter{}
	p := NewProcessor(writer, assetsDir)

	if _, err := p.Process(context.Background(), "p1", 100, 10, false); err != nil {
		t.Fatal(err)
	}

	var withHeading bool
	for _, c := range writer.inserted {
		if c.Metadata["heading"] == "Setup" {
			withHeading = true
		}
	}
	if !withHeading {
		t.Fatal("markdown chunks should carry section heading metadata")
	}
}
