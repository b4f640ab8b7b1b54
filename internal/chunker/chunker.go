package chunker

import (
	"fmt"

	"github.com/m-abdeltwab/mini-rag/internal/models"
)

// Source is one loaded segment of a document (a page, a section, or a whole
// file) together with its source metadata.
type Source struct {
	Text     string
	Metadata map[string]string
}

// Piece is one chunk of text carrying the metadata of the segment it came
// from.
type Piece struct {
	Text     string
	Metadata map[string]string
}

// Chunker splits loaded document segments into indexable pieces. One
// implementation per source structure; the splitting strategy is decided
// here and nowhere else.
type Chunker interface {
	Chunk(sources []Source) ([]Piece, error)
}

// FixedSize splits text into overlapping windows of at most chunkSize runes.
// Consecutive chunks share exactly overlap runes, so stripping the leading
// overlap from every chunk but the first reconstructs the input.
type FixedSize struct {
	chunkSize int
	overlap   int
}

func NewFixedSize(chunkSize, overlap int) (*FixedSize, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be > 0, got %d", models.ErrConfiguration, chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must be >= 0, got %d", models.ErrConfiguration, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap (%d) must be smaller than chunk size (%d), window would never advance",
			models.ErrConfiguration, overlap, chunkSize)
	}
	return &FixedSize{chunkSize: chunkSize, overlap: overlap}, nil
}

func (c *FixedSize) Chunk(sources []Source) ([]Piece, error) {
	var pieces []Piece
	for _, src := range sources {
		for _, text := range c.Split(src.Text) {
			pieces = append(pieces, Piece{Text: text, Metadata: src.Metadata})
		}
	}
	return pieces, nil
}

// Split produces the ordered chunk sequence for a single text. Splitting is
// rune-based so a window boundary never lands inside a multi-byte codepoint.
// Empty text yields no chunks; text no longer than the chunk size yields one.
func (c *FixedSize) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	if n <= c.chunkSize {
		return []string{text}
	}

	stride := c.chunkSize - c.overlap
	var chunks []string
	for start := 0; ; start += stride {
		end := start + c.chunkSize
		if end >= n {
			chunks = append(chunks, string(runes[start:n]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Count returns the number of chunks Split would produce for a text of the
// given rune length: ceil((n-overlap)/(chunkSize-overlap)) for n > chunkSize.
func (c *FixedSize) Count(n int) int {
	if n == 0 {
		return 0
	}
	if n <= c.chunkSize {
		return 1
	}
	stride := c.chunkSize - c.overlap
	return (n - c.overlap + stride - 1) / stride
}
