package chunker

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// Markdown splits a document along its heading structure before applying
// fixed-size windowing inside each section. Each piece carries the section
// heading in its metadata so retrieval results keep their provenance.
type Markdown struct {
	inner *FixedSize
}

func NewMarkdown(chunkSize, overlap int) (*Markdown, error) {
	inner, err := NewFixedSize(chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	return &Markdown{inner: inner}, nil
}

type section struct {
	heading string
	start   int
	end     int
}

func (c *Markdown) Chunk(sources []Source) ([]Piece, error) {
	var pieces []Piece
	for _, src := range sources {
		for _, sec := range splitSections(src.Text) {
			body := strings.TrimSpace(src.Text[sec.start:sec.end])
			if body == "" {
				continue
			}
			for _, text := range c.inner.Split(body) {
				meta := make(map[string]string, len(src.Metadata)+1)
				for k, v := range src.Metadata {
					meta[k] = v
				}
				if sec.heading != "" {
					meta["heading"] = sec.heading
				}
				pieces = append(pieces, Piece{Text: text, Metadata: meta})
			}
		}
	}
	return pieces, nil
}

// splitSections locates heading boundaries in the markdown source. Text
// before the first heading becomes an unnamed leading section.
func splitSections(text string) []section {
	source := []byte(text)
	doc := goldmark.New().Parser().Parse(gmtext.NewReader(source))

	var sections []section
	prevStart := 0
	prevHeading := ""

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		seg := h.Lines().At(0)
		// back up from the heading text to the start of its line, so the
		// section boundary includes the marker characters
		boundary := strings.LastIndexByte(text[:seg.Start], '\n') + 1
		if boundary > prevStart || prevHeading != "" {
			sections = append(sections, section{heading: prevHeading, start: prevStart, end: boundary})
		}
		prevStart = boundary
		prevHeading = strings.TrimSpace(string(seg.Value(source)))
		return ast.WalkSkipChildren, nil
	})

	sections = append(sections, section{heading: prevHeading, start: prevStart, end: len(text)})
	return sections
}
