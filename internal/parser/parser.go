package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"github.com/m-abdeltwab/mini-rag/internal/chunker"
)

// Loader reads a document from disk and returns its text segments with
// per-segment metadata (page or sheet numbers where the format has them).
// One implementation per supported format.
type Loader interface {
	Load(filePath string) ([]chunker.Source, error)
}

// Load dispatches to the loader for the file's extension.
func Load(filePath string) ([]chunker.Source, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return loadPDF(filePath)
	case ".docx":
		return loadDOCX(filePath)
	case ".xlsx":
		return loadXLSX(filePath)
	case ".ods":
		return loadODS(filePath)
	case ".md", ".markdown":
		return loadText(filePath, "markdown")
	case ".txt":
		return loadText(filePath, "text")
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

// Supported reports whether Load handles the file's extension.
func Supported(filePath string) bool {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".pdf", ".docx", ".xlsx", ".ods", ".md", ".markdown", ".txt":
		return true
	}
	return false
}

func baseMetadata(filePath, format string) map[string]string {
	return map[string]string{
		"source": filepath.Base(filePath),
		"format": format,
	}
}

func loadPDF(filePath string) ([]chunker.Source, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var sources []chunker.Source
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %v", i, err)
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		meta := baseMetadata(filePath, "pdf")
		meta["page"] = strconv.Itoa(i)
		sources = append(sources, chunker.Source{Text: pageText, Metadata: meta})
	}
	return sources, nil
}

func loadDOCX(filePath string) ([]chunker.Source, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	doc := r.Editable()
	var paragraphs []string
	for _, p := range strings.Split(doc.GetContent(), "\n") {
		p = stripDocxTags(p)
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	text := strings.Join(paragraphs, "\n")
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []chunker.Source{{Text: text, Metadata: baseMetadata(filePath, "docx")}}, nil
}

// stripDocxTags drops the raw XML markup docx.GetContent leaves in place.
func stripDocxTags(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func loadXLSX(filePath string) ([]chunker.Source, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var sources []chunker.Source
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}
		meta := baseMetadata(filePath, "xlsx")
		meta["sheet"] = strconv.Itoa(sheetNum + 1)
		sources = append(sources, chunker.Source{Text: text.String(), Metadata: meta})
	}
	return sources, nil
}

func loadODS(filePath string) ([]chunker.Source, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sources []chunker.Source
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}
		meta := baseMetadata(filePath, "ods")
		meta["sheet"] = strconv.Itoa(sheetNum + 1)
		sources = append(sources, chunker.Source{Text: text.String(), Metadata: meta})
	}
	return sources, nil
}

func loadText(filePath, format string) ([]chunker.Source, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	return []chunker.Source{{Text: string(data), Metadata: baseMetadata(filePath, format)}}, nil
}

// ChunkerFor picks the chunking strategy matching the loaded format.
func ChunkerFor(format string, chunkSize, overlap int) (chunker.Chunker, error) {
	if format == "markdown" {
		return chunker.NewMarkdown(chunkSize, overlap)
	}
	return chunker.NewFixedSize(chunkSize, overlap)
}
