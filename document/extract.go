// Package document extracts text from PDF files page by page.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// MinTextLength is the number of characters below which a document is treated
// as having no extractable text (e.g. a scanned image).
const MinTextLength = 50

var (
	// ErrEmpty rejects an empty upload.
	ErrEmpty = errors.New("document: empty file")
	// ErrNotPDF rejects input that is not a readable PDF.
	ErrNotPDF = errors.New("document: not a readable pdf")
)

// Row is one line of a page, split into the text runs that compose it.
type Row []string

// Extractor reads PDF text.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the text of every page in order. A page whose text
// cannot be decoded yields "".
func (e *Extractor) ExtractText(data []byte) ([]string, error) {
	r, err := open(data)
	if err != nil {
		return nil, err
	}

	pages := make([]string, r.NumPage())
	for i := range pages {
		pages[i] = pageText(r.Page(i + 1))
	}
	return pages, nil
}

// ExtractRows returns, per page, the rows of text runs ordered top to bottom.
// A page whose rows cannot be decoded yields no rows.
func (e *Extractor) ExtractRows(data []byte) ([][]Row, error) {
	r, err := open(data)
	if err != nil {
		return nil, err
	}

	pages := make([][]Row, r.NumPage())
	for i := range pages {
		pages[i] = pageRows(r.Page(i + 1))
	}
	return pages, nil
}

// Join concatenates page texts in page order.
func Join(pages []string) string {
	return strings.Join(pages, "\n")
}

// HasText reports whether text carries at least min non-space characters.
func HasText(text string, min int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= min
}

func open(data []byte) (r *pdf.Reader, err error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("%w: %v", ErrNotPDF, rec)
		}
	}()

	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	return r, nil
}

func pageText(p pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	if p.V.IsNull() {
		return ""
	}

	fonts := make(map[string]*pdf.Font)
	for _, name := range p.Fonts() {
		f := p.Font(name)
		fonts[name] = &f
	}
	text, err := p.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return text
}

func pageRows(p pdf.Page) (rows []Row) {
	defer func() {
		if recover() != nil {
			rows = nil
		}
	}()
	if p.V.IsNull() {
		return nil
	}

	byRow, err := p.GetTextByRow()
	if err != nil {
		return nil
	}
	rows = make([]Row, 0, len(byRow))
	for _, row := range byRow {
		cells := make(Row, 0, len(row.Content))
		for _, t := range row.Content {
			if s := strings.TrimSpace(t.S); s != "" {
				cells = append(cells, s)
			}
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}
