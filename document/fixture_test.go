package document

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// buildPDF writes a minimal PDF with one page per entry of texts. An empty
// entry produces a page without content.
func buildPDF(texts ...string) []byte {
	var objects []string
	pageCount := len(texts)
	kids := make([]string, pageCount)
	for i := range texts {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pageCount),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range texts {
		content := ""
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractText_Pages(t *testing.T) {
	data := buildPDF("Certidao de divida ativa", "", "Ultima movimentacao")

	pages, err := NewExtractor().ExtractText(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if !strings.Contains(pages[0], "Certidao de divida ativa") {
		t.Fatalf("unexpected first page %q", pages[0])
	}
	if strings.TrimSpace(pages[1]) != "" {
		t.Fatalf("empty page must yield empty text, got %q", pages[1])
	}
	if !strings.Contains(pages[2], "Ultima movimentacao") {
		t.Fatalf("unexpected third page %q", pages[2])
	}

	joined := Join(pages)
	if strings.Index(joined, "Certidao") > strings.Index(joined, "Ultima") {
		t.Fatal("pages must be joined in order")
	}
}

func TestExtractRows_Pages(t *testing.T) {
	data := buildPDF("Processo 0001", "")

	pages, err := NewExtractor().ExtractRows(data)
	if err != nil {
		t.Fatalf("extract rows: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if len(pages[0]) == 0 || !strings.Contains(strings.Join(pages[0][0], " "), "Processo") {
		t.Fatalf("unexpected rows on first page: %v", pages[0])
	}
	if len(pages[1]) != 0 {
		t.Fatalf("empty page must yield no rows, got %v", pages[1])
	}
}
