package document

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractText_Empty(t *testing.T) {
	_, err := NewExtractor().ExtractText(nil)
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestExtractText_NotPDF(t *testing.T) {
	_, err := NewExtractor().ExtractText([]byte("definitely not a pdf document"))
	if !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
}

func TestExtractRows_NotPDF(t *testing.T) {
	_, err := NewExtractor().ExtractRows([]byte("%PDF-1.4 truncated"))
	if !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
}

func TestJoin(t *testing.T) {
	got := Join([]string{"página um", "", "página três"})
	if got != "página um\n\npágina três" {
		t.Fatalf("unexpected join %q", got)
	}
}

func TestHasText(t *testing.T) {
	if HasText(strings.Repeat(" ", 80)+"abc", MinTextLength) {
		t.Fatal("whitespace must not count as text")
	}
	if !HasText(strings.Repeat("ç", MinTextLength), MinTextLength) {
		t.Fatal("expected 50 characters to be enough")
	}
	if HasText(strings.Repeat("x", MinTextLength-1), MinTextLength) {
		t.Fatal("expected 49 characters to be too short")
	}
}
