package summarizer

import (
	"context"
	"errors"

	"guarulhosfacil/document"
	"guarulhosfacil/external"
)

const (
	extractorService = "pdf extractor"
	modelService     = "language model"
)

var (
	// ErrNoText means the document has too little extractable text to
	// analyze, typically a scanned image.
	ErrNoText = errors.New("summarizer: no extractable text")
	// ErrDisabled is returned by Analyze when no model is configured.
	ErrDisabled = errors.New("summarizer: language model not configured")
)

// Extractor returns per-page text of a PDF.
type Extractor interface {
	ExtractText(data []byte) ([]string, error)
}

// Analysis is the model's reply together with the text it was given.
type Analysis struct {
	Pages     int
	TextRunes int
	Clipped   bool
	Reply     string
}

type Service struct {
	extractor Extractor
	generator Generator
	minText   int
}

func NewService(extractor Extractor, generator Generator) *Service {
	return &Service{extractor: extractor, generator: generator, minText: document.MinTextLength}
}

// Enabled reports whether a model is configured.
func (s *Service) Enabled() bool { return s != nil && s.generator != nil }

// Analyze extracts the text of pdf and asks the model for a limitation analysis.
func (s *Service) Analyze(ctx context.Context, pdf []byte) (Analysis, error) {
	if !s.Enabled() {
		return Analysis{}, ErrDisabled
	}

	pages := external.Call(extractorService, "extract text", func() ([]string, error) {
		return s.extractor.ExtractText(pdf)
	})
	if !pages.OK() {
		return Analysis{}, pages.Err
	}

	text := document.Join(pages.Value)
	if !document.HasText(text, s.minText) {
		return Analysis{}, ErrNoText
	}

	runes := len([]rune(text))
	reply := external.Call(modelService, "generate", func() (string, error) {
		return s.generator.Generate(ctx, Request{
			System:      SystemRole,
			Prompt:      BuildPrompt(text),
			Temperature: Temperature,
			MaxTokens:   MaxOutputTokens,
		})
	})
	if !reply.OK() {
		return Analysis{}, reply.Err
	}

	return Analysis{
		Pages:     len(pages.Value),
		TextRunes: runes,
		Clipped:   runes > MaxTranscriptRunes,
		Reply:     reply.Value,
	}, nil
}
