package web

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"guarulhosfacil/cases"
	"guarulhosfacil/summarizer"
)

const (
	summaryRunes  = 50
	noDescription = "Sem descrição."
	cardDateFmt   = "02/Jan/2006"
)

var templateFuncs = template.FuncMap{
	"summary":    summarize,
	"cardDate":   func(t time.Time) string { return t.Format(cardDateFmt) },
	"coordinate": func(v float64) string { return fmt.Sprintf("%.6f", v) },
	"fieldError": func(errs map[string]string, field string) string { return errs[field] },
}

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse templates: %w", err)
	}
	return tmpl, nil
}

// summarize shortens a description for the region cards.
func summarize(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return noDescription
	}
	return summarizer.Clip(description, summaryRunes) + "..."
}

// caseCard is a case as listed on the region and "my submissions" pages.
type caseCard struct {
	cases.Record
	Confirmed bool
	Voted     bool
}

// pageData is the template context shared by every page.
type pageData struct {
	Page       Page
	Nav        []NavItem
	Notice     string
	Warning    string
	Errors     map[string]string
	Protocol   string
	Categories []string
	Form       *ReportForm
	Cases      []caseCard
	NoCases    bool

	Dates           DatesRequest
	Evaluation      *Evaluation
	AnalysisEnabled bool
	Analysis        *summarizer.Analysis
}

func (s *Server) newPageData(route string) *pageData {
	page := SelectView(route)
	return &pageData{
		Page:            page,
		Nav:             navigation(page.View),
		Categories:      cases.Categories,
		AnalysisEnabled: s.analysisEnabled(),
	}
}
