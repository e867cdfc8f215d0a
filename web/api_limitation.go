package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"guarulhosfacil/document"
	"guarulhosfacil/external"
	"guarulhosfacil/limitation"
	"guarulhosfacil/summarizer"
)

const extractorService = "pdf extractor"

func (s *Server) evaluateAction(c *gin.Context) {
	const op = "web.Server.evaluateAction"
	log := s.log.WithField("operation", op)

	var req DatesRequest
	if err := c.ShouldBind(&req); err != nil {
		verr := NewValidationError()
		verr.Set(GeneralErrorKey, "estrutura da requisição inválida")
		handleError(c, log, verr)
		return
	}

	dates := req.Dates()
	c.JSON(http.StatusOK, Evaluation{Dates: newDates(dates), Result: newLimitation(limitation.Evaluate(dates, s.now()))})
}

func (s *Server) batchAction(c *gin.Context) {
	const op = "web.Server.batchAction"
	log := s.log.WithField("operation", op)

	body := c.Request.Body
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			handleError(c, log, err)
			return
		}
		defer f.Close()
		body = f
	}

	rows, err := limitation.EvaluateCSV(body, s.now())
	if err != nil {
		handleError(c, log, err)
		return
	}

	out := make([]Evaluation, 0, len(rows))
	for _, row := range rows {
		out = append(out, Evaluation{
			CaseID: row.CaseID,
			Line:   row.Line,
			Dates:  newDates(row.Dates),
			Result: newLimitation(row.Result),
		})
	}
	c.JSON(http.StatusOK, gin.H{"rows": out})
}

func (s *Server) documentTextAction(c *gin.Context) {
	const op = "web.Server.documentTextAction"
	log := s.log.WithField("operation", op)

	data, err := readDocument(c)
	if err != nil {
		handleError(c, log, err)
		return
	}

	pages := external.Call(extractorService, "extract text", func() ([]string, error) {
		return s.extractor.ExtractText(data)
	})
	if !pages.OK() {
		handleError(c, log, pages.Err)
		return
	}

	text := document.Join(pages.Value)
	c.JSON(http.StatusOK, gin.H{
		"pages":    pages.Value,
		"text":     text,
		"has_text": document.HasText(text, document.MinTextLength),
	})
}

func (s *Server) documentRowsAction(c *gin.Context) {
	const op = "web.Server.documentRowsAction"
	log := s.log.WithField("operation", op)

	data, err := readDocument(c)
	if err != nil {
		handleError(c, log, err)
		return
	}

	rows := external.Call(extractorService, "extract rows", func() ([][]document.Row, error) {
		return s.extractor.ExtractRows(data)
	})
	if !rows.OK() {
		handleError(c, log, rows.Err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": rows.Value})
}

func (s *Server) documentAnalyzeAction(c *gin.Context) {
	const op = "web.Server.documentAnalyzeAction"
	log := s.log.WithField("operation", op)

	if !s.analysisEnabled() {
		handleError(c, log, summarizer.ErrDisabled)
		return
	}

	data, err := readDocument(c)
	if err != nil {
		handleError(c, log, err)
		return
	}

	analysis, err := s.analyzer.Analyze(c.Request.Context(), data)
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pages":      analysis.Pages,
		"text_chars": analysis.TextRunes,
		"clipped":    analysis.Clipped,
		"reply":      analysis.Reply,
	})
}
