package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"guarulhosfacil/cases"
	"guarulhosfacil/external"
	"guarulhosfacil/limitation"
	"guarulhosfacil/photo"
	"guarulhosfacil/session"
)

const photoService = "photo storage"

func (s *Server) render(c *gin.Context, status int, data *pageData) {
	c.HTML(status, data.Page.Template, data)
}

// renderFailure shows err on the page of data as a warning or field errors.
func (s *Server) renderFailure(c *gin.Context, log *logrus.Entry, data *pageData, err error) {
	status, body := resolveError(err)
	entry := log.WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("page action failed")
	} else {
		entry.Info("page action failed")
	}
	if len(body.Fields) > 0 {
		data.Errors = body.Fields
	} else {
		data.Warning = body.Error
	}
	s.render(c, status, data)
}

func (s *Server) reportPageAction(c *gin.Context) {
	data := s.newPageData("/")
	data.Form = NewReportForm()
	if protocol := c.Query("protocolo"); protocol != "" {
		data.Protocol = protocol
		data.Notice = submittedMessage
	}
	s.render(c, http.StatusOK, data)
}

func (s *Server) submitFormAction(c *gin.Context) {
	const op = "web.Server.submitFormAction"
	log := s.log.WithField("operation", op)

	data := s.newPageData("/")
	form := NewReportForm()
	data.Form = form

	params, err := form.ParseAndValidate(c)
	if err != nil {
		s.renderFailure(c, log, data, err)
		return
	}

	st := s.loadSession(c)
	params.SubmitterHash = session.SubmitterHash(s.salt, st.ID)

	sub, err := s.cases.Submit(c.Request.Context(), params)
	if err != nil {
		s.renderFailure(c, log, data, err)
		return
	}
	st.AddSubmitted(sub.Record.ID)
	s.saveSession(c, st, log)

	log.WithField("case_id", sub.Record.ID).Info("case submitted")
	c.Redirect(http.StatusSeeOther, "/?protocolo="+url.QueryEscape(sub.Protocol))
}

func (s *Server) regionPageAction(c *gin.Context) {
	const op = "web.Server.regionPageAction"
	log := s.log.WithField("operation", op)

	data := s.newPageData("/regiao")
	switch {
	case c.Query("confirmado") != "":
		data.Notice = "Confirmação registrada! Total: " + c.Query("confirmado")
	case c.Query("votado") != "":
		data.Notice = "Seu voto de 'Resolvido' foi registrado!"
	case c.Query("aviso") == "repetido":
		data.Notice = "Você já registrou esta ação nesta sessão."
	}

	recs, err := s.cases.Nearby(c.Request.Context())
	if err != nil {
		s.renderFailure(c, log, data, err)
		return
	}
	if len(recs) == 0 {
		all, err := s.cases.List(c.Request.Context(), cases.Filter{})
		if err != nil {
			s.renderFailure(c, log, data, err)
			return
		}
		data.NoCases = len(all) == 0
	}
	data.Cases = s.cards(recs, s.loadSession(c))
	s.render(c, http.StatusOK, data)
}

func (s *Server) confirmFormAction(c *gin.Context) {
	const op = "web.Server.confirmFormAction"
	id := c.Param("id")
	log := s.log.WithField("operation", op).WithField("case_id", id)

	st := s.loadSession(c)
	if st.HasConfirmed(id) {
		c.Redirect(http.StatusSeeOther, "/regiao?aviso=repetido")
		return
	}

	total, err := s.cases.Confirm(c.Request.Context(), id)
	if err != nil {
		s.renderFailure(c, log, s.newPageData("/regiao"), err)
		return
	}
	st.AddConfirmed(id)
	s.saveSession(c, st, log)

	c.Redirect(http.StatusSeeOther, "/regiao?confirmado="+strconv.Itoa(total))
}

func (s *Server) voteFormAction(c *gin.Context) {
	const op = "web.Server.voteFormAction"
	id := c.Param("id")
	log := s.log.WithField("operation", op).WithField("case_id", id)

	st := s.loadSession(c)
	if st.HasVoted(id) {
		c.Redirect(http.StatusSeeOther, "/regiao?aviso=repetido")
		return
	}

	if err := s.cases.VoteResolved(c.Request.Context(), id); err != nil {
		s.renderFailure(c, log, s.newPageData("/regiao"), err)
		return
	}
	st.AddVoted(id)
	s.saveSession(c, st, log)

	c.Redirect(http.StatusSeeOther, "/regiao?votado=1")
}

func (s *Server) minePageAction(c *gin.Context) {
	const op = "web.Server.minePageAction"
	log := s.log.WithField("operation", op)

	data := s.newPageData("/minhas")
	st := s.loadSession(c)

	recs := make([]cases.Record, 0, len(st.Submitted))
	ids := st.SubmittedIDs()
	for i := len(ids) - 1; i >= 0; i-- {
		rec, err := s.cases.Get(c.Request.Context(), ids[i])
		if errors.Is(err, cases.ErrNotFound) {
			continue
		}
		if err != nil {
			s.renderFailure(c, log, data, err)
			return
		}
		recs = append(recs, rec)
	}
	data.Cases = s.cards(recs, st)
	s.render(c, http.StatusOK, data)
}

func (s *Server) prescriptionPageAction(c *gin.Context) {
	s.render(c, http.StatusOK, s.newPageData("/prescricao"))
}

func (s *Server) evaluateFormAction(c *gin.Context) {
	const op = "web.Server.evaluateFormAction"
	log := s.log.WithField("operation", op)

	data := s.newPageData("/prescricao")
	if err := c.ShouldBind(&data.Dates); err != nil {
		verr := NewValidationError()
		verr.Set(GeneralErrorKey, "formulário inválido")
		s.renderFailure(c, log, data, verr)
		return
	}

	dates := data.Dates.Dates()
	data.Evaluation = &Evaluation{Dates: newDates(dates), Result: newLimitation(limitation.Evaluate(dates, s.now()))}
	s.render(c, http.StatusOK, data)
}

func (s *Server) analyzeFormAction(c *gin.Context) {
	const op = "web.Server.analyzeFormAction"
	log := s.log.WithField("operation", op)

	data := s.newPageData("/prescricao")
	if !s.analysisEnabled() {
		data.Warning = "Análise de documentos indisponível: chave da API do modelo não configurada."
		s.render(c, http.StatusServiceUnavailable, data)
		return
	}

	pdf, err := readDocument(c)
	if err != nil {
		s.renderFailure(c, log, data, err)
		return
	}
	analysis, err := s.analyzer.Analyze(c.Request.Context(), pdf)
	if err != nil {
		s.renderFailure(c, log, data, err)
		return
	}
	data.Analysis = &analysis
	s.render(c, http.StatusOK, data)
}

func (s *Server) getPhotoAction(c *gin.Context) {
	const op = "web.Server.getPhotoAction"
	log := s.log.WithField("operation", op)

	if s.photos == nil {
		c.Status(http.StatusNotFound)
		return
	}
	name := strings.TrimPrefix(c.Param("name"), "/")
	obj := external.Call(photoService, "get", func() (photo.Object, error) {
		return s.photos.Get(c.Request.Context(), name)
	})
	if !obj.OK() {
		handleError(c, log, obj.Err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400, immutable")
	c.Data(http.StatusOK, obj.Value.ContentType, obj.Value.Data)
}

func (s *Server) notFoundAction(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "rota não encontrada"})
		return
	}
	s.render(c, http.StatusNotFound, s.newPageData(c.Request.URL.Path))
}

func (s *Server) cards(recs []cases.Record, st session.State) []caseCard {
	out := make([]caseCard, 0, len(recs))
	for _, rec := range recs {
		out = append(out, caseCard{Record: rec, Confirmed: st.HasConfirmed(rec.ID), Voted: st.HasVoted(rec.ID)})
	}
	return out
}
