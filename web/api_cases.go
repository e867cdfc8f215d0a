package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"guarulhosfacil/cases"
	"guarulhosfacil/session"
)

func (s *Server) listCasesAction(c *gin.Context) {
	const op = "web.Server.listCasesAction"
	log := s.log.WithField("operation", op)

	filter := cases.Filter{
		Status:   cases.Status(c.Query("status")),
		Category: c.Query("category"),
	}
	if raw := c.Query("min_confirmations"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			verr := NewValidationError()
			verr.Set("min_confirmations", "número inválido")
			handleError(c, log, verr)
			return
		}
		filter.MinConfirmations = n
	}

	recs, err := s.cases.List(c.Request.Context(), filter)
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": newCases(recs)})
}

func (s *Server) nearbyCasesAction(c *gin.Context) {
	const op = "web.Server.nearbyCasesAction"
	log := s.log.WithField("operation", op)

	recs, err := s.cases.Nearby(c.Request.Context())
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": newCases(recs)})
}

func (s *Server) createCaseAction(c *gin.Context) {
	const op = "web.Server.createCaseAction"
	log := s.log.WithField("operation", op)
	log.Debug("create case")

	params, err := NewReportForm().ParseAndValidate(c)
	if err != nil {
		handleError(c, log, err)
		return
	}

	st := s.loadSession(c)
	params.SubmitterHash = session.SubmitterHash(s.salt, st.ID)

	sub, err := s.cases.Submit(c.Request.Context(), params)
	if err != nil {
		handleError(c, log, err)
		return
	}
	st.AddSubmitted(sub.Record.ID)
	s.saveSession(c, st, log)

	log.WithField("case_id", sub.Record.ID).Info("case submitted")
	c.JSON(http.StatusCreated, gin.H{
		"protocol": sub.Protocol,
		"case":     newCase(sub.Record),
		"message":  submittedMessage,
	})
}

func (s *Server) getCaseAction(c *gin.Context) {
	const op = "web.Server.getCaseAction"
	log := s.log.WithField("operation", op)

	rec, err := s.cases.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, newCase(rec))
}

func (s *Server) confirmCaseAction(c *gin.Context) {
	const op = "web.Server.confirmCaseAction"
	id := c.Param("id")
	log := s.log.WithField("operation", op).WithField("case_id", id)

	st := s.loadSession(c)
	if st.HasConfirmed(id) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: msgAlreadyConfirmed})
		return
	}

	total, err := s.cases.Confirm(c.Request.Context(), id)
	if err != nil {
		handleError(c, log, err)
		return
	}
	st.AddConfirmed(id)
	s.saveSession(c, st, log)

	c.JSON(http.StatusOK, gin.H{"id": id, "confirmations": total})
}

func (s *Server) voteCaseAction(c *gin.Context) {
	const op = "web.Server.voteCaseAction"
	id := c.Param("id")
	log := s.log.WithField("operation", op).WithField("case_id", id)

	st := s.loadSession(c)
	if st.HasVoted(id) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: msgAlreadyVoted})
		return
	}

	if err := s.cases.VoteResolved(c.Request.Context(), id); err != nil {
		handleError(c, log, err)
		return
	}
	st.AddVoted(id)
	s.saveSession(c, st, log)

	c.JSON(http.StatusOK, gin.H{"id": id, "status": string(cases.StatusVotedResolved)})
}

func (s *Server) caseLimitationAction(c *gin.Context) {
	const op = "web.Server.caseLimitationAction"
	log := s.log.WithField("operation", op)

	rec, res, err := s.cases.Evaluate(c.Request.Context(), c.Param("id"), s.now())
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, Evaluation{CaseID: rec.ID, Dates: newDates(rec.Dates), Result: newLimitation(res)})
}
