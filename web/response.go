package web

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"guarulhosfacil/cases"
	"guarulhosfacil/document"
	"guarulhosfacil/external"
	"guarulhosfacil/limitation"
	"guarulhosfacil/photo"
	"guarulhosfacil/summarizer"
)

// GeneralErrorKey holds messages that do not belong to a single field.
const GeneralErrorKey = "general"

// ValidationError is a per-field message map returned with 400.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns an empty ValidationError ready for Set.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Set(field, msg string) { e.Fields[field] = msg }

func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "web: validation failed: " + strings.Join(parts, "; ")
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Messages shown to the visitor for each failure class.
const (
	msgExternal = "Serviço externo indisponível no momento. Tente novamente em instantes."
	msgInternal = "Erro inesperado ao processar a solicitação."
	msgNotFound = "Denúncia não encontrada."
	msgInvalid  = "Dados inválidos."

	msgAlreadyConfirmed = "Você já confirmou esta denúncia."
	msgAlreadyVoted     = "Você já votou nesta denúncia."
	submittedMessage    = "A Ouvidoria de Guarulhos receberá sua denúncia. Prazo: 10 dias úteis."
)

// resolveError maps err to an HTTP status and a visitor-facing body.
func resolveError(err error) (int, ErrorResponse) {
	var (
		verr  *ValidationError
		cverr *cases.ValidationError
		ext   *external.Error
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorResponse{Error: msgInvalid, Fields: verr.Fields}
	case errors.As(err, &cverr):
		return http.StatusBadRequest, ErrorResponse{Error: msgInvalid, Fields: cverr.Fields}
	case errors.Is(err, cases.ErrNotFound), errors.Is(err, photo.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: msgNotFound}
	case errors.Is(err, cases.ErrMissingID), errors.Is(err, photo.ErrInvalidName):
		return http.StatusBadRequest, ErrorResponse{Error: msgInvalid}
	case errors.Is(err, document.ErrEmpty), errors.Is(err, document.ErrNotPDF):
		return http.StatusBadRequest, ErrorResponse{Error: "Envie um arquivo PDF válido."}
	case errors.Is(err, summarizer.ErrNoText):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "O PDF não tem texto extraível (provavelmente é uma imagem digitalizada)."}
	case errors.Is(err, summarizer.ErrDisabled):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "Análise de documentos indisponível: chave da API do modelo não configurada."}
	case errors.Is(err, limitation.ErrMissingColumns):
		return http.StatusBadRequest, ErrorResponse{Error: "O CSV precisa de colunas de data (ex.: registration_date, data_inscricao)."}
	case errors.Is(err, limitation.ErrMalformedCSV):
		return http.StatusBadRequest, ErrorResponse{Error: "CSV inválido: use valores separados por vírgula."}
	case errors.As(err, &ext):
		return http.StatusBadGateway, ErrorResponse{Error: msgExternal + " Detalhe: " + ext.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: msgInternal}
	}
}

// handleError logs err at a level matching its class and writes the JSON body.
func handleError(c *gin.Context, log *logrus.Entry, err error) {
	status, body := resolveError(err)
	entry := log.WithError(err).WithField("status", status)
	switch {
	case status >= http.StatusInternalServerError:
		entry.Error("request failed")
	case status == http.StatusNotFound:
		entry.Debug("request failed")
	default:
		entry.Info("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}
