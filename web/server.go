package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"guarulhosfacil/cases"
	"guarulhosfacil/document"
	"guarulhosfacil/limitation"
	"guarulhosfacil/photo"
	"guarulhosfacil/ratelimit"
	"guarulhosfacil/session"
	"guarulhosfacil/summarizer"
)

//go:embed templates/*.html
var templateFS embed.FS

// CaseService is the case workflow the handlers drive.
type CaseService interface {
	Submit(ctx context.Context, params cases.SubmitParams) (cases.Submission, error)
	List(ctx context.Context, f cases.Filter) ([]cases.Record, error)
	Nearby(ctx context.Context) ([]cases.Record, error)
	Get(ctx context.Context, id string) (cases.Record, error)
	Confirm(ctx context.Context, id string) (int, error)
	VoteResolved(ctx context.Context, id string) error
	Evaluate(ctx context.Context, id string, now time.Time) (cases.Record, limitation.Result, error)
}

// PhotoSource serves stored photos by object name.
type PhotoSource interface {
	Get(ctx context.Context, name string) (photo.Object, error)
}

// Extractor reads text out of PDFs.
type Extractor interface {
	ExtractText(data []byte) ([]string, error)
	ExtractRows(data []byte) ([][]document.Row, error)
}

// Analyzer produces the model-written limitation analysis of a PDF.
type Analyzer interface {
	Enabled() bool
	Analyze(ctx context.Context, pdf []byte) (summarizer.Analysis, error)
}

// Deps are the collaborators of a Server.
type Deps struct {
	Cases          CaseService
	Photos         PhotoSource
	Extractor      Extractor
	Analyzer       Analyzer
	Sessions       *session.Tracker
	Limiter        *ratelimit.Store
	SubmitterSalt  string
	// TrustedProxies may set X-Forwarded-For. Nil trusts no proxy.
	TrustedProxies []string
	Log            *logrus.Entry
	Now            func() time.Time
}

// Server wires the routes to the services.
type Server struct {
	cases     CaseService
	photos    PhotoSource
	extractor Extractor
	analyzer  Analyzer
	sessions  *session.Tracker
	limiter   *ratelimit.Store
	salt      string
	proxies   []string
	log       *logrus.Entry
	now       func() time.Time
	tmpl      *template.Template
}

// NewServer parses the page templates and fills defaults for the optional
// dependencies.
func NewServer(d Deps) (*Server, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	s := &Server{
		cases:     d.Cases,
		photos:    d.Photos,
		extractor: d.Extractor,
		analyzer:  d.Analyzer,
		sessions:  d.Sessions,
		limiter:   d.Limiter,
		salt:      d.SubmitterSalt,
		proxies:   d.TrustedProxies,
		log:       d.Log,
		now:       d.Now,
		tmpl:      tmpl,
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.extractor == nil {
		s.extractor = document.NewExtractor()
	}
	return s, nil
}

// Router builds the gin engine with every route.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = maxDocumentBytes
	if err := router.SetTrustedProxies(s.proxies); err != nil {
		s.log.WithError(err).Warn("invalid trusted proxies, forwarded headers ignored")
		_ = router.SetTrustedProxies(nil)
	}
	router.SetHTMLTemplate(s.tmpl)
	router.Use(gin.Recovery(), RequestLogger(s.log))

	writes := []gin.HandlerFunc{}
	if s.limiter != nil {
		writes = append(writes, ratelimit.Middleware(s.limiter, nil))
	}
	write := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, writes...), h)
	}

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/photos/*name", s.getPhotoAction)

	router.GET("/", s.reportPageAction)
	router.GET("/regiao", s.regionPageAction)
	router.GET("/minhas", s.minePageAction)
	router.GET("/prescricao", s.prescriptionPageAction)
	router.POST("/denuncias", write(s.submitFormAction)...)
	router.POST("/denuncias/:id/confirmar", write(s.confirmFormAction)...)
	router.POST("/denuncias/:id/resolver", write(s.voteFormAction)...)
	router.POST("/prescricao/avaliar", s.evaluateFormAction)
	router.POST("/prescricao/analisar", write(s.analyzeFormAction)...)

	api := router.Group("/api")
	api.GET("/cases", s.listCasesAction)
	api.GET("/cases/nearby", s.nearbyCasesAction)
	api.POST("/cases", write(s.createCaseAction)...)
	api.GET("/cases/:id", s.getCaseAction)
	api.POST("/cases/:id/confirm", write(s.confirmCaseAction)...)
	api.POST("/cases/:id/vote-resolved", write(s.voteCaseAction)...)
	api.GET("/cases/:id/limitation", s.caseLimitationAction)
	api.POST("/limitation/evaluate", s.evaluateAction)
	api.POST("/limitation/batch", s.batchAction)
	api.POST("/documents/text", s.documentTextAction)
	api.POST("/documents/rows", s.documentRowsAction)
	api.POST("/documents/analyze", write(s.documentAnalyzeAction)...)

	router.NoRoute(s.notFoundAction)
	return router
}

// loadSession returns the visitor's session state.
func (s *Server) loadSession(c *gin.Context) session.State {
	return s.sessions.Load(c.Request)
}

func (s *Server) saveSession(c *gin.Context, st session.State, log *logrus.Entry) {
	if err := s.sessions.Save(c.Writer, st); err != nil {
		log.WithError(err).Warn("failed to save session")
	}
}

func (s *Server) analysisEnabled() bool {
	return s.analyzer != nil && s.analyzer.Enabled()
}
