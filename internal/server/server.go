// Package server exposes the analysis pipeline as an operator form and a
// small JSON API.
package server

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/docs-analyzer/internal/common"
	"github.com/joseph-ayodele/docs-analyzer/internal/export"
	"github.com/joseph-ayodele/docs-analyzer/internal/pipeline"
	"github.com/joseph-ayodele/docs-analyzer/internal/prompts"
)

const requestIDHeader = "X-Request-ID"

// Analyzer runs one document through the pipeline.
type Analyzer interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Server wires the HTTP handlers to the pipeline and the prompt store.
type Server struct {
	logger    *slog.Logger
	settings  *common.Settings
	store     *prompts.Store
	analyzer  Analyzer
	exporter  *export.Service
	uploadDir string
}

func NewServer(logger *slog.Logger, settings *common.Settings, store *prompts.Store, analyzer Analyzer, exporter *export.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	return &Server{
		logger:    logger,
		settings:  settings,
		store:     store,
		analyzer:  analyzer,
		exporter:  exporter,
		uploadDir: settings.Server.UploadDir,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())
	r.SetHTMLTemplate(template.Must(template.New("page").Parse(pageTemplate)))
	r.MaxMultipartMemory = 32 << 20

	r.GET("/", s.Index)
	r.POST("/analyze", s.Analyze)
	r.POST("/analyze/export", s.Export)

	api := r.Group("/api")
	{
		api.GET("/options", s.Options)
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), rid))
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http.request",
			"req_id", common.RequestIDFromContext(c.Request.Context()),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}
