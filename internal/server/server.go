// Package server exposes the HTTP rendering API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/htmlpress/htmlpress"
)

// ServiceName appears in health and restart responses.
const ServiceName = "htmlpress"

// RenderManager is the lifecycle-manager surface the HTTP layer needs.
// Satisfied by *htmlpress.Manager; substituted by fakes in tests.
type RenderManager interface {
	Render(ctx context.Context, spec *htmlpress.ContentSpec) htmlpress.RenderResult
	Status() htmlpress.Status
	ForceRestart()
}

// markdownConverter abstracts the markdown source path for tests.
type markdownConverter interface {
	ToHTML(content string) (string, error)
}

// Server wires the gin routes over a RenderManager.
type Server struct {
	engine   *gin.Engine
	http     *http.Server
	manager  RenderManager
	markdown markdownConverter
	log      *zap.Logger
}

// New builds the engine with middleware and routes. The manager may be nil,
// in which case every status check answers 503.
func New(addr string, manager RenderManager, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(RequestID(), Logger(log), Recovery(log))

	s := &Server{
		engine:   engine,
		manager:  manager,
		markdown: htmlpress.NewMarkdownConverter(),
		log:      log,
		http: &http.Server{
			Addr:        addr,
			Handler:     engine,
			ReadTimeout: 30 * time.Second,
			// The pipeline's per-step deadlines can sum past two minutes on
			// a slow URL render; the write timeout must outlast them.
			WriteTimeout: 3 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleEditor)
	s.engine.POST("/render", s.handleRender)
	s.engine.GET("/render", s.handleRenderStatus)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Run blocks serving requests until Shutdown is called.
func (s *Server) Run() error {
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
