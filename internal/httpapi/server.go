// Package httpapi serves the credential operations over plain HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/config"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/gateway"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/identity"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/log"
)

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	gateway    *gateway.Gateway
	basePath   string
}

func NewServer(cfg *config.Config, gw *gateway.Gateway) *Server {
	if !cfg.DebugEnabled {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.RedirectTrailingSlash = false
	router.Use(RequestID(), Recovery(), AccessLog(), CORS(cfg.CORSAllowedOrigin, cfg.HTTPBasePath))

	s := &Server{
		router:   router,
		gateway:  gw,
		basePath: cfg.HTTPBasePath,
		httpServer: &http.Server{
			Addr:              ":" + cfg.HTTPPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.setupRoutes(cfg.HTTPBasePath)
	return s
}

func (s *Server) setupRoutes(basePath string) {
	group := s.router.Group(basePath)
	for _, r := range gateway.Routes() {
		group.Handle(r.Method, r.Path, s.handleOperation(r))
	}

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.NoRoute(s.fallback)
	s.router.NoMethod(s.fallback)
}

func (s *Server) handleOperation(r gateway.Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.serve(c, r.Path)
	}
}

// fallback hands every request the router did not match to the gateway, so
// 404 and 405 follow the same rules as the lambda adapter.
func (s *Server) fallback(c *gin.Context) {
	rest, ok := gateway.CutBasePath(s.basePath, c.Request.URL.Path)
	if !ok {
		env := gateway.Failure(identity.ErrRouteNotFound)
		c.JSON(env.StatusCode, env)
		return
	}
	s.serve(c, rest)
}

func (s *Server) serve(c *gin.Context, path string) {
	body, err := c.GetRawData()
	if err != nil {
		env := gateway.Failure(&identity.Error{Kind: identity.KindParse, Msg: "invalid request body", Err: err})
		c.JSON(env.StatusCode, env)
		return
	}
	env := s.gateway.Handle(c.Request.Context(), gateway.Invocation{
		Method:        c.Request.Method,
		Path:          path,
		Body:          body,
		Authorization: c.GetHeader("Authorization"),
	})
	c.JSON(env.StatusCode, env)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run() error {
	log.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
