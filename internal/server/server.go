// Package server serves pages through the cleaner: a reverse proxy in
// front of the recipe site, plus a direct clean endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brogergvhs/pagetidy/internal/dom"
	"github.com/brogergvhs/pagetidy/internal/ui"
)

const (
	RoutePrefix  = "/_tidy"
	HeaderMatch  = "X-Tidy-Match"
	HeaderReqID  = "X-Request-ID"
	ctxRequestID = "request_id"
)

type Config struct {
	Listen          string
	Upstream        string
	Debug           bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

type Server struct {
	cfg     Config
	cleaner *dom.Cleaner
	log     *ui.Logger
	stats   *ui.Stats
	router  *gin.Engine
	http    *http.Server
}

// New wires routes and, when cfg.Upstream is set, the cleaning proxy for
// every other path.
func New(cfg Config, cleaner *dom.Cleaner, log *ui.Logger) (*Server, error) {
	cfg.setDefaults()
	if log == nil {
		log = ui.Nop()
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		cleaner: cleaner,
		log:     log,
		stats:   &ui.Stats{},
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(log))

	tidy := router.Group(RoutePrefix)
	tidy.GET("/health", s.health)
	tidy.POST("/clean", s.clean)
	tidy.POST("/dishes", s.dishes)

	if cfg.Upstream != "" {
		proxy, err := s.newProxy(cfg.Upstream)
		if err != nil {
			return nil, err
		}
		router.NoRoute(gin.WrapH(proxy))
	}

	s.router = router
	s.http = &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

func (s *Server) Handler() http.Handler { return s.router }
func (s *Server) Stats() *ui.Stats      { return s.stats }

func (s *Server) newProxy(upstream string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream %q: %w", upstream, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid upstream %q: need scheme and host", upstream)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	direct := proxy.Director
	proxy.Director = func(req *http.Request) {
		direct(req)
		req.Host = target.Host
		// the body must arrive uncompressed to be rewritten
		req.Header.Del("Accept-Encoding")
	}
	proxy.ModifyResponse = s.rewriteResponse
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.log.Errorf("proxy %s %s: %v", r.Method, r.URL.Path, err)
		w.WriteHeader(http.StatusBadGateway)
	}

	return proxy, nil
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s (upstream=%q, locator=%s)", s.cfg.Listen, s.cfg.Upstream, s.cleaner.Locator().Name())
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	return nil
}
