package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/0x5457/corpus-embeddings/internal/constants"
	"github.com/0x5457/corpus-embeddings/internal/encoder"
	"github.com/0x5457/corpus-embeddings/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const (
	msgNotFound         = "Not found"
	msgMethodNotAllowed = "Method not allowed"
)

// Server exposes the encode service over HTTP.
type Server struct {
	echo    *echo.Echo
	svc     *encoder.Service
	addr    string
	log     *zap.Logger
	metrics *metrics.Metrics
	ln      net.Listener
}

func New(svc *encoder.Service, addr string, log *zap.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{svc: svc, addr: addr, log: log, metrics: m}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("HTTP request completed",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	e.Use(s.observe)
	e.Use(middleware.Recover())

	e.Any(constants.EmbedDocumentsPath, s.fallback)
	e.POST(constants.EmbedDocumentsPath, s.handleEmbed)
	e.Any("/*", s.fallback)

	s.echo = e
	return s
}

// Handler returns the HTTP handler without binding a listener.
func (s *Server) Handler() http.Handler { return s.echo }

// Start warms the model, binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	began := time.Now()
	s.log.Info("starting embedding server", zap.String("addr", "http://"+s.addr))
	if err := s.svc.Warmup(ctx); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.echo.Listener = ln
	go func() {
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("embedding server stopped", zap.Error(err))
		}
	}()
	s.log.Info("embedding server started",
		zap.String("addr", "http://"+ln.Addr().String()),
		zap.String("model", s.svc.Label()),
		zap.Duration("took", time.Since(began)),
	)
	return nil
}

// Addr is the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleEmbed(c echo.Context) error {
	req, err := decodeRequest(c.Request().Body)
	if err != nil {
		return err
	}
	res, err := s.svc.EmbedDocuments(c.Request().Context(), req)
	if err != nil {
		return err
	}
	body, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
}

func (s *Server) fallback(c echo.Context) error {
	if c.Request().Method == http.MethodPost {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	return echo.NewHTTPError(http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}
		s.metrics.RecordRequest(c.Path(), c.Response().Status, time.Since(start))
		return nil
	}
}

// handleError writes every failure as plain text. Echo errors keep their
// status; anything else is a bad request.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusBadRequest
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	}
	if status == http.StatusBadRequest {
		s.log.Warn("request failed", zap.String("path", c.Request().URL.Path), zap.Error(err))
	}
	if err := c.String(status, msg); err != nil {
		s.log.Error("write error response", zap.Error(err))
	}
}
