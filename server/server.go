// Package server hosts the HTTP surface: the v1 job API, health, and
// metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/condense/internal/profile"
	"github.com/hrygo/condense/job"
	"github.com/hrygo/condense/observability/metrics"
	apiv1 "github.com/hrygo/condense/server/router/api/v1"
	"github.com/hrygo/condense/summarize"
)

type Server struct {
	Profile *profile.Profile

	echoServer *echo.Echo
}

func NewServer(ctx context.Context, p *profile.Profile, engine *summarize.Engine, store job.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: shortuuid.New,
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		Profile:    p,
		echoServer: e,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	apiService := apiv1.NewAPIV1Service(p, engine, store)
	if err := apiService.RegisterRoutes(ctx, e); err != nil {
		return nil, errors.Wrap(err, "failed to register API v1 routes")
	}

	return s, nil
}

func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	return s.echoServer.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	slog.Info("server stopped properly")
}
