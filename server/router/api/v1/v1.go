// Package v1 implements the REST job API: submit a summarization request,
// poll its job, cancel it by deletion.
package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/condense/fault"
	"github.com/hrygo/condense/internal/profile"
	"github.com/hrygo/condense/job"
	"github.com/hrygo/condense/summarize"
)

type APIV1Service struct {
	Profile *profile.Profile
	Engine  *summarize.Engine
	Store   job.Store
}

func NewAPIV1Service(p *profile.Profile, engine *summarize.Engine, store job.Store) *APIV1Service {
	return &APIV1Service{
		Profile: p,
		Engine:  engine,
		Store:   store,
	}
}

// RegisterRoutes attaches the v1 routes to the echo server.
func (s *APIV1Service) RegisterRoutes(_ context.Context, echoServer *echo.Echo) error {
	g := echoServer.Group("/api/v1")
	g.POST("/summarize", s.CreateSummarizeJob)
	g.GET("/jobs/:id", s.GetJob)
	g.DELETE("/jobs/:id", s.DeleteJob)
	return nil
}

type createJobResponse struct {
	JobID string `json:"jobId"`
}

type errorResponse struct {
	Kind    fault.Kind `json:"kind"`
	Message string     `json:"message"`
}

// CreateSummarizeJob accepts a request, validates it synchronously, and
// returns 202 with the job id. Validation failures are 400; everything that
// happens after acceptance is reported through the job record.
func (s *APIV1Service) CreateSummarizeJob(c echo.Context) error {
	req := &summarize.Request{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Kind:    fault.InvalidArgument,
			Message: "malformed request body: " + err.Error(),
		})
	}

	j, err := s.Engine.Submit(req)
	if err != nil {
		return jobError(c, err)
	}
	return c.JSON(http.StatusAccepted, createJobResponse{JobID: j.ID()})
}

// GetJob returns a consistent snapshot of a job.
func (s *APIV1Service) GetJob(c echo.Context) error {
	j, ok := s.Store.Get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{
			Kind:    fault.InvalidArgument,
			Message: "job not found",
		})
	}
	return c.JSON(http.StatusOK, j.Snapshot())
}

// DeleteJob removes a job from the store. Deleting an in-flight job is the
// cancellation signal: the driver discards the outcome when it finds the
// record gone.
func (s *APIV1Service) DeleteJob(c echo.Context) error {
	if _, ok := s.Store.Get(c.Param("id")); !ok {
		return c.JSON(http.StatusNotFound, errorResponse{
			Kind:    fault.InvalidArgument,
			Message: "job not found",
		})
	}
	s.Store.Delete(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func jobError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	var fe *fault.Error
	if errors.As(err, &fe) && fe.Kind == fault.InvalidArgument {
		status = http.StatusBadRequest
	}
	return c.JSON(status, errorResponse{Kind: fault.KindOf(err), Message: err.Error()})
}
