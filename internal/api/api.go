// Package api contains the HTTP API server.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trackloop/trackd/internal/engine"
	"github.com/trackloop/trackd/internal/geo"
	"github.com/trackloop/trackd/internal/handlers"
	trackws "github.com/trackloop/trackd/internal/storage/websocket"
	"github.com/trackloop/trackd/pkg/core"
)

type apiError struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type apiOK struct {
	Status string `json:"status"`
}

type submitFixRequest struct {
	Sentence string `json:"sentence"`
}

type submitMessageRequest struct {
	Message string `json:"message"`
}

// Server is the HTTP API server.
type Server struct {
	Address string
	Service *handlers.Service
	Engine  *engine.Engine
	Track   *geo.Track
	Hub     *trackws.Hub
	Logger  *slog.Logger

	router     *gin.Engine
	httpServer *http.Server
}

// Initialize builds the router and starts listening.
func (s *Server) Initialize() error {
	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.router.Use(gin.Recovery())

	group := s.router.Group("/v1")

	group.POST("/vehicles/:id/fix", s.onSubmitFix)
	group.POST("/vehicles/:id/alert", s.onSubmitAlert)
	group.POST("/vehicles/:id/status", s.onSubmitStatus)

	group.GET("/vehicles", s.onVehiclesList)
	group.GET("/vehicles/:id", s.onVehicleGet)
	group.GET("/track", s.onTrackGet)
	group.GET("/stream", s.onStream)

	if s.Address == "" {
		return nil
	}

	// No WriteTimeout: /v1/stream connections stay open indefinitely.
	s.httpServer = &http.Server{
		Addr:              s.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("API server terminated", "error", err)
		}
	}()

	s.Logger.Info("API listener opened", "address", s.Address)

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close shuts the server down.
func (s *Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.httpServer != nil {
		s.httpServer.Shutdown(ctx)
	}
}

func (s *Server) writeError(ctx *gin.Context, status int, err error) {
	s.Logger.Error("API request failed", "path", ctx.FullPath(), "error", err)
	ctx.JSON(status, &apiError{Status: "error", Error: err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrMissingField), errors.Is(err, core.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnknownVehicle):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) onSubmitFix(ctx *gin.Context) {
	var req submitFixRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.writeError(ctx, http.StatusBadRequest, err)
		return
	}

	rec, err := s.Service.SubmitFix(ctx.Param("id"), req.Sentence)
	if err != nil {
		s.writeError(ctx, errorStatus(err), err)
		return
	}
	if rec == nil {
		// fix resolved to the current canonical position
		ctx.Status(http.StatusNoContent)
		return
	}

	ctx.JSON(http.StatusOK, rec)
}

func (s *Server) onSubmitAlert(ctx *gin.Context) {
	var req submitMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.writeError(ctx, http.StatusBadRequest, err)
		return
	}

	rec, err := s.Service.SubmitAlert(ctx.Param("id"), req.Message)
	if err != nil {
		s.writeError(ctx, errorStatus(err), err)
		return
	}

	ctx.JSON(http.StatusOK, rec)
}

func (s *Server) onSubmitStatus(ctx *gin.Context) {
	var req submitMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.writeError(ctx, http.StatusBadRequest, err)
		return
	}

	rec, err := s.Service.SubmitStatus(ctx.Param("id"), req.Message)
	if err != nil {
		s.writeError(ctx, errorStatus(err), err)
		return
	}

	ctx.JSON(http.StatusOK, rec)
}

func (s *Server) onVehiclesList(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"vehicles": s.Engine.Snapshot()})
}

func (s *Server) onVehicleGet(ctx *gin.Context) {
	id := ctx.Param("id")
	rec, ok := s.Engine.Record(id)
	if !ok {
		err := fmt.Errorf("%w: %q", core.ErrUnknownVehicle, id)
		s.writeError(ctx, errorStatus(err), err)
		return
	}
	ctx.JSON(http.StatusOK, rec)
}

func (s *Server) onTrackGet(ctx *gin.Context) {
	geojson, err := s.Track.Geometry().MarshalJSON()
	if err != nil {
		s.writeError(ctx, http.StatusInternalServerError, err)
		return
	}
	ctx.Data(http.StatusOK, "application/geo+json", geojson)
}

func (s *Server) onStream(ctx *gin.Context) {
	if err := s.Hub.HandleUpgrade(ctx.Writer, ctx.Request); err != nil {
		// HandleUpgrade already wrote the error response
		s.Logger.Error("Stream upgrade failed", "error", err)
	}
}
