package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/clipcut/internal/pipeline"
)

// BatchRunner is satisfied by *pipeline.Runner.
type BatchRunner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Output, error)
}

type ServerConfig struct {
	Addr string
	// UploadDir receives uploaded media for the duration of a batch.
	UploadDir string
	Runner    BatchRunner
	Logger    zerolog.Logger
	StartTime time.Time
}

type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewRouter(cfg),
			ReadTimeout:  15 * time.Minute,
			WriteTimeout: 0, // batches run inside the request
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
