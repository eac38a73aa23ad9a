package app

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/hedmana/chess-analysis-board/app/config"
	"github.com/hedmana/chess-analysis-board/app/engine"
	"github.com/hedmana/chess-analysis-board/app/models"
	"github.com/hedmana/chess-analysis-board/app/search"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Server holds what the handlers share. Engines are not safe for
// concurrent use, so every engine call happens under mu.
type Server struct {
	cfg *config.Config
	log zerolog.Logger

	mu  sync.Mutex
	eng engine.Engine

	jobs  JobStore
	queue QueueClient
}

type Option func(*Server)

// WithJobs enables the batch job endpoints.
func WithJobs(store JobStore, queue QueueClient) Option {
	return func(s *Server) {
		s.jobs = store
		s.queue = queue
	}
}

func NewServer(cfg *config.Config, log zerolog.Logger, eng engine.Engine, opts ...Option) *Server {
	s := &Server{cfg: cfg, log: log, eng: eng}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Chess Engine API running"})
}

// Move answers POST /api/move with the engine's choice, or null when the
// side to move has none.
func (s *Server) Move(c *gin.Context) {
	var req models.PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := s.engineContext(c)
	defer cancel()

	s.mu.Lock()
	best, err := s.eng.BestMove(ctx, req.FEN)
	s.logSearch(req.FEN)
	s.mu.Unlock()

	if err != nil {
		s.log.Warn().Err(err).Str("fen", req.FEN).Msg("best move failed")
		abortDetail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, models.MoveResponse{BestMove: models.MovePtr(best)})
}

func (s *Server) Analyze(c *gin.Context) {
	var req models.PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := s.engineContext(c)
	defer cancel()

	s.mu.Lock()
	analysis, err := s.eng.Analyze(ctx, req.FEN)
	s.logSearch(req.FEN)
	s.mu.Unlock()

	if err != nil {
		s.log.Warn().Err(err).Str("fen", req.FEN).Msg("analysis failed")
		abortDetail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, models.AnalysisResponse(analysis))
}

// CreateJob queues a batch analysis and returns its id straight away.
func (s *Server) CreateJob(c *gin.Context) {
	if s.jobs == nil || s.queue == nil {
		abortDetail(c, http.StatusServiceUnavailable, errJobsDisabled)
		return
	}

	var req models.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusBadRequest, err)
		return
	}
	positions, err := PositionsFromJob(req.FENs, req.PGN)
	if err != nil {
		abortDetail(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	jobID, err := s.jobs.CreateJob(ctx, len(positions))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create job")
		abortDetail(c, http.StatusInternalServerError, errors.New("failed to create job"))
		return
	}

	msg := models.JobMessage{JobID: jobID, FENs: req.FENs, PGN: req.PGN}
	if err := EnqueueJob(ctx, s.queue, s.cfg.QueueURL, msg); err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("failed to enqueue job")
		if err := s.jobs.FinishJob(ctx, jobID, models.JobFailed); err != nil {
			s.log.Warn().Err(err).Str("job_id", jobID).Msg("failed to mark job failed")
		}
		abortDetail(c, http.StatusInternalServerError, errors.New("failed to enqueue job"))
		return
	}

	s.log.Info().Str("job_id", jobID).Int("positions", len(positions)).Msg("job queued")
	c.JSON(http.StatusAccepted, models.JobResponse{JobID: jobID, Positions: len(positions)})
}

func (s *Server) JobStatus(c *gin.Context) {
	if s.jobs == nil {
		abortDetail(c, http.StatusServiceUnavailable, errJobsDisabled)
		return
	}

	js, err := s.jobs.FindJobStatus(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, ErrJobNotFound):
		abortDetail(c, http.StatusNotFound, err)
		return
	case err != nil:
		s.log.Error().Err(err).Str("job_id", c.Param("id")).Msg("failed to load job")
		abortDetail(c, http.StatusInternalServerError, errors.New("failed to load job"))
		return
	}
	c.JSON(http.StatusOK, js)
}

var errJobsDisabled = errors.New("batch jobs are not configured")

func (s *Server) engineContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Engine.Timeout > 0 {
		return context.WithTimeout(c.Request.Context(), s.cfg.Engine.Timeout)
	}
	return context.WithCancel(c.Request.Context())
}

// logSearch reports the counters of the search that just ran, for engines
// that keep them. Callers hold s.mu.
func (s *Server) logSearch(fen string) {
	st, ok := s.eng.(interface{ Stats() search.Stats })
	if !ok {
		return
	}
	stats := st.Stats()
	s.log.Debug().
		Str("fen", fen).
		Int("nodes", stats.Nodes).
		Int("leaves", stats.Leaves).
		Int("cache_hits", stats.CacheHits).
		Int("cutoffs", stats.Cutoffs).
		Msg("search finished")
}

func abortDetail(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Detail: err.Error()})
}
