// Package server accepts pipeline runs over HTTP and executes them in the
// background.
package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/forPelevin/clipfeed/internal/pipeline"
	"github.com/forPelevin/clipfeed/internal/services"
	"github.com/forPelevin/clipfeed/internal/types"
)

// ErrShuttingDown is returned by Submit once Shutdown has started.
var ErrShuttingDown = errors.New("server is shutting down")

type Pipeline interface {
	Run(ctx context.Context, req pipeline.Request) (types.RunReport, error)
}

const (
	StateQueued  = "queued"
	StateRunning = "running"
	StateDone    = "done"
	StateFailed  = "failed"
)

type RunStatus struct {
	RunID       string           `json:"runId"`
	State       string           `json:"state"`
	VideoURL    string           `json:"videoUrl"`
	SubmittedAt time.Time        `json:"submittedAt"`
	Report      *types.RunReport `json:"report,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// Runner executes submitted runs with bounded concurrency and keeps the most
// recent finished statuses in memory.
type Runner struct {
	pipe   Pipeline
	sem    chan struct{}
	retain int
	logger zerolog.Logger
	newID  func() string

	mu       sync.Mutex
	statuses map[string]*RunStatus
	finished []string
	closed   bool
	wg       sync.WaitGroup
}

func NewRunner(pipe Pipeline, maxConcurrent, retain int, logger zerolog.Logger) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	if retain <= 0 {
		retain = 50
	}
	return &Runner{
		pipe:     pipe,
		sem:      make(chan struct{}, maxConcurrent),
		retain:   retain,
		logger:   logger.With().Str("component", "runner").Logger(),
		newID:    uuid.NewString,
		statuses: make(map[string]*RunStatus),
	}
}

// Submit returns immediately. The run outlives ctx's cancellation but keeps
// its values.
func (r *Runner) Submit(ctx context.Context, req pipeline.Request) (string, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrShuttingDown
	}
	id := r.newID()
	r.statuses[id] = &RunStatus{RunID: id, State: StateQueued, VideoURL: req.VideoURLOrID, SubmittedAt: time.Now()}
	r.wg.Add(1)
	r.mu.Unlock()

	runCtx := services.WithRunID(context.WithoutCancel(ctx), id)
	go r.execute(runCtx, id, req)
	return id, nil
}

func (r *Runner) execute(ctx context.Context, id string, req pipeline.Request) {
	defer r.wg.Done()
	logger := r.logger.With().Str("run_id", id).Logger()

	r.sem <- struct{}{}
	defer func() { <-r.sem }()

	r.setState(id, func(s *RunStatus) { s.State = StateRunning })
	logger.Info().Str("video", req.VideoURLOrID).Msg("run started")

	report, err := r.pipe.Run(ctx, req)
	r.setState(id, func(s *RunStatus) {
		if err != nil {
			s.State = StateFailed
			s.Error = err.Error()
			return
		}
		s.State = StateDone
		s.Report = &report
	})
	r.markFinished(id)
	if err != nil {
		logger.Error().Err(err).Msg("run failed")
		return
	}
	logger.Info().Int("clips", report.ClipsProcessed).Int("uploaded", report.ClipsUploaded).Msg("run finished")
}

func (r *Runner) setState(id string, fn func(*RunStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.statuses[id]; ok {
		fn(s)
	}
}

// markFinished evicts the oldest finished statuses beyond the retention limit.
func (r *Runner) markFinished(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, id)
	for len(r.finished) > r.retain {
		delete(r.statuses, r.finished[0])
		r.finished = r.finished[1:]
	}
}

// Status returns a copy of the run's current status.
func (r *Runner) Status(id string) (RunStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.statuses[id]
	if !ok {
		return RunStatus{}, false
	}
	return *s, true
}

// Shutdown stops accepting runs and waits for in-flight ones or ctx.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
