// Package scheduler runs background tasks on asynq backed by Redis.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"event_leads_backend/internal/photobooth/repository"
	"event_leads_backend/platform/config"
	"event_leads_backend/platform/logger"
)

// Worker consumes scheduled tasks from the queue.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	repo     repository.GenerationRepository
	staleAge time.Duration
	log      *logger.Logger
}

// NewWorker creates the task worker.
func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		repo:     repository.New(pool),
		staleAge: cfg.GetStaleGenerationAge(),
		log:      log,
	}

	mux.HandleFunc(TaskReapStaleGenerations, w.handleReapStaleGenerations)

	return w, nil
}

func (w *Worker) handleReapStaleGenerations(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseReapStaleGenerationsPayload(task)
	if err != nil {
		return err
	}

	reason := payload.Reason
	if reason == "" {
		reason = "generation interrupted"
	}

	reaped, err := w.repo.ReapStale(ctx, w.staleAge, reason)
	if err != nil {
		return fmt.Errorf("reap stale generations: %w", err)
	}
	if reaped > 0 {
		w.log.Info("reaped stale generations", "count", reaped, "older_than", w.staleAge.String())
	}
	return nil
}

// Run blocks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
