package scheduler

import (
	"context"
	"fmt"

	"dialer_backend/internal/campaign/service"
	"dialer_backend/internal/config"
	"dialer_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server       *asynq.Server
	mux          *asynq.ServeMux
	supplemental *service.Supplemental
	log          *logger.Logger
}

func NewWorker(cfg *config.Config, supplemental *service.Supplemental, log *logger.Logger) (*Worker, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(cfg.RedisURL, cfg.RedisTLSInsecure)
	if err != nil {
		return nil, err
	}

	queue := cfg.AsynqQueue
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.AsynqConcurrency
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
		server:       server,
		mux:          mux,
		supplemental: supplemental,
		log:          log,
	}

	mux.HandleFunc(TaskFillMissing, w.handleFillMissing)

	return w, nil
}

func (w *Worker) handleFillMissing(ctx context.Context, task *asynq.Task) error {
	filled, err := w.supplemental.FillMissing(ctx)
	if err != nil {
		return err
	}
	w.log.Info("fill-missing task complete", "cells", filled)
	return nil
}

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
