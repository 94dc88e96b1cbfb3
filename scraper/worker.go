package scraper

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
	"github.com/sodiqardianto/edlink-scrap/common/messaging"
	"github.com/sodiqardianto/edlink-scrap/common/work"
)

const jobConsumerName = "scrape-workers"

// JobWorker consumes queued scrape jobs from JetStream and executes them on a
// bounded worker pool. The pool size caps how many browser processes run at
// once.
type JobWorker struct {
	runner     *Runner
	broker     *messaging.NatsBroker
	pool       *work.WorkerPool[RunResult]
	consumeCtx jetstream.ConsumeContext
}

// NewJobWorker creates a job worker with maxConcurrent parallel runs.
func NewJobWorker(runner *Runner, broker *messaging.NatsBroker, maxConcurrent int) (*JobWorker, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	pool, err := work.NewWorkerPool[RunResult](maxConcurrent, maxConcurrent*2)
	if err != nil {
		return nil, err
	}
	return &JobWorker{
		runner: runner,
		broker: broker,
		pool:   pool,
	}, nil
}

// Start begins consuming scrape jobs. It returns once the consumer is wired;
// jobs execute in the background until Stop is called.
func (w *JobWorker) Start(ctx context.Context) error {
	w.pool.Start(ctx, "scrape-runs")
	go w.drainResults()

	consumer, err := w.broker.CreateConsumer(ctx, messaging.StreamName, jetstream.ConsumerConfig{
		Durable:       jobConsumerName,
		FilterSubject: messaging.SubjectScrapeJobs,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return err
	}

	consumeCtx, err := w.broker.Consume(consumer, func(msg jetstream.Msg) {
		w.handle(ctx, msg)
	})
	if err != nil {
		return err
	}
	w.consumeCtx = consumeCtx

	log.Info().Str("subject", messaging.SubjectScrapeJobs).Msg("Scrape job worker started")
	return nil
}

func (w *JobWorker) handle(ctx context.Context, msg jetstream.Msg) {
	var req messaging.ScrapeRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		log.Error().Err(err).Msg("Dropping malformed scrape job")
		_ = msg.Ack()
		return
	}

	task, err := work.NewTask[RunResult](
		func(taskCtx context.Context) (RunResult, error) {
			return w.runner.Run(taskCtx, RunParams{
				SessionID: req.SessionID,
				Email:     req.Email,
				Password:  req.Password,
				Term:      req.Term,
			})
		},
		work.WithID[RunResult](req.SessionID),
	)
	if err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to build scrape task")
		_ = msg.Nak()
		return
	}

	if err := w.pool.AddTask(ctx, task); err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to queue scrape task")
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
	log.Info().Str("session_id", req.SessionID).Msg("Scrape job queued")
}

func (w *JobWorker) drainResults() {
	for result := range w.pool.Results() {
		if result.IsSuccess() {
			log.Info().
				Str("session_id", result.TaskID).
				Int("courses", result.Result.CoursesCount).
				Msg("Scrape job finished")
		} else {
			log.Error().Err(result.Error).Str("session_id", result.TaskID).Msg("Scrape job failed")
		}
	}
}

// Stop stops consuming and waits for in-flight runs to finish.
func (w *JobWorker) Stop() {
	if w.consumeCtx != nil {
		w.consumeCtx.Stop()
	}
	w.pool.Stop()
}
